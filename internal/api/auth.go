package api

import (
	"net/http"                       // HTTP status codes
	"rental_system/internal/domain"  // Importing domain models
	"rental_system/internal/service" // Rental workflows

	"github.com/gin-gonic/gin" // Gin web framework
)

// Request struct for registration
type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`     // Display name must be provided
	Email    string `json:"email" binding:"required"`    // Email must be provided
	Password string `json:"password" binding:"required"` // Password must be provided
	Role     string `json:"role"`                        // owner or tenant, tenant when empty
}

// Request struct for login
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`    // Email must be provided
	Password string `json:"password" binding:"required"` // Password must be provided
}

// Request struct for starting a password reset
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required"` // Account email
}

// Request struct for completing a password reset
type ResetPasswordRequest struct {
	Password string `json:"password" binding:"required"` // New password
}

// Response struct for authentication
type AuthResponse struct {
	Token string       `json:"token"` // JWT token
	User  *domain.User `json:"user"`  // Signed in user
}

// RegisterHandler creates an owner or tenant account
func RegisterHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		// Create the account; validation and duplicate emails come back as domain errors
		user, token, err := svc.Register(c.Request.Context(), service.Registration{
			Name:     req.Name,
			Email:    req.Email,
			Password: req.Password,
			Role:     domain.Role(req.Role),
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, AuthResponse{Token: token, User: user}) // Return the token
	}
}

// LoginHandler authenticates a user and returns a JWT token
func LoginHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		user, token, err := svc.Login(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			// Unknown email and wrong password look the same
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, AuthResponse{Token: token, User: user}) // Return the token
	}
}

// MeHandler returns the caller with their current lease
func MeHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := svc.Me(c.Request.Context(), actor(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

// ForgotPasswordHandler mails a reset link
func ForgotPasswordHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ForgotPasswordRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		if err := svc.ForgotPassword(c.Request.Context(), req.Email); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Password reset email sent"})
	}
}

// ResetPasswordHandler sets a new password using the mailed token
func ResetPasswordHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ResetPasswordRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		if err := svc.ResetPassword(c.Request.Context(), c.Param("token"), req.Password); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Password has been reset"})
	}
}

// UploadAvatarHandler stores the "avatar" file of a multipart request
func UploadAvatarHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		fh, err := c.FormFile("avatar") // Single file field
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "avatar file is required"})
			return
		}
		upload, err := readUpload(fh)
		if err != nil {
			respondError(c, err)
			return
		}
		user, err := svc.UploadAvatar(c.Request.Context(), actor(c), upload)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}
