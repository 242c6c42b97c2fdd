package api

import (
	"errors"                            // Error inspection
	"fmt"                               // Error wrapping
	"io"                                // Reading uploads
	"mime/multipart"                    // Multipart file headers
	"net/http"                          // HTTP status codes
	"rental_system/internal/domain"     // Importing domain models
	"rental_system/internal/middleware" // Context keys
	"rental_system/internal/service"    // Rental workflows
	"strconv"                           // String conversion

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/google/uuid"     // UUID identifiers
	"github.com/sirupsen/logrus" // Logrus for structured logging
)

// MaxUploadBytes caps a single uploaded file
const MaxUploadBytes = 5 << 20

// respondError maps domain errors onto HTTP statuses; unexpected errors are logged and hidden
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError // Default for storage and other unexpected failures
	switch {
	case errors.Is(err, domain.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrNotFoundOrForbidden):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrInvalidTransition):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrInvalidLease), errors.Is(err, domain.ErrNoActiveLease):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, domain.ErrGateway):
		status = http.StatusBadGateway
	}
	if status == http.StatusInternalServerError {
		// Log the details, return a generic message
		logrus.WithFields(logrus.Fields{
			"path":  c.FullPath(),
			"error": err.Error(),
		}).Error("Request failed")
		c.JSON(status, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()}) // Domain errors are safe to show
}

// actor builds the caller identity set by the auth middlewares
func actor(c *gin.Context) service.Actor {
	id, _ := c.Get(middleware.UserIDKey) // Set by JWTAuthMiddleware
	role, _ := c.Get(middleware.RoleKey) // Set by RequireRole
	a := service.Actor{}
	a.ID, _ = id.(uuid.UUID)
	a.Role, _ = role.(domain.Role)
	return a
}

// pathID parses a uuid path parameter; malformed ids are reported as not found
func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := domain.ParseID(c.Param(name))
	if err != nil {
		respondError(c, err)
		return uuid.Nil, false
	}
	return id, true
}

// queryInt reads a positive integer query parameter
func queryInt(c *gin.Context, name string, fallback int) int {
	if v, err := strconv.Atoi(c.Query(name)); err == nil && v > 0 {
		return v
	}
	return fallback
}

// readUploads loads multipart files of one form field into memory
func readUploads(c *gin.Context, field string) ([]service.Upload, error) {
	form, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, nil // JSON bodies carry no files
		}
		return nil, fmt.Errorf("%w: malformed multipart body", domain.ErrValidation)
	}
	var uploads []service.Upload
	for _, fh := range form.File[field] {
		u, err := readUpload(fh)
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, u)
	}
	return uploads, nil
}

func readUpload(fh *multipart.FileHeader) (service.Upload, error) {
	if fh.Size > MaxUploadBytes {
		return service.Upload{}, fmt.Errorf("%w: file too large: %s", domain.ErrValidation, fh.Filename)
	}
	f, err := fh.Open()
	if err != nil {
		return service.Upload{}, err
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, MaxUploadBytes))
	if err != nil {
		return service.Upload{}, err
	}
	return service.Upload{Name: fh.Filename, Data: data}, nil
}
