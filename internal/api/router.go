package api

import (
	"rental_system/internal/domain"     // Importing domain models
	"rental_system/internal/middleware" // Auth middlewares
	"rental_system/internal/service"    // Rental workflows

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"gorm.io/gorm"                 // GORM ORM library
)

// RouterConfig carries the HTTP level settings
type RouterConfig struct {
	JWTSecret      string   // Token verification key
	UploadDir      string   // Served under /uploads when set
	TrustedProxies []string // Proxies gin should trust
}

// NewRouter wires every route onto a gin engine
func NewRouter(svc *service.Service, db *gorm.DB, rdb *redis.Client, cfg RouterConfig) (*gin.Engine, error) {
	r := gin.Default() // Gin router instance with logger and recovery

	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, err
	}
	r.MaxMultipartMemory = 4 * MaxUploadBytes // Larger forms spill to disk
	if cfg.UploadDir != "" {
		r.Static("/uploads", cfg.UploadDir) // Property images and avatars; agreements only via the lease routes
	}

	jwt := middleware.JWTAuthMiddleware(cfg.JWTSecret)
	api := r.Group("/api")

	// Public auth routes
	auth := api.Group("/auth")
	auth.POST("/register", RegisterHandler(svc))                   // Registration endpoint
	auth.POST("/login", LoginHandler(svc))                         // Login endpoint
	auth.POST("/forgot-password", ForgotPasswordHandler(svc))      // Reset link endpoint
	auth.POST("/reset-password/:token", ResetPasswordHandler(svc)) // Reset endpoint

	// Any signed in user
	member := api.Group("", jwt, middleware.RequireRole(db))
	member.GET("/auth/me", MeHandler(svc))                              // Current user endpoint
	member.GET("/properties", ListAvailableHandler(svc))                // Available listings
	member.GET("/properties/:id", GetPropertyHandler(svc))              // Single listing
	member.POST("/leases/:id/agreement", GenerateAgreementHandler(svc)) // Render agreement
	member.GET("/leases/:id/agreement", DownloadAgreementHandler(svc))  // Download agreement
	member.GET("/leases/:id/payments", PaymentHistoryHandler(svc))      // Payment history

	// Owners, and admins acting for them
	owner := api.Group("", jwt, middleware.RequireRole(db, domain.RoleOwner, domain.RoleAdmin))
	owner.POST("/auth/avatar", UploadAvatarHandler(svc))           // Avatar upload
	owner.POST("/properties", CreatePropertyHandler(svc))          // Create listing
	owner.PUT("/properties/:id", UpdatePropertyHandler(svc))       // Edit listing
	owner.DELETE("/properties/:id", DeletePropertyHandler(svc))    // Delete listing and settle leases
	owner.POST("/properties/:id/tenant", AssignTenantHandler(svc)) // Assign tenant
	owner.PUT("/leases/:id/status", UpdateLeaseStatusHandler(svc)) // Lease lifecycle
	owner.GET("/owner/properties", ListOwnPropertiesHandler(svc))  // Own listings
	owner.GET("/owner/leases", OwnerLeasesHandler(svc))            // Leases on own listings
	owner.GET("/owner/payments", OwnerPaymentsHandler(svc))        // Payments received

	// Tenants
	tenant := api.Group("", jwt, middleware.RequireRole(db, domain.RoleTenant))
	tenant.POST("/properties/:id/rent", RentPropertyHandler(svc))                  // Self-service rent
	tenant.GET("/leases/current", CurrentLeaseHandler(svc))                        // Current lease
	tenant.POST("/payments", RecordPaymentHandler(svc))                            // Record payment
	tenant.GET("/payments/balance", BalanceHandler(svc))                           // Balance
	tenant.POST("/payments/charges", InitiateChargeHandler(svc))                   // Start card charge
	tenant.POST("/payments/charges/:reference/confirm", ConfirmChargeHandler(svc)) // Confirm card charge

	// Admin routes
	admin := api.Group("/admin", jwt, middleware.RequireRole(db, domain.RoleAdmin))
	admin.GET("/users", ListUsersHandler(svc, rdb))       // List users endpoint
	admin.GET("/payments", ListPaymentsHandler(svc, rdb)) // List payments endpoint

	return r, nil
}
