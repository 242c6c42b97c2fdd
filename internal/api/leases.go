package api

import (
	"net/http"                       // HTTP status codes
	"path/filepath"                  // Attachment names
	"rental_system/internal/domain"  // Importing domain models
	"rental_system/internal/service" // Rental workflows

	"github.com/gin-gonic/gin" // Gin web framework
)

// AssignTenantRequest names the tenant to bind to a property
type AssignTenantRequest struct {
	Email string `json:"email" binding:"required"` // Tenant email, provisioned when unknown
}

// UpdateStatusRequest moves a lease to a new status
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"` // pending, active, completed or terminated
	Reason string `json:"reason"`                    // Recorded on termination
}

// AssignTenantHandler lets an owner bind a tenant to one of their properties
func AssignTenantHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		var req AssignTenantRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		tenant, lease, err := svc.AssignTenant(c.Request.Context(), actor(c), id, req.Email)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"tenant": tenant, "lease": lease})
	}
}

// RentPropertyHandler lets a tenant rent an available property
func RentPropertyHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		lease, err := svc.RentProperty(c.Request.Context(), actor(c), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, lease)
	}
}

// UpdateLeaseStatusHandler moves a lease through its lifecycle
func UpdateLeaseStatusHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		var req UpdateStatusRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		lease, err := svc.UpdateLeaseStatus(c.Request.Context(), actor(c), id, domain.LeaseStatus(req.Status), req.Reason)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, lease)
	}
}

// CurrentLeaseHandler returns the caller's open lease
func CurrentLeaseHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		lease, err := svc.CurrentLease(c.Request.Context(), actor(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, lease)
	}
}

// OwnerLeasesHandler lists leases on the caller's properties
func OwnerLeasesHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		leases, err := svc.LeasesForOwner(c.Request.Context(), actor(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, leases)
	}
}

// GenerateAgreementHandler renders the lease agreement document
func GenerateAgreementHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		if _, err := svc.GenerateAgreement(c.Request.Context(), actor(c), id); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{
			"message":  "Lease agreement generated",
			"download": c.Request.URL.Path, // Same path, GET
		})
	}
}

// DownloadAgreementHandler streams a previously generated agreement
func DownloadAgreementHandler(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		path, err := svc.FetchAgreement(c.Request.Context(), actor(c), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.FileAttachment(path, filepath.Base(path)) // Served as a download
	}
}
