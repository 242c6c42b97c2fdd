package api

import (
	"net/http"                       // HTTP status codes
	"rental_system/internal/domain"  // Importing domain models
	"rental_system/internal/service" // Rental workflows
	"rental_system/internal/utils"   // Utility functions
	"strconv"                        // String conversion
	"strings"                        // String manipulation

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/google/uuid"       // UUID identifiers
	"github.com/redis/go-redis/v9" // Redis client
)

// UserPage is one page of the admin user listing
type UserPage struct {
	Users      []domain.User `json:"users"`       // List of users
	Page       int           `json:"page"`        // Current page
	PageSize   int           `json:"page_size"`   // Page size
	Total      int64         `json:"total"`       // Total number of users
	TotalPages int           `json:"total_pages"` // Total pages
	Cached     bool          `json:"cached"`      // Served from cache
}

// PaymentPage is one page of the admin payment listing
type PaymentPage struct {
	Payments   []domain.Payment `json:"payments"`    // List of payments
	Page       int              `json:"page"`        // Current page
	PageSize   int              `json:"page_size"`   // Page size
	Total      int64            `json:"total"`       // Total number of payments
	TotalPages int              `json:"total_pages"` // Total pages
	Cached     bool             `json:"cached"`      // Served from cache
}

// paging reads page and page_size the way every admin listing does
func paging(c *gin.Context) (int, int) {
	page := queryInt(c, "page", 1)           // Default page number
	pageSize := queryInt(c, "page_size", 20) // Default page size
	if pageSize > 100 {
		pageSize = 20 // Out of range, back to default
	}
	return page, pageSize
}

// totalPages rounds up
func totalPages(total int64, pageSize int) int {
	return (int(total) + pageSize - 1) / pageSize
}

// ListUsersHandler returns all users, paginated and cached
func ListUsersHandler(svc *service.Service, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		page, pageSize := paging(c)
		// Create a cache key based on pagination parameters
		cacheKey := utils.AdminUsersPrefix + "page=" + strconv.Itoa(page) + ":size=" + strconv.Itoa(pageSize)
		var cached UserPage
		// If cached data found, return it
		if found, err := utils.GetCache(ctx, rdb, cacheKey, &cached); err == nil && found {
			cached.Cached = true // Indicate response is from cache
			c.JSON(http.StatusOK, cached)
			return
		}
		users, total, err := svc.ListUsers(ctx, page, pageSize)
		if err != nil {
			respondError(c, err)
			return
		}
		resp := UserPage{
			Users:      users,                       // List of users
			Page:       page,                        // Current page
			PageSize:   pageSize,                    // Page size
			Total:      total,                       // Total number of users
			TotalPages: totalPages(total, pageSize), // Total pages
		}
		// Cache the response for future requests
		_ = utils.SetCache(ctx, rdb, cacheKey, resp, utils.CacheTTL)
		c.JSON(http.StatusOK, resp) // Return the response
	}
}

// ListPaymentsHandler returns all payments, with optional filtering by tenant or status
func ListPaymentsHandler(svc *service.Service, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		page, pageSize := paging(c)
		filter := service.PaymentFilter{Page: page, Limit: pageSize}
		if raw := c.Query("tenant_id"); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tenant_id"})
				return
			}
			filter.TenantID = &id // Filter by tenant
		}
		if status := c.Query("status"); status != "" {
			filter.Status = domain.PaymentStatus(status) // Filter by payment status
		}

		// Build cache key from all query params
		var keyParts []string // Parts of the cache key
		for _, k := range []string{"tenant_id", "status"} {
			keyParts = append(keyParts, k+"="+c.Query(k)) // Append key-value pair
		}
		keyParts = append(keyParts, "page="+strconv.Itoa(page), "size="+strconv.Itoa(pageSize))
		cacheKey := utils.AdminPaymentsPrefix + strings.Join(keyParts, ":")

		var cached PaymentPage
		// If cached data found, return it
		if found, err := utils.GetCache(ctx, rdb, cacheKey, &cached); err == nil && found {
			cached.Cached = true // Indicate response is from cache
			c.JSON(http.StatusOK, cached)
			return
		}
		payments, total, err := svc.ListPayments(ctx, filter)
		if err != nil {
			respondError(c, err)
			return
		}
		resp := PaymentPage{
			Payments:   payments,                    // List of payments
			Page:       page,                        // Current page
			PageSize:   pageSize,                    // Page size
			Total:      total,                       // Total number of payments
			TotalPages: totalPages(total, pageSize), // Total pages
		}
		// Cache the response for future requests
		_ = utils.SetCache(ctx, rdb, cacheKey, resp, utils.CacheTTL)
		c.JSON(http.StatusOK, resp) // Return the response
	}
}
