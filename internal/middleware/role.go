package middleware

import (
	"net/http"                      // HTTP status codes
	"rental_system/internal/domain" // Importing domain models

	"github.com/gin-gonic/gin" // Gin web framework
	"gorm.io/gorm"             // GORM ORM library
)

// RequireRole checks the user's role from the database on each request, so a
// demoted or deleted account loses access before its token expires. With no
// roles listed any existing account passes.
func RequireRole(db *gorm.DB, roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get(UserIDKey) // Get userID from context
		// Check if userID exists in context
		if !exists {
			// If not, abort with unauthorized status
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var user domain.User // Fetch user from database
		if err := db.WithContext(c.Request.Context()).Select("id", "role").First(&user, "id = ?", userID).Error; err != nil {
			// Token for an account that no longer exists
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Set(RoleKey, user.Role) // Store the stored role for handlers
		if len(roles) == 0 {
			c.Next() // Any authenticated user
			return
		}
		// Check if the user's role is one of the allowed roles
		for _, r := range roles {
			if user.Role == r {
				c.Next() // Allowed, proceed to the next handler
				return
			}
		}
		// Otherwise abort with forbidden status
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access denied for role " + string(user.Role)})
	}
}
