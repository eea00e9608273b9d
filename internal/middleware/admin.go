package middleware

import (
	"net/http"

	"komisi/internal/domain"

	"github.com/gin-gonic/gin"
)

// AdminRequired gates the operator surface (rate configuration, legacy
// mappings, the unprocessed queue, reconciliation) to ADMIN accounts. Must
// run after AuthRequired has populated the role.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := c.Get("role")
		if r, ok := role.(string); !ok || r != domain.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}
		c.Next()
	}
}
