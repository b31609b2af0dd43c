package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// LocalAuth guards the loopback facade with a shared secret so only the
// app shell that spawned the sidecar can reach it. With no secret
// configured the guard is disabled.
func LocalAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization"})
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] != secret {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header"})
			return
		}

		c.Next()
	}
}
