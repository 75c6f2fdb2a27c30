// Package middleware holds the Gin middleware chain: CORS, centralized
// error handling, and per-IP rate limiting. Grounded on the teacher's
// internal/http/middleware package, generalized from its MDFlow-specific
// header allowlist to this system's plain JSON API surface.
package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/ingresskit/repair/internal/config"
)

// CORS enforces a deny-by-default origin allowlist, matching the teacher's
// internal/http/middleware/cors.go.
func CORS(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		isAllowed := false
		for _, allowed := range cfg.CORSOrigins {
			if allowed == "*" || origin == allowed {
				isAllowed = true
				break
			}
		}

		if isAllowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}
		c.Writer.Header().Set("Vary", "Origin")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
