package debugapi

import "github.com/gin-gonic/gin"

// securityHeaders adds the same baseline headers the teacher's
// SecurityHeadersMiddleware sets, since this server is meant to be exposed
// only to trusted operators but still answers to a browser.
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Next()
	}
}
