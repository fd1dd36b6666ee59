package middlewares

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	apiContentPolicy = "default-src 'none'; frame-ancestors 'none'"
	// uploaded files may render inline but never run script
	uploadContentPolicy = "default-src 'none'; img-src 'self'; media-src 'self'; frame-ancestors 'none'; sandbox"
)

// SecurityHeaders sets the response security headers. Requests under
// uploadsPrefix get a content policy that still lets browsers show the
// stored image or video; an empty prefix applies the API policy everywhere.
func SecurityHeaders(uploadsPrefix string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Permissions-Policy", "geolocation=(), microphone=(), camera=()")

		if uploadsPrefix != "" && strings.HasPrefix(c.Request.URL.Path, uploadsPrefix+"/") {
			c.Header("Content-Security-Policy", uploadContentPolicy)
		} else {
			c.Header("Content-Security-Policy", apiContentPolicy)
		}

		if c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
