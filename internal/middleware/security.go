package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// publicCatalogMaxAge lets browsers reuse catalog reads briefly; they hold no personal data
const publicCatalogMaxAge = "public, max-age=60"

// SecurityHeaders adds security headers to responses. GET requests under any of
// cacheablePrefixes may be cached; everything else carries applicant data and must not be.
func SecurityHeaders(cacheablePrefixes ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// OWASP requirement: Prevent MIME type sniffing attacks
			c.Response().Header().Set("X-Content-Type-Options", "nosniff")
			c.Response().Header().Set("X-Frame-Options", "DENY")
			c.Response().Header().Set("X-XSS-Protection", "1; mode=block")
			c.Response().Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			c.Response().Header().Set("Content-Security-Policy", "default-src 'self'")
			c.Response().Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			c.Response().Header().Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")

			if c.Request().Method == http.MethodGet && hasAnyPrefix(c.Request().URL.Path, cacheablePrefixes) {
				c.Response().Header().Set("Cache-Control", publicCatalogMaxAge)
				return next(c)
			}

			// applications and documents hold PII
			c.Response().Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, private")
			c.Response().Header().Set("Pragma", "no-cache")
			c.Response().Header().Set("Expires", "0")

			return next(c)
		}
	}
}

func hasAnyPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
