package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORS returns a CORS middleware for the storefront.
//
// The API only serves GET and POST, so those are the only methods
// granted. Rate-limit headers are exposed so the storefront can back
// off before hitting 429s. With a concrete origin allow-list the
// browser may send credentials; the wildcard fallback (no origins
// configured) cannot, per the fetch spec.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders: []string{
			"Content-Length",
			"X-Request-ID",
			RateLimitLimit,
			RateLimitRemaining,
			RetryAfter,
		},
		MaxAge: 12 * time.Hour,
	}

	if len(allowedOrigins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = allowedOrigins
		cfg.AllowCredentials = true
	}

	return cors.New(cfg)
}
