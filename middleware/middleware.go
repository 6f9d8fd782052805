package middleware

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORSConfig lists the origins allowed to call the API and the credential header
// browsers must be allowed to send.
type CORSConfig struct {
	AllowedOrigins []string
	APIKeyHeader   string
}

// CORSMiddleware configures CORS headers for incoming requests.
func CORSMiddleware(cfg CORSConfig) gin.HandlerFunc {
	corsCfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "X-Requested-With"},
		ExposeHeaders: []string{rateLimitHeader, rateRemainingHeader},
		MaxAge:        24 * time.Hour,
	}
	if cfg.APIKeyHeader != "" {
		corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, cfg.APIKeyHeader)
	}

	if len(cfg.AllowedOrigins) == 0 || containsWildcard(cfg.AllowedOrigins) {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}

	return cors.New(corsCfg)
}

func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
