package middleware

import (
	"net/http"

	"github.com/ariebrainware/patient-intake/util"
	"github.com/gin-gonic/gin"
)

// RequireHTTPS redirects requests that reached the proxy over plain HTTP to the same
// URL on https. GET and HEAD get 301; other methods get 308 so the body is resent.
func RequireHTTPS(enabled bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !enabled || c.GetHeader("X-Forwarded-Proto") == "https" || c.Request.TLS != nil {
			c.Next()
			return
		}

		util.LogSecurityEvent(util.SecurityEvent{
			EventType: util.EventInsecureRequest,
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
			Path:      c.Request.URL.Path,
			Message:   "Redirecting plain HTTP request to HTTPS",
		})

		status := http.StatusPermanentRedirect
		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead {
			status = http.StatusMovedPermanently
		}
		c.Redirect(status, "https://"+c.Request.Host+c.Request.URL.RequestURI())
		c.Abort()
	}
}
