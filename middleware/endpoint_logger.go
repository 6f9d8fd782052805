package middleware

import (
	"time"

	"github.com/ariebrainware/patient-intake/logger"
	"github.com/gin-gonic/gin"
)

// EndpointCallLogger attaches a request-scoped logger to the request context and logs
// every request once it has been handled.
func EndpointCallLogger(base *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		reqLogger := &logger.Logger{Logger: base.With().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("ip", c.ClientIP()).
			Logger()}
		c.Request = c.Request.WithContext(reqLogger.WithContext(c.Request.Context()))

		c.Next()

		status := c.Writer.Status()
		evt := reqLogger.Info()
		if status >= 500 {
			evt = reqLogger.Error()
		} else if status >= 400 {
			evt = reqLogger.Warn()
		}
		evt.Int("status", status).
			Dur("duration", time.Since(start)).
			Str("route", c.FullPath()).
			Str("user_agent", c.Request.UserAgent()).
			Msg("request handled")
	}
}
