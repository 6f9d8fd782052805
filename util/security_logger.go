package util

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// SecurityEventType represents different types of security events
type SecurityEventType string

const (
	EventUnauthorizedAccess SecurityEventType = "UNAUTHORIZED_ACCESS"
	EventRateLimitExceeded  SecurityEventType = "RATE_LIMIT_EXCEEDED"
	EventSuspiciousActivity SecurityEventType = "SUSPICIOUS_ACTIVITY"
	EventInsecureRequest    SecurityEventType = "INSECURE_REQUEST"
)

// SecurityEvent represents a security event to be logged
type SecurityEvent struct {
	EventType SecurityEventType
	IP        string
	UserAgent string
	Path      string
	Message   string
	Details   map[string]interface{}
}

var securityLogger = zerolog.New(os.Stdout).With().Timestamp().Str("channel", "security").Logger()

// sanitizeLogValue removes newlines and other characters that could break log parsing
func sanitizeLogValue(value string) string {
	value = strings.ReplaceAll(value, "\n", " ")
	value = strings.ReplaceAll(value, "\r", " ")
	value = strings.ReplaceAll(value, "\t", " ")
	if len(value) > 200 {
		value = value[:200] + "..."
	}
	return value
}

// LogSecurityEvent logs a security event
func LogSecurityEvent(event SecurityEvent) {
	evt := securityLogger.Warn().
		Str("event", sanitizeLogValue(string(event.EventType))).
		Str("ip", sanitizeLogValue(event.IP)).
		Str("user_agent", sanitizeLogValue(event.UserAgent)).
		Str("path", sanitizeLogValue(event.Path))

	if loc := LookupIP(event.IP); loc.Country != "" {
		evt = evt.Str("country", sanitizeLogValue(loc.Country)).Str("city", sanitizeLogValue(loc.City))
	}

	if len(event.Details) > 0 {
		// Only the count: detail values are caller supplied.
		evt = evt.Int("details_count", len(event.Details))
	}

	evt.Msg(sanitizeLogValue(event.Message))
}

// UnauthorizedAccessParams groups the fields of a rejected-credential event.
type UnauthorizedAccessParams struct {
	IP        string
	UserAgent string
	Resource  string
	Reason    string
}

// LogUnauthorizedAccess logs a rejected credential
func LogUnauthorizedAccess(params UnauthorizedAccessParams) {
	LogSecurityEvent(SecurityEvent{
		EventType: EventUnauthorizedAccess,
		IP:        params.IP,
		UserAgent: params.UserAgent,
		Path:      params.Resource,
		Message:   fmt.Sprintf("Unauthorized access to %s: %s", params.Resource, params.Reason),
	})
}

// RateLimitParams groups the fields of a rate-limit event.
type RateLimitParams struct {
	IP       string
	Endpoint string
	Count    int64
}

// LogRateLimitExceeded logs when rate limit is exceeded
func LogRateLimitExceeded(params RateLimitParams) {
	LogSecurityEvent(SecurityEvent{
		EventType: EventRateLimitExceeded,
		IP:        params.IP,
		Path:      params.Endpoint,
		Message:   fmt.Sprintf("Rate limit exceeded for endpoint: %s", params.Endpoint),
		Details:   map[string]interface{}{"count": params.Count},
	})
}

// GetSecurityLoggerForTest returns the current security logger for testing purposes
func GetSecurityLoggerForTest() zerolog.Logger {
	return securityLogger
}

// SetSecurityLoggerForTest sets a custom logger for testing purposes
func SetSecurityLoggerForTest(logger zerolog.Logger) {
	securityLogger = logger
}
