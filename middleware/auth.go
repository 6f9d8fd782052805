package middleware

import (
	"errors"
	"net/textproto"

	"github.com/ariebrainware/patient-intake/auth"
	"github.com/ariebrainware/patient-intake/util"
	"github.com/gin-gonic/gin"
)

const unauthorizedMsg = "❌ Unauthorized - Invalid API Key"

// RequireAPIKey rejects the request with 403 unless the credential in header is
// accepted by a. Rejected requests never reach the handler.
func RequireAPIKey(a *auth.Authenticator, header string) gin.HandlerFunc {
	key := textproto.CanonicalMIMEHeaderKey(header)
	return func(c *gin.Context) {
		values, present := c.Request.Header[key]
		credential := ""
		if present && len(values) > 0 {
			credential = values[0]
		}

		if err := a.Authenticate(credential, present); err != nil {
			reason := "invalid credential"
			if errors.Is(err, auth.ErrMissingCredential) {
				reason = "missing credential"
			} else if errors.Is(err, auth.ErrNoSecret) {
				reason = "no secret configured"
			}
			util.LogUnauthorizedAccess(util.UnauthorizedAccessParams{
				IP:        c.ClientIP(),
				UserAgent: c.Request.UserAgent(),
				Resource:  c.Request.URL.Path,
				Reason:    reason,
			})
			util.CallForbidden(c, util.APIErrorParams{Msg: unauthorizedMsg, Err: err})
			return
		}

		c.Next()
	}
}
