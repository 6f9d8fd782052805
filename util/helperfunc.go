package util

import (
	"net/http"
	"strings"

	"github.com/ariebrainware/patient-intake/logger"
	"github.com/gin-gonic/gin"
)

// APIResponse is the JSON body of every non-list response.
type APIResponse struct {
	Message string      `json:"message"`
	Errors  interface{} `json:"errors,omitempty"`
}

// APIErrorParams describes an error response. Err is logged, never sent to the client.
type APIErrorParams struct {
	Msg    string
	Err    error
	Errors interface{}
}

type APISuccessParams struct {
	Msg string
}

func callError(c *gin.Context, status int, params APIErrorParams) {
	if params.Err != nil {
		l := logger.FromContext(c.Request.Context())
		evt := l.Warn()
		if status >= http.StatusInternalServerError {
			evt = l.Error()
		}
		evt.Err(params.Err).Int("status", status).Msg(params.Msg)
	}
	c.AbortWithStatusJSON(status, APIResponse{
		Message: params.Msg,
		Errors:  params.Errors,
	})
}

// CallUserError is for return error from user side
func CallUserError(c *gin.Context, params APIErrorParams) {
	callError(c, http.StatusBadRequest, params)
}

// CallForbidden is for return API response with status code 403 when the credential is rejected
func CallForbidden(c *gin.Context, params APIErrorParams) {
	callError(c, http.StatusForbidden, params)
}

// CallErrorNotFound is for return API response not found
func CallErrorNotFound(c *gin.Context, params APIErrorParams) {
	callError(c, http.StatusNotFound, params)
}

// CallTooManyRequests is for return API response with status code 429
func CallTooManyRequests(c *gin.Context, params APIErrorParams) {
	callError(c, http.StatusTooManyRequests, params)
}

// CallServerError is for return API response server error
func CallServerError(c *gin.Context, params APIErrorParams) {
	callError(c, http.StatusInternalServerError, params)
}

// CallSuccessOK is for return API response with status code 200 and a confirmation message
func CallSuccessOK(c *gin.Context, params APISuccessParams) {
	c.JSON(http.StatusOK, APIResponse{Message: params.Msg})
}

// NormalizeName normalizes a name by trimming leading/trailing whitespace
// and collapsing multiple internal spaces into single spaces.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}
