package util

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "trim leading and trailing whitespace", input: "  Asha Rao  ", expected: "Asha Rao"},
		{name: "collapse internal spaces", input: "Asha     Rao", expected: "Asha Rao"},
		{name: "already normalized", input: "Pune", expected: "Pune"},
		{name: "empty string", input: "", expected: ""},
		{name: "only whitespace", input: "   ", expected: ""},
		{name: "tabs and newlines", input: "Asha\t\nRao", expected: "Asha Rao"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeName(tt.input))
		})
	}
}

func runHelper(t *testing.T, fn gin.HandlerFunc) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	fn(c)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestErrorHelpers_StatusAndBody(t *testing.T) {
	cases := []struct {
		name   string
		call   func(*gin.Context, APIErrorParams)
		status int
	}{
		{"user error", CallUserError, http.StatusBadRequest},
		{"forbidden", CallForbidden, http.StatusForbidden},
		{"not found", CallErrorNotFound, http.StatusNotFound},
		{"too many requests", CallTooManyRequests, http.StatusTooManyRequests},
		{"server error", CallServerError, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, body := runHelper(t, func(c *gin.Context) {
				tc.call(c, APIErrorParams{Msg: "nope", Err: errors.New("dial tcp 10.0.0.3:3306: refused")})
			})
			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, "nope", body["message"])
			assert.NotContains(t, w.Body.String(), "10.0.0.3", "internal error text must not leak")
			assert.NotContains(t, body, "errors")
		})
	}
}

func TestCallUserError_WithFieldErrors(t *testing.T) {
	fieldErrors := []map[string]string{{"field": "name", "message": "is required"}}
	w, body := runHelper(t, func(c *gin.Context) {
		CallUserError(c, APIErrorParams{Msg: "Validation failed", Errors: fieldErrors})
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, body, "errors")
	assert.Len(t, body["errors"], 1)
}

func TestCallSuccessOK(t *testing.T) {
	w, body := runHelper(t, func(c *gin.Context) {
		CallSuccessOK(c, APISuccessParams{Msg: "done"})
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]interface{}{"message": "done"}, body)
}
