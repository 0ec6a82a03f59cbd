package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func corsRequest(t *testing.T, allowlist []string, method, origin string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(method, "/api/v1/pages", nil)
	if origin != "" {
		c.Request.Header.Set("Origin", origin)
	}
	CORS(allowlist)(c)
	return rec
}

func TestCORS_EmptyAllowlistOpensAllOrigins(t *testing.T) {
	rec := corsRequest(t, nil, "GET", "http://localhost:5173")
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, corsMethods, rec.Header().Get("Access-Control-Allow-Methods"))
}

func TestCORS_AllowlistedOrigin(t *testing.T) {
	allow := []string{"http://docs.example.com"}

	rec := corsRequest(t, allow, "GET", "http://docs.example.com")
	require.Equal(t, "http://docs.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "Origin", rec.Header().Get("Vary"))

	rec = corsRequest(t, allow, "GET", "http://evil.example.com")
	require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_PreflightShortCircuits(t *testing.T) {
	rec := corsRequest(t, nil, "OPTIONS", "http://localhost:5173")
	require.Equal(t, http.StatusNoContent, rec.Code)
}
