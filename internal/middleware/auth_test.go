package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ad-tracker/trendmeter/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newProtectedRouter(auth *APIKeyAuth) *gin.Engine {
	r := gin.New()
	r.Use(auth.Middleware())
	r.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, "success")
	})
	return r
}

func TestNewAPIKeyAuth(t *testing.T) {
	t.Parallel()

	t.Run("creates auth with valid keys", func(t *testing.T) {
		t.Parallel()

		auth := NewAPIKeyAuth([]string{"key1", "key2", "key3"}, nil)

		require.NotNil(t, auth)
		assert.Len(t, auth.apiKeys, 3)
		assert.True(t, auth.apiKeys["key2"])
		assert.True(t, auth.Enabled())
	})

	t.Run("filters out empty keys", func(t *testing.T) {
		t.Parallel()

		auth := NewAPIKeyAuth([]string{"key1", "", "key2", ""}, nil)

		assert.Len(t, auth.apiKeys, 2)
	})

	t.Run("no keys means disabled", func(t *testing.T) {
		t.Parallel()

		auth := NewAPIKeyAuth(nil, nil)

		assert.False(t, auth.Enabled())
	})

	t.Run("uses provided logger", func(t *testing.T) {
		t.Parallel()

		log := zap.NewNop()
		auth := NewAPIKeyAuth([]string{"key1"}, log)

		assert.Equal(t, log, auth.logger)
	})
}

func TestAPIKeyAuth_Middleware(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		headerName string
		headerVal  string
		validKeys  []string
		wantStatus int
	}{
		{"valid X-API-Key header", headerAPIKey, "valid-key-123", []string{"valid-key-123"}, http.StatusOK},
		{"valid Authorization Bearer header", headerAuth, "Bearer valid-key-456", []string{"valid-key-456"}, http.StatusOK},
		{"matches one of multiple valid keys", headerAPIKey, "key2", []string{"key1", "key2", "key3"}, http.StatusOK},
		{"missing API key", "", "", []string{"valid-key"}, http.StatusUnauthorized},
		{"invalid API key", headerAPIKey, "invalid-key", []string{"valid-key"}, http.StatusUnauthorized},
		{"invalid bearer token", headerAuth, "Bearer invalid-key", []string{"valid-key"}, http.StatusUnauthorized},
		{"no valid keys configured", headerAPIKey, "any-key", nil, http.StatusUnauthorized},
		{"Authorization without Bearer", headerAuth, "valid-key", []string{"valid-key"}, http.StatusUnauthorized},
		{"case sensitive mismatch", headerAPIKey, "Valid-Key", []string{"valid-key"}, http.StatusUnauthorized},
		{"partial key match", headerAPIKey, "valid", []string{"valid-key"}, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := newProtectedRouter(NewAPIKeyAuth(tt.validKeys, zap.NewNop()))

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.headerName != "" {
				req.Header.Set(tt.headerName, tt.headerVal)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, "success", rec.Body.String())
				return
			}

			var resp models.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, unauthorizedError, resp.Error)
			assert.Equal(t, http.StatusUnauthorized, resp.Status)
			assert.Equal(t, "/test", resp.Path)
		})
	}
}

func TestAPIKeyAuth_ExtractAPIKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		headers  map[string]string
		expected string
	}{
		{"X-API-Key header", map[string]string{headerAPIKey: "my-api-key"}, "my-api-key"},
		{"Authorization Bearer header", map[string]string{headerAuth: "Bearer my-bearer-token"}, "my-bearer-token"},
		{"prefers X-API-Key", map[string]string{headerAPIKey: "api-key", headerAuth: "Bearer bearer-token"}, "api-key"},
		{"missing headers", map[string]string{}, ""},
		{"basic auth ignored", map[string]string{headerAuth: "Basic username:password"}, ""},
		{"Bearer with empty token", map[string]string{headerAuth: "Bearer "}, ""},
		{"preserves spaces after prefix", map[string]string{headerAuth: "Bearer  token  "}, " token  "},
	}

	auth := NewAPIKeyAuth([]string{"test-key"}, zap.NewNop())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}

			assert.Equal(t, tt.expected, auth.extractAPIKey(req))
		})
	}
}

func TestAPIKeyAuth_IsValidAPIKey(t *testing.T) {
	t.Parallel()

	auth := NewAPIKeyAuth([]string{"key1", "key2", "very-long-key-123456789"}, zap.NewNop())

	assert.True(t, auth.isValidAPIKey("key1"))
	assert.True(t, auth.isValidAPIKey("very-long-key-123456789"))
	assert.False(t, auth.isValidAPIKey(""))
	assert.False(t, auth.isValidAPIKey("KEY1"))
	assert.False(t, auth.isValidAPIKey("key"))
	assert.False(t, auth.isValidAPIKey("key1-extra"))
}
