package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newAuthRouter(keys []string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.Use(Auth(keys))
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	return r
}

func TestAuthRejectsMissingKey(t *testing.T) {
	r := newAuthRouter([]string{"booking-app-key"})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "missing X-API-Key header")
}

func TestAuthRejectsWrongKey(t *testing.T) {
	r := newAuthRouter([]string{"booking-app-key"})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-API-Key", "guessed-key")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid API key")
}

func TestAuthAcceptsAnyConfiguredKey(t *testing.T) {
	r := newAuthRouter([]string{"booking-app-key", "admin-dashboard-key"})

	for _, key := range []string{"booking-app-key", "admin-dashboard-key"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("X-API-Key", key)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code, "key %s", key)
		assert.Equal(t, "pong", w.Body.String())
	}
}
