package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"medinotify/internal/common"

	"github.com/gin-gonic/gin"
)

// Auth returns middleware that validates the X-API-Key header against
// configured keys. This is service-to-service authentication: the booking app
// and admin dashboard call this API with a shared key, not user JWTs.
func Auth(validKeys []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := c.GetHeader("X-API-Key")
		if apiKey == "" {
			reject(c, "missing X-API-Key header")
			return
		}
		if !isValidKey(apiKey, validKeys) {
			reject(c, "invalid API key")
			return
		}
		c.Next()
	}
}

// reject logs the refused request with enough context to trace it from the
// caller's side, then aborts with 401.
func reject(c *gin.Context, reason string) {
	slog.Warn("request rejected",
		"reason", reason,
		"path", c.Request.URL.Path,
		"client_ip", c.ClientIP(),
		"request_id", GetRequestID(c),
	)
	common.Error(c, http.StatusUnauthorized, reason)
	c.Abort()
}

// isValidKey checks the key against every configured key in constant time.
// The scan never exits early, so response timing reveals nothing about which
// key, if any, partially matched.
func isValidKey(key string, validKeys []string) bool {
	match := false
	for _, valid := range validKeys {
		if subtle.ConstantTimeCompare([]byte(key), []byte(valid)) == 1 {
			match = true
		}
	}
	return match
}
