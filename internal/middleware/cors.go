package middleware

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Browser callers are the booking frontend and the admin dashboard; both
// authenticate with X-API-Key, so that header must survive preflight.
var (
	defaultMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	defaultHeaders = []string{"Origin", "Content-Type", "Accept", "X-API-Key", "X-Request-ID"}
)

// CORS returns a configured CORS middleware. Empty method or header lists
// fall back to what the booking and admin frontends need.
func CORS(origins, methods, headers []string) gin.HandlerFunc {
	if len(methods) == 0 {
		methods = defaultMethods
	}
	if len(headers) == 0 {
		headers = defaultHeaders
	}
	return cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: methods,
		AllowHeaders: headers,
	})
}
