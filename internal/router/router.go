package router

import (
	"net/http"

	"medinotify/internal/common"
	"medinotify/internal/config"
	"medinotify/internal/domain/notification"
	"medinotify/internal/middleware"

	"github.com/gin-gonic/gin"
)

// New creates and configures the Gin router with all middleware and routes.
func New(cfg *config.Config, notificationHandler *notification.Handler) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()

	// Order matters: recovery first, then request identity, then the
	// cross-origin and throttling gates, then access logging.
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.CORS(
		cfg.CORS.AllowedOrigins,
		cfg.CORS.AllowedMethods,
		cfg.CORS.AllowedHeaders,
	))

	ipLimiter := middleware.NewRateLimiter(
		cfg.RateLimit.RequestsPerSecond,
		cfg.RateLimit.Burst,
	)
	r.Use(ipLimiter.Middleware())
	r.Use(gin.Logger())

	// Unauthenticated probe for load balancers and uptime checks.
	r.GET("/health", healthCheck(cfg))

	// Everything else requires a service API key.
	api := r.Group("/api/v1")
	api.Use(middleware.Auth(cfg.Auth.APIKeys))
	notificationHandler.RegisterRoutes(api)

	return r
}

func healthCheck(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		common.Success(c, http.StatusOK, gin.H{
			"status":   "ok",
			"service":  "medinotify",
			"timezone": cfg.Reminder.Timezone,
		})
	}
}
