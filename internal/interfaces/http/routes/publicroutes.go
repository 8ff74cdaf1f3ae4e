package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/orris-inc/tollgate/internal/interfaces/http/handlers"
	"github.com/orris-inc/tollgate/internal/interfaces/http/middleware"
)

// PublicRouteConfig holds dependencies for unauthenticated and account routes.
type PublicRouteConfig struct {
	HealthHandler   *handlers.HealthHandler
	CheckoutHandler *handlers.CheckoutHandler
	WebhookHandler  *handlers.WebhookHandler
	UserHandler     *handlers.UserHandler
	AuthMiddleware  *middleware.AuthMiddleware
	// MetricsPath and MetricsHandler are both empty when metrics are disabled.
	MetricsPath    string
	MetricsHandler http.Handler
}

// SetupPublicRoutes configures health, metrics, webhook intake, checkout
// return pages and /api/me.
func SetupPublicRoutes(engine *gin.Engine, cfg *PublicRouteConfig) {
	engine.GET("/healthz", cfg.HealthHandler.Health)

	if cfg.MetricsHandler != nil && cfg.MetricsPath != "" {
		engine.GET(cfg.MetricsPath, gin.WrapH(cfg.MetricsHandler))
	}

	// Authenticated by the signature header, not a bearer token
	engine.POST("/webhooks/stripe", cfg.WebhookHandler.HandleStripe)

	checkout := engine.Group("/checkout")
	{
		checkout.GET("/complete", cfg.CheckoutHandler.Complete)
		checkout.GET("/cancelled", cfg.CheckoutHandler.Cancelled)
	}

	engine.GET("/api/me", cfg.AuthMiddleware.RequireAuth(), cfg.UserHandler.GetMe)
}
