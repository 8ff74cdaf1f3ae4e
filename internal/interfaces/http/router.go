package http

import (
	"github.com/gin-gonic/gin"

	"github.com/orris-inc/tollgate/internal/interfaces/http/middleware"
	"github.com/orris-inc/tollgate/internal/interfaces/http/routes"
)

// Router represents the HTTP router configuration
type Router struct {
	*Container
}

// NewRouter wraps a wired container.
func NewRouter(c *Container) *Router {
	return &Router{Container: c}
}

// SetupRoutes configures all HTTP routes
func (r *Router) SetupRoutes() {
	r.engine.Use(middleware.RequestID())
	r.engine.Use(middleware.Recovery(r.log))
	r.engine.Use(middleware.CustomLogger(r.log))
	r.engine.Use(middleware.SecurityHeaders())
	r.engine.Use(middleware.CORS(r.cfg.Server.AllowedOrigins))
	if r.cfg.Metrics.Enabled {
		r.engine.Use(middleware.Metrics(r.metrics))
	}

	public := &routes.PublicRouteConfig{
		HealthHandler:   r.hdlrs.health,
		CheckoutHandler: r.hdlrs.checkout,
		WebhookHandler:  r.hdlrs.webhook,
		UserHandler:     r.hdlrs.user,
		AuthMiddleware:  r.authMiddleware,
	}
	if r.cfg.Metrics.Enabled {
		public.MetricsPath = r.cfg.Metrics.Path
		public.MetricsHandler = r.metrics.Handler()
	}
	routes.SetupPublicRoutes(r.engine, public)

	routes.SetupBillingRoutes(r.engine, &routes.BillingRouteConfig{
		Model:          r.model,
		BillingHandler: r.hdlrs.billing,
		AuthMiddleware: r.authMiddleware,
		CheckoutLimit:  r.checkoutLimit,
	})

	routes.SetupExampleRoutes(r.engine, &routes.ExampleRouteConfig{
		Model:          r.model,
		PremiumPlans:   r.premiumPlans(),
		ExampleHandler: r.hdlrs.example,
		AuthMiddleware: r.authMiddleware,
		BillingGate:    r.billingGate,
	})

	routes.SetupAdminRoutes(r.engine, &routes.AdminRouteConfig{
		AdminBillingHandler:  r.hdlrs.admin,
		AuthMiddleware:       r.authMiddleware,
		PermissionMiddleware: r.permissionMiddleware,
	})

	r.log.Infow("routes configured", "billing_model", r.model, "routes", len(r.engine.Routes()))
}

// GetEngine returns the Gin engine
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
