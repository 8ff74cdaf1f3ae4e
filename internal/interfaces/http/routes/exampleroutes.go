package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/orris-inc/tollgate/internal/domain/catalog"
	"github.com/orris-inc/tollgate/internal/interfaces/http/handlers"
	"github.com/orris-inc/tollgate/internal/interfaces/http/middleware"
)

const (
	// GenerateCreditCost is what one call to the generate demo costs.
	GenerateCreditCost int64 = 1
	GenerateAction           = "example_generate"
)

// ExampleRouteConfig holds dependencies for the gated demo routes.
type ExampleRouteConfig struct {
	Model          catalog.BillingModel
	PremiumPlans   []string
	ExampleHandler *handlers.ExampleHandler
	AuthMiddleware *middleware.AuthMiddleware
	BillingGate    *middleware.BillingGate
}

// SetupExampleRoutes mounts /api/examples, one route per enabled gate.
func SetupExampleRoutes(engine *gin.Engine, cfg *ExampleRouteConfig) {
	if !cfg.Model.Enabled() {
		return
	}

	examples := engine.Group("/api/examples")
	examples.Use(cfg.AuthMiddleware.RequireAuth())
	{
		if cfg.Model.SubscriptionsEnabled() && len(cfg.PremiumPlans) > 0 {
			examples.GET("/premium",
				cfg.BillingGate.RequireSubscription(cfg.PremiumPlans...),
				cfg.ExampleHandler.Premium,
			)
		}
		if cfg.Model.CreditsEnabled() {
			examples.POST("/generate",
				cfg.BillingGate.ConsumeCredits(GenerateCreditCost, GenerateAction),
				cfg.ExampleHandler.Generate,
			)
		}
	}
}
