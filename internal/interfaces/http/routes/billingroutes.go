package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/orris-inc/tollgate/internal/domain/catalog"
	"github.com/orris-inc/tollgate/internal/interfaces/http/handlers"
	"github.com/orris-inc/tollgate/internal/interfaces/http/middleware"
)

// BillingRouteConfig holds dependencies for the signed-in user's billing routes.
type BillingRouteConfig struct {
	Model          catalog.BillingModel
	BillingHandler *handlers.BillingHandler
	AuthMiddleware *middleware.AuthMiddleware
	// CheckoutLimit, when set, runs before every route that opens a
	// checkout session.
	CheckoutLimit gin.HandlerFunc
}

// SetupBillingRoutes mounts /billing. Subscription routes need the
// subscriptions or both model, credit routes credits or both; with the none
// model nothing is mounted.
func SetupBillingRoutes(engine *gin.Engine, cfg *BillingRouteConfig) {
	if !cfg.Model.Enabled() {
		return
	}

	checkout := []gin.HandlerFunc{}
	if cfg.CheckoutLimit != nil {
		checkout = append(checkout, cfg.CheckoutLimit)
	}

	billing := engine.Group("/billing")
	billing.Use(cfg.AuthMiddleware.RequireAuth())
	{
		billing.GET("", cfg.BillingHandler.GetOverview)
		billing.GET("/invoices", cfg.BillingHandler.ListInvoices)

		if cfg.Model.SubscriptionsEnabled() {
			// Static segment wins over :key
			billing.POST("/subscriptions/cancel", cfg.BillingHandler.CancelSubscription)
			billing.POST("/subscriptions/:key", append(checkout, cfg.BillingHandler.Subscribe)...)
		}

		if cfg.Model.CreditsEnabled() {
			billing.POST("/credits/packages/:key", append(checkout, cfg.BillingHandler.PurchaseCredits)...)
			billing.POST("/credits/consume", cfg.BillingHandler.ConsumeCredits)
			billing.GET("/credits/actions", cfg.BillingHandler.ListCreditActions)
		}
	}
}
