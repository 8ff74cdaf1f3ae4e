package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/orris-inc/tollgate/internal/infrastructure/permission"
	"github.com/orris-inc/tollgate/internal/interfaces/http/handlers"
	"github.com/orris-inc/tollgate/internal/interfaces/http/middleware"
)

// AdminRouteConfig holds dependencies for operator routes.
type AdminRouteConfig struct {
	AdminBillingHandler  *handlers.AdminBillingHandler
	AuthMiddleware       *middleware.AuthMiddleware
	PermissionMiddleware *middleware.PermissionMiddleware
}

// SetupAdminRoutes configures /admin. Every route checks a casbin policy on
// the billing resource.
func SetupAdminRoutes(engine *gin.Engine, cfg *AdminRouteConfig) {
	admin := engine.Group("/admin")
	admin.Use(cfg.AuthMiddleware.RequireAuth())

	perm := cfg.PermissionMiddleware
	users := admin.Group("/users/:id")
	{
		users.GET("/billing",
			perm.RequirePermission(permission.ResourceBilling, permission.ActionRead),
			cfg.AdminBillingHandler.GetUserBilling,
		)
		users.POST("/credits",
			perm.RequirePermission(permission.ResourceBilling, permission.ActionGrantCredits),
			cfg.AdminBillingHandler.GrantCredits,
		)
		users.POST("/subscription/reset",
			perm.RequirePermission(permission.ResourceBilling, permission.ActionResetSubscription),
			cfg.AdminBillingHandler.ResetSubscription,
		)
	}
}
