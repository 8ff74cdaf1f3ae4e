package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/orris-inc/tollgate/internal/application/billing/dto"
	"github.com/orris-inc/tollgate/internal/application/billing/usecases"
	"github.com/orris-inc/tollgate/internal/interfaces/http/middleware"
	"github.com/orris-inc/tollgate/internal/shared/logger"
	"github.com/orris-inc/tollgate/internal/shared/utils"
)

type grantCreditsUseCase interface {
	Execute(ctx context.Context, cmd usecases.GrantCreditsCommand) (*dto.CreditActionDTO, error)
}

type resetSubscriptionUseCase interface {
	Execute(ctx context.Context, userID, adminID uint) error
}

// AdminBillingHandler lets operators inspect and correct any user's billing.
type AdminBillingHandler struct {
	overviewUC getBillingOverviewUseCase
	grantUC    grantCreditsUseCase
	resetUC    resetSubscriptionUseCase
	logger     logger.Interface
}

func NewAdminBillingHandler(
	overviewUC getBillingOverviewUseCase,
	grantUC grantCreditsUseCase,
	resetUC resetSubscriptionUseCase,
	logger logger.Interface,
) *AdminBillingHandler {
	return &AdminBillingHandler{
		overviewUC: overviewUC,
		grantUC:    grantUC,
		resetUC:    resetUC,
		logger:     logger,
	}
}

// GrantCreditsRequest is the body of POST /admin/users/:id/credits.
type GrantCreditsRequest struct {
	Amount int64  `json:"amount" binding:"required,gt=0"`
	Reason string `json:"reason" binding:"required,max=200"`
}

// GetUserBilling handles GET /admin/users/:id/billing
func (h *AdminBillingHandler) GetUserBilling(c *gin.Context) {
	userID, err := utils.ParseUintParam(c, "id", "user")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	overview, err := h.overviewUC.Execute(c.Request.Context(), userID)
	if err != nil {
		h.logger.Errorw("failed to get billing overview", "user_id", userID, "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", overview)
}

// GrantCredits handles POST /admin/users/:id/credits
func (h *AdminBillingHandler) GrantCredits(c *gin.Context) {
	adminID, _ := middleware.CurrentUserID(c)
	userID, err := utils.ParseUintParam(c, "id", "user")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	var req GrantCreditsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for grant credits", "error", err)
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	action, err := h.grantUC.Execute(c.Request.Context(), usecases.GrantCreditsCommand{
		UserID:  userID,
		AdminID: adminID,
		Amount:  req.Amount,
		Reason:  req.Reason,
	})
	if err != nil {
		h.logger.Errorw("failed to grant credits", "user_id", userID, "admin_id", adminID, "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.CreatedResponse(c, action, "Credits granted")
}

// ResetSubscription handles POST /admin/users/:id/subscription/reset
func (h *AdminBillingHandler) ResetSubscription(c *gin.Context) {
	adminID, _ := middleware.CurrentUserID(c)
	userID, err := utils.ParseUintParam(c, "id", "user")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	if err := h.resetUC.Execute(c.Request.Context(), userID, adminID); err != nil {
		h.logger.Errorw("failed to reset subscription", "user_id", userID, "admin_id", adminID, "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Subscription reset to default", nil)
}
