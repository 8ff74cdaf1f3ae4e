package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/orris-inc/tollgate/internal/application/billing/usecases"
	"github.com/orris-inc/tollgate/internal/interfaces/http/middleware"
	"github.com/orris-inc/tollgate/internal/shared/logger"
	"github.com/orris-inc/tollgate/internal/shared/utils"
)

// BillingHandler serves the signed-in user's billing endpoints.
type BillingHandler struct {
	overviewUC     getBillingOverviewUseCase
	subscribeUC    subscribeUseCase
	cancelUC       cancelSubscriptionUseCase
	purchaseUC     purchaseCreditsUseCase
	consumeUC      consumeCreditsUseCase
	listInvoicesUC listInvoicesUseCase
	listActionsUC  listCreditActionsUseCase
	logger         logger.Interface
}

func NewBillingHandler(
	overviewUC getBillingOverviewUseCase,
	subscribeUC subscribeUseCase,
	cancelUC cancelSubscriptionUseCase,
	purchaseUC purchaseCreditsUseCase,
	consumeUC consumeCreditsUseCase,
	listInvoicesUC listInvoicesUseCase,
	listActionsUC listCreditActionsUseCase,
	logger logger.Interface,
) *BillingHandler {
	return &BillingHandler{
		overviewUC:     overviewUC,
		subscribeUC:    subscribeUC,
		cancelUC:       cancelUC,
		purchaseUC:     purchaseUC,
		consumeUC:      consumeUC,
		listInvoicesUC: listInvoicesUC,
		listActionsUC:  listActionsUC,
		logger:         logger,
	}
}

// ConsumeCreditsRequest is the body of POST /billing/credits/consume.
type ConsumeCreditsRequest struct {
	Amount int64  `json:"amount" binding:"required,gt=0"`
	Action string `json:"action" binding:"required,max=255"`
}

// CancelSubscriptionResponse reports whether the provider accepted the cancellation.
type CancelSubscriptionResponse struct {
	Cancelled bool `json:"cancelled"`
}

// GetOverview handles GET /billing
func (h *BillingHandler) GetOverview(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "user not authenticated")
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

// Subscribe handles POST /billing/subscriptions/:key
func (h *BillingHandler) Subscribe(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "user not authenticated")
		return
	}

	planKey := strings.TrimSpace(c.Param("key"))
	if planKey == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "plan key is required")
		return
	}

	checkout, err := h.subscribeUC.Execute(c.Request.Context(), usecases.SubscribeCommand{
		UserID:  userID,
		PlanKey: planKey,
	})
	if err != nil {
		h.logger.Warnw("failed to start subscription checkout", "user_id", userID, "plan_key", planKey, "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.CreatedResponse(c, checkout, "Checkout session created")
}

// CancelSubscription handles POST /billing/subscriptions/cancel. The local
// subscription changes when the provider's update event arrives.
func (h *BillingHandler) CancelSubscription(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "user not authenticated")
		return
	}

	cancelled, err := h.cancelUC.Execute(c.Request.Context(), userID)
	if err != nil {
		h.logger.Errorw("failed to cancel subscription", "user_id", userID, "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	msg := "Subscription will not renew"
	if !cancelled {
		msg = "Subscription cannot be cancelled"
	}
	utils.SuccessResponse(c, http.StatusOK, msg, CancelSubscriptionResponse{Cancelled: cancelled})
}

// PurchaseCredits handles POST /billing/credits/packages/:key
func (h *BillingHandler) PurchaseCredits(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "user not authenticated")
		return
	}

	packageKey := strings.TrimSpace(c.Param("key"))
	if packageKey == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "package key is required")
		return
	}

	checkout, err := h.purchaseUC.Execute(c.Request.Context(), usecases.PurchaseCreditsCommand{
		UserID:     userID,
		PackageKey: packageKey,
	})
	if err != nil {
		h.logger.Warnw("failed to start credit checkout", "user_id", userID, "package_key", packageKey, "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.CreatedResponse(c, checkout, "Checkout session created")
}

// ConsumeCredits handles POST /billing/credits/consume. An insufficient
// balance is not an error here: the result reports consumed=false. The
// Idempotency-Key header works as it does for gated routes.
func (h *BillingHandler) ConsumeCredits(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "user not authenticated")
		return
	}

	var req ConsumeCreditsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for consume credits", "error", err)
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	reference, err := middleware.ConsumeReference(c, userID)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	result, err := h.consumeUC.Execute(c.Request.Context(), usecases.ConsumeCreditsCommand{
		UserID:    userID,
		Amount:    req.Amount,
		Action:    req.Action,
		Reference: reference,
	})
	if err != nil {
		h.logger.Warnw("failed to consume credits", "user_id", userID, "amount", req.Amount, "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	c.Header(middleware.HeaderCreditsRemaining, strconv.FormatInt(result.Balance, 10))
	utils.SuccessResponse(c, http.StatusOK, "", result)
}

// ListInvoices handles GET /billing/invoices
func (h *BillingHandler) ListInvoices(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "user not authenticated")
		return
	}

	p := utils.ParsePagination(c)
	result, err := h.listInvoicesUC.Execute(c.Request.Context(), userID, p.Page, p.PageSize)
	if err != nil {
		h.logger.Errorw("failed to list invoices", "user_id", userID, "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.ListSuccessResponse(c, result.Items, result.Total, result.Page, result.PageSize)
}

// ListCreditActions handles GET /billing/credits/actions
func (h *BillingHandler) ListCreditActions(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "user not authenticated")
		return
	}

	p := utils.ParsePagination(c)
	result, err := h.listActionsUC.Execute(c.Request.Context(), userID, p.Page, p.PageSize)
	if err != nil {
		h.logger.Errorw("failed to list credit actions", "user_id", userID, "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.ListSuccessResponse(c, result.Items, result.Total, result.Page, result.PageSize)
}
