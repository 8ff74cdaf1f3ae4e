package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/orris-inc/tollgate/internal/shared/utils"
)

// CheckoutReturnResponse acknowledges a browser returning from hosted checkout.
type CheckoutReturnResponse struct {
	Status    string `json:"status"`
	SessionID string `json:"session_id,omitempty"`
}

// CheckoutHandler serves the return URLs of hosted checkout. Billing state is
// only changed by webhooks, so these pages merely acknowledge the return.
type CheckoutHandler struct{}

func NewCheckoutHandler() *CheckoutHandler {
	return &CheckoutHandler{}
}

// Complete handles GET /checkout/complete
func (h *CheckoutHandler) Complete(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Checkout complete, your account will update shortly", CheckoutReturnResponse{
		Status:    "complete",
		SessionID: c.Query("session_id"),
	})
}

// Cancelled handles GET /checkout/cancelled
func (h *CheckoutHandler) Cancelled(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Checkout cancelled", CheckoutReturnResponse{
		Status: "cancelled",
	})
}
