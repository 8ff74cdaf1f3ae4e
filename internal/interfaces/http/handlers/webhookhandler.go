package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/orris-inc/tollgate/internal/application/billing/webhook"
	"github.com/orris-inc/tollgate/internal/application/payment/paymentgateway"
	"github.com/orris-inc/tollgate/internal/shared/constants"
	"github.com/orris-inc/tollgate/internal/shared/logger"
	"github.com/orris-inc/tollgate/internal/shared/utils"
)

// maxWebhookBodyBytes matches the provider's documented upper bound for
// event payloads.
const maxWebhookBodyBytes = 512 * 1024

type webhookProcessor interface {
	Process(ctx context.Context, payload []byte, signature string) (*webhook.Result, error)
}

// WebhookResponse is the acknowledgement sent back to the provider.
type WebhookResponse struct {
	EventID string `json:"event_id,omitempty"`
	Type    string `json:"type,omitempty"`
	Outcome string `json:"outcome"`
}

type WebhookHandler struct {
	processor webhookProcessor
	logger    logger.Interface
}

func NewWebhookHandler(processor webhookProcessor, logger logger.Interface) *WebhookHandler {
	return &WebhookHandler{processor: processor, logger: logger}
}

// HandleStripe handles POST /webhooks/stripe. Failed handlers still answer
// 200; the event is marked failed and the provider's retry reprocesses it.
func (h *WebhookHandler) HandleStripe(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBodyBytes+1))
	if err != nil {
		h.logger.Warnw("failed to read webhook body", "error", err)
		utils.ErrorResponse(c, http.StatusBadRequest, "failed to read request body")
		return
	}
	if len(payload) > maxWebhookBodyBytes {
		h.logger.Warnw("rejected oversized webhook body", "limit_bytes", maxWebhookBodyBytes)
		utils.ErrorResponse(c, http.StatusBadRequest, "webhook payload too large")
		return
	}

	result, err := h.processor.Process(c.Request.Context(), payload, c.GetHeader(constants.HeaderStripeSignature))
	if err != nil {
		if errors.Is(err, paymentgateway.ErrInvalidSignature) || errors.Is(err, paymentgateway.ErrInvalidPayload) {
			utils.ErrorResponse(c, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Errorw("webhook processing failed", "error", err)
		utils.ErrorResponse(c, http.StatusInternalServerError, "failed to process webhook")
		return
	}

	c.JSON(http.StatusOK, WebhookResponse{
		EventID: result.EventID,
		Type:    result.Type,
		Outcome: string(result.Outcome),
	})
}
