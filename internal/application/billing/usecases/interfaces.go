package usecases

import (
	"errors"

	"github.com/orris-inc/tollgate/internal/application/payment/paymentgateway"
	apperrors "github.com/orris-inc/tollgate/internal/shared/errors"
)

// CreditMetrics counts ledger mutations by direction and outcome.
type CreditMetrics interface {
	CreditMutation(direction, outcome string)
}

type noopCreditMetrics struct{}

func (noopCreditMetrics) CreditMutation(string, string) {}

const (
	OutcomeApplied      = "applied"
	OutcomeDuplicate    = "duplicate"
	OutcomeInsufficient = "insufficient"
	OutcomeError        = "error"
)

// CheckoutURLs are the return URLs handed to the provider's hosted checkout.
type CheckoutURLs struct {
	SuccessURL string
	CancelURL  string
}

// NewCheckoutURLs builds the return URLs from the public base URL. The
// success URL carries the provider's session placeholder.
func NewCheckoutURLs(baseURL, completePath, cancelledPath string) CheckoutURLs {
	return CheckoutURLs{
		SuccessURL: baseURL + completePath + "?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  baseURL + cancelledPath,
	}
}

// gatewayError maps a provider failure onto the HTTP-facing error types.
func gatewayError(action string, err error) error {
	if errors.Is(err, paymentgateway.ErrCircuitOpen) {
		return apperrors.NewUnavailableError("payment provider is temporarily unavailable")
	}
	return apperrors.NewUpstreamError("payment provider request failed", action)
}
