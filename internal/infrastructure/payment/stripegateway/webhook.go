package stripegateway

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/orris-inc/tollgate/internal/application/payment/paymentgateway"
)

// WebhookVerifier checks the Stripe-Signature header and decodes the event
// object into the neutral types.
type WebhookVerifier struct {
	secret string
}

func NewWebhookVerifier(secret string) *WebhookVerifier {
	return &WebhookVerifier{secret: secret}
}

func (v *WebhookVerifier) ParseWebhook(payload []byte, signature string) (*paymentgateway.Event, error) {
	raw, err := webhook.ConstructEventWithOptions(payload, signature, v.secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		if isSignatureError(err) {
			return nil, fmt.Errorf("%w: %v", paymentgateway.ErrInvalidSignature, err)
		}
		return nil, fmt.Errorf("%w: %v", paymentgateway.ErrInvalidPayload, err)
	}
	if raw.ID == "" || raw.Type == "" {
		return nil, fmt.Errorf("%w: missing event id or type", paymentgateway.ErrInvalidPayload)
	}

	ev := &paymentgateway.Event{
		ID:      raw.ID,
		Type:    string(raw.Type),
		Created: raw.Created,
		Payload: payload,
	}
	if raw.Data == nil || len(raw.Data.Raw) == 0 {
		return ev, nil
	}

	if err := decodeObject(ev, objectType(raw.Data), raw.Data.Raw); err != nil {
		return nil, fmt.Errorf("%w: %v", paymentgateway.ErrInvalidPayload, err)
	}
	return ev, nil
}

func isSignatureError(err error) bool {
	return errors.Is(err, webhook.ErrNoValidSignature) ||
		errors.Is(err, webhook.ErrNotSigned) ||
		errors.Is(err, webhook.ErrInvalidHeader) ||
		errors.Is(err, webhook.ErrTooOld)
}

func objectType(data *stripe.EventData) string {
	if data.Object == nil {
		return ""
	}
	t, _ := data.Object["object"].(string)
	return t
}

func decodeObject(ev *paymentgateway.Event, kind string, raw json.RawMessage) error {
	switch kind {
	case "customer":
		var c stripe.Customer
		if err := json.Unmarshal(raw, &c); err != nil {
			return err
		}
		ev.Customer = toCustomer(&c)
	case "subscription":
		var s stripe.Subscription
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		ev.Subscription = toSubscription(&s)
	case "invoice":
		var inv stripe.Invoice
		if err := json.Unmarshal(raw, &inv); err != nil {
			return err
		}
		ev.Invoice = toInvoice(&inv)
	case "checkout.session":
		var s stripe.CheckoutSession
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		ev.CheckoutSession = toCheckoutSession(&s)
	}
	return nil
}
