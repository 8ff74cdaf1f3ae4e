package constants

const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100

	HeaderAuthorization   = "Authorization"
	HeaderXRequestID      = "X-Request-ID"
	HeaderStripeSignature = "Stripe-Signature"

	// gin context keys
	ContextKeyUserID    = "user_id"
	ContextKeyUserSID   = "user_sid"
	ContextKeyRequestID = "request_id"

	// ContextKeyCreditsRemaining is set by the credit gate after a successful debit.
	ContextKeyCreditsRemaining = "credits_remaining"
)
