package middleware

import (
	"context"
	"fmt"
	"slices"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/orris-inc/tollgate/internal/application/billing/dto"
	"github.com/orris-inc/tollgate/internal/application/billing/usecases"
	"github.com/orris-inc/tollgate/internal/domain/billing"
	"github.com/orris-inc/tollgate/internal/shared/biztime"
	"github.com/orris-inc/tollgate/internal/shared/constants"
	apperrors "github.com/orris-inc/tollgate/internal/shared/errors"
	"github.com/orris-inc/tollgate/internal/shared/id"
	"github.com/orris-inc/tollgate/internal/shared/logger"
	"github.com/orris-inc/tollgate/internal/shared/utils"
)

const (
	HeaderIdempotencyKey   = "Idempotency-Key"
	HeaderCreditsRemaining = "X-Credits-Remaining"
)

type subscriptionLoader interface {
	Execute(ctx context.Context, userID uint) (*billing.Subscription, error)
}

type creditConsumer interface {
	Execute(ctx context.Context, cmd usecases.ConsumeCreditsCommand) (*dto.ConsumeCreditsDTO, error)
}

// BillingGate guards routes behind a plan or a credit charge. Both gates
// must run after RequireAuth.
type BillingGate struct {
	subs    subscriptionLoader
	credits creditConsumer
	logger  logger.Interface
}

func NewBillingGate(subs subscriptionLoader, credits creditConsumer, logger logger.Interface) *BillingGate {
	return &BillingGate{subs: subs, credits: credits, logger: logger}
}

// RequireSubscription lets the request through only when the user's
// effective plan is one of keys. Lapsed subscriptions count as the default
// plan.
func (g *BillingGate) RequireSubscription(keys ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := CurrentUserID(c)
		if !ok {
			utils.AbortWithError(c, apperrors.NewUnauthorizedError("user not authenticated"))
			return
		}

		sub, err := g.subs.Execute(c.Request.Context(), userID)
		if err != nil {
			g.logger.Errorw("failed to load subscription for gate", "user_id", userID, "error", err)
			utils.AbortWithError(c, err)
			return
		}

		effective := sub.EffectiveKey(biztime.NowUnix())
		if !slices.Contains(keys, effective) {
			g.logger.Infow("subscription gate denied", "user_id", userID, "effective_key", effective, "required", keys)
			utils.AbortWithError(c, apperrors.NewForbiddenError("subscription required", fmt.Sprintf("requires one of %v", keys)))
			return
		}

		c.Next()
	}
}

// ConsumeCredits debits amount before the handler runs and aborts with 402
// when the balance is too low. A client-supplied Idempotency-Key makes
// retries of the same request debit once.
func (g *BillingGate) ConsumeCredits(amount int64, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := CurrentUserID(c)
		if !ok {
			utils.AbortWithError(c, apperrors.NewUnauthorizedError("user not authenticated"))
			return
		}

		reference, err := ConsumeReference(c, userID)
		if err != nil {
			utils.AbortWithError(c, err)
			return
		}

		result, err := g.credits.Execute(c.Request.Context(), usecases.ConsumeCreditsCommand{
			UserID:    userID,
			Amount:    amount,
			Action:    action,
			Reference: reference,
		})
		if err != nil {
			utils.AbortWithError(c, err)
			return
		}

		c.Header(HeaderCreditsRemaining, strconv.FormatInt(result.Balance, 10))
		if !result.Consumed {
			utils.AbortWithError(c, apperrors.NewPaymentRequiredError("insufficient credits",
				fmt.Sprintf("requires %d, balance %d", amount, result.Balance)))
			return
		}

		c.Set(constants.ContextKeyCreditsRemaining, result.Balance)
		c.Next()
	}
}

// ConsumeReference derives the ledger reference for a debit: scoped to the
// user when the client sent an Idempotency-Key, random otherwise.
func ConsumeReference(c *gin.Context, userID uint) (string, error) {
	if key := c.GetHeader(HeaderIdempotencyKey); key != "" {
		if len(key) > 96 {
			return "", apperrors.NewValidationError("idempotency key too long")
		}
		return fmt.Sprintf("idem_%d_%s", userID, key), nil
	}
	return id.NewConsumeReference()
}
