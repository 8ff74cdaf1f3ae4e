package usecases

import (
	"context"
	"fmt"

	"github.com/orris-inc/tollgate/internal/application/billing/dto"
	"github.com/orris-inc/tollgate/internal/domain/billing"
	"github.com/orris-inc/tollgate/internal/domain/catalog"
	"github.com/orris-inc/tollgate/internal/domain/user"
	"github.com/orris-inc/tollgate/internal/shared/biztime"
	apperrors "github.com/orris-inc/tollgate/internal/shared/errors"
	"github.com/orris-inc/tollgate/internal/shared/logger"
)

type GetBillingOverviewUseCase struct {
	users   user.Repository
	subs    billing.SubscriptionRepository
	catalog *catalog.Catalog
	model   catalog.BillingModel
	logger  logger.Interface
}

func NewGetBillingOverviewUseCase(
	users user.Repository,
	subs billing.SubscriptionRepository,
	cat *catalog.Catalog,
	model catalog.BillingModel,
	logger logger.Interface,
) *GetBillingOverviewUseCase {
	return &GetBillingOverviewUseCase{users: users, subs: subs, catalog: cat, model: model, logger: logger}
}

func (uc *GetBillingOverviewUseCase) Execute(ctx context.Context, userID uint) (*dto.BillingOverviewDTO, error) {
	u, err := uc.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if u == nil {
		return nil, apperrors.NewNotFoundError("user not found")
	}

	sub, err := uc.subs.EnsureExists(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}

	now := biztime.NowUnix()
	return &dto.BillingOverviewDTO{
		BillingModel:   uc.model,
		Subscription:   dto.ToSubscriptionDTO(sub, now),
		EffectivePlan:  EffectivePlan(uc.catalog, sub, now),
		CreditsBalance: u.CreditsBalance(),
		Plans:          uc.catalog.VisiblePlans(),
		CreditPackages: uc.catalog.VisibleCreditPackages(),
	}, nil
}

// EffectivePlan resolves the plan the user is entitled to right now. A plan
// key that has been removed from the catalog falls back to the default plan.
func EffectivePlan(cat *catalog.Catalog, sub *billing.Subscription, now int64) catalog.Plan {
	key := billing.DefaultPlanKey
	if sub != nil {
		key = sub.EffectiveKey(now)
	}
	if p, ok := cat.PlanByKey(key); ok {
		return p
	}
	p, _ := cat.PlanByKey(billing.DefaultPlanKey)
	return p
}
