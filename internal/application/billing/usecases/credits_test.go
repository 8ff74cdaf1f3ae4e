package usecases

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orris-inc/tollgate/internal/domain/billing"
	"github.com/orris-inc/tollgate/internal/domain/user"
	apperrors "github.com/orris-inc/tollgate/internal/shared/errors"
	"github.com/orris-inc/tollgate/internal/shared/logger"
)

func TestAddCreditsUseCase_Execute(t *testing.T) {
	tests := []struct {
		name        string
		amount      int64
		ledgerErr   error
		wantMetric  string
		wantErrType apperrors.ErrorType
		wantRawErr  error
	}{
		{name: "applied", amount: 100, wantMetric: "credit:applied"},
		{name: "duplicate reference", amount: 100, ledgerErr: billing.ErrDuplicateCreditReference,
			wantMetric: "credit:duplicate", wantRawErr: billing.ErrDuplicateCreditReference},
		{name: "unknown user", amount: 100, ledgerErr: billing.ErrUserNotFound,
			wantMetric: "credit:error", wantErrType: apperrors.ErrorTypeNotFound},
		{name: "non-positive amount", amount: 0, wantErrType: apperrors.ErrorTypeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			metrics := &recordingMetrics{}
			ledger := &mockCreditLedger{
				AddCreditsFunc: func(ctx context.Context, userID uint, amount int64, reason, reference string) (*billing.CreditAction, error) {
					if tt.ledgerErr != nil {
						return nil, tt.ledgerErr
					}
					return billing.NewCreditAction(userID, billing.DirectionCredit, amount, 50, reason, reference)
				},
			}
			uc := NewAddCreditsUseCase(ledger, metrics, logger.NewNopLogger())

			action, err := uc.Execute(context.Background(), AddCreditsCommand{
				UserID: 1, Amount: tt.amount, Reason: "Bought 100 credits", Reference: "evt_1",
			})

			switch {
			case tt.wantRawErr != nil:
				assert.ErrorIs(t, err, tt.wantRawErr)
			case tt.wantErrType != "":
				appErr := apperrors.GetAppError(err)
				require.NotNil(t, appErr)
				assert.Equal(t, tt.wantErrType, appErr.Type)
			default:
				require.NoError(t, err)
				assert.Equal(t, int64(150), action.CreditsAfter())
			}

			if tt.wantMetric != "" {
				assert.Equal(t, []string{tt.wantMetric}, metrics.calls)
			} else {
				assert.Empty(t, metrics.calls)
			}
		})
	}
}

func TestConsumeCreditsUseCase_Execute_Consumed(t *testing.T) {
	ledger := &mockCreditLedger{
		ConsumeCreditsFunc: func(ctx context.Context, userID uint, amount int64, action, reference string) (*billing.CreditAction, bool, error) {
			ca, err := billing.NewCreditAction(userID, billing.DirectionDebit, amount, 10, action, reference)
			return ca, true, err
		},
	}
	uc := NewConsumeCreditsUseCase(ledger, &mockUserRepository{}, nil, logger.NewNopLogger())

	result, err := uc.Execute(context.Background(), ConsumeCreditsCommand{UserID: 1, Amount: 4, Action: "export"})

	require.NoError(t, err)
	assert.True(t, result.Consumed)
	assert.Equal(t, int64(6), result.Balance)
}

func TestConsumeCreditsUseCase_Execute_Insufficient(t *testing.T) {
	metrics := &recordingMetrics{}
	users := &mockUserRepository{
		GetByIDFunc: func(ctx context.Context, id uint) (*user.User, error) {
			return testUser(id, 3, nil), nil
		},
	}
	uc := NewConsumeCreditsUseCase(&mockCreditLedger{}, users, metrics, logger.NewNopLogger())

	result, err := uc.Execute(context.Background(), ConsumeCreditsCommand{UserID: 1, Amount: 4, Action: "export"})

	require.NoError(t, err)
	assert.False(t, result.Consumed)
	assert.Equal(t, int64(3), result.Balance)
	assert.Equal(t, []string{"debit:insufficient"}, metrics.calls)
}

func TestConsumeCreditsUseCase_Execute_DuplicateReference(t *testing.T) {
	ledger := &mockCreditLedger{
		ConsumeCreditsFunc: func(ctx context.Context, userID uint, amount int64, action, reference string) (*billing.CreditAction, bool, error) {
			return nil, false, billing.ErrDuplicateCreditReference
		},
	}
	uc := NewConsumeCreditsUseCase(ledger, &mockUserRepository{}, nil, logger.NewNopLogger())

	_, err := uc.Execute(context.Background(), ConsumeCreditsCommand{UserID: 1, Amount: 1, Reference: "use_abc"})

	assert.True(t, apperrors.IsConflictError(err))
}

func TestConsumeCreditsUseCase_Execute_LedgerFailure(t *testing.T) {
	ledger := &mockCreditLedger{
		ConsumeCreditsFunc: func(ctx context.Context, userID uint, amount int64, action, reference string) (*billing.CreditAction, bool, error) {
			return nil, false, errors.New("connection reset")
		},
	}
	uc := NewConsumeCreditsUseCase(ledger, &mockUserRepository{}, nil, logger.NewNopLogger())

	_, err := uc.Execute(context.Background(), ConsumeCreditsCommand{UserID: 1, Amount: 1})

	require.Error(t, err)
	assert.False(t, apperrors.IsAppError(err))
}

func TestGrantCreditsUseCase_Execute(t *testing.T) {
	var gotReason, gotReference string
	ledger := &mockCreditLedger{
		AddCreditsFunc: func(ctx context.Context, userID uint, amount int64, reason, reference string) (*billing.CreditAction, error) {
			gotReason, gotReference = reason, reference
			return billing.NewCreditAction(userID, billing.DirectionCredit, amount, 0, reason, reference)
		},
	}
	add := NewAddCreditsUseCase(ledger, nil, logger.NewNopLogger())
	uc := NewGrantCreditsUseCase(add, logger.NewNopLogger())

	out, err := uc.Execute(context.Background(), GrantCreditsCommand{UserID: 2, AdminID: 1, Amount: 25, Reason: "  "})

	require.NoError(t, err)
	assert.Equal(t, "Granted by administrator", gotReason)
	assert.Regexp(t, `^grant_`, gotReference)
	assert.Equal(t, int64(25), out.CreditsAfter)
	require.NotNil(t, out.Reference)
	assert.Equal(t, gotReference, *out.Reference)
}
