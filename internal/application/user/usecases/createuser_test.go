package usecases

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orris-inc/tollgate/internal/application/user/dto"
	"github.com/orris-inc/tollgate/internal/domain/billing"
	"github.com/orris-inc/tollgate/internal/domain/user"
	apperrors "github.com/orris-inc/tollgate/internal/shared/errors"
	"github.com/orris-inc/tollgate/internal/shared/logger"
)

func defaultSeeder(seeded *int) seederFunc {
	return func(ctx context.Context, userID uint) (*billing.Subscription, error) {
		*seeded++
		return billing.NewDefaultSubscription(userID)
	}
}

func TestCreateUserUseCase_Execute_Success(t *testing.T) {
	seeded := 0
	tx := &txRecorder{}
	var provisioned uint
	repo := &mockUserRepository{
		GetByIDFunc: func(ctx context.Context, id uint) (*user.User, error) {
			cus := "cus_123"
			return user.ReconstructUser(user.ReconstructParams{ID: id, SID: "usr_x", Email: "jane@example.com", Name: "Jane", StripeCustomerID: &cus})
		},
	}
	customers := provisionerFunc(func(ctx context.Context, userID uint) (string, error) {
		provisioned = userID
		return "cus_123", nil
	})
	uc := NewCreateUserUseCase(repo, defaultSeeder(&seeded), customers, tx, logger.NewNopLogger())

	resp, err := uc.Execute(context.Background(), dto.CreateUserRequest{Email: " Jane@Example.com ", Name: "Jane"})

	require.NoError(t, err)
	assert.Equal(t, 1, tx.calls)
	assert.Equal(t, 1, seeded)
	assert.Equal(t, uint(1), provisioned)
	assert.Equal(t, "jane@example.com", resp.Email)
	require.NotNil(t, resp.StripeCustomerID)
	assert.Equal(t, "cus_123", *resp.StripeCustomerID)
	require.NotNil(t, resp.Subscription)
	assert.Equal(t, billing.DefaultPlanKey, resp.Subscription.SubscriptionKey)
	assert.False(t, resp.Subscription.Active)
}

func TestCreateUserUseCase_Execute_ProvisioningFailureIsIgnored(t *testing.T) {
	seeded := 0
	customers := provisionerFunc(func(ctx context.Context, userID uint) (string, error) {
		return "", errors.New("stripe down")
	})
	uc := NewCreateUserUseCase(&mockUserRepository{}, defaultSeeder(&seeded), customers, &txRecorder{}, logger.NewNopLogger())

	resp, err := uc.Execute(context.Background(), dto.CreateUserRequest{Email: "jane@example.com", Name: "Jane"})

	require.NoError(t, err)
	assert.Nil(t, resp.StripeCustomerID)
	assert.Equal(t, 1, seeded)
}

func TestCreateUserUseCase_Execute_Failures(t *testing.T) {
	existing, err := user.NewUser("taken@example.com", "Taken")
	require.NoError(t, err)

	tests := []struct {
		name     string
		req      dto.CreateUserRequest
		repo     *mockUserRepository
		seedErr  error
		wantType apperrors.ErrorType
	}{
		{
			name:     "invalid email",
			req:      dto.CreateUserRequest{Email: "not-an-email", Name: "X"},
			repo:     &mockUserRepository{},
			wantType: apperrors.ErrorTypeValidation,
		},
		{
			name: "email exists",
			req:  dto.CreateUserRequest{Email: "taken@example.com", Name: "X"},
			repo: &mockUserRepository{
				GetByEmailFunc: func(ctx context.Context, email string) (*user.User, error) { return existing, nil },
			},
			wantType: apperrors.ErrorTypeConflict,
		},
		{
			name: "unique violation on insert",
			req:  dto.CreateUserRequest{Email: "race@example.com", Name: "X"},
			repo: &mockUserRepository{
				CreateFunc: func(ctx context.Context, u *user.User) error { return user.ErrEmailTaken },
			},
			wantType: apperrors.ErrorTypeConflict,
		},
		{
			name:    "seeding fails",
			req:     dto.CreateUserRequest{Email: "seed@example.com", Name: "X"},
			repo:    &mockUserRepository{},
			seedErr: errors.New("insert failed"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seeder := seederFunc(func(ctx context.Context, userID uint) (*billing.Subscription, error) {
				if tt.seedErr != nil {
					return nil, tt.seedErr
				}
				return billing.NewDefaultSubscription(userID)
			})
			uc := NewCreateUserUseCase(tt.repo, seeder, nil, &txRecorder{}, logger.NewNopLogger())

			_, err := uc.Execute(context.Background(), tt.req)

			require.Error(t, err)
			if tt.wantType != "" {
				appErr := apperrors.GetAppError(err)
				require.NotNil(t, appErr)
				assert.Equal(t, tt.wantType, appErr.Type)
			} else {
				assert.ErrorIs(t, err, tt.seedErr)
			}
		})
	}
}

func TestGetUserUseCase_Execute(t *testing.T) {
	repo := &mockUserRepository{
		GetByIDFunc: func(ctx context.Context, id uint) (*user.User, error) {
			if id != 3 {
				return nil, nil
			}
			return user.ReconstructUser(user.ReconstructParams{ID: 3, SID: "usr_3", Email: "c@example.com", Name: "C", CreditsBalance: 12})
		},
	}
	uc := NewGetUserUseCase(repo, &mockSubscriptionRepository{}, logger.NewNopLogger())

	resp, err := uc.Execute(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "usr_3", resp.ID)
	assert.Equal(t, int64(12), resp.CreditsBalance)
	assert.Nil(t, resp.Subscription)

	_, err = uc.Execute(context.Background(), 4)
	assert.True(t, apperrors.IsNotFoundError(err))

	_, err = uc.Execute(context.Background(), 0)
	assert.True(t, apperrors.IsValidationError(err))
}
