package mappers

import (
	"github.com/orris-inc/tollgate/internal/domain/user"
	"github.com/orris-inc/tollgate/internal/infrastructure/persistence/models"
)

func UserToModel(u *user.User) *models.UserModel {
	return &models.UserModel{
		ID:               u.ID(),
		SID:              u.SID(),
		Email:            u.Email(),
		Name:             u.Name(),
		StripeCustomerID: u.StripeCustomerID(),
		CreditsBalance:   u.CreditsBalance(),
		CreatedAt:        u.CreatedAt(),
		UpdatedAt:        u.UpdatedAt(),
	}
}

func UserToDomain(m *models.UserModel) (*user.User, error) {
	return user.ReconstructUser(user.ReconstructParams{
		ID:               m.ID,
		SID:              m.SID,
		Email:            m.Email,
		Name:             m.Name,
		StripeCustomerID: m.StripeCustomerID,
		CreditsBalance:   m.CreditsBalance,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	})
}
