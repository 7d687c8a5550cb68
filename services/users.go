// services/users.go
package services

import (
	"context"

	"tournament-wallet-service/models"
)

const (
	defaultSearchLimit = 50
	maxSearchLimit     = 100
)

// UserSummary is the admin view of a mirrored user.
type UserSummary struct {
	ID             uint             `json:"id"`
	ExternalUserID string           `json:"external_user_id"` // the profile service ID, what the gateway sends
	Username       string           `json:"username"`
	Email          string           `json:"email"`
	Country        string           `json:"country"`
	Currency       models.Currency  `json:"currency"`
	KycStatus      models.KycStatus `json:"kyc_status"`
	WalletBalance  int64            `json:"wallet_balance"`
}

// UserService searches the local user mirror for support and admin tooling.
type UserService struct {
	Store WalletStore
}

func NewUserService(st WalletStore) *UserService {
	return &UserService{Store: st}
}

// Search returns users whose username or email contains query. limit outside 1..100 falls back to 50.
func (s *UserService) Search(ctx context.Context, query string, limit int) ([]UserSummary, error) {
	if limit <= 0 || limit > maxSearchLimit {
		limit = defaultSearchLimit
	}
	users, err := s.Store.SearchUsers(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	res := make([]UserSummary, len(users))
	for i, u := range users {
		history, err := s.Store.Transactions(ctx, u.ID)
		if err != nil {
			return nil, err
		}
		res[i] = UserSummary{
			ID:             u.ID,
			ExternalUserID: u.ExternalUserID,
			Username:       u.Username,
			Email:          u.Email,
			Country:        u.Country,
			Currency:       u.Currency,
			KycStatus:      u.KycStatus,
			WalletBalance:  BalanceOf(history, u.Currency),
		}
	}
	return res, nil
}
