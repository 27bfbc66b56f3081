package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Kelompok-1-ODP-IT-343/Auth-WA-OTP/internal/domain"
	"github.com/google/uuid"
)

// IdentityResolver is the only writer of user id assignment. Matching is
// strict phone key equality.
type IdentityResolver struct {
	accounts domain.AccountStore
	nowF     func() time.Time
}

func NewIdentityResolver(accounts domain.AccountStore) *IdentityResolver {
	return &IdentityResolver{accounts: accounts, nowF: time.Now}
}

// Check rejects a mismatched intent without creating anything. Store
// failures come back wrapped in ErrDownstream so callers can let them pass.
func (r *IdentityResolver) Check(ctx context.Context, phone string, intent domain.Intent) error {
	_, err := r.accounts.FindAccountByPhone(ctx, phone)
	switch {
	case err == nil:
		if intent == domain.IntentSignup {
			return domain.ErrAlreadyExists
		}
		return nil
	case errors.Is(err, domain.ErrNotFound):
		if intent == domain.IntentLogin {
			return domain.ErrNotFound
		}
		return nil
	default:
		return fmt.Errorf("%w: find account: %v", domain.ErrDownstream, err)
	}
}

// Resolve finds the account for phone, creating it for a signup.
func (r *IdentityResolver) Resolve(ctx context.Context, phone string, intent domain.Intent) (*domain.Resolution, error) {
	acc, err := r.accounts.FindAccountByPhone(ctx, phone)
	if err == nil {
		if intent == domain.IntentSignup {
			return nil, domain.ErrAlreadyExists
		}
		return &domain.Resolution{Account: acc}, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%w: find account: %v", domain.ErrDownstream, err)
	}
	if intent == domain.IntentLogin {
		return nil, domain.ErrNotFound
	}

	acc = &domain.Account{
		UserID:           uuid.NewString(),
		Phone:            phone,
		ConnectionStatus: domain.ConnectionPending,
		Plan:             domain.PlanFree,
		CreatedAt:        r.nowF(),
	}
	if err := r.accounts.CreateAccount(ctx, acc); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return nil, domain.ErrAlreadyExists
		}
		return nil, fmt.Errorf("%w: create account: %v", domain.ErrDownstream, err)
	}
	return &domain.Resolution{Account: acc, IsNewUser: true}, nil
}
