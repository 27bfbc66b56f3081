package services

import (
	"context"
	"sync"

	"github.com/Kelompok-1-ODP-IT-343/Auth-WA-OTP/internal/domain"
)

// MemoryStore is an in-process domain.Store used when DATABASE_URL is unset
// and in tests. It mirrors the postgres store's ordering and uniqueness rules.
type MemoryStore struct {
	mu       sync.RWMutex
	otps     []*domain.OTPRecord
	accounts map[string]*domain.Account // key: phone
}

var _ domain.Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{accounts: make(map[string]*domain.Account)}
}

func (s *MemoryStore) InsertOTP(ctx context.Context, rec *domain.OTPRecord) error {
	cp := *rec
	s.mu.Lock()
	s.otps = append(s.otps, &cp)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) LatestUnverifiedOTP(ctx context.Context, phone string) (*domain.OTPRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *domain.OTPRecord
	for _, r := range s.otps {
		if r.Phone != phone || r.Verified {
			continue
		}
		if latest == nil || !r.CreatedAt.Before(latest.CreatedAt) {
			latest = r
		}
	}
	if latest == nil {
		return nil, domain.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (s *MemoryStore) IncrementOTPAttempts(ctx context.Context, id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.otps {
		if r.ID == id {
			r.Attempts++
			return r.Attempts, nil
		}
	}
	return 0, domain.ErrNotFound
}

func (s *MemoryStore) MarkOTPVerified(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.otps {
		if r.ID == id {
			r.Verified = true
			return nil
		}
	}
	return domain.ErrNotFound
}

// OTPs returns a copy of every record for phone, oldest first.
func (s *MemoryStore) OTPs(phone string) []domain.OTPRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.OTPRecord
	for _, r := range s.otps {
		if r.Phone == phone {
			out = append(out, *r)
		}
	}
	return out
}

func (s *MemoryStore) FindAccountByPhone(ctx context.Context, phone string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acc, ok := s.accounts[phone]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *acc
	return &cp, nil
}

func (s *MemoryStore) CreateAccount(ctx context.Context, acc *domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[acc.Phone]; ok {
		return domain.ErrAlreadyExists
	}
	cp := *acc
	s.accounts[acc.Phone] = &cp
	return nil
}

func (s *MemoryStore) UpdateAccountLogin(ctx context.Context, acc *domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.accounts[acc.Phone]
	if !ok || cur.UserID != acc.UserID {
		return domain.ErrNotFound
	}
	cp := *acc
	s.accounts[acc.Phone] = &cp
	return nil
}
