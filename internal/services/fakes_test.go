package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Kelompok-1-ODP-IT-343/Auth-WA-OTP/internal/domain"
)

var errBoom = errors.New("boom")

type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type sentMessage struct {
	phone string
	body  string
}

type fakeGateway struct {
	mu        sync.Mutex
	connected bool
	err       error
	sent      []sentMessage
	deadline  bool
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{connected: true}
}

func (g *fakeGateway) SendMessage(ctx context.Context, phone, message string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, g.deadline = ctx.Deadline()
	if g.err != nil {
		return "", g.err
	}
	g.sent = append(g.sent, sentMessage{phone: phone, body: message})
	return "MSG-1", nil
}

func (g *fakeGateway) IsConnected() bool { return g.connected }

func (g *fakeGateway) Sent() []sentMessage {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]sentMessage(nil), g.sent...)
}

// faultyStore wraps a MemoryStore and fails the selected operations.
type faultyStore struct {
	*MemoryStore
	findErr   error
	createErr error
	updateErr error
	insertErr error
	markErr   error
}

func (s *faultyStore) MarkOTPVerified(ctx context.Context, id string) error {
	if s.markErr != nil {
		return s.markErr
	}
	return s.MemoryStore.MarkOTPVerified(ctx, id)
}

func (s *faultyStore) FindAccountByPhone(ctx context.Context, phone string) (*domain.Account, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	return s.MemoryStore.FindAccountByPhone(ctx, phone)
}

func (s *faultyStore) CreateAccount(ctx context.Context, acc *domain.Account) error {
	if s.createErr != nil {
		return s.createErr
	}
	return s.MemoryStore.CreateAccount(ctx, acc)
}

func (s *faultyStore) UpdateAccountLogin(ctx context.Context, acc *domain.Account) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	return s.MemoryStore.UpdateAccountLogin(ctx, acc)
}

func (s *faultyStore) InsertOTP(ctx context.Context, rec *domain.OTPRecord) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	return s.MemoryStore.InsertOTP(ctx, rec)
}

type failingIssuer struct{}

func (failingIssuer) IssuePair(userID, phone string) (string, string, time.Time, error) {
	return "", "", time.Time{}, errBoom
}

type panickingIssuer struct{}

func (panickingIssuer) IssuePair(userID, phone string) (string, string, time.Time, error) {
	panic("signer exploded")
}

type stubLimiter struct {
	allow bool
	err   error
	calls int
}

func (l *stubLimiter) Allow(ctx context.Context, phone string) (bool, error) {
	l.calls++
	return l.allow, l.err
}
