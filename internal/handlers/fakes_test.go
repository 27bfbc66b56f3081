package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/Kelompok-1-ODP-IT-343/Auth-WA-OTP/internal/config"
	"github.com/Kelompok-1-ODP-IT-343/Auth-WA-OTP/internal/domain"
)

const testAPIKey = "operator-key"

type fakeAuth struct {
	sendResp   *domain.SendOTPResponse
	verifyResp *domain.VerifyOTPResponse
	err        error

	redeliverSent bool
	redeliverErr  error

	mu          sync.Mutex
	lastSend    domain.SendOTPRequest
	lastVerify  domain.VerifyOTPRequest
	redelivered []string
}

func (f *fakeAuth) SendOTP(ctx context.Context, req domain.SendOTPRequest) (*domain.SendOTPResponse, error) {
	f.mu.Lock()
	f.lastSend = req
	f.mu.Unlock()
	return f.sendResp, f.err
}

func (f *fakeAuth) VerifyOTP(ctx context.Context, req domain.VerifyOTPRequest) (*domain.VerifyOTPResponse, error) {
	f.mu.Lock()
	f.lastVerify = req
	f.mu.Unlock()
	return f.verifyResp, f.err
}

func (f *fakeAuth) Redeliver(ctx context.Context, phone string) (bool, error) {
	f.mu.Lock()
	f.redelivered = append(f.redelivered, phone)
	f.mu.Unlock()
	return f.redeliverSent, f.redeliverErr
}

type fakeDispatch struct {
	result    domain.DispatchResult
	connected bool

	mu     sync.Mutex
	phones []string
	bodies []string
}

func (d *fakeDispatch) Send(ctx context.Context, phone, body string, mode domain.Mode) domain.DispatchResult {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.phones = append(d.phones, phone)
	d.bodies = append(d.bodies, body)
	return d.result
}

func (d *fakeDispatch) Connected() bool { return d.connected }

func (d *fakeDispatch) lastBody() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.bodies) == 0 {
		return ""
	}
	return d.bodies[len(d.bodies)-1]
}

func testConfig() *config.Config {
	return &config.Config{
		APIKey:           testAPIKey,
		OTPExpiryMinutes: 10,
		OTPMaxAttempts:   5,
	}
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return body
}
