package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Kelompok-1-ODP-IT-343/Auth-WA-OTP/internal/domain"
)

func newOTPMux(auth *fakeAuth, dispatch *fakeDispatch) *http.ServeMux {
	mux := http.NewServeMux()
	NewOTPHandler(auth, dispatch, testConfig()).Register(mux)
	return mux
}

func TestSendOTPHandler(t *testing.T) {
	auth := &fakeAuth{sendResp: &domain.SendOTPResponse{Success: true, Message: "sent"}}
	mux := newOTPMux(auth, &fakeDispatch{})

	req := httptest.NewRequest(http.MethodPost, "/api/auth/send-otp", strings.NewReader(`{"phone":"0812","signupMode":true}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	if body := decodeBody(t, rec); body["success"] != true {
		t.Fatalf("body=%v", body)
	}
	if auth.lastSend.Phone != "0812" || !auth.lastSend.SignupMode {
		t.Fatalf("request not forwarded: %+v", auth.lastSend)
	}
}

func TestSendOTPHandler_BadRequests(t *testing.T) {
	mux := newOTPMux(&fakeAuth{}, &fakeDispatch{})
	cases := []struct {
		name   string
		method string
		body   string
		want   int
	}{
		{"wrong method", http.MethodGet, "", http.StatusMethodNotAllowed},
		{"invalid json", http.MethodPost, "{", http.StatusBadRequest},
		{"missing phone", http.MethodPost, `{}`, http.StatusBadRequest},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(c.method, "/api/auth/send-otp", strings.NewReader(c.body)))
			if rec.Code != c.want {
				t.Fatalf("status=%d; want %d", rec.Code, c.want)
			}
		})
	}
}

func TestVerifyOTPHandler_ErrorMapping(t *testing.T) {
	cases := []struct {
		err      error
		status   int
		redirect string
	}{
		{domain.ErrNotFound, http.StatusNotFound, "signup"},
		{domain.ErrAlreadyExists, http.StatusConflict, "login"},
		{domain.ErrCodeExpired, http.StatusBadRequest, ""},
		{domain.ErrNoValidCode, http.StatusBadRequest, ""},
		{domain.ErrTooManyAttempts, http.StatusBadRequest, ""},
		{fmt.Errorf("%w: bad phone", domain.ErrValidation), http.StatusBadRequest, ""},
		{domain.ErrBypassDisabled, http.StatusForbidden, ""},
		{fmt.Errorf("%w: db down", domain.ErrDownstream), http.StatusInternalServerError, ""},
	}
	for _, c := range cases {
		t.Run(c.err.Error(), func(t *testing.T) {
			mux := newOTPMux(&fakeAuth{err: c.err}, &fakeDispatch{})
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/verify-otp", strings.NewReader(`{"phone":"628123456789","code":"123456"}`)))

			if rec.Code != c.status {
				t.Fatalf("status=%d; want %d", rec.Code, c.status)
			}
			body := decodeBody(t, rec)
			if body["success"] != false {
				t.Fatalf("body=%v", body)
			}
			if c.redirect != "" && body["redirect"] != c.redirect {
				t.Fatalf("redirect=%v; want %s", body["redirect"], c.redirect)
			}
			if c.status == http.StatusInternalServerError && body["error"] != "internal error" {
				t.Fatalf("internal details leaked: %v", body["error"])
			}
		})
	}
}

func TestVerifyOTPHandler_AttemptsRemaining(t *testing.T) {
	mux := newOTPMux(&fakeAuth{err: &domain.AttemptsError{Remaining: 2}}, &fakeDispatch{})
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/verify-otp", strings.NewReader(`{"phone":"628123456789","code":"111111"}`)))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", rec.Code)
	}
	if body := decodeBody(t, rec); body["attemptsRemaining"] != float64(2) {
		t.Fatalf("body=%v", body)
	}
}

func TestVerifyOTPHandler_RequiresCode(t *testing.T) {
	auth := &fakeAuth{verifyResp: &domain.VerifyOTPResponse{Success: true, SessionLevel: "primary"}}
	mux := newOTPMux(auth, &fakeDispatch{})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/verify-otp", strings.NewReader(`{"phone":"628123456789"}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d; want 400 without code", rec.Code)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/verify-otp", strings.NewReader(`{"phone":"628123456789","skipVerification":true}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d; skip requests are decided by the service", rec.Code)
	}
	if body := decodeBody(t, rec); body["sessionLevel"] != "primary" {
		t.Fatalf("body=%v", body)
	}
}

func TestOTPStatusHandler(t *testing.T) {
	mux := newOTPMux(&fakeAuth{}, &fakeDispatch{connected: true})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/otp/status", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d; want 401 without key", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/otp/status", nil)
	req.Header.Set("X-API-Key", testAPIKey)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["whatsapp_connected"] != true || body["max_attempts"] != float64(5) {
		t.Fatalf("body=%v", body)
	}
}

func TestValidateAPIKey(t *testing.T) {
	cfg := testConfig()
	cases := []struct {
		name   string
		header string
		query  string
		want   bool
	}{
		{"header", testAPIKey, "", true},
		{"query", "", testAPIKey, true},
		{"wrong", "nope", "", false},
		{"missing", "", "", false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/otp/status?api_key="+c.query, nil)
			if c.header != "" {
				req.Header.Set("X-API-Key", c.header)
			}
			if got := validateAPIKey(cfg, req); got != c.want {
				t.Fatalf("validateAPIKey=%v; want %v", got, c.want)
			}
		})
	}

	cfg.APIKey = ""
	if validateAPIKey(cfg, httptest.NewRequest(http.MethodGet, "/api/otp/status?api_key=", nil)) {
		t.Fatal("empty configured key must reject everything")
	}
}
