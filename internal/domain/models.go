package domain

import "time"

// Intent is what the caller declared it wants to do with the phone number.
type Intent int

const (
	IntentLogin Intent = iota
	IntentSignup
)

// IntentFromSignupMode maps the signupMode request flag onto an Intent.
func IntentFromSignupMode(signup bool) Intent {
	if signup {
		return IntentSignup
	}
	return IntentLogin
}

func (i Intent) String() string {
	if i == IntentSignup {
		return "signup"
	}
	return "login"
}

// Mode carries the per-request test switches. It is passed explicitly so
// concurrent requests with different modes cannot interfere.
type Mode struct {
	Test             bool
	Demo             bool
	SkipVerification bool
}

// Bypass reports whether the request asks to skip any real work.
func (m Mode) Bypass() bool {
	return m.Test || m.Demo || m.SkipVerification
}

// OTPRecord is one issued code. Rows are never deleted; expiry is logical.
type OTPRecord struct {
	ID        string    `json:"id"`
	Phone     string    `json:"phone"`
	Code      string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Verified  bool      `json:"verified"`
	Attempts  int       `json:"attempts"`
}

// LiveAt reports whether the record can still be matched at t.
func (r *OTPRecord) LiveAt(t time.Time) bool {
	return !r.Verified && t.Before(r.ExpiresAt)
}

// OTPIssue is the result of a Send against the ledger
type OTPIssue struct {
	Code       string
	Phone      string
	CreatedAt  time.Time
	ExpiresAt  time.Time
	Reused     bool
	AgeMinutes int
}

type ConnectionStatus string

const (
	ConnectionPending   ConnectionStatus = "pending"
	ConnectionConnected ConnectionStatus = "connected"
)

type Plan string

const (
	PlanFree  Plan = "free"
	PlanTrial Plan = "trial"
)

// Account is the single user record owned by a phone key.
type Account struct {
	UserID           string           `json:"id"`
	Phone            string           `json:"phone"`
	ConnectionStatus ConnectionStatus `json:"connection_status"`
	LastLoginAt      *time.Time       `json:"last_login_at,omitempty"`
	Plan             Plan             `json:"plan"`
	PlanStart        *time.Time       `json:"plan_start,omitempty"`
	PlanEnd          *time.Time       `json:"plan_end,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
}

// Resolution is the outcome of identity resolution.
type Resolution struct {
	Account   *Account
	IsNewUser bool
}

// PlanInfo is the plan view returned to the client after a login.
type PlanInfo struct {
	Plan          Plan   `json:"plan"`
	PlanStart     string `json:"planStart,omitempty"`
	PlanEnd       string `json:"planEnd,omitempty"`
	TrialAssigned bool   `json:"trialAssigned"`
	Downgraded    bool   `json:"downgraded"`
}

// Session is minted on every successful verify and never stored.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	Subject      string    `json:"subject"`
	Phone        string    `json:"phone"`
	ExpiresAt    time.Time `json:"expires_at"`
	Fallback     bool      `json:"fallback,omitempty"`
	Emergency    bool      `json:"emergency,omitempty"`
}

// Degradation tags how a session was produced.
type Degradation int

const (
	DegradationPrimary Degradation = iota
	DegradationFallback
	DegradationEmergency
)

func (d Degradation) String() string {
	switch d {
	case DegradationFallback:
		return "fallback"
	case DegradationEmergency:
		return "emergency"
	default:
		return "primary"
	}
}

// IssuedSession pairs a session with the path that produced it. Callers must
// branch on Level; anything but primary needs out-of-band reconciliation.
type IssuedSession struct {
	Session Session
	Level   Degradation
}

// DispatchResult is the pass/fail view of one gateway delivery.
type DispatchResult struct {
	OK      bool
	Skipped bool
	Raw     string
}

// SendOTPRequest represents request to issue a code
type SendOTPRequest struct {
	Phone      string `json:"phone"`
	TestMode   bool   `json:"testMode"`
	DemoMode   bool   `json:"demoMode"`
	SignupMode bool   `json:"signupMode"`
}

// SendOTPDebug is returned alongside a send for client diagnostics.
type SendOTPDebug struct {
	TestCode        string `json:"testCode,omitempty"`
	NormalizedPhone string `json:"normalizedPhone"`
	ExpiresAt       string `json:"expiresAt"`
	DispatchSkipped bool   `json:"dispatchSkipped"`
	RateLimited     bool   `json:"rateLimited"`
	GatewayResponse string `json:"gatewayResponse,omitempty"`
}

// SendOTPResponse represents response after issuing a code
type SendOTPResponse struct {
	Success         bool         `json:"success"`
	Message         string       `json:"message"`
	UsedExistingOTP bool         `json:"usedExistingOtp"`
	OTPAgeMinutes   int          `json:"otpAgeMinutes"`
	Delivered       bool         `json:"delivered"`
	Debug           SendOTPDebug `json:"debug"`
}

// VerifyOTPRequest represents request to verify a code
type VerifyOTPRequest struct {
	Phone            string `json:"phone"`
	Code             string `json:"code"`
	TestMode         bool   `json:"testMode"`
	SkipVerification bool   `json:"skipVerification"`
	SignupMode       bool   `json:"signupMode"`
}

// UserView is the minimal user payload returned after verify.
type UserView struct {
	ID    string `json:"id"`
	Phone string `json:"phone"`
}

// VerifyOTPResponse represents a successful verify
type VerifyOTPResponse struct {
	Success      bool     `json:"success"`
	Session      Session  `json:"session"`
	SessionLevel string   `json:"sessionLevel"`
	User         UserView `json:"user"`
	IsFirstLogin bool     `json:"isFirstLogin"`
	PlanInfo     PlanInfo `json:"planInfo"`
}

// RefreshRequest exchanges a refresh token for a new access token.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// SendMessageRequest represents request to send message
type SendMessageRequest struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// SendMessageResponse represents response after sending message
type SendMessageResponse struct {
	Status string `json:"status"`
	Phone  string `json:"phone"`
	Raw    string `json:"raw,omitempty"`
}
