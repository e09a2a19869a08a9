package auth

import "time"

// User is an identity row. Users are never hard-deleted; is_active gates
// login instead.
type User struct {
	ID              int64      `json:"id"`
	Email           string     `json:"email"`
	DisplayName     string     `json:"display_name,omitempty"`
	HomeCurrency    string     `json:"home_currency"`
	ResidentCountry string     `json:"resident_country,omitempty"`
	IsActive        bool       `json:"is_active"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       *time.Time `json:"updated_at,omitempty"`
}

// Session is a bearer token with an expiry. Tokens are opaque uuids.
type Session struct {
	Token     string    `json:"token"`
	UserID    int64     `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// OTPCode is a short-lived numeric login code. Codes are single-use.
type OTPCode struct {
	ID        int64
	UserID    int64
	Code      string
	ExpiresAt time.Time
	Consumed  bool
}

// PasskeyCredential stores one registered WebAuthn credential as the opaque
// JSON blob produced by the webauthn library.
type PasskeyCredential struct {
	ID             int64
	UserID         int64
	CredentialID   string
	CredentialJSON []byte
	CreatedAt      time.Time
}

// Login methods accepted by the orchestration entry point. Passkey logins
// arrive through the ceremony endpoints but issue sessions through the same
// path.
const (
	MethodPassword = "password"
	MethodOTP      = "otp"
)

// RegisterInput is the POST body for creating a user with a password.
type RegisterInput struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	DisplayName     string `json:"display_name"`
	HomeCurrency    string `json:"home_currency"`
	ResidentCountry string `json:"resident_country"`
}

// LoginInput carries one credential variant; Method selects which.
type LoginInput struct {
	Method   string `json:"method"`
	Email    string `json:"email"`
	Password string `json:"password,omitempty"`
	Code     string `json:"code,omitempty"`
}

// LoginResult is returned on any successful login regardless of method.
type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      *User     `json:"user"`
}
