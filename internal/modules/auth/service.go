package auth

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/stackfolio/stackfolio/internal/clientdata"
	"github.com/stackfolio/stackfolio/internal/domain"
)

const otpTTL = 5 * time.Minute

// Service orchestrates login across the credential variants. All variants
// share one user-lookup path and one session-issuing path; none implement
// their own cryptography.
type Service struct {
	repo       *Repository
	cache      *clientdata.Repository
	webAuthn   *webauthn.WebAuthn
	otpEnabled bool
	sessionTTL time.Duration
	log        zerolog.Logger
}

// NewService creates a new auth service. webAuthn may be nil when the passkey
// feature is disabled; the ceremony methods then return an error. otpEnabled
// gates both code issuance and the otp login method.
func NewService(repo *Repository, cache *clientdata.Repository, webAuthn *webauthn.WebAuthn, otpEnabled bool, sessionTTL time.Duration, log zerolog.Logger) *Service {
	return &Service{
		repo:       repo,
		cache:      cache,
		webAuthn:   webAuthn,
		otpEnabled: otpEnabled,
		sessionTTL: sessionTTL,
		log:        log.With().Str("service", "auth").Logger(),
	}
}

// Register creates a user with a password credential and logs them in.
func (s *Service) Register(in RegisterInput) (*LoginResult, error) {
	if in.Email == "" {
		return nil, domain.NewValidationError("email")
	}
	if len(in.Password) < 8 {
		return nil, &domain.ValidationError{Field: "password", Reason: "must be at least 8 characters"}
	}
	if in.HomeCurrency == "" {
		in.HomeCurrency = "USD"
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &User{
		Email:           in.Email,
		DisplayName:     in.DisplayName,
		HomeCurrency:    in.HomeCurrency,
		ResidentCountry: in.ResidentCountry,
	}
	if err := s.repo.CreateUser(user); err != nil {
		return nil, err
	}
	if err := s.repo.SetPasswordHash(user.ID, hash); err != nil {
		return nil, err
	}

	s.log.Info().Int64("user_id", user.ID).Msg("User registered")
	return s.issueSession(user)
}

// Login is the single orchestration entry point for credential logins.
// The method field selects the variant; all variants share lookupActiveUser
// and issueSession.
func (s *Service) Login(in LoginInput) (*LoginResult, error) {
	if in.Email == "" {
		return nil, domain.NewValidationError("email")
	}

	user, err := s.lookupActiveUser(in.Email)
	if err != nil {
		return nil, err
	}

	switch in.Method {
	case MethodPassword:
		if in.Password == "" {
			return nil, domain.NewValidationError("password")
		}
		hash, err := s.repo.GetPasswordHash(user.ID)
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnauthorized
		}
		if err != nil {
			return nil, err
		}
		if bcrypt.CompareHashAndPassword(hash, []byte(in.Password)) != nil {
			return nil, domain.ErrUnauthorized
		}
	case MethodOTP:
		if !s.otpEnabled {
			return nil, &domain.ValidationError{Field: "method", Reason: "otp login is disabled"}
		}
		if in.Code == "" {
			return nil, domain.NewValidationError("code")
		}
		if err := s.repo.ConsumeOTPCode(user.ID, in.Code); err != nil {
			return nil, err
		}
	default:
		return nil, &domain.ValidationError{Field: "method", Reason: "must be password or otp"}
	}

	return s.issueSession(user)
}

// RequestOTP issues a 6-digit code valid for five minutes. Delivery is not
// implemented; the code is logged. Unknown emails are not reported to the
// caller.
func (s *Service) RequestOTP(email string) error {
	if !s.otpEnabled {
		return &domain.ValidationError{Field: "method", Reason: "otp login is disabled"}
	}
	if email == "" {
		return domain.NewValidationError("email")
	}

	user, err := s.lookupActiveUser(email)
	if errors.Is(err, domain.ErrUnauthorized) {
		s.log.Debug().Str("email", email).Msg("OTP requested for unknown or inactive user")
		return nil
	}
	if err != nil {
		return err
	}

	code, err := generateOTPCode()
	if err != nil {
		return fmt.Errorf("failed to generate otp code: %w", err)
	}
	if err := s.repo.CreateOTPCode(user.ID, code, time.Now().Add(otpTTL)); err != nil {
		return err
	}

	// TODO: deliver via email once an outbound mail client is wired up.
	s.log.Info().Int64("user_id", user.ID).Str("code", code).Msg("OTP code issued (delivery not implemented)")
	return nil
}

// Logout deletes the session token.
func (s *Service) Logout(token string) error {
	return s.repo.DeleteSession(token)
}

// ResolveSession maps a live session token to a user ID. Implements
// domain.SessionResolver for the HTTP middleware.
func (s *Service) ResolveSession(token string) (int64, error) {
	session, err := s.repo.GetSession(token)
	if err != nil {
		return 0, err
	}
	return session.UserID, nil
}

// User returns a user by ID.
func (s *Service) User(userID int64) (*User, error) {
	return s.repo.GetUserByID(userID)
}

// PurgeExpired removes expired sessions and OTP codes. Run from cron.
func (s *Service) PurgeExpired() {
	if n, err := s.repo.DeleteExpiredSessions(); err != nil {
		s.log.Error().Err(err).Msg("Failed to purge expired sessions")
	} else if n > 0 {
		s.log.Debug().Int64("count", n).Msg("Purged expired sessions")
	}
	if n, err := s.repo.DeleteExpiredOTPCodes(); err != nil {
		s.log.Error().Err(err).Msg("Failed to purge expired OTP codes")
	} else if n > 0 {
		s.log.Debug().Int64("count", n).Msg("Purged expired OTP codes")
	}
}

// Passkey ceremonies ------------------------------------------------------
//
// Ceremony state lives in cache.db keyed by a ceremony id, so the HTTP
// handlers stay stateless across the begin/finish round-trip.

type ceremonyState struct {
	UserID  int64                `json:"user_id"`
	Session webauthn.SessionData `json:"session"`
}

// BeginPasskeyRegistration starts a credential-creation ceremony for a logged
// in user. Returns the browser options and the ceremony id to echo back.
func (s *Service) BeginPasskeyRegistration(userID int64) (*protocol.CredentialCreation, string, error) {
	if s.webAuthn == nil {
		return nil, "", errors.New("passkeys are not enabled")
	}

	user, err := s.webAuthnUser(userID)
	if err != nil {
		return nil, "", err
	}

	options, sessionData, err := s.webAuthn.BeginRegistration(user)
	if err != nil {
		return nil, "", fmt.Errorf("failed to begin passkey registration: %w", err)
	}

	ceremonyID, err := s.storeCeremony(userID, sessionData)
	if err != nil {
		return nil, "", err
	}
	return options, ceremonyID, nil
}

// FinishPasskeyRegistration verifies the attestation response and stores the
// resulting credential.
func (s *Service) FinishPasskeyRegistration(ceremonyID string, response *protocol.ParsedCredentialCreationData) error {
	if s.webAuthn == nil {
		return errors.New("passkeys are not enabled")
	}

	state, err := s.loadCeremony(ceremonyID)
	if err != nil {
		return err
	}
	user, err := s.webAuthnUser(state.UserID)
	if err != nil {
		return err
	}

	credential, err := s.webAuthn.CreateCredential(user, state.Session, response)
	if err != nil {
		return fmt.Errorf("failed to verify passkey registration: %w", err)
	}

	blob, err := json.Marshal(credential)
	if err != nil {
		return fmt.Errorf("failed to encode credential: %w", err)
	}
	credentialID := base64.RawURLEncoding.EncodeToString(credential.ID)
	if err := s.repo.CreatePasskeyCredential(state.UserID, credentialID, blob); err != nil {
		return err
	}

	s.log.Info().Int64("user_id", state.UserID).Msg("Passkey registered")
	return nil
}

// BeginPasskeyLogin starts an assertion ceremony for a user's registered
// credentials.
func (s *Service) BeginPasskeyLogin(email string) (*protocol.CredentialAssertion, string, error) {
	if s.webAuthn == nil {
		return nil, "", errors.New("passkeys are not enabled")
	}

	user, err := s.lookupActiveUser(email)
	if err != nil {
		return nil, "", err
	}
	waUser, err := s.webAuthnUser(user.ID)
	if err != nil {
		return nil, "", err
	}
	if len(waUser.credentials) == 0 {
		return nil, "", domain.ErrUnauthorized
	}

	options, sessionData, err := s.webAuthn.BeginLogin(waUser)
	if err != nil {
		return nil, "", fmt.Errorf("failed to begin passkey login: %w", err)
	}

	ceremonyID, err := s.storeCeremony(user.ID, sessionData)
	if err != nil {
		return nil, "", err
	}
	return options, ceremonyID, nil
}

// FinishPasskeyLogin verifies the assertion response, updates the stored
// credential, and issues a session through the shared path.
func (s *Service) FinishPasskeyLogin(ceremonyID string, response *protocol.ParsedCredentialAssertionData) (*LoginResult, error) {
	if s.webAuthn == nil {
		return nil, errors.New("passkeys are not enabled")
	}

	state, err := s.loadCeremony(ceremonyID)
	if err != nil {
		return nil, err
	}
	waUser, err := s.webAuthnUser(state.UserID)
	if err != nil {
		return nil, err
	}

	credential, err := s.webAuthn.ValidateLogin(waUser, state.Session, response)
	if err != nil {
		s.log.Warn().Int64("user_id", state.UserID).Err(err).Msg("Passkey login failed verification")
		return nil, domain.ErrUnauthorized
	}

	// Persist the updated signature counter
	blob, err := json.Marshal(credential)
	if err == nil {
		credentialID := base64.RawURLEncoding.EncodeToString(credential.ID)
		if uerr := s.repo.UpdatePasskeyCredential(credentialID, blob); uerr != nil {
			s.log.Warn().Err(uerr).Msg("Failed to update passkey credential counter")
		}
	}

	return s.issueSession(waUser.user)
}

func (s *Service) storeCeremony(userID int64, sessionData *webauthn.SessionData) (string, error) {
	ceremonyID := uuid.NewString()
	state := ceremonyState{UserID: userID, Session: *sessionData}
	if err := s.cache.Store("webauthn_ceremonies", ceremonyID, state, clientdata.TTLWebAuthnCeremony); err != nil {
		return "", fmt.Errorf("failed to store ceremony state: %w", err)
	}
	return ceremonyID, nil
}

func (s *Service) loadCeremony(ceremonyID string) (*ceremonyState, error) {
	raw, err := s.cache.GetIfFresh("webauthn_ceremonies", ceremonyID)
	if err != nil || raw == nil {
		return nil, domain.ErrUnauthorized
	}
	// Single use
	if err := s.cache.Delete("webauthn_ceremonies", ceremonyID); err != nil {
		s.log.Warn().Err(err).Msg("Failed to delete consumed ceremony state")
	}

	var state ceremonyState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("failed to decode ceremony state: %w", err)
	}
	return &state, nil
}

// Shared paths ------------------------------------------------------------

// lookupActiveUser is the single user-lookup path for every login variant.
// Unknown and inactive users are indistinguishable from bad credentials.
func (s *Service) lookupActiveUser(email string) (*User, error) {
	user, err := s.repo.GetUserByEmail(email)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, domain.ErrUnauthorized
	}
	return user, nil
}

// issueSession is the single session-issuing path for every login variant.
func (s *Service) issueSession(user *User) (*LoginResult, error) {
	session := &Session{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(s.sessionTTL),
		CreatedAt: time.Now(),
	}
	if err := s.repo.CreateSession(session); err != nil {
		return nil, err
	}
	return &LoginResult{Token: session.Token, ExpiresAt: session.ExpiresAt, User: user}, nil
}

func generateOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// webAuthnUser adapts a user row plus stored credentials to the webauthn
// library's User interface.
type webAuthnUserAdapter struct {
	user        *User
	credentials []webauthn.Credential
}

func (s *Service) webAuthnUser(userID int64) (*webAuthnUserAdapter, error) {
	user, err := s.repo.GetUserByID(userID)
	if err != nil {
		return nil, err
	}

	stored, err := s.repo.PasskeyCredentialsForUser(userID)
	if err != nil {
		return nil, err
	}
	credentials := make([]webauthn.Credential, 0, len(stored))
	for _, c := range stored {
		var cred webauthn.Credential
		if err := json.Unmarshal(c.CredentialJSON, &cred); err != nil {
			s.log.Warn().Str("credential_id", c.CredentialID).Err(err).Msg("Skipping undecodable passkey credential")
			continue
		}
		credentials = append(credentials, cred)
	}
	return &webAuthnUserAdapter{user: user, credentials: credentials}, nil
}

func (u *webAuthnUserAdapter) WebAuthnID() []byte {
	return []byte(strconv.FormatInt(u.user.ID, 10))
}

func (u *webAuthnUserAdapter) WebAuthnName() string {
	return u.user.Email
}

func (u *webAuthnUserAdapter) WebAuthnDisplayName() string {
	if u.user.DisplayName != "" {
		return u.user.DisplayName
	}
	return u.user.Email
}

func (u *webAuthnUserAdapter) WebAuthnCredentials() []webauthn.Credential {
	return u.credentials
}
