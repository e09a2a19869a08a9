// Package auth provides users, credentials (password, passkey, OTP), sessions,
// and the login orchestration over them.
package auth

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/stackfolio/stackfolio/internal/domain"
)

// Repository handles database operations for identity data
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new auth repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "auth").Logger(),
	}
}

// Users -------------------------------------------------------------------

// CreateUser inserts a new user row.
func (r *Repository) CreateUser(u *User) error {
	now := time.Now()
	result, err := r.db.Exec(`
		INSERT INTO users (email, display_name, home_currency, resident_country, is_active, created_at)
		VALUES (?, ?, ?, ?, 1, ?)`,
		u.Email, nullIfEmpty(u.DisplayName), u.HomeCurrency, nullIfEmpty(u.ResidentCountry), now.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get user id: %w", err)
	}
	u.ID = id
	u.IsActive = true
	u.CreatedAt = now
	return nil
}

// GetUserByID returns a user by primary key.
func (r *Repository) GetUserByID(id int64) (*User, error) {
	return r.scanUser(r.db.QueryRow(`
		SELECT id, email, display_name, home_currency, resident_country, is_active, created_at, updated_at
		FROM users WHERE id = ?`, id))
}

// GetUserByEmail returns a user by email.
func (r *Repository) GetUserByEmail(email string) (*User, error) {
	return r.scanUser(r.db.QueryRow(`
		SELECT id, email, display_name, home_currency, resident_country, is_active, created_at, updated_at
		FROM users WHERE email = ?`, email))
}

func (r *Repository) scanUser(row *sql.Row) (*User, error) {
	var u User
	var displayName, residentCountry sql.NullString
	var createdAt int64
	var updatedAt sql.NullInt64

	err := row.Scan(&u.ID, &u.Email, &displayName, &u.HomeCurrency, &residentCountry,
		&u.IsActive, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	u.DisplayName = displayName.String
	u.ResidentCountry = residentCountry.String
	u.CreatedAt = time.Unix(createdAt, 0)
	if updatedAt.Valid {
		t := time.Unix(updatedAt.Int64, 0)
		u.UpdatedAt = &t
	}
	return &u, nil
}

// Password credentials ----------------------------------------------------

// SetPasswordHash stores or replaces the bcrypt hash for a user.
func (r *Repository) SetPasswordHash(userID int64, hash []byte) error {
	_, err := r.db.Exec(`
		INSERT INTO password_credentials (user_id, password_hash, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET password_hash = excluded.password_hash, updated_at = excluded.updated_at`,
		userID, string(hash), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to set password hash: %w", err)
	}
	return nil
}

// GetPasswordHash returns the stored bcrypt hash for a user.
func (r *Repository) GetPasswordHash(userID int64) ([]byte, error) {
	var hash string
	err := r.db.QueryRow(`SELECT password_hash FROM password_credentials WHERE user_id = ?`, userID).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get password hash: %w", err)
	}
	return []byte(hash), nil
}

// OTP codes ---------------------------------------------------------------

// CreateOTPCode stores a new code with its expiry.
func (r *Repository) CreateOTPCode(userID int64, code string, expiresAt time.Time) error {
	_, err := r.db.Exec(`
		INSERT INTO otp_codes (user_id, code, expires_at, consumed, created_at)
		VALUES (?, ?, ?, 0, ?)`,
		userID, code, expiresAt.Unix(), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to create otp code: %w", err)
	}
	return nil
}

// ConsumeOTPCode marks a live matching code consumed. Returns
// domain.ErrUnauthorized when no unconsumed, unexpired code matches.
func (r *Repository) ConsumeOTPCode(userID int64, code string) error {
	result, err := r.db.Exec(`
		UPDATE otp_codes SET consumed = 1
		WHERE user_id = ? AND code = ? AND consumed = 0 AND expires_at > ?`,
		userID, code, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to consume otp code: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check otp consumption: %w", err)
	}
	if affected == 0 {
		return domain.ErrUnauthorized
	}
	return nil
}

// DeleteExpiredOTPCodes removes expired and consumed codes.
func (r *Repository) DeleteExpiredOTPCodes() (int64, error) {
	result, err := r.db.Exec(`DELETE FROM otp_codes WHERE expires_at <= ? OR consumed = 1`, time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired otp codes: %w", err)
	}
	return result.RowsAffected()
}

// Passkey credentials -----------------------------------------------------

// CreatePasskeyCredential stores a newly registered credential blob.
func (r *Repository) CreatePasskeyCredential(userID int64, credentialID string, credentialJSON []byte) error {
	_, err := r.db.Exec(`
		INSERT INTO passkey_credentials (user_id, credential_id, credential_json, created_at)
		VALUES (?, ?, ?, ?)`,
		userID, credentialID, string(credentialJSON), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to create passkey credential: %w", err)
	}
	return nil
}

// UpdatePasskeyCredential replaces the blob after a login updates the
// signature counter.
func (r *Repository) UpdatePasskeyCredential(credentialID string, credentialJSON []byte) error {
	_, err := r.db.Exec(`UPDATE passkey_credentials SET credential_json = ? WHERE credential_id = ?`,
		string(credentialJSON), credentialID)
	if err != nil {
		return fmt.Errorf("failed to update passkey credential: %w", err)
	}
	return nil
}

// PasskeyCredentialsForUser returns all credential blobs for a user.
func (r *Repository) PasskeyCredentialsForUser(userID int64) ([]PasskeyCredential, error) {
	rows, err := r.db.Query(`
		SELECT id, user_id, credential_id, credential_json, created_at
		FROM passkey_credentials WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query passkey credentials: %w", err)
	}
	defer rows.Close()

	var creds []PasskeyCredential
	for rows.Next() {
		var c PasskeyCredential
		var blob string
		var createdAt int64
		if err := rows.Scan(&c.ID, &c.UserID, &c.CredentialID, &blob, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan passkey credential: %w", err)
		}
		c.CredentialJSON = []byte(blob)
		c.CreatedAt = time.Unix(createdAt, 0)
		creds = append(creds, c)
	}
	return creds, rows.Err()
}

// Sessions ----------------------------------------------------------------

// CreateSession stores a new session token.
func (r *Repository) CreateSession(s *Session) error {
	_, err := r.db.Exec(`
		INSERT INTO sessions (token, user_id, expires_at, created_at)
		VALUES (?, ?, ?, ?)`,
		s.Token, s.UserID, s.ExpiresAt.Unix(), s.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// GetSession returns a live session by token. Expired or unknown tokens
// yield domain.ErrUnauthorized.
func (r *Repository) GetSession(token string) (*Session, error) {
	var s Session
	var expiresAt, createdAt int64
	err := r.db.QueryRow(`
		SELECT token, user_id, expires_at, created_at
		FROM sessions WHERE token = ? AND expires_at > ?`,
		token, time.Now().Unix(),
	).Scan(&s.Token, &s.UserID, &expiresAt, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUnauthorized
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	s.ExpiresAt = time.Unix(expiresAt, 0)
	s.CreatedAt = time.Unix(createdAt, 0)
	return &s, nil
}

// DeleteSession removes a session token (logout).
func (r *Repository) DeleteSession(token string) error {
	_, err := r.db.Exec(`DELETE FROM sessions WHERE token = ?`, token)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions removes sessions past their expiry.
func (r *Repository) DeleteExpiredSessions() (int64, error) {
	result, err := r.db.Exec(`DELETE FROM sessions WHERE expires_at <= ?`, time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return result.RowsAffected()
}

func nullIfEmpty(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
