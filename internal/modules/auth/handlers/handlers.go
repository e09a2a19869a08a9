// Package handlers provides HTTP handlers for registration, login, and the
// passkey ceremonies.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/rs/zerolog"

	"github.com/stackfolio/stackfolio/internal/domain"
	"github.com/stackfolio/stackfolio/internal/modules/auth"
)

// Handler handles auth HTTP requests
type Handler struct {
	service *auth.Service
	log     zerolog.Logger
}

// NewHandler creates a new auth handler
func NewHandler(service *auth.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "auth").Logger(),
	}
}

// HandleRegister creates a user with a password credential and returns a
// session.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var in auth.RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	result, err := h.service.Register(in)
	if err != nil {
		h.writeServiceError(w, err, "Failed to register user")
		return
	}
	h.writeJSON(w, http.StatusCreated, result)
}

// HandleLogin dispatches a password or OTP login.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var in auth.LoginInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	result, err := h.service.Login(in)
	if err != nil {
		h.writeServiceError(w, err, "Login failed")
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// HandleLogout deletes the presented session token.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get("Authorization")
	if len(token) > 7 && token[:7] == "Bearer " {
		token = token[7:]
	}
	if token == "" {
		h.writeError(w, http.StatusBadRequest, "missing session token")
		return
	}
	if err := h.service.Logout(token); err != nil {
		h.writeServiceError(w, err, "Logout failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// HandleRequestOTP issues a login code. Always returns success so callers
// cannot probe for registered emails.
func (h *Handler) HandleRequestOTP(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := h.service.RequestOTP(in.Email); err != nil {
		h.writeServiceError(w, err, "Failed to issue OTP")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// HandleMe returns the current user for a live session.
func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	user, err := h.service.User(userID)
	if err != nil {
		h.writeServiceError(w, err, "Failed to load user")
		return
	}
	h.writeJSON(w, http.StatusOK, user)
}

// Passkey ceremonies ------------------------------------------------------

// HandleBeginPasskeyRegistration starts a credential-creation ceremony for
// the logged-in user.
func (h *Handler) HandleBeginPasskeyRegistration(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	options, ceremonyID, err := h.service.BeginPasskeyRegistration(userID)
	if err != nil {
		h.writeServiceError(w, err, "Failed to begin passkey registration")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"ceremony_id": ceremonyID,
		"options":     options,
	})
}

// HandleFinishPasskeyRegistration verifies the attestation response.
func (h *Handler) HandleFinishPasskeyRegistration(w http.ResponseWriter, r *http.Request) {
	ceremonyID := r.URL.Query().Get("ceremonyId")
	if ceremonyID == "" {
		h.writeError(w, http.StatusBadRequest, "missing ceremonyId")
		return
	}

	response, err := protocol.ParseCredentialCreationResponseBody(r.Body)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid attestation response")
		return
	}

	if err := h.service.FinishPasskeyRegistration(ceremonyID, response); err != nil {
		h.writeServiceError(w, err, "Failed to finish passkey registration")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// HandleBeginPasskeyLogin starts an assertion ceremony.
func (h *Handler) HandleBeginPasskeyLogin(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	options, ceremonyID, err := h.service.BeginPasskeyLogin(in.Email)
	if err != nil {
		h.writeServiceError(w, err, "Failed to begin passkey login")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"ceremony_id": ceremonyID,
		"options":     options,
	})
}

// HandleFinishPasskeyLogin verifies the assertion and returns a session.
func (h *Handler) HandleFinishPasskeyLogin(w http.ResponseWriter, r *http.Request) {
	ceremonyID := r.URL.Query().Get("ceremonyId")
	if ceremonyID == "" {
		h.writeError(w, http.StatusBadRequest, "missing ceremonyId")
		return
	}

	response, err := protocol.ParseCredentialRequestResponseBody(r.Body)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid assertion response")
		return
	}

	result, err := h.service.FinishPasskeyLogin(ceremonyID, response)
	if err != nil {
		h.writeServiceError(w, err, "Failed to finish passkey login")
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// Helper methods

func (h *Handler) writeServiceError(w http.ResponseWriter, err error, logMsg string) {
	switch {
	case domain.IsValidation(err):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		h.writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, domain.ErrNotFound):
		h.writeError(w, http.StatusNotFound, "not found")
	default:
		h.log.Error().Err(err).Msg(logMsg)
		h.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
