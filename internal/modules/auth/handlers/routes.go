package handlers

import (
	"github.com/go-chi/chi/v5"
)

// Auth paths are registered directly rather than via Route so the public and
// session-guarded halves can share the /auth prefix on one router.

// RegisterRoutes registers the unauthenticated auth routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/register", h.HandleRegister)
	r.Post("/auth/login", h.HandleLogin)
	r.Post("/auth/logout", h.HandleLogout)
	r.Post("/auth/otp/request", h.HandleRequestOTP)
	r.Post("/auth/passkey/login/begin", h.HandleBeginPasskeyLogin)
	r.Post("/auth/passkey/login/finish", h.HandleFinishPasskeyLogin)
}

// RegisterSessionRoutes registers auth routes that require a live session.
func (h *Handler) RegisterSessionRoutes(r chi.Router) {
	r.Get("/auth/me", h.HandleMe)
	r.Post("/auth/passkey/register/begin", h.HandleBeginPasskeyRegistration)
	r.Post("/auth/passkey/register/finish", h.HandleFinishPasskeyRegistration)
}
