// Package handlers provides HTTP handlers for asset classifications.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/stackfolio/stackfolio/internal/modules/auth"
	"github.com/stackfolio/stackfolio/internal/modules/classifications"
)

// Handler handles classification HTTP requests
type Handler struct {
	repo *classifications.Repository
	log  zerolog.Logger
}

// NewHandler creates a new classifications handler
func NewHandler(repo *classifications.Repository, log zerolog.Logger) *Handler {
	return &Handler{
		repo: repo,
		log:  log.With().Str("handler", "classifications").Logger(),
	}
}

// RegisterRoutes registers classification routes on the router
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/classifications", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Put("/", h.HandleUpsert)
	})
}

// HandleList returns all of the user's ticker classifications.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	list, err := h.repo.ListForUser(userID)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list classifications")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if list == nil {
		list = []classifications.Classification{}
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"classifications": list})
}

// HandleUpsert assigns or replaces the classification for a ticker.
func (h *Handler) HandleUpsert(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var in classifications.ClassificationInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if in.Ticker == "" || in.AssetClass == "" || in.AssetType == "" {
		h.writeError(w, http.StatusBadRequest, "ticker, asset_class, and asset_type are required")
		return
	}

	c := &classifications.Classification{
		UserID:     userID,
		Ticker:     in.Ticker,
		Exchange:   in.Exchange,
		AssetClass: in.AssetClass,
		AssetType:  in.AssetType,
	}
	if err := h.repo.Upsert(c); err != nil {
		h.log.Error().Err(err).Msg("Failed to upsert classification")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "data": c})
}

// Helper methods

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
