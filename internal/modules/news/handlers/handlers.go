// Package handlers provides HTTP handlers for news items.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/stackfolio/stackfolio/internal/domain"
	"github.com/stackfolio/stackfolio/internal/modules/auth"
	"github.com/stackfolio/stackfolio/internal/modules/news"
)

// Handler handles news HTTP requests
type Handler struct {
	repo *news.Repository
	log  zerolog.Logger
}

// NewHandler creates a new news handler
func NewHandler(repo *news.Repository, log zerolog.Logger) *Handler {
	return &Handler{
		repo: repo,
		log:  log.With().Str("handler", "news").Logger(),
	}
}

// RegisterRoutes registers news routes on the router
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/news", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Post("/", h.HandleCreate)
		r.Delete("/staged", h.HandlePurgeStaged)
	})
}

// HandleList returns unstaged news, optionally filtered by ?ticker and
// ?type=news|alert.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var typeID int64
	switch r.URL.Query().Get("type") {
	case "":
	case "news":
		typeID = news.TypeNews
	case "alert":
		typeID = news.TypeAlert
	default:
		h.writeError(w, http.StatusBadRequest, "type must be news or alert")
		return
	}

	items, err := h.repo.List(userID, r.URL.Query().Get("ticker"), typeID)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list news")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if items == nil {
		items = []news.Item{}
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"news": items})
}

// HandleCreate records a news item.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var in news.ItemInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if in.Ticker == "" || in.Headline == "" {
		h.writeError(w, http.StatusBadRequest, "ticker and headline are required")
		return
	}
	if _, err := time.Parse("2006-01-02", in.PublishedAt); err != nil {
		h.writeError(w, http.StatusBadRequest, "published_at must be YYYY-MM-DD")
		return
	}

	item := &news.Item{
		UserID:      userID,
		Ticker:      in.Ticker,
		TypeID:      in.TypeID,
		Headline:    in.Headline,
		Body:        in.Body,
		PublishedAt: in.PublishedAt,
		Staged:      in.Staged,
	}
	if err := h.repo.Create(item); err != nil {
		if domain.IsValidation(err) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error().Err(err).Msg("Failed to create news item")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]interface{}{"success": true, "data": item})
}

// HandlePurgeStaged deletes the user's staged items.
func (h *Handler) HandlePurgeStaged(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	deleted, err := h.repo.PurgeStaged(userID)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to purge staged news")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "deleted": deleted})
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
