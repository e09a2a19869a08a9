// Package handlers provides HTTP handlers for the funding ledger.
package handlers

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/rs/zerolog"

	"github.com/stackfolio/stackfolio/internal/domain"
	"github.com/stackfolio/stackfolio/internal/modules/auth"
	"github.com/stackfolio/stackfolio/internal/modules/funding"
)

// Handler handles funding HTTP requests
type Handler struct {
	service *funding.Service
	log     zerolog.Logger
}

// NewHandler creates a new funding handler
func NewHandler(service *funding.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "funding").Logger(),
	}
}

// HandleGetFunding returns the funding overview: the user's trading
// currencies, full movement history, and per-period stats. The three queries
// are issued concurrently and merged.
func (h *Handler) HandleGetFunding(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var (
		wg         sync.WaitGroup
		currencies []string
		movements  []funding.CashMovement
		stats      []funding.PeriodStats
		errs       [3]error
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		currencies, errs[0] = h.service.Currencies(userID)
	}()
	go func() {
		defer wg.Done()
		movements, errs[1] = h.service.Movements(userID)
	}()
	go func() {
		defer wg.Done()
		stats, errs[2] = h.service.PeriodStats(userID)
	}()
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			h.log.Error().Err(err).Msg("Failed to load funding overview")
			h.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}

	if currencies == nil {
		currencies = []string{}
	}
	if movements == nil {
		movements = []funding.CashMovement{}
	}
	if stats == nil {
		stats = []funding.PeriodStats{}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"currencies":  currencies,
		"movements":   movements,
		"periodStats": stats,
	})
}

// HandleCreateMovement records a new deposit or withdrawal.
func (h *Handler) HandleCreateMovement(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var in funding.CreateMovementInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	movement, err := h.service.CreateMovement(userID, in)
	if err != nil {
		if domain.IsValidation(err) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error().Err(err).Msg("Failed to create cash movement")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"data":    movement,
	})
}

// HandleGetPeriods returns the distinct period windows for the period selector.
func (h *Handler) HandleGetPeriods(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	periods, err := h.service.UniquePeriods(userID)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load periods")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if periods == nil {
		periods = []funding.Period{}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"periods": periods})
}

// HandleGetMovementsForPeriod returns the movements for one exact window.
// periodFrom is required; an absent periodTo query parameter selects the
// currently open period (period_to IS NULL). There is no string sentinel.
func (h *Handler) HandleGetMovementsForPeriod(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	periodFrom := r.URL.Query().Get("periodFrom")

	var periodTo *string
	if r.URL.Query().Has("periodTo") {
		v := r.URL.Query().Get("periodTo")
		periodTo = &v
	}

	movements, err := h.service.MovementsForPeriod(userID, periodFrom, periodTo)
	if err != nil {
		if domain.IsValidation(err) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error().Err(err).Msg("Failed to load movements for period")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if movements == nil {
		movements = []funding.CashMovement{}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"movements": movements})
}

// HandleGetCurrencies returns the distinct trading currencies recorded.
func (h *Handler) HandleGetCurrencies(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	currencies, err := h.service.Currencies(userID)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load currencies")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if currencies == nil {
		currencies = []string{}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"currencies": currencies})
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
