// Package handlers provides HTTP handlers for the trade ledger.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/stackfolio/stackfolio/internal/domain"
	"github.com/stackfolio/stackfolio/internal/modules/auth"
	"github.com/stackfolio/stackfolio/internal/modules/trades"
)

// Handler handles trade HTTP requests
type Handler struct {
	service *trades.Service
	log     zerolog.Logger
}

// NewHandler creates a new trades handler
func NewHandler(service *trades.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "trades").Logger(),
	}
}

// RegisterRoutes registers trade routes on the router
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/trades", func(r chi.Router) {
		r.Get("/lots", h.HandleListLots)
		r.Post("/lots", h.HandleCreateLot)
		r.Post("/lots/{id}/close", h.HandleCloseLot)
		r.Get("/transactions", h.HandleListTransactions)
		r.Post("/transactions", h.HandleCreateTransaction)
		r.Get("/realized-pnl", h.HandleListRealizedPnL)
		r.Post("/realized-pnl", h.HandleRecordRealizedPnL)
	})
}

// HandleListLots returns the user's lots; ?open=true restricts to open lots.
func (h *Handler) HandleListLots(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	openOnly := r.URL.Query().Get("open") == "true"
	lots, err := h.service.Lots(userID, openOnly)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list trade lots")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if lots == nil {
		lots = []trades.TradeLot{}
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"lots": lots})
}

// HandleCreateLot records a new lot.
func (h *Handler) HandleCreateLot(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var in trades.TradeLotInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	lot, err := h.service.CreateLot(userID, in)
	if err != nil {
		h.writeServiceError(w, err, "Failed to create trade lot")
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]interface{}{"success": true, "data": lot})
}

// HandleCloseLot marks a lot closed.
func (h *Handler) HandleCloseLot(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid lot id")
		return
	}

	if err := h.service.CloseLot(userID, id); err != nil {
		h.writeServiceError(w, err, "Failed to close trade lot")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// HandleListTransactions returns the user's transactions.
func (h *Handler) HandleListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	txs, err := h.service.Transactions(userID)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list transactions")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if txs == nil {
		txs = []trades.Transaction{}
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"transactions": txs})
}

// HandleCreateTransaction records a new transaction.
func (h *Handler) HandleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var in trades.TransactionInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	tx, err := h.service.CreateTransaction(userID, in)
	if err != nil {
		h.writeServiceError(w, err, "Failed to create transaction")
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]interface{}{"success": true, "data": tx})
}

// HandleListRealizedPnL returns the user's realization history.
func (h *Handler) HandleListRealizedPnL(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	records, err := h.service.RealizedPnLHistory(userID)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list realized pnl")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if records == nil {
		records = []trades.RealizedPnL{}
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"realizedPnl": records})
}

// HandleRecordRealizedPnL appends a realization record.
func (h *Handler) HandleRecordRealizedPnL(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var in trades.RealizedPnLInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	record, err := h.service.RecordRealizedPnL(userID, in)
	if err != nil {
		h.writeServiceError(w, err, "Failed to record realized pnl")
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]interface{}{"success": true, "data": record})
}

// Helper methods

func (h *Handler) writeServiceError(w http.ResponseWriter, err error, logMsg string) {
	switch {
	case domain.IsValidation(err):
		h.writeError(w, http.StatusBadRequest, err.Error())
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
