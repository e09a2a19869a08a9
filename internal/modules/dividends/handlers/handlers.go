// Package handlers provides HTTP handlers for dividend detail and summary
// views. Each view has two shapes: detail (paginated, filtered by one
// dimension) and summary (aggregated); the filter parameter's presence picks
// the shape.
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
	"github.com/stackfolio/stackfolio/internal/modules/dividends"
)

// Handler handles dividend HTTP requests
type Handler struct {
	service *dividends.Service
	log     zerolog.Logger
}

// NewHandler creates a new dividends handler
func NewHandler(service *dividends.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "dividends").Logger(),
	}
}

// HandleByTicker returns a paginated detail page when ?ticker is present, or
// the per-ticker summary (ordered by total received, descending) when absent.
func (h *Handler) HandleByTicker(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	ticker := r.URL.Query().Get("ticker")
	if ticker == "" {
		summary, err := h.service.SummaryByTicker(userID)
		if err != nil {
			h.log.Error().Err(err).Msg("Failed to load ticker summary")
			h.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if summary == nil {
			summary = []dividends.TickerSummary{}
		}
		h.writeJSON(w, http.StatusOK, map[string]interface{}{"summary": summary})
		return
	}

	page, pageSize := paging(r)
	detail, err := h.service.DetailByTicker(userID, ticker, page, pageSize)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load dividend detail")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if detail.Items == nil {
		detail.Items = []dividends.Dividend{}
	}
	h.writeJSON(w, http.StatusOK, detail)
}

// HandleByQuarter returns a paginated quarter-detail page when ?year and
// ?quarter are present, or the per-quarter summary when absent.
func (h *Handler) HandleByQuarter(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	yearStr := r.URL.Query().Get("year")
	quarterStr := r.URL.Query().Get("quarter")
	if yearStr == "" && quarterStr == "" {
		summary, err := h.service.SummaryByQuarter(userID)
		if err != nil {
			h.log.Error().Err(err).Msg("Failed to load quarter summary")
			h.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if summary == nil {
			summary = []dividends.QuarterSummary{}
		}
		h.writeJSON(w, http.StatusOK, map[string]interface{}{"summary": summary})
		return
	}

	year, err := strconv.Atoi(yearStr)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid year")
		return
	}
	quarter, err := strconv.Atoi(quarterStr)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid quarter")
		return
	}

	page, pageSize := paging(r)
	detail, err := h.service.DetailByQuarter(userID, year, quarter, page, pageSize)
	if err != nil {
		if domain.IsValidation(err) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error().Err(err).Msg("Failed to load quarter detail")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if detail.Items == nil {
		detail.Items = []dividends.Dividend{}
	}
	h.writeJSON(w, http.StatusOK, detail)
}

// HandleByYear returns a paginated year-detail page when ?year is present,
// or the per-year summary when absent.
func (h *Handler) HandleByYear(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if yearStr := r.URL.Query().Get("year"); yearStr != "" {
		year, err := strconv.Atoi(yearStr)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid year")
			return
		}
		page, pageSize := paging(r)
		detail, err := h.service.DetailByYear(userID, year, page, pageSize)
		if err != nil {
			if domain.IsValidation(err) {
				h.writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			h.log.Error().Err(err).Msg("Failed to load year detail")
			h.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if detail.Items == nil {
			detail.Items = []dividends.Dividend{}
		}
		h.writeJSON(w, http.StatusOK, detail)
		return
	}

	summary, err := h.service.SummaryByYear(userID)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load year summary")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if summary == nil {
		summary = []dividends.YearSummary{}
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"summary": summary})
}

// HandleCreate records a new dividend.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var in dividends.DividendInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	d, err := h.service.Create(userID, in)
	if err != nil {
		if domain.IsValidation(err) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error().Err(err).Msg("Failed to create dividend")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]interface{}{"success": true, "data": d})
}

// HandleUpdate rewrites a dividend in place, recomputing the total.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid dividend id")
		return
	}

	var in dividends.DividendInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	d, err := h.service.Update(userID, id, in)
	if err != nil {
		switch {
		case domain.IsValidation(err):
			h.writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, domain.ErrNotFound):
			h.writeError(w, http.StatusNotFound, "not found")
		default:
			h.log.Error().Err(err).Msg("Failed to update dividend")
			h.writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "data": d})
}

func paging(r *http.Request) (int, int) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))
	return page, pageSize
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
