package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers dividend routes on the router
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/dividends", func(r chi.Router) {
		r.Get("/by-ticker", h.HandleByTicker)
		r.Get("/by-quarter", h.HandleByQuarter)
		r.Get("/by-year", h.HandleByYear)
		r.Post("/", h.HandleCreate)
		r.Put("/{id}", h.HandleUpdate)
	})
}
