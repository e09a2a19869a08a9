package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers funding routes on the router
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/funding", func(r chi.Router) {
		r.Get("/", h.HandleGetFunding)
		r.Post("/movement", h.HandleCreateMovement)
		r.Get("/movements", h.HandleGetMovementsForPeriod)
		r.Get("/periods", h.HandleGetPeriods)
		r.Get("/currencies", h.HandleGetCurrencies)
	})
}
