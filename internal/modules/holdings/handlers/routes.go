package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all holding routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/holdings", func(r chi.Router) {
		r.Get("/", h.HandleList)          // List all holdings
		r.Post("/", h.HandleCreate)       // Create a holding
		r.Put("/{id}", h.HandleUpdate)    // Update a holding
		r.Delete("/{id}", h.HandleDelete) // Delete a holding
	})
}
