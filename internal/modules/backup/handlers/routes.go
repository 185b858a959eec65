package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all backup routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/export", h.HandleExport)  // Complete dataset download
	r.Post("/import", h.HandleImport) // Dataset upload, ?strategy=current|full
}
