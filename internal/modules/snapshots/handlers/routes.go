package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all snapshot routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/snapshot", func(r chi.Router) {
		r.Post("/", h.HandleCreateSnapshot)              // Capture current portfolio
		r.Post("/{id}/restore", h.HandleRestoreSnapshot) // Replace holdings from snapshot
	})

	r.Route("/history", func(r chi.Router) {
		r.Get("/", h.HandleListHistory)                 // All snapshots
		r.Get("/stats", h.HandleHistoryStats)           // Net worth series statistics
		r.Get("/{id}/summary", h.HandleSnapshotSummary) // Point-in-time dashboard view
		r.Delete("/{id}", h.HandleDeleteSnapshot)       // Remove a snapshot
	})
}
