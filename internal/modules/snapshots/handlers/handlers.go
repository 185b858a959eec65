// Package handlers provides HTTP handlers for snapshot and history requests.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/kwchan/folio/internal/domain"
	"github.com/kwchan/folio/internal/modules/snapshots"
)

// Handler handles snapshot HTTP requests
type Handler struct {
	service *snapshots.Service
	log     zerolog.Logger
}

// NewHandler creates a new snapshots handler
func NewHandler(service *snapshots.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "snapshots").Logger(),
	}
}

// HandleCreateSnapshot handles POST /snapshot
func (h *Handler) HandleCreateSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.Capture(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to capture snapshot")
		h.writeError(w, http.StatusInternalServerError, "failed to capture snapshot")
		return
	}

	h.writeJSON(w, http.StatusCreated, snap)
}

// HandleListHistory handles GET /history
func (h *Handler) HandleListHistory(w http.ResponseWriter, r *http.Request) {
	snaps, err := h.service.List()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list snapshots")
		h.writeError(w, http.StatusInternalServerError, "failed to list snapshots")
		return
	}

	if snaps == nil {
		snaps = []domain.Snapshot{}
	}

	h.writeJSON(w, http.StatusOK, snaps)
}

// HandleDeleteSnapshot handles DELETE /history/{id}
func (h *Handler) HandleDeleteSnapshot(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	deleted, err := h.service.Delete(id)
	if err != nil {
		h.log.Error().Err(err).Str("id", id).Msg("Failed to delete snapshot")
		h.writeError(w, http.StatusInternalServerError, "failed to delete snapshot")
		return
	}

	if !deleted {
		h.writeError(w, http.StatusNotFound, "snapshot not found")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": id})
}

// HandleRestoreSnapshot handles POST /snapshot/{id}/restore
func (h *Handler) HandleRestoreSnapshot(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	snap, err := h.service.Restore(id)
	if err != nil {
		h.log.Error().Err(err).Str("id", id).Msg("Failed to restore snapshot")
		h.writeError(w, http.StatusInternalServerError, "failed to restore snapshot")
		return
	}

	if snap == nil {
		h.writeError(w, http.StatusNotFound, "snapshot not found")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "restored",
		"id":       snap.ID,
		"holdings": len(snap.Holdings),
	})
}

// HandleSnapshotSummary handles GET /history/{id}/summary
func (h *Handler) HandleSnapshotSummary(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	summary, err := h.service.SnapshotSummary(id)
	if err != nil {
		h.log.Error().Err(err).Str("id", id).Msg("Failed to build snapshot summary")
		h.writeError(w, http.StatusInternalServerError, "failed to build snapshot summary")
		return
	}

	if summary == nil {
		h.writeError(w, http.StatusNotFound, "snapshot not found")
		return
	}

	h.writeJSON(w, http.StatusOK, summary)
}

// HandleHistoryStats handles GET /history/stats
func (h *Handler) HandleHistoryStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to compute history stats")
		h.writeError(w, http.StatusInternalServerError, "failed to compute history stats")
		return
	}

	h.writeJSON(w, http.StatusOK, stats)
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes a JSON error response
func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}
