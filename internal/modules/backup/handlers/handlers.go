// Package handlers provides HTTP handlers for dataset export and import.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/kwchan/folio/internal/domain"
	"github.com/kwchan/folio/internal/modules/backup"
)

// Handler handles export and import HTTP requests
type Handler struct {
	service *backup.Service
	log     zerolog.Logger
}

// NewHandler creates a new backup handler
func NewHandler(service *backup.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "backup").Logger(),
	}
}

// HandleExport handles GET /export
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	data, err := h.service.Export()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to export dataset")
		h.writeError(w, http.StatusInternalServerError, "failed to export dataset")
		return
	}

	filename := fmt.Sprintf("folio_export_%s.json", time.Now().UTC().Format("2006-01-02"))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	h.writeJSON(w, http.StatusOK, data)
}

// HandleImport handles POST /import?strategy=current|full
func (h *Handler) HandleImport(w http.ResponseWriter, r *http.Request) {
	strategy := r.URL.Query().Get("strategy")
	if strategy == "" {
		strategy = backup.StrategyCurrent
	}
	if strategy != backup.StrategyCurrent && strategy != backup.StrategyFull {
		h.writeError(w, http.StatusBadRequest, "strategy must be 'current' or 'full'")
		return
	}

	var data domain.Dataset
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.service.Import(r.Context(), &data, strategy); err != nil {
		h.log.Error().Err(err).Str("strategy", strategy).Msg("Import failed")
		if errors.Is(err, backup.ErrInvalidDataset) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.writeError(w, http.StatusInternalServerError, "failed to import dataset")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "imported",
		"strategy":  strategy,
		"holdings":  len(data.Holdings),
		"snapshots": len(data.Snapshots),
	})
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
