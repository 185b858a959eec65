// Package handlers provides HTTP handlers for holding CRUD operations.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/kwchan/folio/internal/domain"
	"github.com/kwchan/folio/internal/events"
	"github.com/kwchan/folio/internal/modules/holdings"
)

// Handler handles holding HTTP requests
type Handler struct {
	repo *holdings.Repository
	bus  *events.Bus
	log  zerolog.Logger
}

// NewHandler creates a new holdings handler
func NewHandler(repo *holdings.Repository, bus *events.Bus, log zerolog.Logger) *Handler {
	return &Handler{
		repo: repo,
		bus:  bus,
		log:  log.With().Str("handler", "holdings").Logger(),
	}
}

// HandleList handles GET /holdings
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	all, err := h.repo.GetAll()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list holdings")
		h.writeError(w, http.StatusInternalServerError, "failed to list holdings")
		return
	}

	if all == nil {
		all = []domain.Holding{}
	}

	h.writeJSON(w, http.StatusOK, all)
}

// HandleCreate handles POST /holdings
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var holding domain.Holding
	if err := json.NewDecoder(r.Body).Decode(&holding); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	domain.Normalize(&holding)
	if err := holding.Validate(); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.repo.Create(&holding); err != nil {
		h.log.Error().Err(err).Msg("Failed to create holding")
		h.writeError(w, http.StatusInternalServerError, "failed to create holding")
		return
	}

	h.bus.Publish(events.HoldingCreated, map[string]interface{}{
		"id":     holding.ID,
		"ticker": holding.Ticker,
	})

	h.writeJSON(w, http.StatusCreated, holding)
}

// HandleUpdate handles PUT /holdings/{id}
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var holding domain.Holding
	if err := json.NewDecoder(r.Body).Decode(&holding); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// The path is authoritative for identity
	holding.ID = id

	domain.Normalize(&holding)
	if err := holding.Validate(); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	found, err := h.repo.Update(&holding)
	if err != nil {
		h.log.Error().Err(err).Str("id", id).Msg("Failed to update holding")
		h.writeError(w, http.StatusInternalServerError, "failed to update holding")
		return
	}
	if !found {
		h.writeError(w, http.StatusNotFound, "holding not found")
		return
	}

	h.bus.Publish(events.HoldingUpdated, map[string]interface{}{
		"id":     holding.ID,
		"ticker": holding.Ticker,
	})

	h.writeJSON(w, http.StatusOK, holding)
}

// HandleDelete handles DELETE /holdings/{id}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	found, err := h.repo.Delete(id)
	if err != nil {
		h.log.Error().Err(err).Str("id", id).Msg("Failed to delete holding")
		h.writeError(w, http.StatusInternalServerError, "failed to delete holding")
		return
	}
	if !found {
		h.writeError(w, http.StatusNotFound, "holding not found")
		return
	}

	h.bus.Publish(events.HoldingDeleted, map[string]interface{}{"id": id})

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "deleted",
		"id":     id,
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
