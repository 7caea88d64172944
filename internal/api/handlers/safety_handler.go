package handlers

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/resqhub/quakewatch-be/internal/services"
)

// SafetyHandler serves the static safety guide content.
type SafetyHandler struct {
	service services.SafetyGuideServiceProvider
}

// NewSafetyHandler creates a new SafetyHandler.
func NewSafetyHandler(service services.SafetyGuideServiceProvider) *SafetyHandler {
	return &SafetyHandler{service: service}
}

// GetAll returns every guide in display priority order.
func (h *SafetyHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	guides, err := h.service.GetAll()
	if err != nil {
		log.Error().Err(err).Msg("Failed to retrieve safety guides")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to retrieve safety guides"})
		return
	}
	writeJSON(w, http.StatusOK, guides)
}
