package handlers

import (
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/resqhub/quakewatch-be/internal/models"
	"github.com/resqhub/quakewatch-be/internal/services"
)

const (
	defaultAlertLimit = 20
	maxAlertLimit     = 200
)

// AlertHandler handles HTTP requests for earthquake alerts.
type AlertHandler struct {
	service services.AlertServiceProvider
}

// NewAlertHandler creates a new AlertHandler.
func NewAlertHandler(service services.AlertServiceProvider) *AlertHandler {
	return &AlertHandler{service: service}
}

// GetRecent handles the request for the most recent alerts, newest first.
func (h *AlertHandler) GetRecent(w http.ResponseWriter, r *http.Request) {
	limit := defaultAlertLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}
	if limit > maxAlertLimit {
		limit = maxAlertLimit
	}

	alerts, err := h.service.GetRecent(limit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to retrieve alerts")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to retrieve alerts"})
		return
	}
	if alerts == nil {
		alerts = []models.Alert{}
	}
	writeJSON(w, http.StatusOK, alerts)
}
