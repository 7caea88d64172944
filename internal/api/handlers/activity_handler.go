package handlers

import (
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/resqhub/quakewatch-be/internal/services"
)

// ActivityHandler handles HTTP requests for the system activity feed.
type ActivityHandler struct {
	service services.ActivityServiceProvider
}

// NewActivityHandler creates a new ActivityHandler.
func NewActivityHandler(service services.ActivityServiceProvider) *ActivityHandler {
	return &ActivityHandler{service: service}
}

// GetRecent handles the request to get recent activity entries.
func (h *ActivityHandler) GetRecent(w http.ResponseWriter, r *http.Request) {
	limitStr := r.URL.Query().Get("limit")
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 {
		limit = 20 // Default limit
	}

	activities, err := h.service.GetRecent(limit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to retrieve activities")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to retrieve activities"})
		return
	}
	writeJSON(w, http.StatusOK, activities)
}
