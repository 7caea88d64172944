package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/resqhub/quakewatch-be/internal/models"
	"github.com/resqhub/quakewatch-be/internal/services"
)

// PreferenceHandler handles HTTP requests for user alert preferences.
// User identity arrives as an opaque ID in the path; account management is
// owned by the auth collaborator in front of this service.
type PreferenceHandler struct {
	service services.PreferenceServiceProvider
}

// NewPreferenceHandler creates a new PreferenceHandler.
func NewPreferenceHandler(service services.PreferenceServiceProvider) *PreferenceHandler {
	return &PreferenceHandler{service: service}
}

// Get returns a user's preference, falling back to defaults for users who
// never saved one.
func (h *PreferenceHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	pref, err := h.service.GetForUser(userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to retrieve preference")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to retrieve preference"})
		return
	}
	writeJSON(w, http.StatusOK, pref)
}

// Upsert saves a user's preference, one row per user.
func (h *PreferenceHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var pref models.Preference
	if err := json.NewDecoder(r.Body).Decode(&pref); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	pref.UserID = userID

	if msg := validatePreference(pref); msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	saved, err := h.service.Upsert(pref)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to save preference")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to save preference"})
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func validatePreference(pref models.Preference) string {
	if pref.MinMagnitude < 0 || pref.MinMagnitude > 10 {
		return "minMagnitude must be between 0 and 10"
	}
	if pref.AlertRadiusKm <= 0 {
		return "alertRadiusKm must be positive"
	}
	// A half-set coordinate pair is almost certainly a client bug.
	if (pref.LocationLat == nil) != (pref.LocationLng == nil) {
		return "locationLat and locationLng must be set together"
	}
	if pref.LocationLat != nil && (*pref.LocationLat < -90 || *pref.LocationLat > 90) {
		return "locationLat must be between -90 and 90"
	}
	if pref.LocationLng != nil && (*pref.LocationLng < -180 || *pref.LocationLng > 180) {
		return "locationLng must be between -180 and 180"
	}
	return ""
}
