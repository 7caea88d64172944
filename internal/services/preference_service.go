package services

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/resqhub/quakewatch-be/internal/models"
)

// PreferenceServiceProvider defines the interface for preference storage.
type PreferenceServiceProvider interface {
	GetForUser(userID string) (models.Preference, error)
	Upsert(pref models.Preference) (models.Preference, error)
	GetActiveForDispatch() ([]models.Preference, error)
}

// PreferenceService provides storage access for user alert preferences.
type PreferenceService struct {
	db *sql.DB
}

// NewPreferenceService creates a new PreferenceService.
func NewPreferenceService(db *sql.DB) *PreferenceService {
	return &PreferenceService{db: db}
}

// GetForUser retrieves a user's preference row. A user who has never saved
// one gets the defaults back (get-or-create semantics without a write).
func (s *PreferenceService) GetForUser(userID string) (models.Preference, error) {
	var p models.Preference
	row := s.db.QueryRow(`SELECT id, user_id, location_name, location_lat, location_lng,
		min_magnitude, alert_radius_km, push_enabled, email_enabled, updated_at
		FROM user_preferences WHERE user_id = ?`, userID)

	var locationName sql.NullString
	err := row.Scan(&p.ID, &p.UserID, &locationName, &p.LocationLat, &p.LocationLng,
		&p.MinMagnitude, &p.AlertRadiusKm, &p.PushEnabled, &p.EmailEnabled, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return models.DefaultPreference(userID), nil
	}
	if err != nil {
		return models.Preference{}, err
	}
	p.LocationName = locationName.String
	return p, nil
}

// Upsert saves a user's preference, inserting on first save and updating in
// place afterwards. The UNIQUE constraint on user_id keeps this one row per
// user no matter how the calls interleave.
func (s *PreferenceService) Upsert(pref models.Preference) (models.Preference, error) {
	if pref.UserID == "" {
		return models.Preference{}, fmt.Errorf("preference requires a user ID")
	}
	if pref.ID == "" {
		pref.ID = uuid.New().String()
	}

	stmt, err := s.db.Prepare(`INSERT INTO user_preferences
		(id, user_id, location_name, location_lat, location_lng, min_magnitude,
		 alert_radius_km, push_enabled, email_enabled, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(user_id) DO UPDATE SET
			location_name = excluded.location_name,
			location_lat = excluded.location_lat,
			location_lng = excluded.location_lng,
			min_magnitude = excluded.min_magnitude,
			alert_radius_km = excluded.alert_radius_km,
			push_enabled = excluded.push_enabled,
			email_enabled = excluded.email_enabled,
			updated_at = CURRENT_TIMESTAMP`)
	if err != nil {
		return models.Preference{}, err
	}
	defer stmt.Close()

	_, err = stmt.Exec(pref.ID, pref.UserID, pref.LocationName,
		pref.LocationLat, pref.LocationLng, pref.MinMagnitude,
		pref.AlertRadiusKm, pref.PushEnabled, pref.EmailEnabled)
	if err != nil {
		return models.Preference{}, err
	}

	return s.GetForUser(pref.UserID)
}

// GetActiveForDispatch returns every preference with at least one delivery
// channel enabled. The dispatcher evaluates each new alert against these.
func (s *PreferenceService) GetActiveForDispatch() ([]models.Preference, error) {
	rows, err := s.db.Query(`SELECT id, user_id, location_name, location_lat, location_lng,
		min_magnitude, alert_radius_km, push_enabled, email_enabled, updated_at
		FROM user_preferences WHERE push_enabled = 1 OR email_enabled = 1`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var prefs []models.Preference
	for rows.Next() {
		var p models.Preference
		var locationName sql.NullString
		if err := rows.Scan(&p.ID, &p.UserID, &locationName, &p.LocationLat, &p.LocationLng,
			&p.MinMagnitude, &p.AlertRadiusKm, &p.PushEnabled, &p.EmailEnabled, &p.UpdatedAt); err != nil {
			return nil, err
		}
		p.LocationName = locationName.String
		prefs = append(prefs, p)
	}
	return prefs, rows.Err()
}
