package models

import "time"

// Default thresholds applied when a user has never saved preferences.
const (
	DefaultMinMagnitude  = 4.0
	DefaultAlertRadiusKm = 500
)

// Preference holds a user's alerting thresholds. At most one row exists per
// user (UNIQUE user_id); saves go through an upsert.
type Preference struct {
	ID            string    `json:"id"`
	UserID        string    `json:"userId"`
	LocationName  string    `json:"locationName"`
	LocationLat   *float64  `json:"locationLat"`
	LocationLng   *float64  `json:"locationLng"`
	MinMagnitude  float64   `json:"minMagnitude"`
	AlertRadiusKm int       `json:"alertRadiusKm"`
	PushEnabled   bool      `json:"pushEnabled"`
	EmailEnabled  bool      `json:"emailEnabled"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// HasLocation reports whether the preference carries a complete coordinate
// pair. Without one, geo-filtering is disabled and only the magnitude
// threshold applies.
func (p Preference) HasLocation() bool {
	return p.LocationLat != nil && p.LocationLng != nil
}

// DefaultPreference returns the thresholds used for a user who has never
// saved a row.
func DefaultPreference(userID string) Preference {
	return Preference{
		UserID:        userID,
		MinMagnitude:  DefaultMinMagnitude,
		AlertRadiusKm: DefaultAlertRadiusKm,
		PushEnabled:   true,
	}
}
