package alerting

import (
	"math"

	"github.com/resqhub/quakewatch-be/internal/models"
)

// earthRadiusKm is the mean Earth radius used for great-circle distances.
const earthRadiusKm = 6371.0

// Matches decides whether an alert should surface for a user, based purely
// on the stored preference: the magnitude threshold always applies, and the
// radius check only applies when the preference carries a location. The
// radius boundary is inclusive.
func Matches(alert models.Alert, pref models.Preference) bool {
	if alert.Magnitude < pref.MinMagnitude {
		return false
	}
	if !pref.HasLocation() {
		return true
	}
	distance := Haversine(*pref.LocationLat, *pref.LocationLng, alert.Latitude, alert.Longitude)
	return distance <= float64(pref.AlertRadiusKm)
}

// Haversine returns the great-circle distance in kilometers between two
// WGS84 coordinates.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLng := radians(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(a))
}

func radians(degrees float64) float64 {
	return degrees * math.Pi / 180
}
