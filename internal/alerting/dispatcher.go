package alerting

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/resqhub/quakewatch-be/internal/models"
	"github.com/resqhub/quakewatch-be/internal/services"
)

// Decision records that an alert qualified for a user and which delivery
// channels their preference enables. Actual push/email delivery is owned by
// downstream collaborators; this service only decides.
type Decision struct {
	UserID string       `json:"userId"`
	Alert  models.Alert `json:"alert"`
	Push   bool         `json:"push"`
	Email  bool         `json:"email"`
}

// UserNotifier delivers a realtime message to one user's subscribed sessions.
type UserNotifier interface {
	NotifyUser(userID string, message []byte)
}

// Dispatcher evaluates each newly ingested alert against every active user
// preference and publishes a Decision per match.
type Dispatcher struct {
	prefs    services.PreferenceServiceProvider
	activity services.ActivityServiceProvider
	notifier UserNotifier
}

// NewDispatcher creates a new Dispatcher.
func NewDispatcher(prefs services.PreferenceServiceProvider, activity services.ActivityServiceProvider, notifier UserNotifier) *Dispatcher {
	return &Dispatcher{prefs: prefs, activity: activity, notifier: notifier}
}

// Dispatch runs the matcher for one alert against all active preferences and
// returns the decisions it published. A failure loading preferences aborts
// the dispatch; per-user publish and activity writes are best-effort.
func (d *Dispatcher) Dispatch(alert models.Alert) ([]Decision, error) {
	prefs, err := d.prefs.GetActiveForDispatch()
	if err != nil {
		return nil, fmt.Errorf("load active preferences: %w", err)
	}

	var decisions []Decision
	for _, pref := range prefs {
		if !Matches(alert, pref) {
			continue
		}

		decision := Decision{
			UserID: pref.UserID,
			Alert:  alert,
			Push:   pref.PushEnabled,
			Email:  pref.EmailEnabled,
		}
		decisions = append(decisions, decision)

		payload, err := json.Marshal(map[string]interface{}{
			"type":    "user_alert",
			"payload": decision,
		})
		if err != nil {
			log.Error().Err(err).Str("user_id", pref.UserID).Msg("Failed to encode dispatch decision")
			continue
		}
		d.notifier.NotifyUser(pref.UserID, payload)

		userID := pref.UserID
		msg := fmt.Sprintf("M%.1f %s qualified for your alert settings", alert.Magnitude, alert.Location)
		if err := d.activity.Record("alert.dispatch", "warn", msg, &userID); err != nil {
			log.Error().Err(err).Str("user_id", pref.UserID).Msg("Failed to record dispatch activity")
		}
	}
	return decisions, nil
}
