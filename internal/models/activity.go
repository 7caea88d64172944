package models

import "time"

// Activity represents a loggable action or decision in the system.
type Activity struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`  // e.g., "ingest.cycle.success", "alert.dispatch"
	Level     string    `json:"level"` // e.g., "info", "warn", "error"
	Message   string    `json:"message"`
	UserID    *string   `json:"userId,omitempty"` // Nullable for system-wide entries
	CreatedAt time.Time `json:"createdAt"`
}
