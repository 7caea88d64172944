package models

import "time"

// Alert represents a single earthquake event ingested from the upstream feed.
// Rows are append-only: the pipeline never updates or deletes them, and
// external_id carries a UNIQUE constraint so one physical quake maps to at
// most one row regardless of how many ingestion cycles see it.
type Alert struct {
	ID             string    `json:"id"`
	ExternalID     string    `json:"earthquakeId"`
	Magnitude      float64   `json:"magnitude"`
	Location       string    `json:"location"`
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	DepthKm        float64   `json:"depthKm"`
	OccurredAt     time.Time `json:"occurredAt"`
	Significance   int       `json:"significance"`
	AlertLevel     *string   `json:"alertLevel,omitempty"` // upstream green/yellow/orange/red, often absent
	FeltReports    int       `json:"feltReports"`
	TsunamiWarning bool      `json:"tsunamiWarning"`
	SourceURL      string    `json:"sourceUrl"`
	CreatedAt      time.Time `json:"createdAt"`
}
