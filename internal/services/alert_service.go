package services

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/resqhub/quakewatch-be/internal/models"
)

// ErrDuplicateAlert signals that a row with the same external ID already
// exists. The pipeline treats it as benign: the uniqueness constraint, not
// the application-level existence check, is the source of correctness.
var ErrDuplicateAlert = errors.New("alert already exists")

// AlertServiceProvider defines the interface for alert storage.
type AlertServiceProvider interface {
	Exists(externalID string) (bool, error)
	Insert(alert models.Alert) (models.Alert, error)
	GetRecent(limit int) ([]models.Alert, error)
}

// AlertService provides storage access for earthquake alerts.
type AlertService struct {
	db *sql.DB
}

// NewAlertService creates a new AlertService.
func NewAlertService(db *sql.DB) *AlertService {
	return &AlertService{db: db}
}

// Exists reports whether an alert with the given external ID is already
// stored. Purely an optimization to avoid constraint-violation churn during
// ingestion; Insert remains safe without it.
func (s *AlertService) Exists(externalID string) (bool, error) {
	var one int
	err := s.db.QueryRow("SELECT 1 FROM alerts WHERE external_id = ?", externalID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Insert stores a new alert row. A uniqueness violation on external_id is
// mapped to ErrDuplicateAlert so callers can distinguish it from real
// storage failures.
func (s *AlertService) Insert(alert models.Alert) (models.Alert, error) {
	alert.ID = uuid.New().String()

	stmt, err := s.db.Prepare(`INSERT INTO alerts
		(id, external_id, magnitude, location, latitude, longitude, depth_km,
		 occurred_at, significance, alert_level, felt_reports, tsunami_warning, source_url)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return models.Alert{}, err
	}
	defer stmt.Close()

	_, err = stmt.Exec(
		alert.ID, alert.ExternalID, alert.Magnitude, alert.Location,
		alert.Latitude, alert.Longitude, alert.DepthKm,
		alert.OccurredAt.UTC(), alert.Significance, alert.AlertLevel,
		alert.FeltReports, alert.TsunamiWarning, alert.SourceURL,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return models.Alert{}, fmt.Errorf("%w: %s", ErrDuplicateAlert, alert.ExternalID)
		}
		return models.Alert{}, err
	}
	return alert, nil
}

// GetRecent retrieves the most recent alerts ordered by event time descending.
func (s *AlertService) GetRecent(limit int) ([]models.Alert, error) {
	rows, err := s.db.Query(`SELECT id, external_id, magnitude, location, latitude, longitude,
		depth_km, occurred_at, significance, alert_level, felt_reports, tsunami_warning,
		source_url, created_at
		FROM alerts ORDER BY occurred_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []models.Alert
	for rows.Next() {
		var a models.Alert
		if err := rows.Scan(&a.ID, &a.ExternalID, &a.Magnitude, &a.Location,
			&a.Latitude, &a.Longitude, &a.DepthKm, &a.OccurredAt,
			&a.Significance, &a.AlertLevel, &a.FeltReports, &a.TsunamiWarning,
			&a.SourceURL, &a.CreatedAt); err != nil {
			return nil, err
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

// isUniqueViolation unwraps the driver error and checks for SQLite's unique
// and primary-key constraint codes.
func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		code := se.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}
