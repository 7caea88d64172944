package services

import (
	"database/sql"

	"github.com/google/uuid"

	"github.com/resqhub/quakewatch-be/internal/models"
)

// ActivityServiceProvider defines the interface for the activity log.
type ActivityServiceProvider interface {
	Record(activityType, level, message string, userID *string) error
	GetRecent(limit int) ([]models.Activity, error)
}

// ActivityService provides the system activity log: ingestion cycle
// outcomes, dispatch decisions, poller failures.
type ActivityService struct {
	db *sql.DB
}

// NewActivityService creates a new ActivityService.
func NewActivityService(db *sql.DB) *ActivityService {
	return &ActivityService{db: db}
}

// Record logs a new activity entry to the database.
func (s *ActivityService) Record(activityType, level, message string, userID *string) error {
	activity := models.Activity{
		ID:      uuid.New().String(),
		Type:    activityType,
		Level:   level,
		Message: message,
		UserID:  userID,
	}

	stmt, err := s.db.Prepare("INSERT INTO activities (id, type, level, message, user_id) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	_, err = stmt.Exec(activity.ID, activity.Type, activity.Level, activity.Message, activity.UserID)
	return err
}

// GetRecent retrieves the most recent activity entries.
func (s *ActivityService) GetRecent(limit int) ([]models.Activity, error) {
	rows, err := s.db.Query("SELECT id, type, level, message, user_id, created_at FROM activities ORDER BY created_at DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var activities []models.Activity
	for rows.Next() {
		var a models.Activity
		if err := rows.Scan(&a.ID, &a.Type, &a.Level, &a.Message, &a.UserID, &a.CreatedAt); err != nil {
			return nil, err
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}
