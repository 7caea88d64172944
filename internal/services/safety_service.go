package services

import (
	"database/sql"

	"github.com/resqhub/quakewatch-be/internal/models"
)

// SafetyGuideServiceProvider defines the interface for safety guide reads.
type SafetyGuideServiceProvider interface {
	GetAll() ([]models.SafetyGuide, error)
}

// SafetyGuideService serves the static safety reference content.
type SafetyGuideService struct {
	db *sql.DB
}

// NewSafetyGuideService creates a new SafetyGuideService.
func NewSafetyGuideService(db *sql.DB) *SafetyGuideService {
	return &SafetyGuideService{db: db}
}

// GetAll retrieves every guide ordered by display priority.
func (s *SafetyGuideService) GetAll() ([]models.SafetyGuide, error) {
	rows, err := s.db.Query("SELECT id, title, category, content, icon, priority FROM safety_guides ORDER BY priority ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var guides []models.SafetyGuide
	for rows.Next() {
		var g models.SafetyGuide
		if err := rows.Scan(&g.ID, &g.Title, &g.Category, &g.Content, &g.Icon, &g.Priority); err != nil {
			return nil, err
		}
		guides = append(guides, g)
	}
	return guides, rows.Err()
}
