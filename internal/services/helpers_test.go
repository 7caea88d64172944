package services_test

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/resqhub/quakewatch-be/internal/database"
	"github.com/resqhub/quakewatch-be/internal/models"
)

// newTestDB opens a throwaway migrated database under t.TempDir.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(db))
	return db
}

func sampleAlert(externalID string) models.Alert {
	return models.Alert{
		ExternalID:   externalID,
		Magnitude:    5.4,
		Location:     "40 km SSW of Kokopo, Papua New Guinea",
		Latitude:     -4.68,
		Longitude:    152.12,
		DepthKm:      61.4,
		OccurredAt:   time.Date(2026, time.March, 14, 9, 26, 53, 0, time.UTC),
		Significance: 449,
		SourceURL:    "https://earthquake.usgs.gov/earthquakes/eventpage/" + externalID,
	}
}
