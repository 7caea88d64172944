package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, "./quakewatch.db", cfg.DatabasePath)
	assert.Contains(t, cfg.FeedURL, "earthquake.usgs.gov")
	assert.True(t, cfg.PollEnabled)
	assert.Equal(t, "*/5 * * * *", cfg.PollSchedule)
}

func TestLoad_InvalidPort(t *testing.T) {
	t.Setenv("PORT", "not-a-port")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_InvalidSchedule(t *testing.T) {
	t.Setenv("POLL_SCHEDULE", "every 5 minutes")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("POLL_ENABLED", "false")
	t.Setenv("FEED_TIMEOUT", "3s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.ServerPort)
	assert.False(t, cfg.PollEnabled)
	assert.Equal(t, "3s", cfg.FeedTimeout.String())
}
