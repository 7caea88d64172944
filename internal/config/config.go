package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"
)

// Config holds the application configuration.
type Config struct {
	ServerPort   int
	DatabasePath string

	// Upstream seismic feed.
	FeedURL     string
	FeedTimeout time.Duration

	// Built-in poller. The ingest trigger endpoint works regardless, so
	// deployments that schedule cycles externally can disable this.
	PollEnabled  bool
	PollSchedule string // standard 5-field cron expression

	// Interval for the host stats broadcast.
	StatsInterval time.Duration
}

// Load loads configuration from environment variables or sets defaults.
func Load() (*Config, error) {
	portStr := getEnv("PORT", "8080")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT %q: %w", portStr, err)
	}

	feedTimeout, err := time.ParseDuration(getEnv("FEED_TIMEOUT", "15s"))
	if err != nil || feedTimeout <= 0 {
		return nil, fmt.Errorf("invalid FEED_TIMEOUT: %v", err)
	}

	statsInterval, err := time.ParseDuration(getEnv("STATS_INTERVAL", "30s"))
	if err != nil || statsInterval <= 0 {
		return nil, fmt.Errorf("invalid STATS_INTERVAL: %v", err)
	}

	schedule := getEnv("POLL_SCHEDULE", "*/5 * * * *")
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid POLL_SCHEDULE %q: %w", schedule, err)
	}

	return &Config{
		ServerPort:    port,
		DatabasePath:  getEnv("DATABASE_PATH", "./quakewatch.db"),
		FeedURL:       getEnv("FEED_URL", "https://earthquake.usgs.gov/earthquakes/feed/v1.0/summary/2.5_day.geojson"),
		FeedTimeout:   feedTimeout,
		PollEnabled:   getEnv("POLL_ENABLED", "true") == "true",
		PollSchedule:  schedule,
		StatsInterval: statsInterval,
	}, nil
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
