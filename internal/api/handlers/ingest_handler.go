package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/resqhub/quakewatch-be/internal/ingest"
	"github.com/resqhub/quakewatch-be/internal/usgs"
)

// CycleRunner runs one ingestion cycle.
type CycleRunner interface {
	RunCycle(ctx context.Context) (ingest.Result, error)
}

// IngestHandler exposes the ingestion trigger endpoint used by external
// schedulers.
type IngestHandler struct {
	runner CycleRunner
}

// NewIngestHandler creates a new IngestHandler.
func NewIngestHandler(runner CycleRunner) *IngestHandler {
	return &IngestHandler{runner: runner}
}

// Run triggers one ingestion cycle. Any HTTP method is accepted; external
// cron services vary in what they send.
func (h *IngestHandler) Run(w http.ResponseWriter, r *http.Request) {
	result, err := h.runner.RunCycle(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Triggered ingestion cycle failed")
		status := http.StatusInternalServerError
		if errors.Is(err, usgs.ErrFeedUnavailable) || errors.Is(err, usgs.ErrFeedMalformed) {
			status = http.StatusBadGateway
		}
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}

	// "processed" reports records seen in the feed, matching the upstream
	// contract; inserted is the number of genuinely new rows.
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"processed": result.Processed,
		"inserted":  result.Inserted,
		"message":   fmt.Sprintf("Earthquake data updated successfully (%d new)", result.Inserted),
	})
}

// writeJSON is the shared response helper for all handlers.
func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}
