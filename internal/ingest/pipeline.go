package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/resqhub/quakewatch-be/internal/alerting"
	"github.com/resqhub/quakewatch-be/internal/models"
	"github.com/resqhub/quakewatch-be/internal/observability"
	"github.com/resqhub/quakewatch-be/internal/services"
	"github.com/resqhub/quakewatch-be/internal/usgs"
)

// FeedClient fetches the latest events from the upstream seismic feed.
type FeedClient interface {
	FetchLatestEvents(ctx context.Context) ([]models.Alert, error)
}

// AlertPublisher pushes a newly inserted alert to subscribed sessions.
type AlertPublisher interface {
	PublishAlert(alert models.Alert)
}

// Dispatcher evaluates one alert against active user preferences.
type Dispatcher interface {
	Dispatch(alert models.Alert) ([]alerting.Decision, error)
}

// Result summarizes one ingestion cycle. Processed counts records seen in
// the feed, not records inserted; the dashboard's upstream contract reports
// that number, so it stays. Inserted and Skipped carry the real outcome.
type Result struct {
	Processed int `json:"processed"`
	Inserted  int `json:"inserted"`
	Skipped   int `json:"skipped"`
}

// Pipeline orchestrates one fetch-dedup-insert-notify cycle. It holds no
// scheduling state and is safe to re-run: re-ingesting an unchanged feed
// inserts nothing, and two overlapping cycles cannot double-insert because
// the alerts table enforces uniqueness on external_id.
type Pipeline struct {
	feed       FeedClient
	alerts     services.AlertServiceProvider
	publisher  AlertPublisher
	dispatcher Dispatcher
	activity   services.ActivityServiceProvider
	metrics    *observability.Metrics
}

// NewPipeline creates an ingestion pipeline.
func NewPipeline(feed FeedClient, alerts services.AlertServiceProvider, publisher AlertPublisher,
	dispatcher Dispatcher, activity services.ActivityServiceProvider, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		feed:       feed,
		alerts:     alerts,
		publisher:  publisher,
		dispatcher: dispatcher,
		activity:   activity,
		metrics:    metrics,
	}
}

// RunCycle executes one ingestion cycle. A feed failure aborts before any
// writes; a storage failure aborts mid-batch, and rows inserted earlier in
// the same cycle stand (no rollback). Retry policy belongs to the scheduler,
// not here.
func (p *Pipeline) RunCycle(ctx context.Context) (Result, error) {
	start := time.Now()

	events, err := p.feed.FetchLatestEvents(ctx)
	if err != nil {
		p.metrics.CyclesTotal.WithLabelValues("feed_error").Inc()
		p.metrics.FeedErrors.WithLabelValues(feedErrorKind(err)).Inc()
		p.recordActivity("ingest.cycle.fail", "error", fmt.Sprintf("Feed fetch failed: %v", err))
		return Result{}, err
	}

	var result Result
	for _, event := range events {
		result.Processed++

		exists, err := p.alerts.Exists(event.ExternalID)
		if err != nil {
			return p.abortStorage(result, fmt.Errorf("existence check for %s: %w", event.ExternalID, err))
		}
		if exists {
			result.Skipped++
			p.metrics.DuplicatesSkipped.Inc()
			continue
		}

		inserted, err := p.alerts.Insert(event)
		if err != nil {
			// A concurrent cycle won the race for this event; the constraint
			// did its job and the record is stored exactly once.
			if errors.Is(err, services.ErrDuplicateAlert) {
				result.Skipped++
				p.metrics.DuplicatesSkipped.Inc()
				continue
			}
			return p.abortStorage(result, fmt.Errorf("insert %s: %w", event.ExternalID, err))
		}
		result.Inserted++

		p.publisher.PublishAlert(inserted)
		p.dispatch(inserted)
	}

	p.metrics.CyclesTotal.WithLabelValues("success").Inc()
	p.metrics.EventsProcessed.Add(float64(result.Processed))
	p.metrics.EventsInserted.Add(float64(result.Inserted))
	p.metrics.CycleDuration.Observe(time.Since(start).Seconds())

	log.Info().
		Int("processed", result.Processed).
		Int("inserted", result.Inserted).
		Int("skipped", result.Skipped).
		Msg("Ingestion cycle complete")

	if result.Inserted > 0 {
		p.recordActivity("ingest.cycle.success", "info",
			fmt.Sprintf("Ingested %d new earthquakes (%d seen)", result.Inserted, result.Processed))
	}
	return result, nil
}

// dispatch runs the preference matcher for one inserted alert. Dispatch
// failures are logged but never fail the cycle: the row is already durable
// and visible via range queries.
func (p *Pipeline) dispatch(alert models.Alert) {
	decisions, err := p.dispatcher.Dispatch(alert)
	if err != nil {
		log.Error().Err(err).Str("external_id", alert.ExternalID).Msg("Dispatch failed")
		return
	}
	p.metrics.DispatchDecisions.Add(float64(len(decisions)))
}

func (p *Pipeline) abortStorage(result Result, err error) (Result, error) {
	p.metrics.CyclesTotal.WithLabelValues("storage_error").Inc()
	p.recordActivity("ingest.cycle.fail", "error", fmt.Sprintf("Storage failure: %v", err))
	return result, err
}

func (p *Pipeline) recordActivity(activityType, level, message string) {
	if err := p.activity.Record(activityType, level, message, nil); err != nil {
		log.Error().Err(err).Msg("Failed to record ingestion activity")
	}
}

func feedErrorKind(err error) string {
	if errors.Is(err, usgs.ErrFeedMalformed) {
		return "malformed"
	}
	return "unavailable"
}
