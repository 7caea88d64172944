package ingest_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resqhub/quakewatch-be/internal/alerting"
	"github.com/resqhub/quakewatch-be/internal/ingest"
	"github.com/resqhub/quakewatch-be/internal/models"
	"github.com/resqhub/quakewatch-be/internal/observability"
	"github.com/resqhub/quakewatch-be/internal/services"
	"github.com/resqhub/quakewatch-be/internal/usgs"
)

// --- mocks ---

type mockFeed struct {
	events []models.Alert
	err    error
}

func (m *mockFeed) FetchLatestEvents(_ context.Context) ([]models.Alert, error) {
	return m.events, m.err
}

// mockAlertStore mimics the real store's behavior including the uniqueness
// constraint backstop.
type mockAlertStore struct {
	stored    map[string]models.Alert
	existsErr error
	insertErr error

	// raceWith simulates a concurrent cycle inserting these IDs between the
	// existence check and the insert.
	raceWith map[string]bool
}

func newMockAlertStore() *mockAlertStore {
	return &mockAlertStore{stored: make(map[string]models.Alert)}
}

func (m *mockAlertStore) Exists(externalID string) (bool, error) {
	if m.existsErr != nil {
		return false, m.existsErr
	}
	_, ok := m.stored[externalID]
	return ok, nil
}

func (m *mockAlertStore) Insert(alert models.Alert) (models.Alert, error) {
	if m.insertErr != nil {
		return models.Alert{}, m.insertErr
	}
	if m.raceWith[alert.ExternalID] {
		m.stored[alert.ExternalID] = alert
		m.raceWith[alert.ExternalID] = false
		return models.Alert{}, fmt.Errorf("%w: %s", services.ErrDuplicateAlert, alert.ExternalID)
	}
	if _, ok := m.stored[alert.ExternalID]; ok {
		return models.Alert{}, fmt.Errorf("%w: %s", services.ErrDuplicateAlert, alert.ExternalID)
	}
	m.stored[alert.ExternalID] = alert
	return alert, nil
}

func (m *mockAlertStore) GetRecent(limit int) ([]models.Alert, error) { return nil, nil }

type mockPublisher struct {
	published []models.Alert
}

func (m *mockPublisher) PublishAlert(alert models.Alert) {
	m.published = append(m.published, alert)
}

type mockDispatcher struct {
	dispatched []models.Alert
	decisions  int
	err        error
}

func (m *mockDispatcher) Dispatch(alert models.Alert) ([]alerting.Decision, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.dispatched = append(m.dispatched, alert)
	return make([]alerting.Decision, m.decisions), nil
}

type mockActivityLog struct {
	types []string
}

func (m *mockActivityLog) Record(activityType, level, message string, userID *string) error {
	m.types = append(m.types, activityType)
	return nil
}

func (m *mockActivityLog) GetRecent(limit int) ([]models.Activity, error) { return nil, nil }

func feedEvents(ids ...string) []models.Alert {
	events := make([]models.Alert, 0, len(ids))
	for _, id := range ids {
		events = append(events, models.Alert{ExternalID: id, Magnitude: 5.0, Location: "test region"})
	}
	return events
}

func newPipeline(feed ingest.FeedClient, store *mockAlertStore) (*ingest.Pipeline, *mockPublisher, *mockDispatcher, *mockActivityLog) {
	pub := &mockPublisher{}
	disp := &mockDispatcher{}
	act := &mockActivityLog{}
	p := ingest.NewPipeline(feed, store, pub, disp, act, observability.NewMetricsForTesting())
	return p, pub, disp, act
}

// --- tests ---

func TestRunCycle_InsertsNewEvents(t *testing.T) {
	store := newMockAlertStore()
	p, pub, disp, _ := newPipeline(&mockFeed{events: feedEvents("a", "b", "c")}, store)

	result, err := p.RunCycle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, ingest.Result{Processed: 3, Inserted: 3, Skipped: 0}, result)
	assert.Len(t, store.stored, 3)
	assert.Len(t, pub.published, 3)
	assert.Len(t, disp.dispatched, 3)
}

// Running twice on an unchanged feed inserts nothing the second time, and
// the second cycle publishes no notifications.
func TestRunCycle_Idempotent(t *testing.T) {
	store := newMockAlertStore()
	feed := &mockFeed{events: feedEvents("a", "b")}
	p, pub, _, _ := newPipeline(feed, store)

	first, err := p.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, first.Inserted)

	second, err := p.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ingest.Result{Processed: 2, Inserted: 0, Skipped: 2}, second)
	assert.Len(t, store.stored, 2)
	assert.Len(t, pub.published, 2) // only the first cycle published
}

// Five records with record 3 already stored: 1,2,4,5 get inserted and the
// reported Processed count stays 5 (records seen, not inserted).
func TestRunCycle_PartialDuplicates(t *testing.T) {
	store := newMockAlertStore()
	store.stored["c"] = models.Alert{ExternalID: "c"}
	p, pub, _, _ := newPipeline(&mockFeed{events: feedEvents("a", "b", "c", "d", "e")}, store)

	result, err := p.RunCycle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, ingest.Result{Processed: 5, Inserted: 4, Skipped: 1}, result)
	assert.Len(t, pub.published, 4)
	for _, a := range pub.published {
		assert.NotEqual(t, "c", a.ExternalID)
	}
}

// A concurrent cycle inserting between the existence check and the insert
// surfaces as a constraint violation, which is benign: the event is skipped
// and the cycle continues.
func TestRunCycle_RaceLostToConcurrentCycle(t *testing.T) {
	store := newMockAlertStore()
	store.raceWith = map[string]bool{"b": true}
	p, pub, _, _ := newPipeline(&mockFeed{events: feedEvents("a", "b", "c")}, store)

	result, err := p.RunCycle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, ingest.Result{Processed: 3, Inserted: 2, Skipped: 1}, result)
	assert.Len(t, pub.published, 2)
}

func TestRunCycle_FeedUnavailableAbortsWithoutWrites(t *testing.T) {
	store := newMockAlertStore()
	feedErr := fmt.Errorf("%w: status 503", usgs.ErrFeedUnavailable)
	p, pub, _, act := newPipeline(&mockFeed{err: feedErr}, store)

	_, err := p.RunCycle(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, usgs.ErrFeedUnavailable)
	assert.Empty(t, store.stored)
	assert.Empty(t, pub.published)
	assert.Contains(t, act.types, "ingest.cycle.fail")
}

// A storage failure mid-batch aborts the cycle; rows inserted before the
// failure stand.
func TestRunCycle_StorageFailureKeepsEarlierInserts(t *testing.T) {
	store := newMockAlertStore()
	firstDone := false
	flaky := &flakyStore{inner: store, failAfterFirst: &firstDone}
	p := ingest.NewPipeline(&mockFeed{events: feedEvents("a", "b", "c")}, flaky,
		&mockPublisher{}, &mockDispatcher{}, &mockActivityLog{}, observability.NewMetricsForTesting())

	result, err := p.RunCycle(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, result.Inserted)
	assert.Len(t, store.stored, 1)
}

// flakyStore passes the first record through and errors afterwards.
type flakyStore struct {
	inner          *mockAlertStore
	failAfterFirst *bool
}

func (f *flakyStore) Exists(externalID string) (bool, error) {
	if *f.failAfterFirst {
		return false, errors.New("connection reset")
	}
	return f.inner.Exists(externalID)
}

func (f *flakyStore) Insert(alert models.Alert) (models.Alert, error) {
	*f.failAfterFirst = true
	return f.inner.Insert(alert)
}

func (f *flakyStore) GetRecent(limit int) ([]models.Alert, error) { return nil, nil }

func TestRunCycle_DispatchFailureDoesNotFailCycle(t *testing.T) {
	store := newMockAlertStore()
	pub := &mockPublisher{}
	disp := &mockDispatcher{err: errors.New("preference store down")}
	p := ingest.NewPipeline(&mockFeed{events: feedEvents("a")}, store, pub, disp,
		&mockActivityLog{}, observability.NewMetricsForTesting())

	result, err := p.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Inserted)
	assert.Len(t, pub.published, 1)
}

func TestRunCycle_EmptyFeed(t *testing.T) {
	p, pub, _, act := newPipeline(&mockFeed{}, newMockAlertStore())

	result, err := p.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ingest.Result{}, result)
	assert.Empty(t, pub.published)
	assert.NotContains(t, act.types, "ingest.cycle.success") // nothing inserted, nothing logged
}
