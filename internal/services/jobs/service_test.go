package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/reperio/internal/common"
	"github.com/ternarybob/reperio/internal/interfaces"
	"github.com/ternarybob/reperio/internal/models"
	"github.com/ternarybob/reperio/internal/services/events"
	"github.com/ternarybob/reperio/internal/services/places"
	"github.com/ternarybob/reperio/internal/services/planner"
	"github.com/ternarybob/reperio/internal/storage/badger"
)

// fakePlaces scripts the Places client per test
type fakePlaces struct {
	mu          sync.Mutex
	geocodeErr  error
	geocodeGate chan struct{} // when set, Geocode blocks until closed
	searchErr   error
	results     map[string][]models.PlaceRecord // keyed by query text
	detailCalls int
}

func (f *fakePlaces) Geocode(ctx context.Context, apiKey, location string) (*models.GeoPoint, error) {
	if f.geocodeGate != nil {
		<-f.geocodeGate
	}
	if f.geocodeErr != nil {
		return nil, f.geocodeErr
	}
	return &models.GeoPoint{Latitude: 38.7223, Longitude: -9.1393, FormattedAddress: location + " (resolved)"}, nil
}

func (f *fakePlaces) Search(ctx context.Context, apiKey string, query models.PlannedQuery, origin models.GeoPoint, radius int) ([]models.PlaceRecord, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.results[query.Text], nil
}

func (f *fakePlaces) Details(ctx context.Context, apiKey, placeID string) (*models.PlaceRecord, error) {
	f.mu.Lock()
	f.detailCalls++
	f.mu.Unlock()
	rating := 4.0
	return &models.PlaceRecord{
		PlaceID:      placeID,
		Name:         "Detailed " + placeID,
		Rating:       &rating,
		ReviewsCount: 10,
		Types:        []string{"restaurant"},
	}, nil
}

var _ interfaces.PlacesClient = (*fakePlaces)(nil)

// fakeLicense scripts the license gate
type fakeLicense struct {
	enabled bool
	valid   bool
	reason  string
}

func (f *fakeLicense) Enabled() bool { return f.enabled }
func (f *fakeLicense) Validate(ctx context.Context, key string) (bool, string) {
	return f.valid, f.reason
}
func (f *fakeLicense) CheckoutURL() string { return "https://shop.example/buy" }

var _ interfaces.LicenseValidator = (*fakeLicense)(nil)

type testEnv struct {
	service     *Service
	broadcaster interfaces.Broadcaster
	storage     interfaces.StorageManager
	placesFake  *fakePlaces
	license     *fakeLicense
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := arbor.NewLogger()

	storage, err := badger.NewManager(logger, &common.BadgerConfig{Path: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { storage.Close() })

	cfg := common.NewDefaultConfig()
	cfg.Scrape.MaxRows = 100

	env := &testEnv{
		broadcaster: events.NewBroadcaster(logger),
		storage:     storage,
		placesFake:  &fakePlaces{results: make(map[string][]models.PlaceRecord)},
		license:     &fakeLicense{},
	}
	env.service = NewService(env.placesFake, env.broadcaster, storage, env.license, cfg, logger)
	return env
}

func placeRecords(prefix string, n int) []models.PlaceRecord {
	records := make([]models.PlaceRecord, n)
	for i := range records {
		records[i] = models.PlaceRecord{
			PlaceID: fmt.Sprintf("%s-%d", prefix, i),
			Name:    fmt.Sprintf("%s %d", prefix, i),
		}
	}
	return records
}

// waitTerminal subscribes and blocks until the job's terminal event
func waitTerminal(t *testing.T, b interfaces.Broadcaster, jobID string) models.ProgressEvent {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ch, err := b.Subscribe(ctx, jobID)
	require.NoError(t, err)

	var last models.ProgressEvent
	for ev := range ch {
		last = ev
	}
	require.True(t, last.IsTerminal(), "stream ended without a terminal event")
	return last
}

func TestStartRejectsInvalidRequests(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  *models.ScrapeRequest
	}{
		{"missing api key", &models.ScrapeRequest{Location: "Lisbon", Categories: []string{"restaurant"}}},
		{"missing location", &models.ScrapeRequest{APIKey: "k", Categories: []string{"restaurant"}}},
		{"nothing selected", &models.ScrapeRequest{APIKey: "k", Location: "Lisbon"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.service.Start(ctx, tt.req)
			assert.ErrorIs(t, err, models.ErrInvalidRequest)
		})
	}
}

func TestStartEnforcesLicense(t *testing.T) {
	env := newTestEnv(t)
	env.license.enabled = true
	env.license.valid = false
	env.license.reason = "license key is not valid"

	_, err := env.service.Start(context.Background(), &models.ScrapeRequest{
		APIKey:        "k",
		Location:      "Lisbon",
		CustomQueries: "bakery",
		LicenseKey:    "bogus",
	})
	require.ErrorIs(t, err, models.ErrLicenseRejected)
	assert.Contains(t, err.Error(), "not valid")
}

func TestStartClampsRadius(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		radius int
		want   int
	}{
		{"negative falls back to default", -5, env.service.config.Scrape.DefaultRadius},
		{"zero falls back to default", 0, env.service.config.Scrape.DefaultRadius},
		{"too large clamps down", 99999, planner.MaxRadius},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job, err := env.service.Start(ctx, &models.ScrapeRequest{
				APIKey:        "k",
				Location:      "Lisbon",
				Radius:        tt.radius,
				CustomQueries: "bakery",
			})
			require.NoError(t, err, "out-of-range radius is clamped, never rejected")
			assert.Equal(t, tt.want, job.Radius)
			waitTerminal(t, env.broadcaster, job.ID)
		})
	}
}

func TestJobCompletesAndStoresResult(t *testing.T) {
	env := newTestEnv(t)
	env.placesFake.results["bakery"] = placeRecords("bk", 3)
	env.placesFake.results["butcher"] = placeRecords("bt", 2)

	job, err := env.service.Start(context.Background(), &models.ScrapeRequest{
		APIKey:        "k",
		Location:      "Lisbon",
		CustomQueries: "bakery, butcher",
	})
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusPending, job.Status)
	assert.NotEmpty(t, job.ID)

	terminal := waitTerminal(t, env.broadcaster, job.ID)
	require.Equal(t, models.EventCompleted, terminal.Type)
	require.NotNil(t, terminal.Summary)
	assert.Equal(t, 5, terminal.Summary.Total)
	assert.True(t, terminal.HasFile)

	stored, err := env.service.Get(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCompleted, stored.Status)
	assert.Equal(t, 100, stored.Progress)
	assert.Equal(t, "Lisbon (resolved)", stored.ResolvedName)

	result, err := env.storage.ResultStorage().GetResult(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Len(t, result.Rows, 5)
	assert.Equal(t, "Lisbon (resolved)", result.Location)
}

func TestEveryQueryLogsItsContribution(t *testing.T) {
	env := newTestEnv(t)
	env.placesFake.results["bakery"] = placeRecords("bk", 3)
	env.placesFake.results["butcher"] = placeRecords("bt", 2)

	// Hold the pipeline at geocoding so the subscriber attaches before
	// any event is published.
	gate := make(chan struct{})
	env.placesFake.geocodeGate = gate

	job, err := env.service.Start(context.Background(), &models.ScrapeRequest{
		APIKey:        "k",
		Location:      "Lisbon",
		CustomQueries: "bakery, butcher",
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ch, err := env.broadcaster.Subscribe(ctx, job.ID)
	require.NoError(t, err)
	close(gate)

	var messages []string
	for ev := range ch {
		if ev.Type == models.EventLog {
			messages = append(messages, ev.Message)
		}
	}

	assert.Contains(t, messages, "bakery: 3 new businesses")
	assert.Contains(t, messages, "butcher: 2 new businesses")
}

func TestJobFailsOnGeocodeError(t *testing.T) {
	env := newTestEnv(t)
	env.placesFake.geocodeErr = errors.New("no such place")

	job, err := env.service.Start(context.Background(), &models.ScrapeRequest{
		APIKey:        "k",
		Location:      "Nowhereville",
		CustomQueries: "bakery",
	})
	require.NoError(t, err)

	terminal := waitTerminal(t, env.broadcaster, job.ID)
	assert.Equal(t, models.EventError, terminal.Type)
	assert.Contains(t, terminal.Message, "Nowhereville")

	stored, err := env.service.Get(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusFailed, stored.Status)
}

func TestJobFailsOnRejectedAPIKey(t *testing.T) {
	env := newTestEnv(t)
	env.placesFake.searchErr = fmt.Errorf("text search: %w", places.ErrRequestDenied)

	job, err := env.service.Start(context.Background(), &models.ScrapeRequest{
		APIKey:        "bad",
		Location:      "Lisbon",
		CustomQueries: "bakery, butcher",
	})
	require.NoError(t, err)

	terminal := waitTerminal(t, env.broadcaster, job.ID)
	assert.Equal(t, models.EventError, terminal.Type)
	assert.Contains(t, terminal.Message, "rejected")
}

func TestJobFailsWhenAllQueriesFail(t *testing.T) {
	env := newTestEnv(t)
	env.placesFake.searchErr = errors.New("quota exceeded")

	job, err := env.service.Start(context.Background(), &models.ScrapeRequest{
		APIKey:        "k",
		Location:      "Lisbon",
		CustomQueries: "bakery, butcher",
	})
	require.NoError(t, err)

	terminal := waitTerminal(t, env.broadcaster, job.ID)
	assert.Equal(t, models.EventError, terminal.Type)

	stored, err := env.service.Get(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusFailed, stored.Status)
}

func TestJobCompletesWithZeroResults(t *testing.T) {
	env := newTestEnv(t)
	// Searches succeed but return nothing

	job, err := env.service.Start(context.Background(), &models.ScrapeRequest{
		APIKey:        "k",
		Location:      "Lisbon",
		CustomQueries: "unobtainium dealer",
	})
	require.NoError(t, err)

	terminal := waitTerminal(t, env.broadcaster, job.ID)
	require.Equal(t, models.EventCompleted, terminal.Type)
	assert.Equal(t, 0, terminal.Summary.Total)
	assert.False(t, terminal.HasFile, "empty result sets have no downloadable file")

	_, err = env.storage.ResultStorage().GetResult(context.Background(), job.ID)
	assert.ErrorIs(t, err, models.ErrUnknownJob)
}

func TestGetUnknownJob(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.service.Get(context.Background(), "job_missing")
	assert.ErrorIs(t, err, models.ErrUnknownJob)
}

func TestListMergesRegistryAndStorage(t *testing.T) {
	env := newTestEnv(t)
	env.placesFake.results["bakery"] = placeRecords("bk", 1)

	job, err := env.service.Start(context.Background(), &models.ScrapeRequest{
		APIKey:        "k",
		Location:      "Lisbon",
		CustomQueries: "bakery",
	})
	require.NoError(t, err)
	waitTerminal(t, env.broadcaster, job.ID)

	list, err := env.service.List(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, job.ID, list[0].ID)
	assert.Equal(t, models.JobStatusCompleted, list[0].Status)
}

func TestCleanupExpiredEvictsEverything(t *testing.T) {
	env := newTestEnv(t)
	env.placesFake.results["bakery"] = placeRecords("bk", 1)

	job, err := env.service.Start(context.Background(), &models.ScrapeRequest{
		APIKey:        "k",
		Location:      "Lisbon",
		CustomQueries: "bakery",
	})
	require.NoError(t, err)
	waitTerminal(t, env.broadcaster, job.ID)

	// Age the stored record past the retention window
	ctx := context.Background()
	stored, err := env.storage.JobStorage().GetJob(ctx, job.ID)
	require.NoError(t, err)
	old := time.Now().Add(-3 * time.Hour)
	stored.CompletedAt = &old
	require.NoError(t, env.storage.JobStorage().SaveJob(ctx, stored))

	require.NoError(t, env.service.CleanupExpired(ctx))

	_, err = env.service.Get(ctx, job.ID)
	assert.ErrorIs(t, err, models.ErrUnknownJob)
	_, err = env.storage.ResultStorage().GetResult(ctx, job.ID)
	assert.ErrorIs(t, err, models.ErrUnknownJob)
	_, err = env.broadcaster.Subscribe(ctx, job.ID)
	assert.ErrorIs(t, err, models.ErrUnknownJob)
}
