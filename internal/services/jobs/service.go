// Package jobs implements the scrape job runner: request validation,
// the job registry and lifecycle, and the background pipeline that
// geocodes, searches, aggregates and finalizes a result set while
// streaming progress to the broadcaster.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/reperio/internal/common"
	"github.com/ternarybob/reperio/internal/interfaces"
	"github.com/ternarybob/reperio/internal/models"
	"github.com/ternarybob/reperio/internal/services/aggregator"
	"github.com/ternarybob/reperio/internal/services/places"
	"github.com/ternarybob/reperio/internal/services/planner"
)

// Service owns every job's lifecycle. In-flight jobs live in the
// in-memory registry; terminal jobs are also persisted so they survive
// a restart until retention evicts them.
type Service struct {
	mu       sync.RWMutex
	registry map[string]*models.Job

	placesClient interfaces.PlacesClient
	broadcaster  interfaces.Broadcaster
	storage      interfaces.StorageManager
	license      interfaces.LicenseValidator
	config       *common.Config
	logger       arbor.ILogger
	validate     *validator.Validate
}

// NewService creates the job runner service
func NewService(
	placesClient interfaces.PlacesClient,
	broadcaster interfaces.Broadcaster,
	storage interfaces.StorageManager,
	license interfaces.LicenseValidator,
	config *common.Config,
	logger arbor.ILogger,
) *Service {
	return &Service{
		registry:     make(map[string]*models.Job),
		placesClient: placesClient,
		broadcaster:  broadcaster,
		storage:      storage,
		license:      license,
		config:       config,
		logger:       logger,
		validate:     validator.New(),
	}
}

// Start validates a scrape request, registers a pending job and kicks
// off its background pipeline. It returns as soon as the job ID exists;
// all real work happens in the pipeline goroutine.
func (s *Service) Start(ctx context.Context, req *models.ScrapeRequest) (*models.Job, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", models.ErrInvalidRequest, validationMessage(err))
	}

	// Planning up front surfaces empty-selection errors synchronously
	queries, err := planner.Plan(req)
	if err != nil {
		return nil, err
	}

	if s.license.Enabled() {
		valid, reason := s.license.Validate(ctx, req.LicenseKey)
		if !valid {
			return nil, fmt.Errorf("%w: %s", models.ErrLicenseRejected, reason)
		}
	}

	job := &models.Job{
		ID:            common.NewJobID(),
		Status:        models.JobStatusPending,
		Location:      req.Location,
		Radius:        planner.ClampRadius(req.Radius, s.config.Scrape.DefaultRadius),
		Categories:    req.Categories,
		CustomQueries: req.CustomQueries,
		CreatedAt:     time.Now(),
	}

	s.mu.Lock()
	s.registry[job.ID] = job
	s.mu.Unlock()

	// Stream exists before the ID is returned, so a subscriber can
	// never race a missing stream.
	s.broadcaster.Register(job.ID)

	s.logger.Info().
		Str("job_id", job.ID).
		Str("location", job.Location).
		Int("queries", len(queries)).
		Msg("Scrape job accepted")

	go s.run(job, req.APIKey, queries)

	return s.snapshot(job), nil
}

// Get returns a job by ID, preferring the live registry and falling
// back to persisted terminal jobs.
func (s *Service) Get(ctx context.Context, jobID string) (*models.Job, error) {
	s.mu.RLock()
	job, ok := s.registry[jobID]
	s.mu.RUnlock()
	if ok {
		return s.snapshot(job), nil
	}
	return s.storage.JobStorage().GetJob(ctx, jobID)
}

// List returns known jobs newest first: live registry entries merged
// with persisted terminal jobs.
func (s *Service) List(ctx context.Context, limit int) ([]*models.Job, error) {
	stored, err := s.storage.JobStorage().ListJobs(ctx, 0)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*models.Job, len(stored))
	for _, j := range stored {
		byID[j.ID] = j
	}
	for id, j := range s.registryJobs() {
		byID[id] = j
	}

	jobs := make([]*models.Job, 0, len(byID))
	for _, j := range byID {
		jobs = append(jobs, j)
	}
	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})
	if limit > 0 && len(jobs) > limit {
		jobs = jobs[:limit]
	}
	return jobs, nil
}

// CleanupExpired evicts terminal jobs older than the retention window,
// along with their results and streams. Invoked on the cron schedule.
func (s *Service) CleanupExpired(ctx context.Context) error {
	cutoff := time.Now().Add(-time.Duration(s.config.Jobs.Retention))

	removed, err := s.storage.JobStorage().DeleteJobsBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("expired job cleanup failed: %w", err)
	}

	for _, jobID := range removed {
		if err := s.storage.ResultStorage().DeleteResult(ctx, jobID); err != nil {
			s.logger.Warn().Err(err).Str("job_id", jobID).Msg("Failed to delete expired result")
		}
		s.broadcaster.Release(jobID)
		s.mu.Lock()
		delete(s.registry, jobID)
		s.mu.Unlock()
	}

	return nil
}

// run is the job pipeline: geocode, then per-query search and detail
// enrichment, aggregating as it goes and emitting progress after every
// query. The API key lives only in this goroutine's arguments.
func (s *Service) run(job *models.Job, apiKey string, queries []models.PlannedQuery) {
	ctx := context.Background()

	s.transition(job, func(j *models.Job) { j.MarkRunning() })
	s.publish(job.ID, models.NewLogEvent(fmt.Sprintf("Starting scrape for %s", job.Location)))

	origin, err := s.placesClient.Geocode(ctx, apiKey, job.Location)
	if err != nil {
		s.fail(job, fmt.Sprintf("Could not find location %q: %v", job.Location, err))
		return
	}
	s.transition(job, func(j *models.Job) { j.ResolvedName = origin.FormattedAddress })
	s.publish(job.ID, models.NewLogEvent(fmt.Sprintf("Location resolved: %s", origin.FormattedAddress)))

	agg := aggregator.New(s.config.Scrape.MaxRows)
	failedQueries := 0

	for i, query := range queries {
		if agg.Full() {
			s.publish(job.ID, models.NewLogEvent("Row limit reached, stopping early"))
			break
		}

		s.publish(job.ID, models.NewLogEvent(fmt.Sprintf("Searching: %s", query.Text)))

		results, err := s.placesClient.Search(ctx, apiKey, query, *origin, job.Radius)
		if err != nil {
			// A rejected key fails every query; abort on the first one
			if places.IsAuthError(err) {
				s.fail(job, "Google API key was rejected. Check that the Places API and Geocoding API are enabled for this key.")
				return
			}
			failedQueries++
			s.logger.Warn().Err(err).Str("query", query.Text).Msg("Query failed")
			s.publish(job.ID, models.NewLogEvent(fmt.Sprintf("Search failed for %q, continuing", query.Text)))
		} else {
			added := s.collect(ctx, job, apiKey, agg, results, query.Category)
			s.publish(job.ID, models.NewLogEvent(fmt.Sprintf("%s: %d new businesses", query.Text, added)))
		}

		percent := int(math.Round(100 * float64(i+1) / float64(len(queries))))
		s.transition(job, func(j *models.Job) { j.Progress = percent })
		s.publish(job.ID, models.NewProgressEvent(percent))
	}

	if failedQueries == len(queries) {
		s.fail(job, "All searches failed; no results could be collected")
		return
	}

	summary := agg.Summarize()
	s.publish(job.ID, models.NewLogEvent(fmt.Sprintf("Collected %d businesses", summary.Total)))

	hasFile := summary.Total > 0
	if hasFile {
		result := &models.JobResult{
			JobID:     job.ID,
			Location:  origin.FormattedAddress,
			Rows:      summary.Businesses,
			Summary:   *summary,
			CreatedAt: time.Now(),
		}
		if err := s.storage.ResultStorage().PutResult(ctx, result); err != nil {
			if errors.Is(err, models.ErrAlreadyFinalized) {
				s.logger.Warn().Str("job_id", job.ID).Msg("Result already stored, keeping first write")
			} else {
				s.fail(job, fmt.Sprintf("Failed to store results: %v", err))
				return
			}
		}
	}

	s.transition(job, func(j *models.Job) { j.MarkCompleted(summary, hasFile) })
	s.persist(ctx, job)
	s.publish(job.ID, models.NewCompletedEvent(summary, hasFile))

	s.logger.Info().
		Str("job_id", job.ID).
		Int("total", summary.Total).
		Msg("Scrape job completed")
}

// collect enriches new places with details and feeds them to the
// aggregator, returning how many records the batch contributed. A failed
// detail lookup falls back to the search record, which already carries
// the core fields.
func (s *Service) collect(ctx context.Context, job *models.Job, apiKey string, agg *aggregator.Aggregator, results []models.PlaceRecord, category string) int {
	added := 0
	for i := range results {
		if agg.Full() {
			return added
		}
		place := &results[i]
		if agg.Seen(place.PlaceID) {
			continue
		}

		detailed, err := s.placesClient.Details(ctx, apiKey, place.PlaceID)
		if err != nil {
			s.logger.Debug().Err(err).Str("place_id", place.PlaceID).Msg("Detail lookup failed, using search record")
			detailed = place
		}

		if agg.Add(detailed, category) == aggregator.OutcomeAdded {
			added++
			if agg.Count()%25 == 0 {
				s.publish(job.ID, models.NewLogEvent(fmt.Sprintf("%d businesses collected so far", agg.Count())))
			}
		}
	}
	return added
}

func (s *Service) fail(job *models.Job, message string) {
	s.transition(job, func(j *models.Job) { j.MarkFailed(message) })
	s.persist(context.Background(), job)
	s.publish(job.ID, models.NewErrorEvent(message))

	s.logger.Warn().
		Str("job_id", job.ID).
		Str("error", message).
		Msg("Scrape job failed")
}

// transition mutates the job under the registry lock so Get/List
// snapshots never observe a half-applied update.
func (s *Service) transition(job *models.Job, apply func(*models.Job)) {
	s.mu.Lock()
	apply(job)
	s.mu.Unlock()
}

func (s *Service) persist(ctx context.Context, job *models.Job) {
	dup := s.snapshot(job)
	if err := s.storage.JobStorage().SaveJob(ctx, dup); err != nil {
		s.logger.Warn().Err(err).Str("job_id", job.ID).Msg("Failed to persist job record")
	}
}

func (s *Service) publish(jobID string, event models.ProgressEvent) {
	if err := s.broadcaster.Publish(jobID, event); err != nil {
		s.logger.Warn().Err(err).Str("job_id", jobID).Msg("Failed to publish event")
	}
}

// snapshot copies a job under the registry lock so callers never share
// the runner's mutable record.
func (s *Service) snapshot(job *models.Job) *models.Job {
	s.mu.RLock()
	dup := *job
	s.mu.RUnlock()
	return &dup
}

func (s *Service) registryJobs() map[string]*models.Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]*models.Job, len(s.registry))
	for id, j := range s.registry {
		dup := *j
		out[id] = &dup
	}
	return out
}

// validationMessage flattens validator errors into one user-facing line
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	for _, fe := range verrs {
		switch fe.Field() {
		case "APIKey":
			return "api_key is required"
		case "Location":
			return "location is required"
		}
	}
	return verrs.Error()
}
