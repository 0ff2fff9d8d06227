package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/reperio/internal/interfaces"
	"github.com/ternarybob/reperio/internal/models"
)

// JobStorage implements the JobStorage interface for Badger
type JobStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewJobStorage creates a new JobStorage instance
func NewJobStorage(db *BadgerDB, logger arbor.ILogger) interfaces.JobStorage {
	return &JobStorage{
		db:     db,
		logger: logger,
	}
}

// SaveJob upserts a job record
func (s *JobStorage) SaveJob(ctx context.Context, job *models.Job) error {
	if job.ID == "" {
		return fmt.Errorf("job ID is required")
	}

	if err := s.db.Store().Upsert(job.ID, job); err != nil {
		return fmt.Errorf("failed to save job: %w", err)
	}
	return nil
}

// GetJob fetches a job record by ID
func (s *JobStorage) GetJob(ctx context.Context, jobID string) (*models.Job, error) {
	var job models.Job
	if err := s.db.Store().Get(jobID, &job); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, fmt.Errorf("job %s: %w", jobID, models.ErrUnknownJob)
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return &job, nil
}

// ListJobs returns stored jobs newest first
func (s *JobStorage) ListJobs(ctx context.Context, limit int) ([]*models.Job, error) {
	query := badgerhold.Where("ID").Ne("").SortBy("CreatedAt").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}

	var jobs []models.Job
	if err := s.db.Store().Find(&jobs, query); err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	result := make([]*models.Job, len(jobs))
	for i := range jobs {
		result[i] = &jobs[i]
	}
	return result, nil
}

// DeleteJob removes a job record
func (s *JobStorage) DeleteJob(ctx context.Context, jobID string) error {
	if err := s.db.Store().Delete(jobID, &models.Job{}); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to delete job: %w", err)
	}
	return nil
}

// DeleteJobsBefore removes terminal jobs whose completion time is older
// than the cutoff and returns the IDs removed so the caller can evict
// the matching results and streams.
func (s *JobStorage) DeleteJobsBefore(ctx context.Context, cutoff time.Time) ([]string, error) {
	// Full scan then filter in Go; badgerhold cannot compare a *time.Time
	// field against a cutoff directly.
	var jobs []models.Job
	if err := s.db.Store().Find(&jobs, badgerhold.Where("ID").Ne("")); err != nil {
		return nil, fmt.Errorf("failed to query expired jobs: %w", err)
	}

	var removed []string
	for i := range jobs {
		job := &jobs[i]
		if !job.IsTerminal() || job.CompletedAt == nil || !job.CompletedAt.Before(cutoff) {
			continue
		}
		if err := s.db.Store().Delete(job.ID, &models.Job{}); err != nil && !errors.Is(err, badgerhold.ErrNotFound) {
			s.logger.Warn().Err(err).Str("job_id", job.ID).Msg("Failed to delete expired job")
			continue
		}
		removed = append(removed, job.ID)
	}

	if len(removed) > 0 {
		s.logger.Info().Int("count", len(removed)).Msg("Expired jobs removed")
	}
	return removed, nil
}
