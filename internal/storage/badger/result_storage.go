package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/reperio/internal/interfaces"
	"github.com/ternarybob/reperio/internal/models"
)

// ResultStorage implements the ResultStorage interface for Badger
type ResultStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewResultStorage creates a new ResultStorage instance
func NewResultStorage(db *BadgerDB, logger arbor.ILogger) interfaces.ResultStorage {
	return &ResultStorage{
		db:     db,
		logger: logger,
	}
}

// PutResult stores a job's finished result set. Insert (not Upsert)
// enforces first-writer-wins: a duplicate write reports
// ErrAlreadyFinalized and leaves the stored rows untouched.
func (s *ResultStorage) PutResult(ctx context.Context, result *models.JobResult) error {
	if result.JobID == "" {
		return fmt.Errorf("result job ID is required")
	}

	if err := s.db.Store().Insert(result.JobID, result); err != nil {
		if errors.Is(err, badgerhold.ErrKeyExists) {
			return fmt.Errorf("job %s: %w", result.JobID, models.ErrAlreadyFinalized)
		}
		return fmt.Errorf("failed to store result: %w", err)
	}

	s.logger.Debug().
		Str("job_id", result.JobID).
		Int("rows", len(result.Rows)).
		Msg("Result set stored")
	return nil
}

// GetResult fetches a job's result set
func (s *ResultStorage) GetResult(ctx context.Context, jobID string) (*models.JobResult, error) {
	var result models.JobResult
	if err := s.db.Store().Get(jobID, &result); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, fmt.Errorf("result for %s: %w", jobID, models.ErrUnknownJob)
		}
		return nil, fmt.Errorf("failed to get result: %w", err)
	}
	return &result, nil
}

// DeleteResult removes a job's result set. Deleting a missing result is
// not an error.
func (s *ResultStorage) DeleteResult(ctx context.Context, jobID string) error {
	if err := s.db.Store().Delete(jobID, &models.JobResult{}); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to delete result: %w", err)
	}
	return nil
}
