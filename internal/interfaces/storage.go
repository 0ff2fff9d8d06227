package interfaces

import (
	"context"
	"time"

	"github.com/ternarybob/reperio/internal/models"
)

// ResultStorage holds the terminal artifact of completed jobs.
// PutResult is first-writer-wins: a second write for the same job ID
// fails with models.ErrAlreadyFinalized and leaves the stored rows
// unchanged.
type ResultStorage interface {
	PutResult(ctx context.Context, result *models.JobResult) error
	GetResult(ctx context.Context, jobID string) (*models.JobResult, error)
	DeleteResult(ctx context.Context, jobID string) error
}

// JobStorage persists terminal job records so completed jobs survive a
// restart. In-flight jobs live only in the runner's registry.
type JobStorage interface {
	SaveJob(ctx context.Context, job *models.Job) error
	GetJob(ctx context.Context, jobID string) (*models.Job, error)
	ListJobs(ctx context.Context, limit int) ([]*models.Job, error)
	DeleteJob(ctx context.Context, jobID string) error
	DeleteJobsBefore(ctx context.Context, cutoff time.Time) ([]string, error)
}

// LicenseCacheStorage persists license validation verdicts across restarts
type LicenseCacheStorage interface {
	GetLicenseEntry(ctx context.Context, keyHash string) (*models.LicenseCacheEntry, error)
	PutLicenseEntry(ctx context.Context, entry *models.LicenseCacheEntry) error
}

// StorageManager aggregates the storage facets behind one connection
type StorageManager interface {
	ResultStorage() ResultStorage
	JobStorage() JobStorage
	LicenseCacheStorage() LicenseCacheStorage
	Close() error
}
