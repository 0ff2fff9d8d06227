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

// LicenseCacheStorage implements the LicenseCacheStorage interface for Badger
type LicenseCacheStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewLicenseCacheStorage creates a new LicenseCacheStorage instance
func NewLicenseCacheStorage(db *BadgerDB, logger arbor.ILogger) interfaces.LicenseCacheStorage {
	return &LicenseCacheStorage{
		db:     db,
		logger: logger,
	}
}

// GetLicenseEntry fetches a cached verdict by key hash. A missing entry
// returns nil without error.
func (s *LicenseCacheStorage) GetLicenseEntry(ctx context.Context, keyHash string) (*models.LicenseCacheEntry, error) {
	var entry models.LicenseCacheEntry
	if err := s.db.Store().Get(keyHash, &entry); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get license cache entry: %w", err)
	}
	return &entry, nil
}

// PutLicenseEntry upserts a validation verdict
func (s *LicenseCacheStorage) PutLicenseEntry(ctx context.Context, entry *models.LicenseCacheEntry) error {
	if entry.KeyHash == "" {
		return fmt.Errorf("license cache key hash is required")
	}
	if err := s.db.Store().Upsert(entry.KeyHash, entry); err != nil {
		return fmt.Errorf("failed to store license cache entry: %w", err)
	}
	return nil
}
