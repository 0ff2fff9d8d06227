// Package badger implements the persistence layer on BadgerDB via
// badgerhold: job records, finished result sets and the license
// validation cache, all behind one embedded store.
package badger

import (
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/reperio/internal/common"
	"github.com/ternarybob/reperio/internal/interfaces"
)

// Manager implements the StorageManager interface for Badger
type Manager struct {
	db      *BadgerDB
	result  interfaces.ResultStorage
	job     interfaces.JobStorage
	license interfaces.LicenseCacheStorage
	logger  arbor.ILogger
}

// NewManager creates a new Badger storage manager
func NewManager(logger arbor.ILogger, config *common.BadgerConfig) (interfaces.StorageManager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		db:      db,
		result:  NewResultStorage(db, logger),
		job:     NewJobStorage(db, logger),
		license: NewLicenseCacheStorage(db, logger),
		logger:  logger,
	}

	logger.Info().Msg("Badger storage manager initialized")

	return manager, nil
}

// ResultStorage returns the Result storage interface
func (m *Manager) ResultStorage() interfaces.ResultStorage {
	return m.result
}

// JobStorage returns the Job storage interface
func (m *Manager) JobStorage() interfaces.JobStorage {
	return m.job
}

// LicenseCacheStorage returns the LicenseCache storage interface
func (m *Manager) LicenseCacheStorage() interfaces.LicenseCacheStorage {
	return m.license
}

// Close closes the database connection
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
