package models

import "errors"

// Sentinel errors shared across services and handlers. Callers classify
// with errors.Is and wrap with fmt.Errorf("...: %w", err) for context.
var (
	// ErrInvalidRequest indicates a scrape request that failed validation.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrLicenseRejected indicates a scrape request blocked by the license
	// gate. Distinct from ErrInvalidRequest so the API can answer 403.
	ErrLicenseRejected = errors.New("license rejected")

	// ErrUnknownJob indicates a job ID that does not exist or has expired.
	ErrUnknownJob = errors.New("job not found")

	// ErrAlreadyFinalized indicates a second result write for the same job.
	// First-writer-wins: callers log and ignore, they never crash on it.
	ErrAlreadyFinalized = errors.New("result already finalized")

	// ErrNotReady indicates an artifact request for a job that has not completed.
	ErrNotReady = errors.New("result not ready")
)
