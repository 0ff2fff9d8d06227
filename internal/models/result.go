package models

import "time"

// JobResult is the terminal artifact of a completed job: the structured
// rows plus the summary they were computed from. Written exactly once
// per job; exports are rendered from Rows on demand, never pre-rendered.
type JobResult struct {
	JobID     string           `json:"job_id" badgerhold:"key"`
	Location  string           `json:"location"`
	Rows      []BusinessRecord `json:"rows"`
	Summary   Summary          `json:"summary"`
	CreatedAt time.Time        `json:"created_at"`
}

// LicenseCacheEntry caches one license key's validation verdict. Keys are
// stored as SHA-256 hashes, never in the clear.
type LicenseCacheEntry struct {
	KeyHash     string    `json:"key_hash" badgerhold:"key"`
	Valid       bool      `json:"valid"`
	LastChecked time.Time `json:"last_checked"`
}
