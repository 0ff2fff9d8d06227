package models

import (
	"time"
)

// JobStatus represents a scrape job's lifecycle state
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Job represents one user-initiated scrape request and its lifecycle.
// Owned exclusively by the job runner; handlers and storage reference
// jobs by ID only. The API key from the originating request is never
// stored on the job record.
type Job struct {
	ID            string    `json:"id" badgerhold:"key"`
	Status        JobStatus `json:"status"`
	Location      string    `json:"location"`
	ResolvedName  string    `json:"resolved_name,omitempty"` // geocoder's formatted address
	Radius        int       `json:"radius"`
	Categories    []string  `json:"categories,omitempty"`
	CustomQueries string    `json:"custom_queries,omitempty"`

	Progress int      `json:"progress"`
	Error    string   `json:"error,omitempty"`
	Summary  *Summary `json:"summary,omitempty"`
	HasFile  bool     `json:"has_file"`

	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// MarkRunning transitions the job to running
func (j *Job) MarkRunning() {
	j.Status = JobStatusRunning
	now := time.Now()
	j.StartedAt = &now
}

// MarkCompleted transitions the job to its completed terminal state
func (j *Job) MarkCompleted(summary *Summary, hasFile bool) {
	j.Status = JobStatusCompleted
	j.Progress = 100
	j.Summary = summary
	j.HasFile = hasFile
	now := time.Now()
	j.CompletedAt = &now
}

// MarkFailed transitions the job to its failed terminal state
func (j *Job) MarkFailed(errorMsg string) {
	j.Status = JobStatusFailed
	j.Error = errorMsg
	now := time.Now()
	j.CompletedAt = &now
}

// IsTerminal returns true once the job can emit no further events
func (j *Job) IsTerminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}
