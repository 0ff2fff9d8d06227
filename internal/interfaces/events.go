package interfaces

import (
	"context"

	"github.com/ternarybob/reperio/internal/models"
)

// Broadcaster fans a job's progress events out to any number of
// subscribers. Single-writer discipline: only the job runner's
// background goroutine publishes to a given job's stream.
type Broadcaster interface {
	// Register creates an empty event stream for a new job
	Register(jobID string)

	// Publish appends an event to the job's stream. Never blocks on
	// subscribers; publishing after a terminal event is a no-op.
	Publish(jobID string, event models.ProgressEvent) error

	// Subscribe returns a channel delivering every event emitted from
	// this moment onward, in emission order. The channel closes after a
	// terminal event or when ctx is cancelled. Subscribing to a job that
	// already finished delivers only its terminal event.
	Subscribe(ctx context.Context, jobID string) (<-chan models.ProgressEvent, error)

	// Release discards a job's stream once the job record is evicted
	Release(jobID string)
}
