// Package events implements the in-process progress broadcaster: each
// job owns an append-only event log that any number of subscribers read
// through cursors, so a slow reader can never stall the job runner.
package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/reperio/internal/interfaces"
	"github.com/ternarybob/reperio/internal/models"
)

// stream holds one job's event log. The changed channel is closed and
// replaced on every append; subscribers wait on it instead of polling.
type stream struct {
	mu      sync.Mutex
	events  []models.ProgressEvent
	changed chan struct{}
	done    bool
}

// Broadcaster routes progress events from job runners to subscribers
type Broadcaster struct {
	mu      sync.RWMutex
	streams map[string]*stream
	logger  arbor.ILogger
}

// NewBroadcaster creates an empty broadcaster
func NewBroadcaster(logger arbor.ILogger) interfaces.Broadcaster {
	return &Broadcaster{
		streams: make(map[string]*stream),
		logger:  logger,
	}
}

// Register creates the event stream for a new job. Must happen before
// the job ID is returned to the caller so a subscriber can never race a
// missing stream.
func (b *Broadcaster) Register(jobID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.streams[jobID]; exists {
		return
	}
	b.streams[jobID] = &stream{
		changed: make(chan struct{}),
	}
}

// Publish appends an event to a job's stream and wakes all waiting
// subscribers. Publishing after a terminal event is dropped.
func (b *Broadcaster) Publish(jobID string, event models.ProgressEvent) error {
	b.mu.RLock()
	s, ok := b.streams[jobID]
	b.mu.RUnlock()
	if !ok {
		return fmt.Errorf("no stream registered for job %s", jobID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done {
		b.logger.Warn().
			Str("job_id", jobID).
			Str("type", string(event.Type)).
			Msg("Dropping event published after stream ended")
		return nil
	}

	s.events = append(s.events, event)
	if event.IsTerminal() {
		s.done = true
	}

	close(s.changed)
	s.changed = make(chan struct{})
	return nil
}

// Subscribe attaches to a job's stream. Events from this moment on are
// delivered in order; a stream that already ended yields only its
// terminal event. The returned channel closes after the terminal event
// or when ctx is cancelled.
func (b *Broadcaster) Subscribe(ctx context.Context, jobID string) (<-chan models.ProgressEvent, error) {
	b.mu.RLock()
	s, ok := b.streams[jobID]
	b.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrUnknownJob, jobID)
	}

	s.mu.Lock()
	cursor := len(s.events)
	// A finished stream replays only its terminal event so a late
	// subscriber still learns the outcome.
	if s.done && cursor > 0 {
		cursor--
	}
	s.mu.Unlock()

	out := make(chan models.ProgressEvent, 16)

	go func() {
		defer close(out)
		for {
			s.mu.Lock()
			pending := s.events[cursor:]
			done := s.done
			changed := s.changed
			s.mu.Unlock()

			for _, ev := range pending {
				select {
				case out <- ev:
					cursor++
				case <-ctx.Done():
					return
				}
			}

			if done && len(pending) > 0 && pending[len(pending)-1].IsTerminal() {
				return
			}
			if done {
				return
			}

			select {
			case <-changed:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

// Release discards a job's stream. Called when the job record itself is
// evicted; subscribers still attached see their channel close.
func (b *Broadcaster) Release(jobID string) {
	b.mu.Lock()
	s, ok := b.streams[jobID]
	delete(b.streams, jobID)
	b.mu.Unlock()
	if !ok {
		return
	}

	s.mu.Lock()
	if !s.done {
		s.done = true
		close(s.changed)
		s.changed = make(chan struct{})
	}
	s.mu.Unlock()
}
