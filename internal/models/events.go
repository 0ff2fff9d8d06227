package models

// EventType tags a progress event in a job's stream
type EventType string

const (
	EventLog       EventType = "log"
	EventProgress  EventType = "progress"
	EventCompleted EventType = "completed"
	EventError     EventType = "error"
)

// ProgressEvent is one unit of streamed status information about a
// running job. Produced only by the job runner; consumed by zero or
// more subscribers in emission order.
type ProgressEvent struct {
	Type    EventType `json:"type"`
	Message string    `json:"message,omitempty"`
	Percent int       `json:"percent,omitempty"`
	Summary *Summary  `json:"summary,omitempty"`
	HasFile bool      `json:"has_file,omitempty"`
}

// NewLogEvent creates a log-message event
func NewLogEvent(message string) ProgressEvent {
	return ProgressEvent{Type: EventLog, Message: message}
}

// NewProgressEvent creates a progress-percent event
func NewProgressEvent(percent int) ProgressEvent {
	return ProgressEvent{Type: EventProgress, Percent: percent}
}

// NewCompletedEvent creates the completed terminal event
func NewCompletedEvent(summary *Summary, hasFile bool) ProgressEvent {
	return ProgressEvent{Type: EventCompleted, Summary: summary, HasFile: hasFile}
}

// NewErrorEvent creates the failed terminal event
func NewErrorEvent(message string) ProgressEvent {
	return ProgressEvent{Type: EventError, Message: message}
}

// IsTerminal returns true for events that end a job's stream
func (e ProgressEvent) IsTerminal() bool {
	return e.Type == EventCompleted || e.Type == EventError
}
