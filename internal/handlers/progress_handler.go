package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/reperio/internal/interfaces"
	"github.com/ternarybob/reperio/internal/models"
)

// ProgressHandler streams job progress events over Server-Sent Events
type ProgressHandler struct {
	broadcaster interfaces.Broadcaster
	logger      arbor.ILogger
}

// NewProgressHandler creates a new SSE progress handler
func NewProgressHandler(broadcaster interfaces.Broadcaster, logger arbor.ILogger) *ProgressHandler {
	return &ProgressHandler{
		broadcaster: broadcaster,
		logger:      logger,
	}
}

// StreamHandler handles GET /api/progress/{id}. Each event is one SSE
// message whose data is the JSON-encoded progress event; the stream
// ends after the job's terminal event.
func (h *ProgressHandler) StreamHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	jobID := strings.TrimPrefix(r.URL.Path, "/api/progress/")
	if jobID == "" || strings.Contains(jobID, "/") {
		WriteError(w, http.StatusBadRequest, "Invalid job ID")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteError(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	events, err := h.broadcaster.Subscribe(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, models.ErrUnknownJob) {
			WriteError(w, http.StatusNotFound, "Job not found")
			return
		}
		h.logger.Error().Err(err).Str("job_id", jobID).Msg("Failed to subscribe to job stream")
		WriteError(w, http.StatusInternalServerError, "Failed to subscribe to job stream")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	h.logger.Debug().Str("job_id", jobID).Msg("SSE client attached")

	for event := range events {
		data, err := json.Marshal(event)
		if err != nil {
			h.logger.Warn().Err(err).Str("job_id", jobID).Msg("Failed to encode event")
			continue
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			h.logger.Debug().Err(err).Str("job_id", jobID).Msg("SSE client disconnected")
			return
		}
		flusher.Flush()
	}

	h.logger.Debug().Str("job_id", jobID).Msg("SSE stream ended")
}
