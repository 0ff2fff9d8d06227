// Package handlers exposes the HTTP API: job submission, progress
// streaming over SSE and WebSocket, downloads and the supporting
// lookup endpoints.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/reperio/internal/models"
	"github.com/ternarybob/reperio/internal/services/jobs"
)

// ScrapeHandler accepts scrape requests and hands them to the job runner
type ScrapeHandler struct {
	jobService *jobs.Service
	logger     arbor.ILogger
}

// NewScrapeHandler creates a new scrape handler
func NewScrapeHandler(jobService *jobs.Service, logger arbor.ILogger) *ScrapeHandler {
	return &ScrapeHandler{
		jobService: jobService,
		logger:     logger,
	}
}

// StartScrapeHandler handles POST /api/scrape. It validates the payload,
// starts the job and returns its ID immediately; progress arrives over
// the streaming endpoints.
func (h *ScrapeHandler) StartScrapeHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req models.ScrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	job, err := h.jobService.Start(r.Context(), &req)
	if err != nil {
		if errors.Is(err, models.ErrInvalidRequest) {
			WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		if errors.Is(err, models.ErrLicenseRejected) {
			WriteError(w, http.StatusForbidden, err.Error())
			return
		}
		h.logger.Error().Err(err).Msg("Failed to start scrape job")
		WriteError(w, http.StatusInternalServerError, "Failed to start scrape job")
		return
	}

	WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id": job.ID,
		"status": string(job.Status),
	})
}
