package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/reperio/internal/interfaces"
	"github.com/ternarybob/reperio/internal/models"
	"github.com/ternarybob/reperio/internal/services/export"
	"github.com/ternarybob/reperio/internal/services/jobs"
)

// DownloadHandler renders a finished job's result set as a file
type DownloadHandler struct {
	jobService *jobs.Service
	results    interfaces.ResultStorage
	logger     arbor.ILogger
}

// NewDownloadHandler creates a new download handler
func NewDownloadHandler(jobService *jobs.Service, results interfaces.ResultStorage, logger arbor.ILogger) *DownloadHandler {
	return &DownloadHandler{
		jobService: jobService,
		results:    results,
		logger:     logger,
	}
}

// DownloadHandler handles GET /api/download/{id}?format=xlsx|csv.
// Files are rendered on demand from the stored rows; xlsx is the default
// format.
func (h *DownloadHandler) DownloadHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	jobID := strings.TrimPrefix(r.URL.Path, "/api/download/")
	if jobID == "" || strings.Contains(jobID, "/") {
		WriteError(w, http.StatusBadRequest, "Invalid job ID")
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "xlsx"
	}
	if format != "xlsx" && format != "csv" {
		WriteError(w, http.StatusBadRequest, "Unsupported format, use xlsx or csv")
		return
	}

	job, err := h.jobService.Get(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, models.ErrUnknownJob) {
			WriteError(w, http.StatusNotFound, "Job not found")
			return
		}
		h.logger.Error().Err(err).Str("job_id", jobID).Msg("Failed to get job")
		WriteError(w, http.StatusInternalServerError, "Failed to get job")
		return
	}

	if !job.IsTerminal() || !job.HasFile {
		WriteError(w, http.StatusConflict, "Results are not ready for download")
		return
	}

	result, err := h.results.GetResult(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, models.ErrUnknownJob) {
			WriteError(w, http.StatusNotFound, "Results have expired")
			return
		}
		h.logger.Error().Err(err).Str("job_id", jobID).Msg("Failed to load result")
		WriteError(w, http.StatusInternalServerError, "Failed to load result")
		return
	}

	filename := export.Filename(result.Location, format, time.Now())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))

	switch format {
	case "csv":
		w.Header().Set("Content-Type", "text/csv")
		err = export.WriteCSV(w, result)
	default:
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		err = export.WriteXLSX(w, result)
	}
	if err != nil {
		// Headers are already sent; log and let the client see a short read
		h.logger.Error().Err(err).Str("job_id", jobID).Str("format", format).Msg("Export rendering failed")
		return
	}

	h.logger.Info().
		Str("job_id", jobID).
		Str("format", format).
		Int("rows", len(result.Rows)).
		Msg("Result file downloaded")
}
