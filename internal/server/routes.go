package server

import (
	"net/http"
	"strings"

	"github.com/ternarybob/reperio/internal/handlers"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// Scrape jobs
	mux.HandleFunc("/api/scrape", s.app.ScrapeHandler.StartScrapeHandler)
	mux.HandleFunc("/api/jobs", s.app.JobHandler.ListJobsHandler)
	mux.HandleFunc("/api/jobs/", s.app.JobHandler.GetJobHandler) // GET /{id}

	// Progress streaming
	mux.HandleFunc("/api/progress/", s.app.ProgressHandler.StreamHandler) // SSE /{id}
	mux.HandleFunc("/ws", s.app.WSHandler.HandleWebSocket)                // ?job_id={id}

	// Result downloads
	mux.HandleFunc("/api/download/", s.app.DownloadHandler.DownloadHandler) // GET /{id}?format=

	// Lookups
	mux.HandleFunc("/api/categories", s.app.CategoryHandler.ListCategoriesHandler)
	mux.HandleFunc("/api/license/config", s.app.LicenseHandler.ConfigHandler)
	mux.HandleFunc("/api/license/validate", s.app.LicenseHandler.ValidateHandler)

	// System
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)
	mux.HandleFunc("/api/shutdown", s.ShutdownHandler) // Graceful shutdown endpoint (dev mode)

	// Catch-all for unknown API paths
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			handlers.WriteError(w, http.StatusNotFound, "Not found")
			return
		}
		http.NotFound(w, r)
	})

	return mux
}
