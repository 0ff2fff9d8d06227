package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/reperio/internal/interfaces"
	"github.com/ternarybob/reperio/internal/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

const writeTimeout = 10 * time.Second

// WebSocketHandler streams job progress events over a WebSocket
// connection, as an alternative to the SSE endpoint for clients behind
// proxies that buffer event streams.
type WebSocketHandler struct {
	broadcaster interfaces.Broadcaster
	logger      arbor.ILogger
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(broadcaster interfaces.Broadcaster, logger arbor.ILogger) *WebSocketHandler {
	return &WebSocketHandler{
		broadcaster: broadcaster,
		logger:      logger,
	}
}

// HandleWebSocket handles GET /ws?job_id={id}. Each progress event is
// one JSON text message; the server closes the socket after the job's
// terminal event.
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	jobID := r.URL.Query().Get("job_id")
	if jobID == "" {
		WriteError(w, http.StatusBadRequest, "job_id query parameter is required")
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

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	h.logger.Debug().Str("job_id", jobID).Msg("WebSocket client attached")

	// Drain client frames so close handshakes and pings are processed
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for event := range events {
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteJSON(event); err != nil {
			h.logger.Debug().Err(err).Str("job_id", jobID).Msg("WebSocket client disconnected")
			return
		}
	}

	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "stream ended"))
}
