// Package stream pushes transcript changes to browser pages over Server-Sent
// Events and WebSocket.
package stream

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/shanvika-ai/shanvika/client/internal/service/turn"
	"github.com/shanvika-ai/shanvika/client/internal/transcript"
	"github.com/shanvika-ai/shanvika/client/pkg/utils"
)

const (
	subscriberBuffer  = 64
	keepAliveInterval = 15 * time.Second
	pingInterval      = 54 * time.Second
	readTimeout       = 60 * time.Second
	writeTimeout      = 10 * time.Second
)

// Feed is the transcript as seen by a live view.
type Feed interface {
	Entries() []transcript.Entry
	Subscribe(buffer int) (<-chan transcript.Event, func())
}

// Controller is the turn controller as driven from a socket.
type Controller interface {
	Submit(ctx context.Context, text string) turn.Outcome
	Cancel() bool
	SessionID() string
}

// Handler serves the transcript event streams.
type Handler struct {
	feed       Feed
	controller Controller
	logger     *zap.Logger
	upgrader   websocket.Upgrader

	keepAlive time.Duration
	ping      time.Duration
}

// New creates a stream handler.
func New(feed Feed, controller Controller, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		feed:       feed,
		controller: controller,
		logger:     logger,
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		keepAlive: keepAliveInterval,
		ping:      pingInterval,
	}
}

// RegisterRoutes mounts /events and /ws on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/events", h.handleEvents)
	r.Get("/ws", h.handleWebSocket)
}

type snapshot struct {
	SessionID string             `json:"session_id,omitempty"`
	Entries   []transcript.Entry `json:"entries"`
}

func (h *Handler) snapshot() snapshot {
	return snapshot{SessionID: h.controller.SessionID(), Entries: h.feed.Entries()}
}

// handleEvents streams a snapshot followed by every transcript change.
func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	events, unsubscribe := h.feed.Subscribe(subscriberBuffer)
	defer unsubscribe()

	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)

	ctx := r.Context()
	h.logger.Debug("sse stream opened", zap.String("remote", r.RemoteAddr))
	defer h.logger.Debug("sse stream closed", zap.String("remote", r.RemoteAddr))

	if err := utils.SendSSEEvent(w, flusher, "snapshot", h.snapshot()); err != nil {
		return
	}

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := utils.SendSSEEvent(w, flusher, string(event.Type), event); err != nil {
				h.logger.Debug("sse write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			if err := utils.SendSSEComment(w, flusher, "keepalive"); err != nil {
				return
			}
		}
	}
}
