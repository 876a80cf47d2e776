package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/shanvika-ai/shanvika/client/internal/transcript"
)

type inboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type submitData struct {
	Text string `json:"text"`
}

type outgoingMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId,omitempty"`
	Data      any    `json:"data,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// connection owns one socket. Only writeLoop writes to conn.
type connection struct {
	conn *websocket.Conn
	out  chan outgoingMessage
}

func (c *connection) send(ctx context.Context, msg outgoingMessage) {
	msg.Timestamp = time.Now().Unix()
	select {
	case c.out <- msg:
	case <-ctx.Done():
	}
}

// handleWebSocket mirrors the transcript to the socket and accepts submit
// and cancel commands. Closing the socket stops the turn it started.
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	events, unsubscribe := h.feed.Subscribe(subscriberBuffer)
	defer unsubscribe()

	c := &connection{conn: conn, out: make(chan outgoingMessage, 16)}
	logger := h.logger.With(zap.String("remote", r.RemoteAddr))
	logger.Debug("websocket connected")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		h.writeLoop(ctx, c, events, logger)
		cancel()
		// Unblocks the reader when the write side fails first.
		conn.Close()
	}()

	c.send(ctx, outgoingMessage{Type: "snapshot", Data: h.snapshot()})

	conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("websocket read ended", zap.Error(err))
			}
			break
		}
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		h.handleMessage(ctx, c, &wg, msg)
	}

	cancel()
	wg.Wait()
	logger.Debug("websocket disconnected")
}

func (h *Handler) handleMessage(ctx context.Context, c *connection, wg *sync.WaitGroup, msg inboundMessage) {
	switch msg.Type {
	case "submit":
		var data submitData
		if len(msg.Data) > 0 {
			if err := json.Unmarshal(msg.Data, &data); err != nil {
				c.send(ctx, errorMessage("invalid submit payload"))
				return
			}
		}
		// Submit blocks for the whole turn; the reader keeps serving so a
		// second submit or a cancel can stop it.
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcome := h.controller.Submit(ctx, data.Text)
			c.send(ctx, outgoingMessage{
				Type:      "outcome",
				SessionID: h.controller.SessionID(),
				Data:      map[string]string{"outcome": outcome.String()},
			})
		}()
	case "cancel":
		c.send(ctx, outgoingMessage{
			Type: "canceled",
			Data: map[string]bool{"canceled": h.controller.Cancel()},
		})
	default:
		c.send(ctx, errorMessage("unsupported message type: "+strings.TrimSpace(msg.Type)))
	}
}

func errorMessage(message string) outgoingMessage {
	return outgoingMessage{Type: "error", Data: map[string]string{"message": message}}
}

func (h *Handler) writeLoop(ctx context.Context, c *connection, events <-chan transcript.Event, logger *zap.Logger) {
	ticker := time.NewTicker(h.ping)
	defer ticker.Stop()

	write := func(msg outgoingMessage) bool {
		c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteJSON(msg); err != nil {
			logger.Debug("websocket write failed", zap.Error(err))
			return false
		}
		return true
	}

	for {
		select {
		case <-ctx.Done():
			deadline := time.Now().Add(time.Second)
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			msg := outgoingMessage{
				Type:      "transcript",
				SessionID: h.controller.SessionID(),
				Data:      event,
				Timestamp: time.Now().Unix(),
			}
			if !write(msg) {
				return
			}
		case msg := <-c.out:
			if !write(msg) {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
