package chat

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/shanvika-ai/shanvika/client/internal/model/chat"
	"github.com/shanvika-ai/shanvika/client/internal/render"
	"github.com/shanvika-ai/shanvika/client/internal/transcript"
)

var ErrSessionRequired = errors.New("session id is required")

// Backend is the conversation management part of the API client.
type Backend interface {
	Conversation(ctx context.Context, sessionID string) ([]chat.Message, error)
	History(ctx context.Context) ([]chat.HistoryItem, error)
	DeleteChat(ctx context.Context, sessionID string) error
	RenameChat(ctx context.Context, sessionID, title string) error
	DeleteAllChats(ctx context.Context) error
}

// Controller is the session binding of the turn controller.
type Controller interface {
	SessionID() string
	BindSession(sessionID string)
	ResetSession()
}

// Transcript is the view the workspace rebuilds when switching chats.
type Transcript interface {
	Append(entry transcript.Entry) transcript.Entry
	Reset()
}

// Service manages the conversation list around a turn controller.
type Service struct {
	backend    Backend
	controller Controller
	transcript Transcript
	renderer   *render.Renderer
	logger     *zap.Logger
}

// NewService wires the workspace. A nil renderer uses the default style.
func NewService(backend Backend, controller Controller, tr Transcript, renderer *render.Renderer, logger *zap.Logger) *Service {
	if renderer == nil {
		renderer = render.NewRenderer("")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		backend:    backend,
		controller: controller,
		transcript: tr,
		renderer:   renderer,
		logger:     logger,
	}
}

// LoadChat switches to sessionID and replays its stored messages into the
// transcript. The transcript is left untouched when the fetch fails.
func (s *Service) LoadChat(ctx context.Context, sessionID string) (int, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return 0, ErrSessionRequired
	}

	messages, err := s.backend.Conversation(ctx, sessionID)
	if err != nil {
		return 0, err
	}

	s.controller.BindSession(sessionID)
	s.transcript.Reset()
	for _, msg := range messages {
		s.transcript.Append(s.entryFor(msg))
	}

	s.logger.Info("chat loaded", zap.String("session", sessionID), zap.Int("messages", len(messages)))
	return len(messages), nil
}

func (s *Service) entryFor(msg chat.Message) transcript.Entry {
	var entry transcript.Entry
	if msg.FromUser() {
		entry = transcript.UserEntry(msg.Content, "")
	} else {
		entry = transcript.ReplyEntry(s.renderer, render.Classify(msg.Content), msg.Content)
	}
	if ts, ok := msg.Time(); ok {
		entry.CreatedAt = ts
	}
	return entry
}

// NewChat starts a blank conversation. The session is created lazily by the
// next send.
func (s *Service) NewChat() {
	s.controller.ResetSession()
	s.transcript.Reset()
}

// History lists conversations whose title contains query, ignoring case.
func (s *Service) History(ctx context.Context, query string) ([]chat.HistoryItem, error) {
	items, err := s.backend.History(ctx)
	if err != nil {
		return nil, err
	}
	return chat.FilterHistory(items, query), nil
}

// DeleteChat removes a conversation. Deleting the open conversation starts a
// new one; the returned flag reports whether that happened.
func (s *Service) DeleteChat(ctx context.Context, sessionID string) (bool, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return false, ErrSessionRequired
	}
	if err := s.backend.DeleteChat(ctx, sessionID); err != nil {
		return false, err
	}
	if sessionID != s.controller.SessionID() {
		return false, nil
	}
	s.NewChat()
	return true, nil
}

// RenameChat sets a conversation title. A blank title is ignored.
func (s *Service) RenameChat(ctx context.Context, sessionID, title string) (bool, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return false, nil
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return false, ErrSessionRequired
	}
	if err := s.backend.RenameChat(ctx, sessionID, title); err != nil {
		return false, err
	}
	return true, nil
}

// DeleteAllChats wipes the conversation list and starts a new chat.
func (s *Service) DeleteAllChats(ctx context.Context) error {
	if err := s.backend.DeleteAllChats(ctx); err != nil {
		return err
	}
	s.NewChat()
	return nil
}
