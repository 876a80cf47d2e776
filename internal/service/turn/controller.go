// Package turn coordinates one request/response exchange with the backend at
// a time: session creation, optimistic rendering, cancel-as-toggle and the
// notices shown when a turn does not produce a reply.
package turn

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shanvika-ai/shanvika/client/internal/client"
	"github.com/shanvika-ai/shanvika/client/internal/model/chat"
	"github.com/shanvika-ai/shanvika/client/internal/render"
	"github.com/shanvika-ai/shanvika/client/internal/transcript"
)

const (
	NoticeStopped = "🛑 Stopped."
	NoticeEmpty   = "⚠️ Empty response."
	NoticeError   = "⚠️ Error."

	voiceGreeting = "Voice mode active."
)

// State is the controller's position in the turn lifecycle.
type State int

const (
	StateIdle State = iota
	StateAwaiting
)

func (s State) String() string {
	if s == StateAwaiting {
		return "awaiting"
	}
	return "idle"
}

// Outcome reports how a Submit call ended.
type Outcome int

const (
	// OutcomeIgnored means the input was empty and nothing happened.
	OutcomeIgnored Outcome = iota
	// OutcomeReplied means a reply was rendered.
	OutcomeReplied
	// OutcomeEmpty means the backend answered without content.
	OutcomeEmpty
	// OutcomeFailed means the request failed and an error notice was shown.
	OutcomeFailed
	// OutcomeCanceled is returned by a turn that was interrupted.
	OutcomeCanceled
	// OutcomeStopped is returned by the Submit call that stopped a running turn.
	OutcomeStopped
	// OutcomeAborted means the session could not be created; nothing was sent.
	OutcomeAborted
)

var outcomeNames = [...]string{"ignored", "replied", "empty", "failed", "canceled", "stopped", "aborted"}

func (o Outcome) String() string {
	if int(o) < len(outcomeNames) {
		return outcomeNames[o]
	}
	return "unknown"
}

// Backend is the part of the API client a turn needs.
type Backend interface {
	NewChat(ctx context.Context) (string, error)
	Chat(ctx context.Context, req client.ChatRequest) (client.ChatReply, error)
}

// Transcript receives the entries a turn produces.
type Transcript interface {
	Append(entry transcript.Entry) transcript.Entry
	Remove(id string) bool
}

// Speaker reads replies aloud.
type Speaker interface {
	Speak(ctx context.Context, text string) error
	Stop()
}

// CaptionSource picks the placeholder caption for a mode.
type CaptionSource interface {
	Caption(mode string) string
}

// Observer is told about changes to the state worth persisting.
type Observer interface {
	SessionChanged(sessionID string)
	ModeChanged(mode string)
	VoiceChanged(enabled bool)
}

type turn struct {
	id            string
	cancel        context.CancelFunc
	placeholderID string
}

// Controller owns the session id, mode, pending attachment and the single
// in-flight turn of one chat client.
type Controller struct {
	backend    Backend
	transcript Transcript
	speaker    Speaker
	captions   CaptionSource
	renderer   *render.Renderer
	observer   Observer
	logger     *zap.Logger

	mu        sync.Mutex
	state     State
	sessionID string
	mode      string
	pending   *chat.Attachment
	voice     bool
	inflight  *turn
}

// Option customises a Controller.
type Option func(*Controller)

// WithSpeaker enables spoken replies through s.
func WithSpeaker(s Speaker) Option {
	return func(c *Controller) { c.speaker = s }
}

// WithCaptions replaces the default tool catalog used for placeholder captions.
func WithCaptions(src CaptionSource) Option {
	return func(c *Controller) {
		if src != nil {
			c.captions = src
		}
	}
}

// WithRenderer sets the renderer used for reply markup.
func WithRenderer(r *render.Renderer) Option {
	return func(c *Controller) {
		if r != nil {
			c.renderer = r
		}
	}
}

// WithObserver registers o for session, mode and voice changes.
func WithObserver(o Observer) Option {
	return func(c *Controller) { c.observer = o }
}

// WithLogger sets the controller logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithSession starts the controller bound to an existing session.
func WithSession(sessionID string) Option {
	return func(c *Controller) { c.sessionID = sessionID }
}

// WithMode starts the controller in mode.
func WithMode(mode string) Option {
	return func(c *Controller) {
		if mode != "" {
			c.mode = mode
		}
	}
}

// WithVoice starts the controller with voice output on or off.
func WithVoice(enabled bool) Option {
	return func(c *Controller) { c.voice = enabled }
}

// New builds an idle controller.
func New(backend Backend, tr Transcript, opts ...Option) *Controller {
	c := &Controller{
		backend:    backend,
		transcript: tr,
		captions:   chat.DefaultCatalog(),
		renderer:   render.NewRenderer(""),
		logger:     zap.NewNop(),
		mode:       chat.ModeChat,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Submit sends text with the pending attachment as one turn and blocks until
// the turn resolves. Calling Submit while a turn is awaited stops that turn
// instead and returns OutcomeStopped at once. Failures are reported in the
// transcript only.
func (c *Controller) Submit(ctx context.Context, text string) Outcome {
	c.mu.Lock()
	if c.inflight != nil {
		c.stopLocked()
		c.mu.Unlock()
		return OutcomeStopped
	}

	text = strings.TrimSpace(text)
	if text == "" && c.pending == nil {
		c.mu.Unlock()
		return OutcomeIgnored
	}

	turnCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	t := &turn{id: uuid.NewString(), cancel: cancel}
	c.inflight = t
	c.state = StateAwaiting
	sessionID := c.sessionID
	c.mu.Unlock()

	logger := c.logger.With(zap.String("turn", t.id))

	if sessionID == "" {
		id, err := c.backend.NewChat(turnCtx)
		c.mu.Lock()
		if c.inflight != t {
			c.mu.Unlock()
			return OutcomeCanceled
		}
		if err != nil || id == "" {
			if errors.Is(err, context.Canceled) || turnCtx.Err() != nil {
				c.transcript.Append(transcript.NoticeEntry(NoticeStopped))
				c.finishLocked()
				c.mu.Unlock()
				return OutcomeCanceled
			}
			c.finishLocked()
			c.mu.Unlock()
			logger.Warn("session creation failed, turn dropped", zap.Error(err))
			return OutcomeAborted
		}
		c.sessionID = id
		sessionID = id
		c.mu.Unlock()
		c.notifySession(id)
		logger.Info("session created", zap.String("session", id))
	}

	c.mu.Lock()
	if c.inflight != t {
		c.mu.Unlock()
		return OutcomeCanceled
	}
	attachment := c.pending
	c.pending = nil
	mode := c.mode
	attachmentName := ""
	if attachment != nil {
		attachmentName = attachment.Name
	}
	c.transcript.Append(transcript.UserEntry(text, attachmentName))
	placeholder := c.transcript.Append(transcript.PlaceholderEntry(c.captions.Caption(mode)))
	t.placeholderID = placeholder.ID
	c.mu.Unlock()

	req := client.ChatRequest{Message: text, SessionID: sessionID, Mode: mode}
	if attachment != nil {
		req.FileData = attachment.DataURI
		req.FileType = attachment.MIMEType
	}
	reply, err := c.backend.Chat(turnCtx, req)

	c.mu.Lock()
	if c.inflight != t {
		c.mu.Unlock()
		return OutcomeCanceled
	}
	c.transcript.Remove(t.placeholderID)

	var outcome Outcome
	switch {
	case err != nil && (errors.Is(err, context.Canceled) || turnCtx.Err() != nil):
		c.transcript.Append(transcript.NoticeEntry(NoticeStopped))
		outcome = OutcomeCanceled
	case err != nil:
		logger.Warn("chat request failed", zap.String("mode", mode), zap.Error(err))
		c.transcript.Append(transcript.NoticeEntry(NoticeError))
		outcome = OutcomeFailed
	case strings.TrimSpace(reply.Reply) == "":
		c.transcript.Append(transcript.NoticeEntry(NoticeEmpty))
		outcome = OutcomeEmpty
	default:
		format := render.Resolve(reply.Format, reply.Reply)
		c.transcript.Append(transcript.ReplyEntry(c.renderer, format, reply.Reply))
		outcome = OutcomeReplied
	}
	c.finishLocked()
	speak := outcome == OutcomeReplied && c.voice && c.speaker != nil
	c.mu.Unlock()

	logger.Debug("turn resolved", zap.Stringer("outcome", outcome))
	if speak {
		if err := c.speaker.Speak(ctx, reply.Reply); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("speak reply failed", zap.Error(err))
		}
	}
	return outcome
}

// Cancel stops the running turn. It reports whether there was one.
func (c *Controller) Cancel() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inflight == nil {
		return false
	}
	c.stopLocked()
	return true
}

// stopLocked aborts the running turn and leaves a stopped notice behind.
func (c *Controller) stopLocked() {
	t := c.inflight
	t.cancel()
	if t.placeholderID != "" {
		c.transcript.Remove(t.placeholderID)
	}
	c.transcript.Append(transcript.NoticeEntry(NoticeStopped))
	c.finishLocked()
	c.logger.Info("turn stopped", zap.String("turn", t.id))
}

// dropLocked aborts the running turn without a notice.
func (c *Controller) dropLocked() {
	t := c.inflight
	if t == nil {
		return
	}
	t.cancel()
	if t.placeholderID != "" {
		c.transcript.Remove(t.placeholderID)
	}
	c.finishLocked()
}

func (c *Controller) finishLocked() {
	c.inflight = nil
	c.pending = nil
	c.state = StateIdle
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SessionID returns the current session id, empty before the first send.
func (c *Controller) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// BindSession switches to an existing conversation. A running turn is
// dropped without a notice because the transcript is being replaced.
func (c *Controller) BindSession(sessionID string) {
	c.mu.Lock()
	c.dropLocked()
	changed := c.sessionID != sessionID
	c.sessionID = sessionID
	c.mu.Unlock()

	if changed {
		c.notifySession(sessionID)
	}
}

// ResetSession forgets the current session so the next send creates one.
func (c *Controller) ResetSession() {
	c.BindSession("")
}

// SetMode selects the mode tag sent with the next turns.
func (c *Controller) SetMode(mode string) {
	mode = strings.TrimSpace(mode)
	if mode == "" {
		mode = chat.ModeChat
	}
	c.mu.Lock()
	changed := c.mode != mode
	c.mode = mode
	c.mu.Unlock()

	if changed && c.observer != nil {
		c.observer.ModeChanged(mode)
	}
}

// Mode returns the active mode tag.
func (c *Controller) Mode() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// Attach stages att for the next turn, replacing any earlier attachment.
func (c *Controller) Attach(att *chat.Attachment) {
	c.mu.Lock()
	c.pending = att
	c.mu.Unlock()
}

// PendingAttachment returns a copy of the staged attachment, or nil.
func (c *Controller) PendingAttachment() *chat.Attachment {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return nil
	}
	copied := *c.pending
	return &copied
}

// ClearAttachment discards the staged attachment. It reports whether one was staged.
func (c *Controller) ClearAttachment() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	had := c.pending != nil
	c.pending = nil
	return had
}

// SetVoice turns spoken replies on or off. Turning voice on says a short
// greeting; turning it off stops current playback.
func (c *Controller) SetVoice(ctx context.Context, enabled bool) {
	c.mu.Lock()
	changed := c.voice != enabled
	c.voice = enabled
	c.mu.Unlock()

	if changed && c.observer != nil {
		c.observer.VoiceChanged(enabled)
	}
	if c.speaker == nil {
		return
	}
	if !enabled {
		c.speaker.Stop()
		return
	}
	if err := c.speaker.Speak(ctx, voiceGreeting); err != nil && !errors.Is(err, context.Canceled) {
		c.logger.Warn("voice greeting failed", zap.Error(err))
	}
}

// Voice reports whether replies are spoken.
func (c *Controller) Voice() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.voice
}

// Snapshot is a consistent read of the controller fields.
type Snapshot struct {
	State      State
	SessionID  string
	Mode       string
	Voice      bool
	Attachment *chat.Attachment
}

// Snapshot returns the controller fields read under one lock.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := Snapshot{State: c.state, SessionID: c.sessionID, Mode: c.mode, Voice: c.voice}
	if c.pending != nil {
		copied := *c.pending
		s.Attachment = &copied
	}
	return s
}

func (c *Controller) notifySession(sessionID string) {
	if c.observer != nil {
		c.observer.SessionChanged(sessionID)
	}
}
