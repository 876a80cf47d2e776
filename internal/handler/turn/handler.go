// Package turn exposes the chat turn controller to a browser page.
package turn

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/shanvika-ai/shanvika/client/internal/model/chat"
	"github.com/shanvika-ai/shanvika/client/internal/service/turn"
	"github.com/shanvika-ai/shanvika/client/internal/transcript"
	"github.com/shanvika-ai/shanvika/client/pkg/utils"
)

// Controller is the part of the turn controller the gateway drives.
type Controller interface {
	Submit(ctx context.Context, text string) turn.Outcome
	Cancel() bool
	Snapshot() turn.Snapshot
	Attach(att *chat.Attachment)
	ClearAttachment() bool
	SetMode(mode string)
	SetVoice(ctx context.Context, enabled bool)
}

// Catalog lists the selectable modes.
type Catalog interface {
	Tools() []chat.Tool
	Hint(mode string) string
}

// Entries reads the current transcript.
type Entries interface {
	Entries() []transcript.Entry
}

// Stylesheet provides the code highlighting CSS for rendered replies.
type Stylesheet interface {
	CSS() (string, error)
}

// Handler serves the composer endpoints: submit, cancel, attachment, mode and voice.
type Handler struct {
	controller Controller
	catalog    Catalog
	entries    Entries
	styles     Stylesheet
	logger     *zap.Logger
}

// New creates a turn handler.
func New(controller Controller, catalog Catalog, entries Entries, styles Stylesheet, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		controller: controller,
		catalog:    catalog,
		entries:    entries,
		styles:     styles,
		logger:     logger,
	}
}

// RegisterRoutes mounts the composer routes on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.handleHealth)
	r.Get("/state", h.handleState)
	r.Post("/submit", h.handleSubmit)
	r.Post("/cancel", h.handleCancel)
	r.Put("/attachment", h.handleAttach)
	r.Delete("/attachment", h.handleDetach)
	r.Put("/mode", h.handleMode)
	r.Get("/tools", h.handleTools)
	r.Put("/voice", h.handleVoice)
	r.Get("/transcript", h.handleTranscript)
	r.Get("/highlight.css", h.handleStylesheet)
}

type stateResponse struct {
	State      string           `json:"state"`
	SessionID  string           `json:"session_id,omitempty"`
	Mode       string           `json:"mode"`
	Hint       string           `json:"hint"`
	Voice      bool             `json:"voice"`
	Attachment *chat.Attachment `json:"attachment,omitempty"`
}

func (h *Handler) state() stateResponse {
	snap := h.controller.Snapshot()
	return stateResponse{
		State:      snap.State.String(),
		SessionID:  snap.SessionID,
		Mode:       snap.Mode,
		Hint:       h.catalog.Hint(snap.Mode),
		Voice:      snap.Voice,
		Attachment: snap.Attachment,
	}
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleState(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.state())
}

// handleSubmit blocks until the turn resolves. The turn outlives a dropped
// request; only an explicit cancel or a second submit stops it.
func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Text string `json:"text"`
	}
	if err := utils.DecodeJSON(w, r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	outcome := h.controller.Submit(context.WithoutCancel(r.Context()), payload.Text)
	h.logger.Debug("turn resolved", zap.Stringer("outcome", outcome))

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"outcome": outcome.String(),
		"state":   h.state(),
	})
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]bool{"canceled": h.controller.Cancel()})
}

func (h *Handler) handleAttach(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Filename string `json:"filename"`
		Data     string `json:"data"`
	}
	if err := utils.DecodeJSON(w, r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(payload.Filename) == "" {
		utils.RespondError(w, http.StatusBadRequest, "filename is required")
		return
	}

	att, err := chat.ParseDataURI(payload.Filename, payload.Data)
	switch {
	case errors.Is(err, chat.ErrAttachmentTooLarge):
		utils.RespondError(w, http.StatusRequestEntityTooLarge, err.Error())
		return
	case err != nil:
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.controller.Attach(att)
	utils.RespondJSON(w, http.StatusOK, att)
}

func (h *Handler) handleDetach(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]bool{"cleared": h.controller.ClearAttachment()})
}

func (h *Handler) handleMode(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Mode string `json:"mode"`
	}
	if err := utils.DecodeJSON(w, r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.controller.SetMode(strings.TrimSpace(payload.Mode))
	state := h.state()
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"toast": "Activated: " + chat.ToolTitle(state.Mode),
		"state": state,
	})
}

func (h *Handler) handleTools(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]any{"tools": h.catalog.Tools()})
}

func (h *Handler) handleVoice(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Enabled *bool `json:"enabled"`
	}
	if err := utils.DecodeJSON(w, r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if payload.Enabled == nil {
		utils.RespondError(w, http.StatusBadRequest, "enabled is required")
		return
	}

	h.controller.SetVoice(context.WithoutCancel(r.Context()), *payload.Enabled)
	utils.RespondJSON(w, http.StatusOK, h.state())
}

func (h *Handler) handleTranscript(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]any{"entries": h.entries.Entries()})
}

func (h *Handler) handleStylesheet(w http.ResponseWriter, r *http.Request) {
	css, err := h.styles.CSS()
	if err != nil {
		h.logger.Error("render highlight stylesheet", zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, "stylesheet unavailable")
		return
	}
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write([]byte(css))
}
