package chat

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shanvika-ai/shanvika/client/internal/client"
	"github.com/shanvika-ai/shanvika/client/internal/model/chat"
	chatService "github.com/shanvika-ai/shanvika/client/internal/service/chat"
	"github.com/shanvika-ai/shanvika/client/pkg/utils"
)

// Workspace is the session workspace the handler drives.
type Workspace interface {
	LoadChat(ctx context.Context, sessionID string) (int, error)
	NewChat()
	History(ctx context.Context, query string) ([]chat.HistoryItem, error)
	DeleteChat(ctx context.Context, sessionID string) (bool, error)
	RenameChat(ctx context.Context, sessionID, title string) (bool, error)
	DeleteAllChats(ctx context.Context) error
}

// Handler exposes the conversation list over HTTP.
type Handler struct {
	workspace Workspace
}

// New creates a chat list handler.
func New(workspace Workspace) *Handler {
	return &Handler{workspace: workspace}
}

// RegisterRoutes mounts the conversation routes on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/chats", h.handleHistory)
	r.Post("/chats/new", h.handleNewChat)
	r.Post("/chats/{sessionID}/load", h.handleLoadChat)
	r.Patch("/chats/{sessionID}", h.handleRenameChat)
	r.Delete("/chats/{sessionID}", h.handleDeleteChat)
	r.Delete("/chats", h.handleDeleteAllChats)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	items, err := h.workspace.History(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		respondBackendError(w, err)
		return
	}
	if items == nil {
		items = []chat.HistoryItem{}
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{"history": items})
}

func (h *Handler) handleNewChat(w http.ResponseWriter, r *http.Request) {
	h.workspace.NewChat()
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleLoadChat(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	count, err := h.workspace.LoadChat(r.Context(), sessionID)
	if err != nil {
		respondBackendError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"session_id": sessionID,
		"messages":   count,
	})
}

func (h *Handler) handleRenameChat(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Title string `json:"title"`
	}
	if err := utils.DecodeJSON(w, r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	renamed, err := h.workspace.RenameChat(r.Context(), chi.URLParam(r, "sessionID"), payload.Title)
	if err != nil {
		respondBackendError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]bool{"renamed": renamed})
}

func (h *Handler) handleDeleteChat(w http.ResponseWriter, r *http.Request) {
	wasCurrent, err := h.workspace.DeleteChat(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		respondBackendError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]bool{
		"deleted":  true,
		"new_chat":  wasCurrent,
	})
}

func (h *Handler) handleDeleteAllChats(w http.ResponseWriter, r *http.Request) {
	if err := h.workspace.DeleteAllChats(r.Context()); err != nil {
		respondBackendError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// respondBackendError maps workspace errors onto gateway statuses. Backend
// failures surface as 502 with the backend's own message.
func respondBackendError(w http.ResponseWriter, err error) {
	var apiErr *client.APIError
	switch {
	case errors.Is(err, chatService.ErrSessionRequired):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound:
		utils.RespondError(w, http.StatusNotFound, apiErr.Message)
	case errors.As(err, &apiErr):
		utils.RespondError(w, http.StatusBadGateway, apiErr.Message)
	default:
		utils.RespondError(w, http.StatusBadGateway, "backend unavailable")
	}
}
