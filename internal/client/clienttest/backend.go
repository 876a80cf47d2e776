// Package clienttest provides an in-process fake of the Shanvika backend.
package clienttest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/shanvika-ai/shanvika/client/internal/model/chat"
	"github.com/shanvika-ai/shanvika/client/internal/model/profile"
)

// Call records one request received by the fake.
type Call struct {
	Method string
	Path   string
	Body   []byte
}

// ChatRequest mirrors the body of POST /api/chat.
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
	Mode      string `json:"mode"`
	FileData  string `json:"file_data,omitempty"`
	FileType  string `json:"file_type,omitempty"`
}

// ChatFunc answers a chat request. Returning a status other than 200 makes
// the fake reply with that status and the encoded body.
type ChatFunc func(r *http.Request, req ChatRequest) (int, any)

// Backend is a chi-routed httptest server speaking the backend API.
type Backend struct {
	mu    sync.Mutex
	calls []Call

	SessionID     string
	Chat          ChatFunc
	Conversations map[string][]chat.Message
	History       []chat.HistoryItem
	Audio         []byte
	AudioType     string
	Profile       profile.Profile
	Memories      []string
	Diary         []profile.DiaryEntry

	server *httptest.Server
}

// NewBackend starts a fake backend closed at test cleanup.
func NewBackend(t testing.TB) *Backend {
	t.Helper()

	b := &Backend{
		SessionID:     "a1b2c3d4",
		Conversations: make(map[string][]chat.Message),
		AudioType:     "audio/mp3",
		Chat: func(_ *http.Request, req ChatRequest) (int, any) {
			return http.StatusOK, map[string]string{"reply": "echo: " + req.Message}
		},
	}
	b.server = httptest.NewServer(b.routes())
	t.Cleanup(b.server.Close)
	return b
}

// URL is the fake's base URL.
func (b *Backend) URL() string {
	return b.server.URL
}

// HTTPClient returns a client whose idle connections are closed with the server.
func (b *Backend) HTTPClient() *http.Client {
	return b.server.Client()
}

// Calls returns a copy of the recorded requests.
func (b *Backend) Calls() []Call {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Call(nil), b.calls...)
}

// CallsTo returns the recorded requests whose route pattern matches.
func (b *Backend) CallsTo(method, path string) []Call {
	var out []Call
	for _, call := range b.Calls() {
		if call.Method == method && call.Path == path {
			out = append(out, call)
		}
	}
	return out
}

func (b *Backend) record(r *http.Request) []byte {
	body, _ := io.ReadAll(r.Body)
	b.mu.Lock()
	b.calls = append(b.calls, Call{Method: r.Method, Path: r.URL.Path, Body: body})
	b.mu.Unlock()
	return body
}

func (b *Backend) routes() http.Handler {
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Get("/new_chat", b.newChat)
		r.Post("/chat", b.chat)
		r.Get("/chat/{sessionID}", b.conversation)
		r.Get("/history", b.history)
		r.Delete("/delete_chat/{sessionID}", b.ok)
		r.Post("/rename_chat", b.ok)
		r.Delete("/delete_all_chats", b.ok)
		r.Post("/speak", b.speak)
		r.Get("/profile", b.profile)
		r.Post("/update_profile", b.success)
		r.Post("/save_instruction", b.success)
		r.Get("/memories", b.memories)
		r.Post("/add_memory", b.success)
		r.Post("/delete_memory", b.ok)
		r.Get("/diary_entries", b.diary)
		r.Post("/trigger_diary", b.triggerDiary)
	})
	return r
}

func (b *Backend) newChat(w http.ResponseWriter, r *http.Request) {
	b.record(r)
	writeJSON(w, http.StatusOK, map[string]any{"session_id": b.SessionID, "messages": []any{}})
}

func (b *Backend) chat(w http.ResponseWriter, r *http.Request) {
	body := b.record(r)
	var req ChatRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": err.Error()})
		return
	}
	status, payload := b.Chat(r, req)
	writeJSON(w, status, payload)
}

func (b *Backend) conversation(w http.ResponseWriter, r *http.Request) {
	b.record(r)
	messages := b.Conversations[chi.URLParam(r, "sessionID")]
	if messages == nil {
		messages = []chat.Message{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": messages})
}

func (b *Backend) history(w http.ResponseWriter, r *http.Request) {
	b.record(r)
	items := b.History
	if items == nil {
		items = []chat.HistoryItem{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": items})
}

func (b *Backend) speak(w http.ResponseWriter, r *http.Request) {
	b.record(r)
	w.Header().Set("Content-Type", b.AudioType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b.Audio)
}

func (b *Backend) profile(w http.ResponseWriter, r *http.Request) {
	b.record(r)
	writeJSON(w, http.StatusOK, b.Profile)
}

func (b *Backend) memories(w http.ResponseWriter, r *http.Request) {
	b.record(r)
	writeJSON(w, http.StatusOK, map[string]any{"memories": b.Memories})
}

func (b *Backend) diary(w http.ResponseWriter, r *http.Request) {
	b.record(r)
	writeJSON(w, http.StatusOK, map[string]any{"entries": b.Diary})
}

func (b *Backend) triggerDiary(w http.ResponseWriter, r *http.Request) {
	b.record(r)
	writeJSON(w, http.StatusOK, profile.StatusResponse{Status: "success", Message: "Diary written"})
}

func (b *Backend) ok(w http.ResponseWriter, r *http.Request) {
	b.record(r)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (b *Backend) success(w http.ResponseWriter, r *http.Request) {
	b.record(r)
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
