package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/shanvika-ai/shanvika/client/internal/client"
	"github.com/shanvika-ai/shanvika/client/internal/client/clienttest"
	chatModel "github.com/shanvika-ai/shanvika/client/internal/model/chat"
	"github.com/shanvika-ai/shanvika/client/internal/render"
	chatService "github.com/shanvika-ai/shanvika/client/internal/service/chat"
	turnService "github.com/shanvika-ai/shanvika/client/internal/service/turn"
	"github.com/shanvika-ai/shanvika/client/internal/transcript"
)

func newTestRouter(t *testing.T) (http.Handler, *clienttest.Backend) {
	t.Helper()
	backend := clienttest.NewBackend(t)
	api := client.New(backend.URL(), client.WithHTTPClient(backend.HTTPClient()))
	log := transcript.New(zap.NewNop())
	renderer := render.NewRenderer("")
	ctrl := turnService.New(api, log, turnService.WithRenderer(renderer))

	svc := Services{
		Controller: ctrl,
		Workspace:  chatService.NewService(api, ctrl, log, renderer, zap.NewNop()),
		Transcript: log,
		Catalog:    chatModel.DefaultCatalog(),
		Renderer:   renderer,
	}
	return NewRouter(svc, []string{"http://localhost:5173"}, zap.NewNop()), backend
}

func TestRouterServesGatewayUnderUI(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/ui/health", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if resp.Header().Get("Content-Type") != "application/json" {
		t.Fatalf("unexpected content type %q", resp.Header().Get("Content-Type"))
	}
}

func TestRouterUnknownRoute(t *testing.T) {
	r, _ := newTestRouter(t)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/chat", nil))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestRouterAppliesCORS(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/ui/submit", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}
	if got := resp.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("unexpected allow origin %q", got)
	}
}

func TestRouterLoadsChatIntoTranscript(t *testing.T) {
	r, backend := newTestRouter(t)
	backend.Conversations["s-1"] = []chatModel.Message{
		{Role: "user", Content: "hi"},
		{Role: "model", Content: "**hello**"},
	}

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/ui/chats/s-1/load", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/ui/state", nil))
	if body := resp.Body.String(); !strings.Contains(body, `"session_id":"s-1"`) {
		t.Fatalf("expected loaded session in state, got %s", body)
	}
}
