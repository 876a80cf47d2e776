package main

import (
	"bytes"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shanvika-ai/shanvika/client/internal/client/clienttest"
	"github.com/shanvika-ai/shanvika/client/internal/model/chat"
	"github.com/shanvika-ai/shanvika/client/internal/model/profile"
)

// setupEnv points the CLI at backend with state and logs under a temp dir.
func setupEnv(t *testing.T, backend *clienttest.Backend) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("SHANVIKA_BASE_URL", backend.URL())
	t.Setenv("SHANVIKA_STATE_DB", filepath.Join(dir, "state.db"))
	t.Setenv("SHANVIKA_LOG_FILE", filepath.Join(dir, "shanvika.log"))
	t.Setenv("SHANVIKA_MARKDOWN_STYLE", "notty")
	t.Setenv("SHANVIKA_VOICE", "false")
	t.Setenv("SHANVIKA_GATEWAY_ADDR", "")
	t.Setenv("PORT", "")
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--env-file", ""}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestSendPrintsReplyAndReusesSession(t *testing.T) {
	backend := clienttest.NewBackend(t)
	setupEnv(t, backend)

	out, err := execute(t, "send", "hello", "there")
	require.NoError(t, err)
	assert.Contains(t, out, "echo: hello there")

	_, err = execute(t, "send", "again")
	require.NoError(t, err)

	assert.Len(t, backend.CallsTo(http.MethodGet, "/api/new_chat"), 1, "second send continues the stored session")
	chats := backend.CallsTo(http.MethodPost, "/api/chat")
	require.Len(t, chats, 2)
	assert.Contains(t, string(chats[1].Body), `"session_id":"a1b2c3d4"`)
}

func TestSendNewStartsFreshSession(t *testing.T) {
	backend := clienttest.NewBackend(t)
	setupEnv(t, backend)

	_, err := execute(t, "send", "first")
	require.NoError(t, err)
	_, err = execute(t, "send", "--new", "second")
	require.NoError(t, err)

	assert.Len(t, backend.CallsTo(http.MethodGet, "/api/new_chat"), 2)
}

func TestSendWithModeAndAttachment(t *testing.T) {
	backend := clienttest.NewBackend(t)
	dir := setupEnv(t, backend)
	path := filepath.Join(dir, "cv.txt")
	require.NoError(t, os.WriteFile(path, []byte("ten years of go"), 0o600))

	_, err := execute(t, "send", "--mode", "resume_analyzer", "--attach", path, "review")
	require.NoError(t, err)

	chats := backend.CallsTo(http.MethodPost, "/api/chat")
	require.Len(t, chats, 1)
	body := string(chats[0].Body)
	assert.Contains(t, body, `"mode":"resume_analyzer"`)
	assert.Contains(t, body, `"file_data":"data:text/plain;base64,`)
}

func TestSendFailureReturnsError(t *testing.T) {
	backend := clienttest.NewBackend(t)
	backend.Chat = func(*http.Request, clienttest.ChatRequest) (int, any) {
		return http.StatusInternalServerError, map[string]string{"detail": "model overloaded"}
	}
	setupEnv(t, backend)

	out, err := execute(t, "send", "hello")
	require.ErrorIs(t, err, errTurnFailed)
	assert.Contains(t, out, "⚠️ Error.")
}

func TestSendRequiresInput(t *testing.T) {
	backend := clienttest.NewBackend(t)
	setupEnv(t, backend)

	_, err := execute(t, "send")
	require.Error(t, err)
	assert.Empty(t, backend.Calls())
}

func TestHistoryMarksCurrentConversation(t *testing.T) {
	backend := clienttest.NewBackend(t)
	backend.History = []chat.HistoryItem{{ID: "a1b2c3d4", Title: "Goa trip"}, {ID: "zz", Title: "Resume"}}
	setupEnv(t, backend)

	_, err := execute(t, "send", "hi")
	require.NoError(t, err)

	out, err := execute(t, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "* a1b2c3d4")
	assert.Contains(t, out, "  zz")

	out, err = execute(t, "history", "resume")
	require.NoError(t, err)
	assert.NotContains(t, out, "Goa trip")
}

func TestShowLoadsConversation(t *testing.T) {
	backend := clienttest.NewBackend(t)
	backend.Conversations["s-9"] = []chat.Message{
		{Role: chat.RoleUser, Content: "hi"},
		{Role: chat.RoleAssistant, Content: "hello **you**"},
	}
	setupEnv(t, backend)

	out, err := execute(t, "show", "s-9")
	require.NoError(t, err)
	assert.Contains(t, out, "You: hi")
	assert.Contains(t, out, "Shanvika:")

	_, err = execute(t, "send", "follow up")
	require.NoError(t, err)
	assert.Empty(t, backend.CallsTo(http.MethodGet, "/api/new_chat"), "show makes the conversation current")
}

func TestDeleteAllRequiresConfirmation(t *testing.T) {
	backend := clienttest.NewBackend(t)
	setupEnv(t, backend)

	_, err := execute(t, "delete-all")
	require.Error(t, err)
	assert.Empty(t, backend.Calls())

	out, err := execute(t, "delete-all", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "All conversations deleted.")
	assert.Len(t, backend.CallsTo(http.MethodDelete, "/api/delete_all_chats"), 1)
}

func TestRenameAndDelete(t *testing.T) {
	backend := clienttest.NewBackend(t)
	setupEnv(t, backend)

	out, err := execute(t, "rename", "s-1", "Beach", "plans")
	require.NoError(t, err)
	assert.Contains(t, out, "Renamed.")
	calls := backend.CallsTo(http.MethodPost, "/api/rename_chat")
	require.Len(t, calls, 1)
	assert.Contains(t, string(calls[0].Body), `"new_title":"Beach plans"`)

	_, err = execute(t, "delete", "s-1")
	require.NoError(t, err)
	assert.Len(t, backend.CallsTo(http.MethodDelete, "/api/delete_chat/s-1"), 1)
}

func TestProfileCommands(t *testing.T) {
	backend := clienttest.NewBackend(t)
	backend.Profile = profile.Profile{Name: "Asha Rao", Plan: profile.PlanPro}
	setupEnv(t, backend)

	out, err := execute(t, "profile")
	require.NoError(t, err)
	assert.Contains(t, out, "Asha Rao")
	assert.Contains(t, out, "Pro Plan 👑")
	assert.Contains(t, out, "https://ui-avatars.com/api/?name=Asha+Rao")

	out, err = execute(t, "profile", "--name", "Asha")
	require.NoError(t, err)
	assert.Contains(t, out, "Profile updated.")
}

func TestMemoryAndDiaryCommands(t *testing.T) {
	backend := clienttest.NewBackend(t)
	backend.Memories = []string{"Likes chai"}
	backend.Diary = []profile.DiaryEntry{{Date: "2026-10-14", Content: "A calm day.", Mood: "Reflective"}}
	setupEnv(t, backend)

	out, err := execute(t, "memory")
	require.NoError(t, err)
	assert.Contains(t, out, "• Likes chai")

	_, err = execute(t, "memory", "add", "Lives", "in", "Pune")
	require.NoError(t, err)
	calls := backend.CallsTo(http.MethodPost, "/api/add_memory")
	require.Len(t, calls, 1)
	assert.Contains(t, string(calls[0].Body), `"memory_text":"Lives in Pune"`)

	out, err = execute(t, "diary")
	require.NoError(t, err)
	assert.Contains(t, out, "🤔 2026-10-14")

	out, err = execute(t, "diary", "write")
	require.NoError(t, err)
	assert.Contains(t, out, "Diary written")
}

func TestSpeakSavesAudio(t *testing.T) {
	backend := clienttest.NewBackend(t)
	backend.Audio = []byte("ID3\x03\x00\x00\x00\x00\x00\x00fake mp3 frames")
	dir := setupEnv(t, backend)
	target := filepath.Join(dir, "reply.mp3")

	out, err := execute(t, "speak", "--out", target, "Namaste", "https://example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "Saved")

	saved, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, backend.Audio, saved)

	calls := backend.CallsTo(http.MethodPost, "/api/speak")
	require.Len(t, calls, 1)
	assert.False(t, strings.Contains(string(calls[0].Body), "example.com"), "links are not read aloud")
}

func TestToolsCommand(t *testing.T) {
	backend := clienttest.NewBackend(t)
	setupEnv(t, backend)

	out, err := execute(t, "tools")
	require.NoError(t, err)
	assert.Contains(t, out, "qr_generator")
	assert.Contains(t, out, "QR Generator")
}

func TestInvalidBaseURL(t *testing.T) {
	backend := clienttest.NewBackend(t)
	setupEnv(t, backend)

	_, err := execute(t, "--base-url", "ftp://nowhere", "tools")
	require.Error(t, err)
}
