package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shanvika-ai/shanvika/client/internal/client"
	"github.com/shanvika-ai/shanvika/client/internal/client/clienttest"
	"github.com/shanvika-ai/shanvika/client/internal/model/chat"
	"github.com/shanvika-ai/shanvika/client/internal/model/profile"
)

func TestNewChat(t *testing.T) {
	backend := clienttest.NewBackend(t)
	c := client.New(backend.URL())

	id, err := c.NewChat(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a1b2c3d4", id)
}

func TestNewChatWithoutSessionID(t *testing.T) {
	backend := clienttest.NewBackend(t)
	backend.SessionID = ""
	c := client.New(backend.URL())

	_, err := c.NewChat(context.Background())
	assert.ErrorIs(t, err, client.ErrNoSession)
}

func TestChatSendsAttachmentFields(t *testing.T) {
	backend := clienttest.NewBackend(t)
	c := client.New(backend.URL() + "/")

	reply, err := c.Chat(context.Background(), client.ChatRequest{
		Message:   "what is this?",
		SessionID: "s1",
		Mode:      "research",
		FileData:  "data:image/png;base64,AAAA",
		FileType:  "image/png",
	})
	require.NoError(t, err)
	assert.Equal(t, "echo: what is this?", reply.Reply)

	calls := backend.CallsTo(http.MethodPost, "/api/chat")
	require.Len(t, calls, 1)

	var sent map[string]string
	require.NoError(t, json.Unmarshal(calls[0].Body, &sent))
	assert.Equal(t, map[string]string{
		"message":    "what is this?",
		"session_id": "s1",
		"mode":       "research",
		"file_data":  "data:image/png;base64,AAAA",
		"file_type":  "image/png",
	}, sent)
}

func TestChatOmitsEmptyAttachment(t *testing.T) {
	backend := clienttest.NewBackend(t)
	c := client.New(backend.URL())

	_, err := c.Chat(context.Background(), client.ChatRequest{Message: "hi", SessionID: "s1", Mode: "chat"})
	require.NoError(t, err)

	var sent map[string]any
	require.NoError(t, json.Unmarshal(backend.CallsTo(http.MethodPost, "/api/chat")[0].Body, &sent))
	assert.NotContains(t, sent, "file_data")
	assert.NotContains(t, sent, "file_type")
}

func TestChatKeepsReplyOnErrorStatus(t *testing.T) {
	backend := clienttest.NewBackend(t)
	backend.Chat = func(*http.Request, clienttest.ChatRequest) (int, any) {
		return http.StatusInternalServerError, map[string]string{"reply": "⚠️ Server Error"}
	}
	c := client.New(backend.URL())

	reply, err := c.Chat(context.Background(), client.ChatRequest{Message: "hi", SessionID: "s1", Mode: "chat"})
	require.NoError(t, err)
	assert.Equal(t, "⚠️ Server Error", reply.Reply)
}

func TestChatErrorStatus(t *testing.T) {
	backend := clienttest.NewBackend(t)
	backend.Chat = func(*http.Request, clienttest.ChatRequest) (int, any) {
		return http.StatusBadGateway, map[string]string{"error": "upstream down"}
	}
	c := client.New(backend.URL())

	_, err := c.Chat(context.Background(), client.ChatRequest{Message: "hi", SessionID: "s1", Mode: "chat"})
	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "upstream down", apiErr.Message)
}

func TestChatCanceledContext(t *testing.T) {
	backend := clienttest.NewBackend(t)
	c := client.New(backend.URL())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Chat(ctx, client.ChatRequest{Message: "hi", SessionID: "s1", Mode: "chat"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConversationAndHistory(t *testing.T) {
	backend := clienttest.NewBackend(t)
	backend.Conversations["s1"] = []chat.Message{
		{Role: chat.RoleUser, Content: "hello", Timestamp: "2025-01-02T10:11:12.123456"},
		{Role: chat.RoleAssistant, Content: "**hi**"},
	}
	backend.History = []chat.HistoryItem{{ID: "s1", Title: "Chat - hello"}}
	c := client.New(backend.URL())

	messages, err := c.Conversation(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.True(t, messages[0].FromUser())
	assert.Equal(t, "2025-01-02T10:11:12.123456", messages[0].Timestamp)

	missing, err := c.Conversation(context.Background(), "nope")
	require.NoError(t, err)
	assert.Empty(t, missing)

	history, err := c.History(context.Background())
	require.NoError(t, err)
	assert.Equal(t, backend.History, history)
}

func TestChatManagementRoutes(t *testing.T) {
	backend := clienttest.NewBackend(t)
	c := client.New(backend.URL())
	ctx := context.Background()

	require.NoError(t, c.DeleteChat(ctx, "s1"))
	require.NoError(t, c.RenameChat(ctx, "s2", "Trip plans"))
	require.NoError(t, c.DeleteAllChats(ctx))

	assert.Len(t, backend.CallsTo(http.MethodDelete, "/api/delete_chat/s1"), 1)
	assert.Len(t, backend.CallsTo(http.MethodDelete, "/api/delete_all_chats"), 1)

	renames := backend.CallsTo(http.MethodPost, "/api/rename_chat")
	require.Len(t, renames, 1)
	assert.JSONEq(t, `{"session_id":"s2","new_title":"Trip plans"}`, string(renames[0].Body))
}

func TestSpeak(t *testing.T) {
	backend := clienttest.NewBackend(t)
	backend.Audio = []byte("ID3fake")
	c := client.New(backend.URL())

	audio, contentType, err := c.Speak(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []byte("ID3fake"), audio)
	assert.Equal(t, "audio/mp3", contentType)
	assert.JSONEq(t, `{"text":"hello"}`, string(backend.CallsTo(http.MethodPost, "/api/speak")[0].Body))
}

func TestAccountRoutes(t *testing.T) {
	backend := clienttest.NewBackend(t)
	backend.Profile = profile.Profile{Name: "Asha", Plan: profile.PlanPro}
	backend.Memories = []string{"likes chai", "lives in Pune"}
	backend.Diary = []profile.DiaryEntry{{Date: "2025-01-02", Content: "A quiet day.", Mood: "Reflective"}}
	c := client.New(backend.URL())
	ctx := context.Background()

	p, err := c.Profile(ctx)
	require.NoError(t, err)
	assert.True(t, p.IsPro())

	status, err := c.UpdateProfile(ctx, "Asha R")
	require.NoError(t, err)
	assert.True(t, status.OK())

	status, err = c.SaveInstruction(ctx, "Answer briefly")
	require.NoError(t, err)
	assert.True(t, status.OK())

	memories, err := c.Memories(ctx)
	require.NoError(t, err)
	assert.Equal(t, backend.Memories, memories)

	_, err = c.AddMemory(ctx, "plays chess")
	require.NoError(t, err)
	status, err = c.DeleteMemory(ctx, "likes chai")
	require.NoError(t, err)
	assert.True(t, status.OK())
	assert.JSONEq(t, `{"memory_text":"likes chai"}`, string(backend.CallsTo(http.MethodPost, "/api/delete_memory")[0].Body))

	entries, err := c.DiaryEntries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "🤔", entries[0].MoodEmoji())

	status, err = c.TriggerDiary(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Diary written", status.Message)
}
