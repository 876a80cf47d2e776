package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/shanvika-ai/shanvika/client/internal/model/chat"
)

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
	Mode      string `json:"mode"`
	FileData  string `json:"file_data,omitempty"`
	FileType  string `json:"file_type,omitempty"`
}

// ChatReply is the answer of POST /api/chat. Format is optional; when the
// backend declares it ("html" or "markdown") it overrides classification.
type ChatReply struct {
	Reply  string `json:"reply"`
	Format string `json:"format,omitempty"`
}

// NewChat asks the backend for a fresh session id.
func (c *Client) NewChat(ctx context.Context) (string, error) {
	var session chat.Session
	if err := c.do(ctx, http.MethodGet, "/api/new_chat", nil, &session); err != nil {
		return "", err
	}
	if strings.TrimSpace(session.ID) == "" {
		return "", ErrNoSession
	}
	return session.ID, nil
}

// Chat dispatches one turn. The backend reports most failures inside a 200
// reply, so a body carrying a reply is returned even with an error status.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (ChatReply, error) {
	res, body, err := c.send(ctx, http.MethodPost, "/api/chat", req, JSONContentType)
	if err != nil {
		return ChatReply{}, err
	}

	var reply ChatReply
	decodeErr := json.Unmarshal(body, &reply)
	if apiErr := handleAPIError(res, body); apiErr != nil {
		if decodeErr == nil && reply.Reply != "" {
			return reply, nil
		}
		return ChatReply{}, apiErr
	}
	if decodeErr != nil {
		return ChatReply{}, decodeErr
	}
	return reply, nil
}

type conversationResponse struct {
	Messages []chat.Message `json:"messages"`
}

// Conversation fetches the stored messages of a session.
func (c *Client) Conversation(ctx context.Context, sessionID string) ([]chat.Message, error) {
	var resp conversationResponse
	if err := c.do(ctx, http.MethodGet, "/api/chat/"+url.PathEscape(sessionID), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

type historyResponse struct {
	History []chat.HistoryItem `json:"history"`
}

// History lists the user's conversations, newest first.
func (c *Client) History(ctx context.Context) ([]chat.HistoryItem, error) {
	var resp historyResponse
	if err := c.do(ctx, http.MethodGet, "/api/history", nil, &resp); err != nil {
		return nil, err
	}
	return resp.History, nil
}

// DeleteChat removes one conversation.
func (c *Client) DeleteChat(ctx context.Context, sessionID string) error {
	return c.do(ctx, http.MethodDelete, "/api/delete_chat/"+url.PathEscape(sessionID), nil, nil)
}

type renameRequest struct {
	SessionID string `json:"session_id"`
	NewTitle  string `json:"new_title"`
}

// RenameChat sets a conversation title.
func (c *Client) RenameChat(ctx context.Context, sessionID, title string) error {
	return c.do(ctx, http.MethodPost, "/api/rename_chat", renameRequest{SessionID: sessionID, NewTitle: title}, nil)
}

// DeleteAllChats wipes the user's conversation list.
func (c *Client) DeleteAllChats(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/api/delete_all_chats", nil, nil)
}

type speakRequest struct {
	Text string `json:"text"`
}

// Speak synthesises text on the backend and returns the audio bytes with
// the declared content type.
func (c *Client) Speak(ctx context.Context, text string) ([]byte, string, error) {
	res, body, err := c.send(ctx, http.MethodPost, "/api/speak", speakRequest{Text: text}, "audio/*")
	if err != nil {
		return nil, "", err
	}
	if err := handleAPIError(res, body); err != nil {
		return nil, "", err
	}
	return body, res.Header.Get("Content-Type"), nil
}
