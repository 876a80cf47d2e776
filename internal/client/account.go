package client

import (
	"context"
	"net/http"

	"github.com/shanvika-ai/shanvika/client/internal/model/profile"
)

// Profile fetches the account summary.
func (c *Client) Profile(ctx context.Context) (profile.Profile, error) {
	var p profile.Profile
	err := c.do(ctx, http.MethodGet, "/api/profile", nil, &p)
	return p, err
}

type updateProfileRequest struct {
	Name string `json:"name"`
}

// UpdateProfile changes the display name.
func (c *Client) UpdateProfile(ctx context.Context, name string) (profile.StatusResponse, error) {
	var status profile.StatusResponse
	err := c.do(ctx, http.MethodPost, "/api/update_profile", updateProfileRequest{Name: name}, &status)
	return status, err
}

type instructionRequest struct {
	Instruction string `json:"instruction"`
}

// SaveInstruction stores the custom system instruction.
func (c *Client) SaveInstruction(ctx context.Context, instruction string) (profile.StatusResponse, error) {
	var status profile.StatusResponse
	err := c.do(ctx, http.MethodPost, "/api/save_instruction", instructionRequest{Instruction: instruction}, &status)
	return status, err
}

type memoriesResponse struct {
	Memories []string `json:"memories"`
}

// Memories lists what the assistant remembers about the user, newest first.
func (c *Client) Memories(ctx context.Context) ([]string, error) {
	var resp memoriesResponse
	if err := c.do(ctx, http.MethodGet, "/api/memories", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Memories, nil
}

type memoryRequest struct {
	MemoryText string `json:"memory_text"`
}

// AddMemory stores a new memory.
func (c *Client) AddMemory(ctx context.Context, text string) (profile.StatusResponse, error) {
	var status profile.StatusResponse
	err := c.do(ctx, http.MethodPost, "/api/add_memory", memoryRequest{MemoryText: text}, &status)
	return status, err
}

// DeleteMemory forgets a memory by its exact text.
func (c *Client) DeleteMemory(ctx context.Context, text string) (profile.StatusResponse, error) {
	var status profile.StatusResponse
	err := c.do(ctx, http.MethodPost, "/api/delete_memory", memoryRequest{MemoryText: text}, &status)
	return status, err
}

type diaryResponse struct {
	Entries []profile.DiaryEntry `json:"entries"`
}

// DiaryEntries lists the most recent diary pages.
func (c *Client) DiaryEntries(ctx context.Context) ([]profile.DiaryEntry, error) {
	var resp diaryResponse
	if err := c.do(ctx, http.MethodGet, "/api/diary_entries", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Entries, nil
}

// TriggerDiary asks the assistant to write today's diary page now.
func (c *Client) TriggerDiary(ctx context.Context) (profile.StatusResponse, error) {
	var status profile.StatusResponse
	err := c.do(ctx, http.MethodPost, "/api/trigger_diary", nil, &status)
	return status, err
}
