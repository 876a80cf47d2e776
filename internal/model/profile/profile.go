package profile

import (
	"net/url"
	"strings"
)

const (
	PlanPro  = "Pro Plan"
	PlanFree = "Free Plan"
)

const avatarFallbackURL = "https://ui-avatars.com/api/?name="

// Profile is the account summary returned by /api/profile.
type Profile struct {
	Name              string `json:"name"`
	Avatar            string `json:"avatar,omitempty"`
	Plan              string `json:"plan"`
	CustomInstruction string `json:"custom_instruction"`
}

// IsPro reports whether the account is on the paid plan.
func (p Profile) IsPro() bool {
	return p.Plan == PlanPro
}

// AvatarURL returns the stored picture or a generated initials avatar.
func (p Profile) AvatarURL() string {
	if p.Avatar != "" {
		return p.Avatar
	}
	name := p.Name
	if name == "" {
		name = "User"
	}
	return avatarFallbackURL + url.QueryEscape(name)
}

// StatusResponse is the acknowledgement most mutating endpoints return.
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// OK reports whether the backend accepted the request.
func (s StatusResponse) OK() bool {
	return s.Status == "success" || s.Status == "ok"
}

// DiaryEntry is one page of the assistant's diary.
type DiaryEntry struct {
	Date    string `json:"date"`
	Content string `json:"content"`
	Mood    string `json:"mood"`
}

var moodEmoji = map[string]string{
	"happy":      "😊",
	"reflective": "🤔",
	"romantic":   "🥰",
	"sad":        "😔",
	"excited":    "🤩",
	"neutral":    "😐",
}

// MoodEmoji maps the entry mood to its badge. Unknown moods get a sparkle.
func (e DiaryEntry) MoodEmoji() string {
	if emoji, ok := moodEmoji[strings.ToLower(strings.TrimSpace(e.Mood))]; ok {
		return emoji
	}
	return "✨"
}
