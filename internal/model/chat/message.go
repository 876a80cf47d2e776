package chat

import "time"

// Role names the author of a stored message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a stored turn half as returned by /api/chat/{session_id}.
// Timestamp is kept verbatim: the backend emits naive ISO datetimes that
// time.Time cannot decode.
type Message struct {
	Role      Role   `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp,omitempty"`
}

// FromUser reports whether the message was authored by the user.
// Every other role is displayed as the assistant.
func (m Message) FromUser() bool {
	return m.Role == RoleUser
}

var timestampLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	time.RFC3339Nano,
}

// Time parses Timestamp. Naive values are read as UTC.
func (m Message) Time() (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, m.Timestamp); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
