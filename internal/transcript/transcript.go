// Package transcript holds the ordered list of entries a chat view displays.
package transcript

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shanvika-ai/shanvika/client/internal/render"
)

// Role is the author of an entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Kind separates real messages from transient UI entries.
type Kind string

const (
	KindMessage     Kind = "message"
	KindPlaceholder Kind = "placeholder"
	KindNotice      Kind = "notice"
)

// Entry is one rendered bubble of the transcript.
type Entry struct {
	ID         string        `json:"id"`
	Role       Role          `json:"role"`
	Kind       Kind          `json:"kind"`
	Format     render.Format `json:"format"`
	Source     string        `json:"source"`
	Markup     string        `json:"markup"`
	Attachment string        `json:"attachment,omitempty"`
	CreatedAt  time.Time     `json:"createdAt"`
}

// EventType names a transcript change.
type EventType string

const (
	EventAppend EventType = "append"
	EventRemove EventType = "remove"
	EventReset  EventType = "reset"
)

// Event describes a single change. Entry is set for appends, ID for removals.
type Event struct {
	Type  EventType `json:"type"`
	Entry *Entry    `json:"entry,omitempty"`
	ID    string    `json:"id,omitempty"`
}

type subscriber struct {
	ch chan Event
}

// Log is a concurrency-safe transcript that fans changes out to subscribers.
type Log struct {
	mu      sync.RWMutex
	entries []Entry
	subs    map[*subscriber]struct{}
	logger  *zap.Logger
}

// New returns an empty transcript. A nil logger is replaced by a no-op one.
func New(logger *zap.Logger) *Log {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Log{
		entries: make([]Entry, 0, 32),
		subs:    make(map[*subscriber]struct{}),
		logger:  logger,
	}
}

// Append adds entry at the end and returns it with its id and timestamp set.
func (l *Log) Append(entry Entry) Entry {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	l.mu.Lock()
	l.entries = append(l.entries, entry)
	published := entry
	l.publishLocked(Event{Type: EventAppend, Entry: &published})
	l.mu.Unlock()
	return entry
}

// Remove deletes the entry with id. It reports whether the entry existed.
func (l *Log) Remove(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, entry := range l.entries {
		if entry.ID == id {
			l.entries = append(l.entries[:i], l.entries[i+1:]...)
			l.publishLocked(Event{Type: EventRemove, ID: id})
			return true
		}
	}
	return false
}

// Reset clears every entry.
func (l *Log) Reset() {
	l.mu.Lock()
	l.entries = l.entries[:0]
	l.publishLocked(Event{Type: EventReset})
	l.mu.Unlock()
}

// Entries returns a snapshot in display order.
func (l *Log) Entries() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	copied := make([]Entry, len(l.entries))
	copy(copied, l.entries)
	return copied
}

// Count returns how many entries are of kind.
func (l *Log) Count(kind Kind) int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	n := 0
	for _, entry := range l.entries {
		if entry.Kind == kind {
			n++
		}
	}
	return n
}

// Subscribe registers for change events. The returned cancel function
// unsubscribes and closes the channel. Events that do not fit in the buffer
// are dropped, so writers never block on slow readers.
func (l *Log) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer < 1 {
		buffer = 1
	}
	sub := &subscriber{ch: make(chan Event, buffer)}

	l.mu.Lock()
	l.subs[sub] = struct{}{}
	l.mu.Unlock()

	var once sync.Once
	return sub.ch, func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.subs, sub)
			close(sub.ch)
			l.mu.Unlock()
		})
	}
}

func (l *Log) publishLocked(event Event) {
	for sub := range l.subs {
		select {
		case sub.ch <- event:
		default:
			l.logger.Warn("transcript subscriber lagging, event dropped", zap.String("event", string(event.Type)))
		}
	}
}
