package transcript

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shanvika-ai/shanvika/client/internal/render"
)

func TestAppendRemoveReset(t *testing.T) {
	log := New(zap.NewNop())

	user := log.Append(UserEntry("hello", ""))
	placeholder := log.Append(PlaceholderEntry("Thinking..."))
	require.NotEmpty(t, user.ID)
	require.NotEqual(t, user.ID, placeholder.ID)
	assert.False(t, user.CreatedAt.IsZero())
	assert.Equal(t, 1, log.Count(KindPlaceholder))

	assert.True(t, log.Remove(placeholder.ID))
	assert.False(t, log.Remove(placeholder.ID))
	assert.Equal(t, 0, log.Count(KindPlaceholder))

	entries := log.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "hello", entries[0].Source)

	log.Reset()
	assert.Empty(t, log.Entries())
}

func TestEntriesIsSnapshot(t *testing.T) {
	log := New(nil)
	log.Append(NoticeEntry("🛑 Stopped."))

	snapshot := log.Entries()
	snapshot[0].Source = "mutated"
	assert.Equal(t, "🛑 Stopped.", log.Entries()[0].Source)
}

func TestSubscribeReceivesEvents(t *testing.T) {
	log := New(zap.NewNop())
	events, cancel := log.Subscribe(8)
	defer cancel()

	entry := log.Append(NoticeEntry("⚠️ Error."))
	log.Remove(entry.ID)
	log.Reset()

	first := <-events
	assert.Equal(t, EventAppend, first.Type)
	require.NotNil(t, first.Entry)
	assert.Equal(t, entry.ID, first.Entry.ID)

	second := <-events
	assert.Equal(t, Event{Type: EventRemove, ID: entry.ID}, second)

	third := <-events
	assert.Equal(t, EventReset, third.Type)
}

func TestSlowSubscriberDoesNotBlock(t *testing.T) {
	log := New(zap.NewNop())
	events, cancel := log.Subscribe(1)

	for i := 0; i < 5; i++ {
		log.Append(NoticeEntry("tick"))
	}
	assert.Len(t, log.Entries(), 5)
	assert.Len(t, events, 1)

	cancel()
	cancel()
	_, open := <-events
	for open {
		_, open = <-events
	}
}

func TestEntryConstructors(t *testing.T) {
	user := UserEntry("<b>hi</b>", "cv.pdf")
	assert.Equal(t, RoleUser, user.Role)
	assert.Equal(t, render.FormatText, user.Format)
	assert.Equal(t, "cv.pdf", user.Attachment)
	assert.Contains(t, user.Markup, "&lt;b&gt;")

	reply := ReplyEntry(render.NewRenderer(""), render.FormatHTML, `<div class="glass">x</div>`)
	assert.Equal(t, RoleAssistant, reply.Role)
	assert.Equal(t, `<div class="glass">x</div>`, reply.Markup)

	notice := NoticeEntry("⚠️ Empty response.")
	assert.Equal(t, KindNotice, notice.Kind)
	assert.Equal(t, RoleAssistant, notice.Role)

	assert.Equal(t, RoleSystem, SystemEntry("help").Role)
}
