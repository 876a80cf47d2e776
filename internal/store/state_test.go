package store

import (
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestState(t *testing.T) (*State, *sqlx.DB) {
	t.Helper()
	db, err := NewSqliteDB(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	state, err := NewState(db, zap.NewNop())
	require.NoError(t, err)
	return state, db
}

func TestStateGetSetDelete(t *testing.T) {
	state, _ := newTestState(t)

	_, ok, err := state.Get(KeyMode)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, state.Set(KeyMode, "research"))
	require.NoError(t, state.Set(KeyMode, "image_gen"))

	value, ok, err := state.Get(KeyMode)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "image_gen", value)

	require.NoError(t, state.Delete(KeyMode))
	_, ok, err = state.Get(KeyMode)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStateObserverRoundTrip(t *testing.T) {
	state, db := newTestState(t)

	state.SessionChanged("a1b2c3d4")
	state.ModeChanged("coding")
	state.VoiceChanged(true)

	reopened, err := NewState(db, nil)
	require.NoError(t, err)
	snap, err := reopened.Load()
	require.NoError(t, err)
	assert.Equal(t, Snapshot{SessionID: "a1b2c3d4", Mode: "coding", Voice: true}, snap)

	state.SessionChanged("")
	snap, err = reopened.Load()
	require.NoError(t, err)
	assert.Empty(t, snap.SessionID)
}

func TestStateLoadEmpty(t *testing.T) {
	state, _ := newTestState(t)

	snap, err := state.Load()
	require.NoError(t, err)
	assert.Equal(t, Snapshot{}, snap)
}
