package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

const (
	KeySessionID = "session_id"
	KeyMode      = "mode"
	KeyVoice     = "voice"
)

// Snapshot is the mirrored controller state restored at start-up.
type Snapshot struct {
	SessionID string
	Mode      string
	Voice     bool
}

type stateRow struct {
	Key       string    `db:"key"`
	Value     string    `db:"value"`
	UpdatedAt time.Time `db:"updated_at"`
}

// State is a small key/value table mirroring the current session, mode and
// voice flag.
type State struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewState creates the state table when missing.
func NewState(db *sqlx.DB, logger *zap.Logger) (*State, error) {
	createStateTable := `
	CREATE TABLE IF NOT EXISTS client_state (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)
	`
	if _, err := db.Exec(createStateTable); err != nil {
		return nil, fmt.Errorf("failed to create client_state table: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &State{db: db, logger: logger}, nil
}

// Get returns the value stored under key.
func (s *State) Get(key string) (string, bool, error) {
	var row stateRow
	err := s.db.Get(&row, "SELECT key, value, updated_at FROM client_state WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read state %s: %w", key, err)
	}
	return row.Value, true, nil
}

// Set stores value under key, replacing any earlier value.
func (s *State) Set(key, value string) error {
	upsert := `
	INSERT INTO client_state (key, value, updated_at) VALUES (?, ?, ?)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	if _, err := s.db.Exec(upsert, key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to write state %s: %w", key, err)
	}
	s.logger.Debug("state saved", zap.String("key", key), zap.String("value", value))
	return nil
}

// Delete removes key.
func (s *State) Delete(key string) error {
	if _, err := s.db.Exec("DELETE FROM client_state WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete state %s: %w", key, err)
	}
	return nil
}

// Load reads the mirrored controller state. Missing keys keep zero values.
func (s *State) Load() (Snapshot, error) {
	var rows []stateRow
	if err := s.db.Select(&rows, "SELECT key, value, updated_at FROM client_state"); err != nil {
		return Snapshot{}, fmt.Errorf("failed to load state: %w", err)
	}

	var snap Snapshot
	for _, row := range rows {
		switch row.Key {
		case KeySessionID:
			snap.SessionID = row.Value
		case KeyMode:
			snap.Mode = row.Value
		case KeyVoice:
			snap.Voice, _ = strconv.ParseBool(row.Value)
		}
	}
	return snap, nil
}

// SessionChanged mirrors the current session id. An empty id clears it.
func (s *State) SessionChanged(sessionID string) {
	var err error
	if sessionID == "" {
		err = s.Delete(KeySessionID)
	} else {
		err = s.Set(KeySessionID, sessionID)
	}
	s.logFailure(err)
}

// ModeChanged mirrors the active mode.
func (s *State) ModeChanged(mode string) {
	s.logFailure(s.Set(KeyMode, mode))
}

// VoiceChanged mirrors the voice toggle.
func (s *State) VoiceChanged(enabled bool) {
	s.logFailure(s.Set(KeyVoice, strconv.FormatBool(enabled)))
}

func (s *State) logFailure(err error) {
	if err != nil {
		s.logger.Warn("state mirror failed", zap.Error(err))
	}
}
