// Package sqlite provides a ports.SessionStore backed by an embedded SQLite
// database, for single-node hosts that want durable sessions without a server.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/tick/pkg/domain"
	"github.com/aretw0/tick/pkg/ports"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // SQLite driver
)

// Compile-time check
var _ ports.SessionStore = (*Store)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	conversation_id TEXT PRIMARY KEY,
	data            TEXT NOT NULL,
	updated_at      INTEGER NOT NULL
)`

// row is the persisted form of a session.
type row struct {
	ConversationID string `db:"conversation_id"`
	Data           string `db:"data"`
	UpdatedAt      int64  `db:"updated_at"` // unix nanoseconds
}

// Store implements ports.SessionStore using sqlx over modernc.org/sqlite.
type Store struct {
	db *sqlx.DB
}

// Open opens (or creates) the database at dsn and migrates the schema.
// Use ":memory:" for a throwaway database.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sqlx.ConnectContext(ctx, "sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	// SQLite serializes writers; one connection also keeps ":memory:" shared.
	db.SetMaxOpenConns(1)

	store := NewFromDB(db)
	if err := store.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// NewFromDB wraps an existing connection. Call Migrate before use.
func NewFromDB(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Migrate creates the sessions table when missing.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate sqlite schema: %w", err)
	}
	return nil
}

// Save upserts the session.
func (s *Store) Save(ctx context.Context, conversationID string, session domain.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	query := `
		INSERT INTO sessions (conversation_id, data, updated_at)
		VALUES (:conversation_id, :data, :updated_at)
		ON CONFLICT(conversation_id) DO UPDATE SET
			data = excluded.data,
			updated_at = excluded.updated_at`

	_, err = s.db.NamedExecContext(ctx, query, row{
		ConversationID: conversationID,
		Data:           string(data),
		UpdatedAt:      time.Now().UnixNano(),
	})
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Load retrieves the session.
func (s *Store) Load(ctx context.Context, conversationID string) (domain.Session, error) {
	var r row
	err := s.db.GetContext(ctx, &r,
		`SELECT conversation_id, data, updated_at FROM sessions WHERE conversation_id = ?`, conversationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Session{}, domain.ErrSessionNotFound
		}
		return domain.Session{}, fmt.Errorf("failed to load session: %w", err)
	}

	var session domain.Session
	if err := json.Unmarshal([]byte(r.Data), &session); err != nil {
		return domain.Session{}, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return session, nil
}

// Delete removes the session.
func (s *Store) Delete(ctx context.Context, conversationID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE conversation_id = ?`, conversationID)
	return err
}

// List returns the conversation ids, most recently updated first.
func (s *Store) List(ctx context.Context) ([]string, error) {
	ids := []string{}
	err := s.db.SelectContext(ctx, &ids,
		`SELECT conversation_id FROM sessions ORDER BY updated_at DESC, conversation_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return ids, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
