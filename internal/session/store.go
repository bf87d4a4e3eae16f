// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package session persists research records between process runs so a
// conversation can be resumed, including across a restart while a proposal
// sits with a reviewer.
package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/research-assistant/pkg/types"
)

const dbFile = "sessions.db"

// timeLayout is fixed-width so lexicographic ordering of stored timestamps
// matches chronological ordering (RFC3339Nano trims trailing zeros).
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store manages the session SQLite database.
type Store struct {
	db *sql.DB
}

// NewStore opens or creates the session database at dir/sessions.db,
// creating the schema if it does not exist.
func NewStore(cfg types.SessionConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating session directory: %w", err)
	}

	dbPath := filepath.Join(cfg.Dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening session database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			title TEXT,
			record TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_updated_at ON sessions(updated_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// NewSessionID returns a fresh session identifier.
func NewSessionID() string {
	return uuid.NewString()
}

// Info summarizes one persisted session for listings.
type Info struct {
	ID        string
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Save upserts the record snapshot for the session. The first save sets the
// creation time; later saves only touch the update time.
func (s *Store) Save(ctx context.Context, id string, rec *types.ResearchRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding record: %w", err)
	}
	now := time.Now().UTC().Format(timeLayout)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO sessions (id, title, record, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			title=excluded.title, record=excluded.record, updated_at=excluded.updated_at`,
		id, rec.Title, string(data), now, now,
	)
	if err != nil {
		return fmt.Errorf("upserting session %s: %w", id, err)
	}
	return tx.Commit()
}

// Load returns the record snapshot for the session.
func (s *Store) Load(ctx context.Context, id string) (*types.ResearchRecord, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT record FROM sessions WHERE id = ?`, id,
	).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("session %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading session %s: %w", id, err)
	}

	var rec types.ResearchRecord
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("decoding session %s: %w", id, err)
	}
	if rec.Outline == nil {
		rec.Outline = make(map[string]types.OutlineSection)
	}
	if rec.Sources == nil {
		rec.Sources = make(map[string]types.Source)
	}
	return &rec, nil
}

// List returns session summaries, most recently updated first.
func (s *Store) List(ctx context.Context) ([]Info, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, created_at, updated_at FROM sessions ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	var infos []Info
	for rows.Next() {
		var info Info
		var created, updated string
		if err := rows.Scan(&info.ID, &info.Title, &created, &updated); err != nil {
			return nil, fmt.Errorf("scanning session row: %w", err)
		}
		info.CreatedAt, _ = time.Parse(timeLayout, created)
		info.UpdatedAt, _ = time.Parse(timeLayout, updated)
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// Delete removes a session. Deleting a missing session is an error so
// callers can distinguish a typo from a success.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting session %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("session %s not found", id)
	}
	return nil
}
