package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/vovakirdan/wireirc/internal/store"
)

const schema = `
	CREATE TABLE IF NOT EXISTS transcript (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		direction  TEXT NOT NULL,
		channel    TEXT NOT NULL DEFAULT '',
		line       TEXT NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_transcript_session ON transcript(session_id);
`

// SQLiteStore implements store.Transcript for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New opens the transcript database at dbPath, creating the schema if needed.
func New(dbPath string) (*SQLiteStore, error) {
	return NewWithSetup(dbPath, applySchema)
}

// NewWithSetup opens a SQLite store and runs a setup function before first use.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with single connection; it also keeps :memory: databases alive.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func applySchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Record persists a transcript entry.
func (s *SQLiteStore) Record(ctx context.Context, e *store.Entry) error {
	query := `
		INSERT INTO transcript (session_id, direction, channel, line, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query, e.SessionID, string(e.Direction), e.Channel, e.Line, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}

	e.ID = id
	return nil
}

// Recent returns up to limit newest entries in chronological order.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]*store.Entry, error) {
	query := `
		SELECT id, session_id, direction, channel, line, created_at
		FROM transcript
		ORDER BY id DESC
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query transcript: %w", err)
	}
	defer rows.Close()

	var entries []*store.Entry
	for rows.Next() {
		var (
			e         store.Entry
			direction string
		)
		if err := rows.Scan(&e.ID, &e.SessionID, &direction, &e.Channel, &e.Line, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.Direction = store.Direction(direction)
		entries = append(entries, &e)
	}

	// Reverse to get chronological order
	for i := range len(entries) / 2 {
		entries[i], entries[len(entries)-1-i] = entries[len(entries)-1-i], entries[i]
	}

	return entries, rows.Err()
}
