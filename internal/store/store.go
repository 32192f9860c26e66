package store

import (
	"context"
	"time"
)

// Direction tells which side of the session produced a transcript line.
type Direction string

const (
	DirectionIn     Direction = "in"
	DirectionOut    Direction = "out"
	DirectionNotice Direction = "notice"
)

// Entry represents one persisted transcript line.
type Entry struct {
	ID        int64
	SessionID string
	Direction Direction
	Channel   string // empty when the line is not tied to a channel
	Line      string
	CreatedAt time.Time
}

// Transcript handles transcript persistence.
type Transcript interface {
	// Record persists an entry and fills in its ID.
	Record(ctx context.Context, e *Entry) error

	// Recent returns up to limit newest entries, oldest first.
	Recent(ctx context.Context, limit int) ([]*Entry, error)

	// Close closes the underlying database connection.
	Close() error
}
