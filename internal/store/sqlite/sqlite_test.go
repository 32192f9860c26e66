package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/vovakirdan/wireirc/internal/store"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndRecent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	lines := []struct {
		dir     store.Direction
		channel string
		line    string
	}{
		{store.DirectionOut, "#a", "JOIN #a"},
		{store.DirectionIn, "", ":irc.example.org 001 bot :Welcome"},
		{store.DirectionOut, "#a", "PRIVMSG #a :hello"},
		{store.DirectionNotice, "", "no_channel: no channel selected"},
	}
	for i, l := range lines {
		e := &store.Entry{
			SessionID: "s1",
			Direction: l.dir,
			Channel:   l.channel,
			Line:      l.line,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		if err := s.Record(ctx, e); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
		if e.ID == 0 {
			t.Fatalf("expected id to be set for %q", l.line)
		}
	}

	tests := []struct {
		name     string
		limit    int
		expected []string
	}{
		{"all", 10, []string{"JOIN #a", ":irc.example.org 001 bot :Welcome", "PRIVMSG #a :hello", "no_channel: no channel selected"}},
		{"newest two oldest first", 2, []string{"PRIVMSG #a :hello", "no_channel: no channel selected"}},
		{"zero", 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := s.Recent(ctx, tt.limit)
			if err != nil {
				t.Fatalf("Recent failed: %v", err)
			}
			if len(entries) != len(tt.expected) {
				t.Fatalf("expected %d entries, got %d", len(tt.expected), len(entries))
			}
			for i, e := range entries {
				if e.Line != tt.expected[i] {
					t.Errorf("expected %q at index %d, got %q", tt.expected[i], i, e.Line)
				}
				if e.SessionID != "s1" {
					t.Errorf("expected session s1, got %q", e.SessionID)
				}
			}
		})
	}

	entries, err := s.Recent(ctx, 1)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if entries[0].Direction != store.DirectionNotice {
		t.Errorf("expected notice direction, got %q", entries[0].Direction)
	}
}

func TestNewCreatesSchemaOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transcript.db")
	ctx := context.Background()

	first, err := New(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := first.Record(ctx, &store.Entry{SessionID: "s1", Direction: store.DirectionOut, Line: "NICK bot", CreatedAt: time.Now()}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	first.Close()

	second, err := New(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()

	entries, err := second.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Line != "NICK bot" {
		t.Fatalf("expected persisted entry, got %+v", entries)
	}
}
