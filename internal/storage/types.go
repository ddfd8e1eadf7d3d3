package storage

import (
	"context"
	"errors"
	"time"
)

var ErrClosed = errors.New("storage closed")

// Config configures the history store.
//
// Driver values:
//   - "file": JSON Lines file
//   - "sqlite": SQLite database file (modernc.org/sqlite, no cgo)
//
// If Driver is empty or "none", history is disabled.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// Entry is one history record. Keep it compact and schema-stable.
type Entry struct {
	At      time.Time `json:"at"`
	Event   string    `json:"event"`
	Kind    string    `json:"kind"`
	Summary string    `json:"summary"`
	Tick    uint64    `json:"tick,omitempty"`
	LeadMS  int64     `json:"lead_ms,omitempty"`
	DryRun  bool      `json:"dry_run,omitempty"`
	Error   string    `json:"error,omitempty"`
}

type Store interface {
	Append(ctx context.Context, e Entry) error
	// Recent returns up to n entries, newest first.
	Recent(ctx context.Context, n int) ([]Entry, error)
	Close() error
}
