// Package journal provides a minimal tick history store.
//
// It records dispatched ticks for diagnostics (which timer fired, when it
// was scheduled to fire, how late it actually ran). It never persists
// scheduler state; restarting the process always starts timers fresh.
package journal

import (
	"errors"
	"time"
)

var ErrDisabled = errors.New("journal disabled")

// Config configures the journal.
//
// Driver values:
//   - "file": dependency-free append-only JSON Lines backend
//   - "sqlite": SQLite database file (optional build tag)
//
// If Driver is empty or "none", the journal is disabled.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// Entry records one dispatched tick. Keep it compact and schema-stable.
type Entry struct {
	At    time.Time     `json:"at"`
	Timer string        `json:"timer"`
	Count int           `json:"count"`
	Fire  time.Time     `json:"fire"`
	Late  time.Duration `json:"late_ns"`
}
