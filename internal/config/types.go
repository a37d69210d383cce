package config

import (
	"fmt"
	"strings"
	"time"

	logx "metronome/pkg/logx"
)

type Config struct {
	Logging LoggingConfig `json:"logging"`

	// Journal controls the optional tick history store.
	Journal *JournalConfig `json:"journal,omitempty"`

	// Pump controls the message pump draining tick events.
	Pump PumpConfig `json:"pump"`

	// Timers declares the interval timers the daemon runs.
	Timers []TimerConfig `json:"timers"`
}

type LoggingConfig struct {
	Level   string        `json:"level"`
	Console bool          `json:"console"`
	File    LogFileConfig `json:"file,omitempty"`
}

type LogFileConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path,omitempty"`
}

// JournalConfig controls the tick journal.
//
// Driver values:
//   - "file": append-only JSON Lines
//   - "sqlite": SQLite database file (optional build tag)
//
// If Driver is empty or "none", the journal is disabled.
type JournalConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}

type PumpConfig struct {
	QueueSize    int `json:"queue_size,omitempty"`
	ErrorsPerSec int `json:"errors_per_sec,omitempty"`
}

// TimerConfig declares one interval timer.
//
// All durations are Go duration strings (e.g. "500ms", "10s", "1m").
//
// Repeat is a pointer so we can distinguish "omitted" (repeat forever) from
// an explicit bound; Skip defaults to true when omitted.
type TimerConfig struct {
	Name        string `json:"name,omitempty"`
	Interval    string `json:"interval"`
	Repeat      *int   `json:"repeat,omitempty"`
	Skip        *bool  `json:"skip,omitempty"`
	StartPaused bool   `json:"start_paused,omitempty"`
}

func (c *Config) LogxConfig() logx.Config {
	return logx.Config{
		Level:   c.Logging.Level,
		Console: c.Logging.Console,
		File: logx.FileConfig{
			Enabled: c.Logging.File.Enabled,
			Path:    c.Logging.File.Path,
		},
	}
}

// Validate checks the declared timers; interval must parse and be positive.
func (c *Config) Validate() error {
	seen := map[string]bool{}
	for i, tc := range c.Timers {
		path := fmt.Sprintf("timers[%d]", i)
		d, err := ParseDurationField(path+".interval", tc.Interval)
		if err != nil {
			return err
		}
		if d <= 0 {
			return fmt.Errorf("%s.interval: must be > 0", path)
		}
		if tc.Repeat != nil && *tc.Repeat < 0 {
			return fmt.Errorf("%s.repeat: must be >= 0", path)
		}
		if name := strings.TrimSpace(tc.Name); name != "" {
			if seen[name] {
				return fmt.Errorf("%s.name: duplicate timer name %q", path, name)
			}
			seen[name] = true
		}
	}
	if c.Journal != nil {
		if _, err := ParseDurationField("journal.busy_timeout", c.Journal.BusyTimeout); err != nil {
			return err
		}
	}
	return nil
}

// IntervalOf parses the timer's interval. Call Validate first; this assumes
// a well-formed config.
func (tc TimerConfig) IntervalOf() time.Duration {
	d, _ := ParseDurationField("interval", tc.Interval)
	return d
}
