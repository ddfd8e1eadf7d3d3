package config

// Config is the on-disk configuration (YAML or JSON).
//
// Every section is optional; Defaults() fills in what a personal workstation needs.
type Config struct {
	Logging   LoggingConfig   `json:"logging"`
	Platform  PlatformConfig  `json:"platform"`
	Listing   ListingConfig   `json:"listing"`
	Shutdown  ShutdownConfig  `json:"shutdown"`
	Scheduler SchedulerConfig `json:"scheduler"`
	Notify    NotifyConfig    `json:"notify"`

	// History is an append-only audit trail of armed/fired triggers.
	// It is never read back to resume a schedule.
	History *HistoryConfig `json:"history,omitempty"`
}

type LoggingConfig struct {
	Level   string        `json:"level"`
	Console bool          `json:"console"`
	File    LoggingFile   `json:"file"`
	Remote  LoggingRemote `json:"remote"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// LoggingRemote forwards log lines to the notifier (Telegram).
type LoggingRemote struct {
	Enabled    bool   `json:"enabled"`
	MinLevel   string `json:"min_level"`
	RatePerSec int    `json:"rate_per_sec"`
}

// PlatformConfig overrides OS family detection and the native command layout.
//
// Family: "auto" (default), "windows" or "unix".
// Header lines are skipped at the top of the process listing output.
type PlatformConfig struct {
	Family             string `json:"family,omitempty"`
	WindowsHeaderLines *int   `json:"windows_header_lines,omitempty"`
	UnixHeaderLines    *int   `json:"unix_header_lines,omitempty"`
}

// ListingConfig selects how process snapshots are taken.
//
// Backend: "command" (native tasklist/ps, default) or "gopsutil".
type ListingConfig struct {
	Backend string `json:"backend,omitempty"`
	// Timeout bounds a single snapshot (Go duration string). Default "30s".
	Timeout string `json:"timeout,omitempty"`
}

// ShutdownConfig selects how the machine is shut down.
//
// Backend: "command" (native shutdown, default) or "logind" (Linux, systemd-logind over D-Bus).
type ShutdownConfig struct {
	Backend string `json:"backend,omitempty"`
	DryRun  bool   `json:"dry_run,omitempty"`
}

// SchedulerConfig tunes trigger evaluation.
//
// AbsoluteMatch: "calendar" (default) compares full date-times;
// "day_of_month" keeps the legacy day/hour/minute comparison.
type SchedulerConfig struct {
	AbsoluteMatch string `json:"absolute_match,omitempty"`
}

type NotifyConfig struct {
	Telegram TelegramConfig `json:"telegram"`
	// RatePerSec bounds outgoing notifications. Default 1.
	RatePerSec int `json:"rate_per_sec,omitempty"`
}

type TelegramConfig struct {
	Enabled  bool   `json:"enabled"`
	Token    string `json:"token,omitempty"`
	ChatID   int64  `json:"chat_id,omitempty"`
	ThreadID int    `json:"thread_id,omitempty"`
	// Timeout is a Go duration string for a single send. Default "10s".
	Timeout string `json:"timeout,omitempty"`
}

// HistoryConfig controls the history store.
//
// Example:
//
//	history: { driver: "sqlite", path: "~/.local/state/shutdowner/history.db" }
type HistoryConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}

// Defaults returns the configuration used when no file exists.
func Defaults() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:   "info",
			Console: true,
		},
		Platform:  PlatformConfig{Family: "auto"},
		Listing:   ListingConfig{Backend: "command", Timeout: "30s"},
		Shutdown:  ShutdownConfig{Backend: "command"},
		Scheduler: SchedulerConfig{AbsoluteMatch: "calendar"},
		Notify:    NotifyConfig{RatePerSec: 1},
	}
}
