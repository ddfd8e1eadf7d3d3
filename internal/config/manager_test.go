package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", p, err)
	}
	return p
}

func TestParseYAMLKeepsDefaults(t *testing.T) {
	p := writeFile(t, t.TempDir(), "config.yaml", `
logging:
  level: debug
  console: true
shutdown:
  dry_run: true
history:
  driver: file
  path: /tmp/history.jsonl
`)
	cfg, err := NewConfigManager(p, false).Parse()
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if cfg.Logging.Level != "debug" || !cfg.Shutdown.DryRun {
		t.Fatalf("unexpected values: %+v", cfg)
	}
	if cfg.Shutdown.Backend != "command" || cfg.Listing.Backend != "command" || cfg.Scheduler.AbsoluteMatch != "calendar" {
		t.Fatalf("defaults lost: %+v", cfg)
	}
	if cfg.History == nil || cfg.History.Driver != "file" {
		t.Fatalf("history = %+v", cfg.History)
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	p := writeFile(t, t.TempDir(), "config.json", `{"logging":{"level":"info","colour":true}}`)
	if _, err := NewConfigManager(p, false).Parse(); err == nil {
		t.Fatal("expected unknown field error")
	}
}

func TestParseRejectsTrailingData(t *testing.T) {
	p := writeFile(t, t.TempDir(), "config.json", `{} {}`)
	if _, err := NewConfigManager(p, false).Parse(); err == nil {
		t.Fatal("expected trailing data error")
	}
}

func TestParseMissingFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "nope.yaml")

	cfg, err := NewConfigManager(p, true).Parse()
	if err != nil {
		t.Fatalf("optional missing file: %v", err)
	}
	if cfg.Logging.Level != "info" {
		t.Fatalf("expected defaults, got %+v", cfg.Logging)
	}

	if _, err := NewConfigManager(p, false).Parse(); err == nil {
		t.Fatal("explicit missing file should fail")
	}
}

func TestParseEmptyYAML(t *testing.T) {
	p := writeFile(t, t.TempDir(), "config.yml", "")
	cfg, err := NewConfigManager(p, false).Parse()
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if cfg.Platform.Family != "auto" {
		t.Fatalf("Platform.Family = %q", cfg.Platform.Family)
	}
}

func TestValidate(t *testing.T) {
	neg := -1
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "defaults ok", mutate: func(c *Config) {}},
		{name: "bad family", mutate: func(c *Config) { c.Platform.Family = "plan9" }, wantErr: "platform.family"},
		{name: "negative header", mutate: func(c *Config) { c.Platform.UnixHeaderLines = &neg }, wantErr: "unix_header_lines"},
		{name: "bad listing", mutate: func(c *Config) { c.Listing.Backend = "wmi" }, wantErr: "listing.backend"},
		{name: "bad timeout", mutate: func(c *Config) { c.Listing.Timeout = "soon" }, wantErr: "listing.timeout"},
		{name: "bad shutdown", mutate: func(c *Config) { c.Shutdown.Backend = "acpi" }, wantErr: "shutdown.backend"},
		{name: "bad match", mutate: func(c *Config) { c.Scheduler.AbsoluteMatch = "hour" }, wantErr: "absolute_match"},
		{name: "telegram without token", mutate: func(c *Config) { c.Notify.Telegram = TelegramConfig{Enabled: true, ChatID: 1} }, wantErr: "token"},
		{name: "telegram without chat", mutate: func(c *Config) { c.Notify.Telegram = TelegramConfig{Enabled: true, Token: "x"} }, wantErr: "chat_id"},
		{name: "history without path", mutate: func(c *Config) { c.History = &HistoryConfig{Driver: "sqlite"} }, wantErr: "history.path"},
		{name: "history none", mutate: func(c *Config) { c.History = &HistoryConfig{Driver: "none"} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			err := Validate(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestSummarizeConfigChange(t *testing.T) {
	a := Defaults()
	b := Defaults()
	b.Logging.Level = "debug"
	b.Shutdown.DryRun = true
	b.History = &HistoryConfig{Driver: "file", Path: "x"}

	changed, attrs := SummarizeConfigChange(a, b)
	want := []string{"history", "logging", "shutdown"}
	if strings.Join(changed, ",") != strings.Join(want, ",") {
		t.Fatalf("changed = %v, want %v", changed, want)
	}
	if len(attrs) == 0 {
		t.Fatal("expected attrs")
	}

	if changed, _ := SummarizeConfigChange(a, Defaults()); len(changed) != 0 {
		t.Fatalf("identical configs reported changes: %v", changed)
	}
}

func TestWatchPublishesChanges(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "config.yaml", "logging:\n  level: info\n")
	m := NewConfigManager(p, false)
	if _, err := m.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	sub := m.Subscribe(1)
	defer m.Unsubscribe(sub)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		_ = m.Watch(ctx)
		close(done)
	}()

	// Give the watcher a moment to register, then rewrite until an update arrives.
	deadline := time.After(10 * time.Second)
	tick := time.NewTicker(300 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case cfg := <-sub:
			if cfg.Logging.Level != "debug" {
				t.Fatalf("published level = %q", cfg.Logging.Level)
			}
			cancel()
			<-done
			return
		case <-tick.C:
			writeFile(t, dir, "config.yaml", "logging:\n  level: debug\n")
		case <-deadline:
			t.Fatal("no config update published")
		}
	}
}

func TestExpandHome(t *testing.T) {
	if got := ExpandHome("/abs/path"); got != "/abs/path" {
		t.Fatalf("ExpandHome(abs) = %q", got)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home dir")
	}
	if got := ExpandHome("~/x.db"); got != filepath.Join(home, "x.db") {
		t.Fatalf("ExpandHome(~/x.db) = %q", got)
	}
}

func TestReloadPublishesOnlyRealChanges(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "config.yaml", "logging:\n  level: info\n")
	m := NewConfigManager(p, false)
	if _, err := m.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	sub := m.Subscribe(1)
	defer m.Unsubscribe(sub)

	// same content, different formatting
	writeFile(t, dir, "config.yaml", "logging:\n    level: info\n")
	m.reload(context.Background())
	select {
	case cfg := <-sub:
		t.Fatalf("unchanged config published: %+v", cfg.Logging)
	default:
	}

	writeFile(t, dir, "config.yaml", "logging:\n  level: warn\n")
	m.reload(context.Background())
	writeFile(t, dir, "config.yaml", "logging:\n  level: error\n")
	m.reload(context.Background())
	select {
	case cfg := <-sub:
		if cfg.Logging.Level != "error" {
			t.Fatalf("slow subscriber got level %q, want the latest", cfg.Logging.Level)
		}
	default:
		t.Fatal("no config published")
	}
	if got := m.Get().Logging.Level; got != "error" {
		t.Fatalf("Get().Logging.Level = %q", got)
	}
}

func TestReloadHonorsValidator(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "config.yaml", "logging:\n  level: info\n")
	m := NewConfigManager(p, false)
	if _, err := m.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	m.SetValidator(func(context.Context, *Config) error { return os.ErrPermission })
	sub := m.Subscribe(1)
	defer m.Unsubscribe(sub)

	writeFile(t, dir, "config.yaml", "logging:\n  level: debug\n")
	m.reload(context.Background())
	select {
	case <-sub:
		t.Fatal("rejected config published")
	default:
	}
	if got := m.Get().Logging.Level; got != "info" {
		t.Fatalf("rejected config committed: level %q", got)
	}
}
