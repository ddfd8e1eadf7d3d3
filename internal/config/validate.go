package config

import (
	"fmt"
	"strings"
)

// Validate checks enum-like fields and duration strings. It does not touch the filesystem.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if err := oneOf("platform.family", cfg.Platform.Family, "", "auto", "windows", "unix"); err != nil {
		return err
	}
	if n := cfg.Platform.WindowsHeaderLines; n != nil && *n < 0 {
		return fmt.Errorf("platform.windows_header_lines: must be >= 0")
	}
	if n := cfg.Platform.UnixHeaderLines; n != nil && *n < 0 {
		return fmt.Errorf("platform.unix_header_lines: must be >= 0")
	}
	if err := oneOf("listing.backend", cfg.Listing.Backend, "", "command", "gopsutil"); err != nil {
		return err
	}
	if _, err := ParseDurationField("listing.timeout", cfg.Listing.Timeout); err != nil {
		return err
	}
	if err := oneOf("shutdown.backend", cfg.Shutdown.Backend, "", "command", "logind"); err != nil {
		return err
	}
	if err := oneOf("scheduler.absolute_match", cfg.Scheduler.AbsoluteMatch, "", "calendar", "day_of_month"); err != nil {
		return err
	}
	tg := cfg.Notify.Telegram
	if tg.Enabled {
		if strings.TrimSpace(tg.Token) == "" {
			return fmt.Errorf("notify.telegram.token: required when telegram is enabled")
		}
		if tg.ChatID == 0 {
			return fmt.Errorf("notify.telegram.chat_id: required when telegram is enabled")
		}
	}
	if _, err := ParseDurationField("notify.telegram.timeout", tg.Timeout); err != nil {
		return err
	}
	if h := cfg.History; h != nil {
		if err := oneOf("history.driver", h.Driver, "", "none", "file", "sqlite"); err != nil {
			return err
		}
		d := strings.ToLower(strings.TrimSpace(h.Driver))
		if (d == "file" || d == "sqlite") && strings.TrimSpace(h.Path) == "" {
			return fmt.Errorf("history.path: required for driver %q", d)
		}
		if _, err := ParseDurationField("history.busy_timeout", h.BusyTimeout); err != nil {
			return err
		}
	}
	return nil
}

func oneOf(path, v string, allowed ...string) error {
	v = strings.ToLower(strings.TrimSpace(v))
	for _, a := range allowed {
		if v == a {
			return nil
		}
	}
	return fmt.Errorf("%s: invalid value %q (allowed: %s)", path, v, strings.Join(allowed[1:], ", "))
}
