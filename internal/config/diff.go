package config

import (
	"sort"
	"strings"

	logx "shutdowner/pkg/logx"
)

// SummarizeConfigChange returns a compact list of changed sections and
// safe structured attrs for logging (never includes the telegram token).
//
// Only the logging section is applied live; other sections take effect on the
// next run, which the caller reports.
func SummarizeConfigChange(oldCfg, newCfg *Config) ([]string, []logx.Field) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}

	changed := make([]string, 0, 7)
	attrs := make([]logx.Field, 0, 8)

	if oldCfg.Logging != newCfg.Logging {
		changed = append(changed, "logging")
		attrs = append(attrs,
			logx.String("logging.level", newCfg.Logging.Level),
			logx.Bool("logging.console", newCfg.Logging.Console),
			logx.Bool("logging.file_enabled", newCfg.Logging.File.Enabled),
			logx.Bool("logging.remote_enabled", newCfg.Logging.Remote.Enabled),
		)
	}
	if !samePlatform(oldCfg.Platform, newCfg.Platform) {
		changed = append(changed, "platform")
	}
	if oldCfg.Listing != newCfg.Listing {
		changed = append(changed, "listing")
	}
	if oldCfg.Shutdown != newCfg.Shutdown {
		changed = append(changed, "shutdown")
		attrs = append(attrs, logx.Bool("shutdown.dry_run", newCfg.Shutdown.DryRun))
	}
	if oldCfg.Scheduler != newCfg.Scheduler {
		changed = append(changed, "scheduler")
	}
	if oldCfg.Notify.RatePerSec != newCfg.Notify.RatePerSec ||
		oldCfg.Notify.Telegram.Enabled != newCfg.Notify.Telegram.Enabled ||
		oldCfg.Notify.Telegram.ChatID != newCfg.Notify.Telegram.ChatID ||
		oldCfg.Notify.Telegram.ThreadID != newCfg.Notify.Telegram.ThreadID ||
		strings.TrimSpace(oldCfg.Notify.Telegram.Timeout) != strings.TrimSpace(newCfg.Notify.Telegram.Timeout) ||
		(strings.TrimSpace(oldCfg.Notify.Telegram.Token) != "") != (strings.TrimSpace(newCfg.Notify.Telegram.Token) != "") {
		changed = append(changed, "notify")
		attrs = append(attrs,
			logx.Bool("notify.telegram_enabled", newCfg.Notify.Telegram.Enabled),
			logx.Bool("notify.telegram_token_set", strings.TrimSpace(newCfg.Notify.Telegram.Token) != ""),
		)
	}
	if derefHistory(oldCfg.History) != derefHistory(newCfg.History) {
		changed = append(changed, "history")
	}

	sort.Strings(changed)
	return changed, attrs
}

func samePlatform(a, b PlatformConfig) bool {
	return a.Family == b.Family && intPtrEq(a.WindowsHeaderLines, b.WindowsHeaderLines) && intPtrEq(a.UnixHeaderLines, b.UnixHeaderLines)
}

func intPtrEq(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func derefHistory(h *HistoryConfig) HistoryConfig {
	if h == nil {
		return HistoryConfig{}
	}
	return *h
}
