package app

import (
	"time"

	"shutdowner/internal/config"
	"shutdowner/internal/notifier"
	"shutdowner/internal/platform"
	"shutdowner/internal/scheduler"
	logx "shutdowner/pkg/logx"
)

func mapLogConfig(cfg *Config) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    config.ExpandHome(cfg.Logging.File.Path),
		},
		Remote: logx.RemoteConfig{
			Enabled:    cfg.Logging.Remote.Enabled,
			MinLevel:   cfg.Logging.Remote.MinLevel,
			RatePerSec: cfg.Logging.Remote.RatePerSec,
		},
	}
}

func mapNotifierConfig(cfg *Config) (notifier.Config, error) {
	tg := cfg.Notify.Telegram
	timeout, err := parseDurationOrDefault("notify.telegram.timeout", tg.Timeout, 10*time.Second)
	if err != nil {
		return notifier.Config{}, err
	}
	return notifier.Config{
		Enabled:       tg.Enabled,
		QueueSize:     64,
		RatePerSec:    max(1, cfg.Notify.RatePerSec),
		RetryMax:      3,
		RetryBase:     500 * time.Millisecond,
		RetryMaxDelay: 10 * time.Second,
		SendTimeout:   timeout,
	}, nil
}

func mapPlatformOverrides(cfg *Config) platform.Overrides {
	return platform.Overrides{
		Family:             cfg.Platform.Family,
		WindowsHeaderLines: cfg.Platform.WindowsHeaderLines,
		UnixHeaderLines:    cfg.Platform.UnixHeaderLines,
	}
}

func mapListingTimeout(cfg *Config) (time.Duration, error) {
	return parseDurationOrDefault("listing.timeout", cfg.Listing.Timeout, 30*time.Second)
}

// validateReload rejects a reloaded file whose values could not be mapped.
// Only the logging section is applied live, but a broken file is still refused.
func validateReload(cfg *Config) error {
	if _, err := platform.Detect(mapPlatformOverrides(cfg)); err != nil {
		return err
	}
	if _, err := mapListingTimeout(cfg); err != nil {
		return err
	}
	if _, err := mapNotifierConfig(cfg); err != nil {
		return err
	}
	if _, err := scheduler.ParseMatchMode(cfg.Scheduler.AbsoluteMatch); err != nil {
		return err
	}
	if _, _, err := mapStorageConfig(cfg); err != nil {
		return err
	}
	return nil
}
