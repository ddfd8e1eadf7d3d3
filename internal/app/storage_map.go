package app

import (
	"fmt"
	"strings"
	"time"

	"shutdowner/internal/config"
	"shutdowner/internal/storage"
)

func mapStorageConfig(cfg *Config) (storage.Config, bool, error) {
	if cfg == nil || cfg.History == nil {
		return storage.Config{}, false, nil
	}
	hc := cfg.History
	driver := strings.ToLower(strings.TrimSpace(hc.Driver))
	if driver == "" || driver == "none" {
		return storage.Config{}, false, nil
	}
	path := config.ExpandHome(hc.Path)

	switch driver {
	case "file":
		if path == "" {
			return storage.Config{}, false, fmt.Errorf("history.path is required when history.driver=file")
		}
		return storage.Config{Driver: "file", Path: path}, true, nil
	case "sqlite", "sqlite3":
		if path == "" {
			return storage.Config{}, false, fmt.Errorf("history.path is required when history.driver=sqlite")
		}
		busy, err := parseDurationOrDefault("history.busy_timeout", hc.BusyTimeout, 1*time.Second)
		if err != nil {
			return storage.Config{}, false, err
		}
		return storage.Config{Driver: "sqlite", Path: path, BusyTimeout: busy}, true, nil
	default:
		return storage.Config{}, false, fmt.Errorf("unknown history.driver: %s", hc.Driver)
	}
}
