package config

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	logx "shutdowner/pkg/logx"
)

const reloadSettle = 250 * time.Millisecond

// ConfigManager owns the current Config and republishes it when the file
// changes on disk.
type ConfigManager struct {
	path     string
	optional bool

	log       logx.Logger
	validator func(ctx context.Context, cfg *Config) error

	mu      sync.RWMutex
	cfg     *Config
	encoded []byte // cfg as JSON, to skip no-op rewrites

	// subsMu also keeps publish from sending on a channel Unsubscribe closes.
	subsMu sync.Mutex
	subs   []chan *Config
}

// NewConfigManager returns a manager for path. With optional a missing file
// means Defaults().
func NewConfigManager(path string, optional bool) *ConfigManager {
	return &ConfigManager{path: path, optional: optional, log: logx.Nop()}
}

// DefaultPath is the per-user config file, e.g. ~/.config/shutdowner/config.yaml.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return "shutdowner.yaml"
	}
	return filepath.Join(dir, "shutdowner", "config.yaml")
}

func (m *ConfigManager) Path() string { return m.path }

func (m *ConfigManager) SetLogger(log logx.Logger) { m.log = log }

// SetValidator sets an extra check a reloaded config must pass before it is
// published. Call it before Watch.
func (m *ConfigManager) SetValidator(fn func(ctx context.Context, cfg *Config) error) {
	m.validator = fn
}

// Parse reads and validates the file without committing it. YAML and JSON
// are both decoded strictly over Defaults().
func (m *ConfigManager) Parse() (*Config, error) {
	raw, err := os.ReadFile(m.path)
	switch {
	case err != nil && m.optional && errors.Is(err, fs.ErrNotExist):
		return Defaults(), nil
	case err != nil:
		return nil, err
	}
	jb, _, err := coerceToJSONBytes(m.path, raw)
	if err != nil {
		return nil, err
	}

	cfg := Defaults()
	dec := json.NewDecoder(bytes.NewReader(jb))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", m.path, err)
	}
	switch err := dec.Decode(&struct{}{}); {
	case err == nil:
		return nil, fmt.Errorf("%s: invalid config: trailing data", m.path)
	case err != io.EOF:
		return nil, fmt.Errorf("%s: %w", m.path, err)
	}
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", m.path, err)
	}
	return cfg, nil
}

// Load parses the file and makes it current.
func (m *ConfigManager) Load() (*Config, error) {
	cfg, err := m.Parse()
	if err != nil {
		return nil, err
	}
	m.commit(cfg, encode(cfg))
	return cfg, nil
}

func (m *ConfigManager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg
}

func (m *ConfigManager) commit(cfg *Config, enc []byte) {
	m.mu.Lock()
	m.cfg, m.encoded = cfg, enc
	m.mu.Unlock()
}

func encode(cfg *Config) []byte {
	b, _ := json.Marshal(cfg)
	return b
}

// Subscribe returns a channel that receives each published config. A slow
// subscriber only ever misses stale ones.
func (m *ConfigManager) Subscribe(buffer int) chan *Config {
	ch := make(chan *Config, buffer)
	m.subsMu.Lock()
	m.subs = append(m.subs, ch)
	m.subsMu.Unlock()
	return ch
}

// Unsubscribe removes ch and closes it.
func (m *ConfigManager) Unsubscribe(ch chan *Config) {
	m.subsMu.Lock()
	defer m.subsMu.Unlock()
	for i, s := range m.subs {
		if s == ch {
			m.subs = append(m.subs[:i], m.subs[i+1:]...)
			close(ch)
			return
		}
	}
}

func (m *ConfigManager) publish(cfg *Config) {
	m.subsMu.Lock()
	defer m.subsMu.Unlock()
	for _, ch := range m.subs {
		if !offerLatest(ch, cfg) {
			m.log.Debug("config update dropped for slow subscriber", logx.Int("queue_cap", cap(ch)))
		}
	}
}

// offerLatest sends cfg without blocking, evicting one stale entry if ch is full.
func offerLatest(ch chan *Config, cfg *Config) bool {
	select {
	case ch <- cfg:
		return true
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- cfg:
		return true
	default:
		return false
	}
}

// reload publishes the file if it parses, passes the validator, and differs
// from the current config.
func (m *ConfigManager) reload(ctx context.Context) {
	cfg, err := m.Parse()
	if err != nil {
		m.log.Warn("config parse failed", logx.String("path", m.path), logx.Err(err))
		return
	}
	enc := encode(cfg)
	m.mu.RLock()
	same := bytes.Equal(enc, m.encoded)
	m.mu.RUnlock()
	if same {
		m.log.Debug("config rewritten without changes", logx.String("path", m.path))
		return
	}
	if m.validator != nil {
		vctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := m.validator(vctx, cfg)
		cancel()
		if err != nil {
			m.log.Warn("config rejected", logx.String("path", m.path), logx.Err(err))
			return
		}
	}
	m.commit(cfg, enc)
	m.publish(cfg)
	m.log.Debug("config published", logx.String("path", m.path))
}

// Watch reloads the file after writes settle, until ctx ends. It watches the
// parent directory so editors that replace the file are seen. When the
// watcher breaks Watch returns the error; callers restart it. A missing
// directory disables watching.
func (m *ConfigManager) Watch(ctx context.Context) error {
	dir, name := filepath.Dir(m.path), filepath.Base(m.path)
	if _, err := os.Stat(dir); err != nil {
		m.log.Debug("config dir missing; watch disabled", logx.String("dir", dir))
		return nil
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config watch: %w", err)
	}
	defer w.Close()
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("config watch %s: %w", dir, err)
	}
	m.log.Debug("config watcher started", logx.String("dir", dir), logx.String("file", name))

	settle := time.NewTimer(reloadSettle)
	settle.Stop()
	defer settle.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-settle.C:
			m.reload(ctx)
		case ev, ok := <-w.Events:
			if !ok {
				return errors.New("config watch: event stream closed")
			}
			if strings.EqualFold(filepath.Base(ev.Name), name) &&
				ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0 {
				settle.Reset(reloadSettle)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return errors.New("config watch: error stream closed")
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				m.log.Warn("config watch overflow; forcing reload", logx.String("dir", dir))
				settle.Reset(reloadSettle)
				continue
			}
			m.log.Warn("config watch error", logx.Err(err), logx.String("dir", dir))
		}
	}
}
