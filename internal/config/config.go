// Package config is the layered YAML configuration for SentinelSpace:
// on-disk defaults, checksum-gated change detection, and an fsnotify-backed
// hot-reload watcher for the screening/alerting defaults an operator can
// tune without restarting the process.
package config

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// ScreeningDefaults seeds internal/screener.Options for jobs that don't
// override them explicitly.
type ScreeningDefaults struct {
	WindowDays          float64 `yaml:"window_days"`
	DistanceThresholdKm float64 `yaml:"distance_threshold_km"`
	CoarseStepSeconds   float64 `yaml:"coarse_step_seconds"`
	FineStepSeconds     float64 `yaml:"fine_step_seconds"`
	AltitudeMarginKm    float64 `yaml:"altitude_margin_km"`
}

// SupervisorDefaults seeds internal/supervisor.Config.
type SupervisorDefaults struct {
	Workers          int           `yaml:"workers"`
	QueueSize        int           `yaml:"queue_size"`
	RetryMaxAttempts int           `yaml:"retry_max_attempts"`
	ProgressInterval time.Duration `yaml:"progress_interval"`
}

// AlertDefaults seeds the global models.AlertConfig row.
type AlertDefaults struct {
	CriticalThreshold float64 `yaml:"critical_threshold"`
	HighThreshold     float64 `yaml:"high_threshold"`
	ModerateThreshold float64 `yaml:"moderate_threshold"`
	Enabled           bool    `yaml:"enabled"`
}

// TelemetryConfig controls logging/metrics surfaces.
type TelemetryConfig struct {
	LogLevel      string `yaml:"log_level"`
	MetricsAddr   string `yaml:"metrics_addr"`
	TracingEnabled bool  `yaml:"tracing_enabled"`
}

// Config is the full on-disk configuration document.
type Config struct {
	DatabasePath string             `yaml:"database_path"`
	Screening    ScreeningDefaults  `yaml:"screening"`
	Supervisor   SupervisorDefaults `yaml:"supervisor"`
	Alerts       AlertDefaults      `yaml:"alerts"`
	Telemetry    TelemetryConfig    `yaml:"telemetry"`

	UpdatedAt time.Time `yaml:"updated_at"`
	Checksum  string    `yaml:"checksum"`
}

// Default returns the built-in configuration used when no file is present.
func Default() *Config {
	return &Config{
		DatabasePath: "sentinelspace.db",
		Screening: ScreeningDefaults{
			WindowDays:          7.0,
			DistanceThresholdKm: 5.0,
			CoarseStepSeconds:   120.0,
			FineStepSeconds:     10.0,
			AltitudeMarginKm:    30.0,
		},
		Supervisor: SupervisorDefaults{
			Workers:          2,
			QueueSize:        32,
			RetryMaxAttempts: 3,
			ProgressInterval: 2 * time.Second,
		},
		Alerts: AlertDefaults{
			CriticalThreshold: 1e-3,
			HighThreshold:     1e-4,
			ModerateThreshold: 1e-5,
			Enabled:           true,
		},
		Telemetry: TelemetryConfig{
			LogLevel:    "info",
			MetricsAddr: ":9090",
		},
	}
}

// Manager owns the current configuration and, optionally, a hot-reload
// watcher over its backing file.
type Manager struct {
	path string

	mu      sync.RWMutex
	current *Config

	watcher    *fsnotify.Watcher
	isWatching bool
	watchMu    sync.Mutex
}

// NewManager loads configPath if it exists, or seeds Default() if it
// doesn't.
func NewManager(configPath string) (*Manager, error) {
	m := &Manager{path: configPath}
	if err := m.load(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manager) load() error {
	if _, err := os.Stat(m.path); os.IsNotExist(err) {
		cfg := Default()
		cfg.UpdatedAt = time.Now()
		cfg.Checksum = checksum(cfg)
		m.mu.Lock()
		m.current = cfg
		m.mu.Unlock()
		return nil
	}
	cfg, err := m.readFile()
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.current = cfg
	m.mu.Unlock()
	return nil
}

func (m *Manager) readFile() (*Config, error) {
	data, err := os.ReadFile(m.path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", m.path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", m.path, err)
	}
	return &cfg, nil
}

// Current returns a copy of the active configuration.
func (m *Manager) Current() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return *m.current
}

// Save persists cfg to disk, stamping its checksum and UpdatedAt, and
// becomes the active configuration.
func (m *Manager) Save(cfg *Config) error {
	cfg.UpdatedAt = time.Now()
	cfg.Checksum = checksum(cfg)

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if dir := filepath.Dir(m.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: create dir: %w", err)
		}
	}
	if err := os.WriteFile(m.path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", m.path, err)
	}

	m.mu.Lock()
	m.current = cfg
	m.mu.Unlock()
	return nil
}

// Change is a detected, checksum-distinct configuration update.
type Change struct {
	Config           *Config
	ChangedAt        time.Time
	PreviousChecksum string
}

// Watch starts an fsnotify watch over the config file's directory and
// streams Change events whenever the file is rewritten with a different
// checksum than the last observed one. Calling Watch twice on the same
// Manager is a no-op on the second call (the returned channels are closed
// immediately).
func (m *Manager) Watch() (<-chan Change, <-chan error, error) {
	m.watchMu.Lock()
	if m.isWatching {
		m.watchMu.Unlock()
		changes := make(chan Change)
		errs := make(chan error)
		close(changes)
		close(errs)
		return changes, errs, nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		m.watchMu.Unlock()
		return nil, nil, fmt.Errorf("config: create watcher: %w", err)
	}
	dir := filepath.Dir(m.path)
	if dir == "" {
		dir = "."
	}
	if err := watcher.Add(dir); err != nil {
		m.watchMu.Unlock()
		_ = watcher.Close()
		return nil, nil, fmt.Errorf("config: watch %s: %w", dir, err)
	}
	m.watcher = watcher
	m.isWatching = true
	m.watchMu.Unlock()

	changes := make(chan Change, 10)
	errs := make(chan error, 10)

	go func() {
		defer close(changes)
		defer close(errs)

		lastChecksum := m.Current().Checksum
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != filepath.Clean(m.path) {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				cfg, err := m.readFile()
				if err != nil {
					errs <- err
					continue
				}
				if cfg.Checksum == "" {
					cfg.Checksum = checksum(cfg)
				}
				if cfg.Checksum == lastChecksum {
					continue
				}
				prev := lastChecksum
				lastChecksum = cfg.Checksum

				m.mu.Lock()
				m.current = cfg
				m.mu.Unlock()

				changes <- Change{Config: cfg, ChangedAt: time.Now(), PreviousChecksum: prev}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				errs <- err
			}
		}
	}()

	return changes, errs, nil
}

// Close stops the hot-reload watcher, if one was started.
func (m *Manager) Close() error {
	m.watchMu.Lock()
	defer m.watchMu.Unlock()
	if m.watcher == nil {
		return nil
	}
	return m.watcher.Close()
}

func checksum(cfg *Config) string {
	cpy := *cfg
	cpy.Checksum = ""
	data, _ := json.Marshal(cpy)
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%x", sum)
}
