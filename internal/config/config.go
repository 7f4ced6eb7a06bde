package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/SoarinFerret/StudyTimer/internal/history"
	"github.com/SoarinFerret/StudyTimer/internal/kv"
	"github.com/SoarinFerret/StudyTimer/internal/tracker"
)

const (
	BusSession = "session"
	BusSystem  = "system"

	minRefresh = 100 * time.Millisecond
	maxRefresh = time.Minute
)

// Duration is a time.Duration written as "1s", "50m" and so on.
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	if s == "" || s == "0" {
		*d = 0
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	if parsed < 0 {
		return fmt.Errorf("duration %q must not be negative", s)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

type Storage struct {
	Backend string `toml:"backend" yaml:"backend" env:"STUDYTIMER_STORAGE_BACKEND"`
	Path    string `toml:"path" yaml:"path" env:"STUDYTIMER_STORAGE_PATH"`
	Key     string `toml:"key" yaml:"key" env:"STUDYTIMER_STORAGE_KEY"`
}

type Timer struct {
	RefreshInterval Duration `toml:"refresh_interval" yaml:"refresh_interval" env:"STUDYTIMER_REFRESH_INTERVAL"`
	DefaultTopic    string   `toml:"default_topic" yaml:"default_topic" env:"STUDYTIMER_DEFAULT_TOPIC"`
	StudyReminder   Duration `toml:"study_reminder" yaml:"study_reminder" env:"STUDYTIMER_STUDY_REMINDER"`
	AutoPause       *bool    `toml:"auto_pause" yaml:"auto_pause" env:"STUDYTIMER_AUTO_PAUSE"`
}

type DBus struct {
	Bus string `toml:"bus" yaml:"bus" env:"STUDYTIMER_DBUS_BUS"`
}

type Config struct {
	Storage Storage `toml:"storage" yaml:"storage"`
	Timer   Timer   `toml:"timer" yaml:"timer"`
	DBus    DBus    `toml:"dbus" yaml:"dbus"`
}

// Default returns a Config with every default applied.
func Default() *Config {
	c := &Config{}
	c.SetDefault()
	return c
}

// SetDefault fills in zero values.
func (c *Config) SetDefault() {
	if c.Storage.Backend == "" {
		c.Storage.Backend = kv.BackendFile
	}
	if c.Storage.Path == "" {
		c.Storage.Path = defaultStoragePath(c.Storage.Backend)
	}
	c.Storage.Path = expandHome(c.Storage.Path)
	if c.Storage.Key == "" {
		c.Storage.Key = history.DefaultKey
	}

	if c.Timer.RefreshInterval == 0 {
		c.Timer.RefreshInterval = Duration(time.Second)
	}
	if strings.TrimSpace(c.Timer.DefaultTopic) == "" {
		c.Timer.DefaultTopic = tracker.DefaultTopic
	}
	if c.Timer.AutoPause == nil {
		defaultVal := true
		c.Timer.AutoPause = &defaultVal
	}

	if c.DBus.Bus == "" {
		c.DBus.Bus = BusSession
	}
}

// Validate rejects values the daemon cannot run with.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case kv.BackendFile, kv.BackendSQLite, kv.BackendMemory:
	default:
		return fmt.Errorf("storage.backend: unknown backend %q", c.Storage.Backend)
	}

	r := c.Timer.RefreshInterval.Std()
	if r < minRefresh || r > maxRefresh {
		return fmt.Errorf("timer.refresh_interval: %s is outside %s..%s", r, minRefresh, maxRefresh)
	}

	switch c.DBus.Bus {
	case BusSession, BusSystem:
	default:
		return fmt.Errorf("dbus.bus: must be %q or %q, got %q", BusSession, BusSystem, c.DBus.Bus)
	}
	return nil
}

// AutoPauseEnabled reports the auto_pause setting.
func (c *Config) AutoPauseEnabled() bool {
	return c.Timer.AutoPause != nil && *c.Timer.AutoPause
}

// LoadConfigFromFile reads path, applies environment overrides and defaults,
// and validates the result. A missing file yields the defaults.
func LoadConfigFromFile(path string) (*Config, error) {
	var config Config

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := decode(path, data, &config); err != nil {
			return nil, err
		}
	}

	return finish(&config)
}

// LoadConfigFromBytes parses TOML data.
func LoadConfigFromBytes(data []byte) (*Config, error) {
	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, err
	}
	return finish(&config)
}

func decode(path string, data []byte, config *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, config); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		if err := toml.Unmarshal(data, config); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	}
	return nil
}

func finish(config *Config) (*Config, error) {
	if err := env.Parse(config); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	config.SetDefault()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// DefaultPath is where the daemon and CLI look for a config file.
func DefaultPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "studytimer", "config.toml")
	}
	return "config.toml"
}

func defaultStoragePath(backend string) string {
	name := "history.json"
	if backend == kv.BackendSQLite {
		name = "history.db"
	}

	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "studytimer", name)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share", "studytimer", name)
	}
	return name
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
