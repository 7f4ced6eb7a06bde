package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDurationUnmarshalText(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    time.Duration
		expectError bool
	}{
		{"Seconds", "1s", time.Second, false},
		{"Minutes", "50m", 50 * time.Minute, false},
		{"Mixed", "1h30m", 90 * time.Minute, false},
		{"Zero", "0", 0, false},
		{"Empty string", "", 0, false},
		{"Negative", "-5m", 0, true},
		{"Garbage", "soon", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Duration
			err := d.UnmarshalText([]byte(tt.input))
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expected, d.Std())
			}
		})
	}
}

func TestSetDefault(t *testing.T) {
	config := Config{}
	config.SetDefault()

	assert.Equal(t, "file", config.Storage.Backend)
	assert.Equal(t, "studyTrackerHistory", config.Storage.Key)
	assert.NotEmpty(t, config.Storage.Path)
	assert.Equal(t, time.Second, config.Timer.RefreshInterval.Std())
	assert.Equal(t, "Programming", config.Timer.DefaultTopic)
	assert.True(t, config.AutoPauseEnabled())
	assert.Equal(t, "session", config.DBus.Bus)
	assert.Equal(t, time.Duration(0), config.Timer.StudyReminder.Std())
}

func TestSetDefaultKeepsExplicitValues(t *testing.T) {
	off := false
	config := Config{
		Storage: Storage{Backend: "sqlite", Key: "studyHistory"},
		Timer:   Timer{DefaultTopic: "Math", AutoPause: &off},
	}
	config.SetDefault()

	assert.Equal(t, "sqlite", config.Storage.Backend)
	assert.Equal(t, "history.db", filepath.Base(config.Storage.Path))
	assert.Equal(t, "studyHistory", config.Storage.Key)
	assert.Equal(t, "Math", config.Timer.DefaultTopic)
	assert.False(t, config.AutoPauseEnabled())
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "x", "h.json"), expandHome("~/x/h.json"))
	assert.Equal(t, "/abs/h.json", expandHome("/abs/h.json"))
	assert.Equal(t, "rel/~/h.json", expandHome("rel/~/h.json"))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		expectError bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"sqlite", func(c *Config) { c.Storage.Backend = "sqlite" }, false},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "redis" }, true},
		{"refresh too fast", func(c *Config) { c.Timer.RefreshInterval = Duration(10 * time.Millisecond) }, true},
		{"refresh too slow", func(c *Config) { c.Timer.RefreshInterval = Duration(2 * time.Minute) }, true},
		{"system bus", func(c *Config) { c.DBus.Bus = "system" }, false},
		{"unknown bus", func(c *Config) { c.DBus.Bus = "tcp" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)
			if tt.expectError {
				assert.Error(t, c.Validate())
			} else {
				assert.NoError(t, c.Validate())
			}
		})
	}
}

const tomlData = `
[storage]
backend = "sqlite"
path = "/tmp/studytimer/history.db"
key = "studyHistory"

[timer]
refresh_interval = "200ms"
default_topic = "Physics"
study_reminder = "50m"
auto_pause = false

[dbus]
bus = "session"
`

func TestLoadConfigFromBytes(t *testing.T) {
	config, err := LoadConfigFromBytes([]byte(tomlData))
	require.NoError(t, err)

	assert.Equal(t, "sqlite", config.Storage.Backend)
	assert.Equal(t, "/tmp/studytimer/history.db", config.Storage.Path)
	assert.Equal(t, "studyHistory", config.Storage.Key)
	assert.Equal(t, 200*time.Millisecond, config.Timer.RefreshInterval.Std())
	assert.Equal(t, "Physics", config.Timer.DefaultTopic)
	assert.Equal(t, 50*time.Minute, config.Timer.StudyReminder.Std())
	assert.False(t, config.AutoPauseEnabled())
}

func TestLoadConfigFromBytesInvalid(t *testing.T) {
	_, err := LoadConfigFromBytes([]byte(`[timer]
refresh_interval = "forever"`))
	assert.Error(t, err)

	_, err = LoadConfigFromBytes([]byte(`[storage]
backend = "floppy"`))
	assert.Error(t, err)
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(tomlData), 0o644))

	config, err := LoadConfigFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", config.Storage.Backend)
	assert.Equal(t, "Physics", config.Timer.DefaultTopic)
}

func TestLoadConfigFromYAMLFile(t *testing.T) {
	yamlData := `
storage:
  backend: memory
timer:
  refresh_interval: 500ms
  default_topic: Chemistry
  study_reminder: 25m
  auto_pause: true
dbus:
  bus: system
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlData), 0o644))

	config, err := LoadConfigFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "memory", config.Storage.Backend)
	assert.Equal(t, 500*time.Millisecond, config.Timer.RefreshInterval.Std())
	assert.Equal(t, "Chemistry", config.Timer.DefaultTopic)
	assert.Equal(t, 25*time.Minute, config.Timer.StudyReminder.Std())
	assert.True(t, config.AutoPauseEnabled())
	assert.Equal(t, "system", config.DBus.Bus)
}

func TestLoadConfigFromMissingFile(t *testing.T) {
	config, err := LoadConfigFromFile(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Timer, config.Timer)
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("STUDYTIMER_STORAGE_BACKEND", "memory")
	t.Setenv("STUDYTIMER_DEFAULT_TOPIC", "History")
	t.Setenv("STUDYTIMER_REFRESH_INTERVAL", "250ms")
	t.Setenv("STUDYTIMER_AUTO_PAUSE", "true")

	config, err := LoadConfigFromBytes([]byte(tomlData))
	require.NoError(t, err)
	assert.Equal(t, "memory", config.Storage.Backend)
	assert.Equal(t, "History", config.Timer.DefaultTopic)
	assert.Equal(t, 250*time.Millisecond, config.Timer.RefreshInterval.Std())
	assert.True(t, config.AutoPauseEnabled())
	// untouched by env
	assert.Equal(t, "studyHistory", config.Storage.Key)
}

func TestEnvInvalidValue(t *testing.T) {
	t.Setenv("STUDYTIMER_STUDY_REMINDER", "later")
	_, err := LoadConfigFromBytes(nil)
	assert.Error(t, err)
}
