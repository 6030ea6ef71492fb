package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	require.NoError(t, v.Unmarshal(&cfg))

	assert.Equal(t, "http://localhost:5000", cfg.Server.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Server.Timeout)
	assert.Equal(t, 3, cfg.Server.MaxRetries)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.True(t, cfg.Logging.Color)

	assert.Equal(t, 100, cfg.Player.Volume)
	assert.Equal(t, 2*time.Second, cfg.Player.AutoAdvanceDelay)
	assert.Equal(t, time.Second, cfg.Player.StartRetryDelay)
	assert.False(t, cfg.Player.Fullscreen)

	assert.False(t, cfg.Gesture.Enabled)
	assert.Equal(t, "/dev/video0", cfg.Gesture.Device)
	assert.Equal(t, 500*time.Millisecond, cfg.Gesture.PollInterval)

	assert.Equal(t, 50, cfg.Chat.HistoryLimit)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  base_url: https://media.example.com
  timeout: 5s
player:
  volume: 40
  fullscreen: true
gesture:
  enabled: true
  device: /dev/video2
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, v, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, v)

	assert.Equal(t, "https://media.example.com", cfg.Server.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Server.Timeout)
	assert.Equal(t, 40, cfg.Player.Volume)
	assert.True(t, cfg.Player.Fullscreen)
	assert.True(t, cfg.Gesture.Enabled)
	assert.Equal(t, "/dev/video2", cfg.Gesture.Device)

	// Unset keys keep their defaults
	assert.Equal(t, 3, cfg.Server.MaxRetries)
	assert.Equal(t, 50, cfg.Chat.HistoryLimit)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadMissingDefaultFileIsFine(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, _, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:5000", cfg.Server.BaseURL)
}

func TestSaveDefaultConfigRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, SaveDefaultConfig(path))

	cfg, _, err := Load(path)
	require.NoError(t, err)

	v := viper.New()
	SetDefaults(v)
	var defaults Config
	require.NoError(t, v.Unmarshal(&defaults))

	// The generated file leaves database.path commented out, so it falls
	// back to the default either way.
	assert.Equal(t, defaults, *cfg)
}

func TestGetConfigDirHonorsXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-test")
	assert.Equal(t, filepath.Join("/tmp/xdg-test", "cinehome"), GetConfigDir())
}

func TestGetDataDirHonorsXDG(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg-data")
	assert.Equal(t, filepath.Join("/tmp/xdg-data", "cinehome"), GetDataDir())
}
