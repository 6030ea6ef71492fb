package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration for the cinehome client
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Database DatabaseConfig `mapstructure:"database"`
	Player   PlayerConfig   `mapstructure:"player"`
	Gesture  GestureConfig  `mapstructure:"gesture"`
	Chat     ChatConfig     `mapstructure:"chat"`
	Advanced AdvancedConfig `mapstructure:"advanced"`
}

// ServerConfig describes the CineHome server to talk to
type ServerConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"max_retries"`
}

// LoggingConfig controls the slog setup
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"` // text or json
	File       string `mapstructure:"file"`
	MaxSize    int    `mapstructure:"max_size"` // megabytes
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"` // days
	Compress   bool   `mapstructure:"compress"`
	Color      bool   `mapstructure:"color"`
}

// DatabaseConfig controls the local sqlite store
type DatabaseConfig struct {
	Path           string `mapstructure:"path"`
	MaxConnections int    `mapstructure:"max_connections"`
	WALMode        bool   `mapstructure:"wal_mode"`
}

// PlayerConfig controls mpv playback
type PlayerConfig struct {
	Fullscreen       bool          `mapstructure:"fullscreen"`
	Volume           int           `mapstructure:"volume"` // 0-100
	AutoAdvanceDelay time.Duration `mapstructure:"auto_advance_delay"`
	StartRetryDelay  time.Duration `mapstructure:"start_retry_delay"`
	LoadUserConfig   bool          `mapstructure:"load_user_config"`
}

// GestureConfig controls camera gesture detection
type GestureConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Device       string        `mapstructure:"device"`
	FFmpegPath   string        `mapstructure:"ffmpeg_path"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

// ChatConfig controls the chat assistant panel
type ChatConfig struct {
	HistoryLimit int `mapstructure:"history_limit"`
}

// AdvancedConfig holds settings most users never touch
type AdvancedConfig struct {
	Debug bool `mapstructure:"debug"`
}

// SetDefaults registers default values on a viper instance
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.base_url", "http://localhost:5000")
	v.SetDefault("server.timeout", 30*time.Second)
	v.SetDefault("server.max_retries", 3)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.max_size", 10)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age", 30)
	v.SetDefault("logging.compress", true)
	v.SetDefault("logging.color", true)

	v.SetDefault("database.path", filepath.Join(GetDataDir(), "cinehome.db"))
	v.SetDefault("database.max_connections", 4)
	v.SetDefault("database.wal_mode", true)

	v.SetDefault("player.fullscreen", false)
	v.SetDefault("player.volume", 100)
	v.SetDefault("player.auto_advance_delay", 2*time.Second)
	v.SetDefault("player.start_retry_delay", time.Second)
	v.SetDefault("player.load_user_config", false)

	v.SetDefault("gesture.enabled", false)
	v.SetDefault("gesture.device", "/dev/video0")
	v.SetDefault("gesture.ffmpeg_path", "ffmpeg")
	v.SetDefault("gesture.poll_interval", 500*time.Millisecond)

	v.SetDefault("chat.history_limit", 50)

	v.SetDefault("advanced.debug", false)
}

// Load reads configuration from the given file (or the default location when
// empty), applying defaults and CINEHOME_* environment overrides. The viper
// instance is returned so callers can set up hot reload.
func Load(cfgFile string) (*Config, *viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(GetConfigDir())
	}

	v.SetEnvPrefix("CINEHOME")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if cfgFile != "" {
			return nil, nil, fmt.Errorf("failed to read config %s: %w", cfgFile, err)
		}
		// No config file in the default location is fine, everything has a default
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, v, nil
}

// GetConfigDir returns the directory holding the config file
func GetConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "cinehome")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "cinehome")
}

// GetDataDir returns the directory holding the local database
func GetDataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "cinehome")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".local", "share", "cinehome")
}

// getStateDir returns the directory for logs and other transient state
func getStateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".local", "state")
}

// InitializeDirs creates the config and data directories if missing
func InitializeDirs() error {
	for _, dir := range []string{GetConfigDir(), GetDataDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

// SaveDefaultConfig writes a commented default config file to the given path
func SaveDefaultConfig(path string) error {
	content := `# cinehome configuration

server:
  # Base URL of the CineHome media server
  base_url: http://localhost:5000
  timeout: 30s
  max_retries: 3

logging:
  # debug, info, warn, error
  level: info
  # text or json
  format: text
  # Empty means stderr; set a path to enable rotation
  file: ""
  max_size: 10
  max_backups: 3
  max_age: 30
  compress: true
  color: true

database:
  # Local store for the session identity and chat transcript.
  # Defaults to $XDG_DATA_HOME/cinehome/cinehome.db
  # path: /path/to/cinehome.db
  max_connections: 4
  wal_mode: true

player:
  fullscreen: false
  volume: 100
  # Delay before auto-advancing to the next video after one ends
  auto_advance_delay: 2s
  # Delay before the single retry when playback fails to start
  start_retry_delay: 1s
  load_user_config: false

gesture:
  enabled: false
  device: /dev/video0
  ffmpeg_path: ffmpeg
  poll_interval: 500ms

chat:
  history_limit: 50

advanced:
  debug: false
`
	return os.WriteFile(path, []byte(content), 0644)
}
