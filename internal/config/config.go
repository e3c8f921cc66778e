// ABOUTME: bodygoal configuration management with backend selection.
// ABOUTME: Handles settings, environment overrides, and the storage backend factory.

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/harperreed/bodygoal/internal/charm"
	"github.com/harperreed/bodygoal/internal/progress"
	"github.com/harperreed/bodygoal/internal/storage"
)

const (
	BackendSQLite = "sqlite"
	BackendCharm  = "charm"

	DefaultUserID     = "local"
	DefaultWindowDays = 14
	DefaultLogLevel   = "warn"
)

// Environment variables that override the config file.
const (
	EnvBackend = "BODYGOAL_BACKEND"
	EnvDataDir = "BODYGOAL_DATA_DIR"
	EnvUser    = "BODYGOAL_USER"
)

// Config stores bodygoal configuration.
type Config struct {
	// Backend selects the storage backend: "sqlite" (default) or "charm".
	Backend string `json:"backend,omitempty"`

	// DataDir is the root directory for data storage. SQLite puts
	// bodygoal.db here. Supports ~ expansion for home directory.
	// Defaults to ~/.local/share/bodygoal.
	DataDir string `json:"data_dir,omitempty"`

	// UserID scopes goals and measurements. Defaults to "local".
	UserID string `json:"user_id,omitempty"`

	// WindowDays is the trend window in days.
	WindowDays int `json:"window_days,omitempty"`

	// ProgressMax is the upper clamp for progress percentages.
	ProgressMax float64 `json:"progress_max,omitempty"`

	LogLevel string `json:"log_level,omitempty"`
	LogFile  string `json:"log_file,omitempty"`

	// MetricsAddr, when set, serves Prometheus metrics from the MCP server.
	MetricsAddr string `json:"metrics_addr,omitempty"`
}

// GetBackend returns the configured backend, defaulting to "sqlite".
func (c *Config) GetBackend() string {
	if c.Backend == "" {
		return BackendSQLite
	}
	return c.Backend
}

// GetDataDir returns the configured data directory with ~ expanded,
// defaulting to the standard XDG data directory.
func (c *Config) GetDataDir() string {
	if c.DataDir == "" {
		return storage.DataDir()
	}
	return ExpandPath(c.DataDir)
}

// GetUserID returns the configured user, defaulting to "local".
func (c *Config) GetUserID() string {
	if c.UserID == "" {
		return DefaultUserID
	}
	return c.UserID
}

// GetWindowDays returns the trend window, defaulting to 14 days.
func (c *Config) GetWindowDays() int {
	if c.WindowDays <= 0 {
		return DefaultWindowDays
	}
	return c.WindowDays
}

// GetLogLevel returns the configured log level, defaulting to "warn".
func (c *Config) GetLogLevel() string {
	if c.LogLevel == "" {
		return DefaultLogLevel
	}
	return c.LogLevel
}

// ProgressBounds returns the progress clamp. A ProgressMax that is missing or
// below the Complete milestone keeps the default upper bound.
func (c *Config) ProgressBounds() progress.Bounds {
	b := progress.DefaultBounds
	if custom := (progress.Bounds{Min: b.Min, Max: c.ProgressMax}); custom.Valid() {
		return custom
	}
	return b
}

// ApplyEnv overlays environment overrides onto c.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvBackend); v != "" {
		c.Backend = v
	}
	if v := os.Getenv(EnvDataDir); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv(EnvUser); v != "" {
		c.UserID = v
	}
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	if path == "" {
		return ""
	}
	if path == "~" {
		home, _ := os.UserHomeDir()
		return home
	}
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// OpenStorage creates a Repository implementation based on the configured backend.
func (c *Config) OpenStorage() (storage.Repository, error) {
	return OpenBackend(c.GetBackend(), c.GetDataDir())
}

// OpenBackend opens the named backend. dataDir is used by sqlite only.
func OpenBackend(backend, dataDir string) (storage.Repository, error) {
	switch backend {
	case BackendSQLite:
		dbPath := filepath.Join(dataDir, "bodygoal.db")
		return storage.Open(dbPath)
	case BackendCharm:
		return charm.InitClient()
	default:
		return nil, fmt.Errorf("unknown backend: %q", backend)
	}
}

// GetConfigPath returns the config file path.
func GetConfigPath() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, _ := os.UserHomeDir()
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "bodygoal", "config.json")
}

// Load reads config from disk and applies environment overrides.
func Load() (*Config, error) {
	cfg, err := loadFile()
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()
	return cfg, nil
}

func loadFile() (*Config, error) {
	path := GetConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cfg, nil
}

// Save writes config to disk.
func (c *Config) Save() error {
	path := GetConfigPath()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
