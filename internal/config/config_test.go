// ABOUTME: Tests for bodygoal configuration management.
// ABOUTME: Covers load, save, defaults, env overrides, backend selection, and path expansion.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/harperreed/bodygoal/internal/progress"
)

// isolateConfig points XDG_CONFIG_HOME at a temp dir and clears env overrides.
func isolateConfig(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)
	t.Setenv(EnvBackend, "")
	t.Setenv(EnvDataDir, "")
	t.Setenv(EnvUser, "")
	return tmpDir
}

func TestDefaults(t *testing.T) {
	cfg := &Config{}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"backend", cfg.GetBackend(), "sqlite"},
		{"user", cfg.GetUserID(), "local"},
		{"window", cfg.GetWindowDays(), 14},
		{"log level", cfg.GetLogLevel(), "warn"},
		{"bounds", cfg.ProgressBounds(), progress.DefaultBounds},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}

	if cfg.GetDataDir() == "" {
		t.Error("GetDataDir() returned empty string")
	}
}

func TestExplicitValues(t *testing.T) {
	cfg := &Config{
		Backend:     "charm",
		DataDir:     "/tmp/bodygoal-test",
		UserID:      "alice",
		WindowDays:  28,
		ProgressMax: 200,
		LogLevel:    "debug",
	}

	if got := cfg.GetBackend(); got != "charm" {
		t.Errorf("GetBackend() = %q, want charm", got)
	}
	if got := cfg.GetDataDir(); got != "/tmp/bodygoal-test" {
		t.Errorf("GetDataDir() = %q, want /tmp/bodygoal-test", got)
	}
	if got := cfg.GetUserID(); got != "alice" {
		t.Errorf("GetUserID() = %q, want alice", got)
	}
	if got := cfg.GetWindowDays(); got != 28 {
		t.Errorf("GetWindowDays() = %d, want 28", got)
	}
	if got := cfg.ProgressBounds(); got.Max != 200 || got.Min != 0 {
		t.Errorf("ProgressBounds() = %+v, want 0..200", got)
	}
	if got := cfg.GetLogLevel(); got != "debug" {
		t.Errorf("GetLogLevel() = %q, want debug", got)
	}
}

func TestProgressBoundsIgnoresUnreachableMax(t *testing.T) {
	tests := []struct {
		max  float64
		want progress.Bounds
	}{
		{-5, progress.DefaultBounds},
		{50, progress.DefaultBounds},
		{99.9, progress.DefaultBounds},
		{100, progress.Bounds{Min: 0, Max: 100}},
		{200, progress.Bounds{Min: 0, Max: 200}},
	}
	for _, tt := range tests {
		cfg := &Config{ProgressMax: tt.max}
		if got := cfg.ProgressBounds(); got != tt.want {
			t.Errorf("ProgressMax %v: ProgressBounds() = %+v, want %+v", tt.max, got, tt.want)
		}
	}
}

func TestExpandPath(t *testing.T) {
	home, _ := os.UserHomeDir()

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"/tmp/foo", "/tmp/foo"},
		{"~", home},
		{"~/data/bodygoal", filepath.Join(home, "data/bodygoal")},
		{"data/bodygoal", "data/bodygoal"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ExpandPath(tt.in); got != tt.want {
				t.Errorf("ExpandPath(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestGetDataDirExpandsTilde(t *testing.T) {
	home, _ := os.UserHomeDir()

	cfg := &Config{DataDir: "~/bodygoal-data"}
	got := cfg.GetDataDir()
	want := filepath.Join(home, "bodygoal-data")
	if got != want {
		t.Errorf("GetDataDir() = %q, want %q", got, want)
	}
}

func TestLoadNonExistentConfig(t *testing.T) {
	isolateConfig(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() with no config file should not error: %v", err)
	}
	if cfg == nil {
		t.Fatal("Load() returned nil config")
	}
	if cfg.Backend != "" {
		t.Errorf("Expected empty Backend, got %q", cfg.Backend)
	}
	if cfg.DataDir != "" {
		t.Errorf("Expected empty DataDir, got %q", cfg.DataDir)
	}
}

func TestSaveAndLoad(t *testing.T) {
	isolateConfig(t)

	cfg := &Config{
		Backend:     "charm",
		DataDir:     "/tmp/bodygoal-data",
		UserID:      "alice",
		WindowDays:  21,
		ProgressMax: 120,
		MetricsAddr: ":9090",
	}
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if *loaded != *cfg {
		t.Errorf("loaded = %+v, want %+v", loaded, cfg)
	}
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	isolateConfig(t)

	cfg := &Config{Backend: "sqlite", UserID: "alice"}
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	t.Setenv(EnvBackend, "charm")
	t.Setenv(EnvUser, "bob")
	t.Setenv(EnvDataDir, "/tmp/override")

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if loaded.Backend != "charm" || loaded.UserID != "bob" || loaded.DataDir != "/tmp/override" {
		t.Errorf("env overrides not applied: %+v", loaded)
	}
}

func TestSaveCreatesDirectory(t *testing.T) {
	tmpDir := isolateConfig(t)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "nonexistent"))

	cfg := &Config{Backend: "sqlite"}
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save() should create directory: %v", err)
	}

	configDir := filepath.Join(tmpDir, "nonexistent", "bodygoal")
	if _, err := os.Stat(configDir); os.IsNotExist(err) {
		t.Error("Expected config directory to be created")
	}
}

func TestLoadInvalidJSON(t *testing.T) {
	tmpDir := isolateConfig(t)

	configDir := filepath.Join(tmpDir, "bodygoal")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(configDir, "config.json"), []byte("invalid json"), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if _, err := Load(); err == nil {
		t.Error("Expected error for invalid JSON config")
	}
}

func TestGetConfigPath(t *testing.T) {
	tmpDir := isolateConfig(t)

	got := GetConfigPath()
	want := filepath.Join(tmpDir, "bodygoal", "config.json")
	if got != want {
		t.Errorf("GetConfigPath() = %q, want %q", got, want)
	}
}

func TestOpenStorageSQLite(t *testing.T) {
	tmpDir := t.TempDir()

	cfg := &Config{
		Backend: "sqlite",
		DataDir: tmpDir,
	}

	repo, err := cfg.OpenStorage()
	if err != nil {
		t.Fatalf("OpenStorage() for sqlite failed: %v", err)
	}
	defer repo.Close()

	dbPath := filepath.Join(tmpDir, "bodygoal.db")
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Expected bodygoal.db to be created")
	}
}

func TestOpenStorageInvalidBackend(t *testing.T) {
	cfg := &Config{
		Backend: "markdown",
		DataDir: "/tmp",
	}

	if _, err := cfg.OpenStorage(); err == nil {
		t.Error("Expected error for unknown backend")
	}
}

func TestConfigJSONFieldNames(t *testing.T) {
	cfg := &Config{
		Backend:    "charm",
		DataDir:    "~/bodygoal-data",
		WindowDays: 7,
	}

	data, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	for _, key := range []string{"backend", "data_dir", "window_days"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("Expected JSON key %q in %s", key, data)
		}
	}
	if _, ok := raw["user_id"]; ok {
		t.Error("Expected empty user_id to be omitted")
	}
}
