package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

var envVars = []string{
	"FOREST_DB_PATH", "FOREST_LOG_LEVEL", "FOREST_LOG_FORMAT",
	"FOREST_CACHE_SIZE", "FOREST_REBUILD_TREE_TYPES", "FOREST_REBUILD_FROM_CONTENT",
}

// clearEnv blanks every config variable for the duration of the test.
// Blank values fall back to defaults.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envVars {
		t.Setenv(key, "")
	}
}

// chdirTemp moves into a temp directory without a .env file.
func chdirTemp(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	originalWd, _ := os.Getwd()
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("Chdir() error = %v", err)
	}
	t.Cleanup(func() {
		_ = os.Chdir(originalWd)
	})
	return tmpDir
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		wantErr     bool
		checkConfig func(*Config) bool
	}{
		{
			name:    "defaults",
			env:     map[string]string{},
			wantErr: false,
			checkConfig: func(cfg *Config) bool {
				return cfg.DBPath == "./data/forest-index.db" &&
					cfg.LogLevel == slog.LevelInfo &&
					cfg.LogFormat == "text" &&
					cfg.CacheSize == 1024 &&
					len(cfg.RebuildTreeTypes) == 1 && cfg.RebuildTreeTypes[0] == "default" &&
					!cfg.RebuildFromContent
			},
		},
		{
			name: "custom values",
			env: map[string]string{
				"FOREST_LOG_LEVEL":            "debug",
				"FOREST_LOG_FORMAT":           "JSON",
				"FOREST_CACHE_SIZE":           "32",
				"FOREST_REBUILD_TREE_TYPES":   "docs, notes,,",
				"FOREST_REBUILD_FROM_CONTENT": "true",
			},
			wantErr: false,
			checkConfig: func(cfg *Config) bool {
				return cfg.LogLevel == slog.LevelDebug &&
					cfg.LogFormat == "json" &&
					cfg.CacheSize == 32 &&
					len(cfg.RebuildTreeTypes) == 2 &&
					cfg.RebuildTreeTypes[0] == "docs" && cfg.RebuildTreeTypes[1] == "notes" &&
					cfg.RebuildFromContent
			},
		},
		{
			name:    "invalid log level",
			env:     map[string]string{"FOREST_LOG_LEVEL": "loud"},
			wantErr: true,
		},
		{
			name:    "invalid log format",
			env:     map[string]string{"FOREST_LOG_FORMAT": "xml"},
			wantErr: true,
		},
		{
			name:    "invalid cache size",
			env:     map[string]string{"FOREST_CACHE_SIZE": "lots"},
			wantErr: true,
		},
		{
			name:    "zero cache size",
			env:     map[string]string{"FOREST_CACHE_SIZE": "0"},
			wantErr: true,
		},
		{
			name:    "negative cache size",
			env:     map[string]string{"FOREST_CACHE_SIZE": "-1"},
			wantErr: true,
		},
		{
			name:    "invalid rebuild source",
			env:     map[string]string{"FOREST_REBUILD_FROM_CONTENT": "sometimes"},
			wantErr: true,
		},
		{
			name:    "only separators in tree types",
			env:     map[string]string{"FOREST_REBUILD_TREE_TYPES": " , ,"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chdirTemp(t)
			clearEnv(t)
			for key, value := range tt.env {
				t.Setenv(key, value)
			}

			cfg, err := Load()

			if tt.wantErr {
				if err == nil {
					t.Errorf("Load() expected error, got nil")
				}
				return
			}

			if err != nil {
				t.Errorf("Load() unexpected error: %v", err)
				return
			}

			if cfg == nil {
				t.Fatal("Load() returned nil config")
			}

			if tt.checkConfig != nil && !tt.checkConfig(cfg) {
				t.Errorf("Load() config validation failed: %+v", cfg)
			}
		})
	}
}

func TestLoad_ReadsDotEnv(t *testing.T) {
	tmpDir := chdirTemp(t)
	clearEnv(t)
	// godotenv does not override variables that are already set, even blank ones
	for _, key := range envVars {
		_ = os.Unsetenv(key)
	}

	content := "FOREST_CACHE_SIZE=7\nFOREST_REBUILD_TREE_TYPES=wiki\n"
	if err := os.WriteFile(filepath.Join(tmpDir, ".env"), []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	t.Cleanup(func() {
		_ = os.Unsetenv("FOREST_CACHE_SIZE")
		_ = os.Unsetenv("FOREST_REBUILD_TREE_TYPES")
	})

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.CacheSize != 7 {
		t.Errorf("Load() CacheSize = %d, want 7", cfg.CacheSize)
	}
	if len(cfg.RebuildTreeTypes) != 1 || cfg.RebuildTreeTypes[0] != "wiki" {
		t.Errorf("Load() RebuildTreeTypes = %v, want [wiki]", cfg.RebuildTreeTypes)
	}
}

func TestLoad_CreatesDataDirectory(t *testing.T) {
	clearEnv(t)

	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test", "db.db")
	t.Setenv("FOREST_DB_PATH", dbPath)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	// Check that directory was created
	dir := filepath.Dir(dbPath)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		t.Errorf("Load() should create data directory: %v", err)
	}

	if cfg.DBPath != dbPath {
		t.Errorf("Load() DBPath = %v, want %v", cfg.DBPath, dbPath)
	}
}

func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		value        string
		defaultValue string
		want         string
	}{
		{name: "env var set", value: "set-value", defaultValue: "default", want: "set-value"},
		{name: "empty env var uses default", value: "", defaultValue: "default", want: "default"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_ENV_VAR", tt.value)
			got := getEnv("TEST_ENV_VAR", tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnv(%q, %q) = %q, want %q", "TEST_ENV_VAR", tt.defaultValue, got, tt.want)
			}
		})
	}
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"default", 1},
		{"a,b,c", 3},
		{" a , b ", 2},
		{"", 0},
		{",,", 0},
	}

	for _, tt := range tests {
		if got := splitList(tt.input); len(got) != tt.want {
			t.Errorf("splitList(%q) = %v, want %d items", tt.input, got, tt.want)
		}
	}
}
