package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bensuskins/planner/internal/config"
)

var configKeys = []string{
	"DATABASE_PATH", "PORT", "LOG_LEVEL", "TIMEZONE", "MAX_EXPANSION_ITERATIONS",
	"DIGEST_SCHEDULE", "CORS_ORIGINS", "CONFIG_FILE",
}

// clearEnv unsets every key for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "./data/planner.db", cfg.DatabasePath)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, "UTC", cfg.Location.String())
	assert.Equal(t, 1000, cfg.MaxExpansionIterations)
	assert.Equal(t, "0 7 * * *", cfg.DigestSchedule)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
}

func TestLoad_Environment(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_PATH", "/tmp/planner.db")
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("TIMEZONE", "Asia/Tokyo")
	t.Setenv("MAX_EXPANSION_ITERATIONS", "250")
	t.Setenv("CORS_ORIGINS", "http://localhost:3000, https://planner.example.com")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/planner.db", cfg.DatabasePath)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, "Asia/Tokyo", cfg.Location.String())
	assert.Equal(t, 250, cfg.MaxExpansionIterations)
	assert.Equal(t, []string{"http://localhost:3000", "https://planner.example.com"}, cfg.CORSOrigins)
}

func TestLoad_ConfigFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "planner.yaml")
	content := "port: \"7070\"\ntimezone: Europe/London\nmax_expansion_iterations: 50\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "6060")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "6060", cfg.Port, "environment overrides the file")
	assert.Equal(t, "Europe/London", cfg.Location.String())
	assert.Equal(t, 50, cfg.MaxExpansionIterations)
}

func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"unknown timezone", "TIMEZONE", "Mars/Olympus"},
		{"zero cap", "MAX_EXPANSION_ITERATIONS", "0"},
		{"bad cron", "DIGEST_SCHEDULE", "every morning"},
		{"bad level", "LOG_LEVEL", "loud"},
		{"missing file", "CONFIG_FILE", "/nonexistent/planner.yaml"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(test.key, test.val)

			_, err := config.Load()
			assert.Error(t, err)
		})
	}
}
