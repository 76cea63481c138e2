package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvCSVDir, EnvOutputDir, EnvZonesFile, EnvTuningFile, EnvDB, EnvWorkers, EnvLogLevel} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadSettingsDefaults(t *testing.T) {
	clearEnv(t)
	settings, err := LoadSettings(filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)
	assert.Equal(t, "detected-bees", settings.CSVDir)
	assert.Equal(t, "tracking-results", settings.OutputDir)
	assert.Equal(t, "config/zones.hujson", settings.ZonesFile)
	assert.Empty(t, settings.DBPath)
	assert.Positive(t, settings.Workers)
	assert.Equal(t, slog.LevelInfo, settings.LogLevel)
}

func TestLoadSettingsFromEnvFile(t *testing.T) {
	clearEnv(t)
	envFile := filepath.Join(t.TempDir(), "hive.env")
	content := "HIVE_CSV_DIR=/data/csv\nHIVE_OUTPUT_DIR=/data/out\nHIVE_WORKERS=3\nHIVE_LOG_LEVEL=debug\nHIVE_DB=/data/hive.db\n"
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o644))
	// Real environment wins over .env
	t.Setenv(EnvOutputDir, "/override/out")

	settings, err := LoadSettings(envFile)
	require.NoError(t, err)
	assert.Equal(t, "/data/csv", settings.CSVDir)
	assert.Equal(t, "/override/out", settings.OutputDir)
	assert.Equal(t, "/data/hive.db", settings.DBPath)
	assert.Equal(t, 3, settings.Workers)
	assert.Equal(t, slog.LevelDebug, settings.LogLevel)
}

func TestLoadSettingsInvalid(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvWorkers, "many")
	_, err := LoadSettings(filepath.Join(t.TempDir(), "absent.env"))
	assert.Error(t, err)

	t.Setenv(EnvWorkers, "0")
	_, err = LoadSettings(filepath.Join(t.TempDir(), "absent.env"))
	assert.Error(t, err)

	t.Setenv(EnvWorkers, "2")
	t.Setenv(EnvLogLevel, "loud")
	_, err = LoadSettings(filepath.Join(t.TempDir(), "absent.env"))
	assert.Error(t, err)
}
