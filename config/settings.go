package config

import (
	"io/fs"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// Environment variables read by LoadSettings
const (
	EnvCSVDir     = "HIVE_CSV_DIR"
	EnvOutputDir  = "HIVE_OUTPUT_DIR"
	EnvZonesFile  = "HIVE_ZONES_FILE"
	EnvTuningFile = "HIVE_TUNING_FILE"
	EnvDB         = "HIVE_DB"
	EnvWorkers    = "HIVE_WORKERS"
	EnvLogLevel   = "HIVE_LOG_LEVEL"
)

// Settings are paths and runtime knobs of the CLI. Flags override them
type Settings struct {
	CSVDir     string
	OutputDir  string
	ZonesFile  string
	TuningFile string
	// Empty means runs are not persisted
	DBPath   string
	Workers  int
	LogLevel slog.Level
}

// LoadSettings loads given .env files (or ".env" when none given; a missing file is fine)
// and reads settings from environment.
func LoadSettings(envFiles ...string) (Settings, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Settings{}, errors.Wrap(err, "can't load .env")
	}
	settings := Settings{
		CSVDir:     getEnv(EnvCSVDir, "detected-bees"),
		OutputDir:  getEnv(EnvOutputDir, "tracking-results"),
		ZonesFile:  getEnv(EnvZonesFile, "config/zones.hujson"),
		TuningFile: getEnv(EnvTuningFile, ""),
		DBPath:     getEnv(EnvDB, ""),
	}
	workers, err := getEnvInt(EnvWorkers, runtime.NumCPU())
	if err != nil {
		return Settings{}, err
	}
	if workers < 1 {
		return Settings{}, errors.Errorf("%s must be positive, got %d", EnvWorkers, workers)
	}
	settings.Workers = workers
	if err := settings.LogLevel.UnmarshalText([]byte(getEnv(EnvLogLevel, "INFO"))); err != nil {
		return Settings{}, errors.Wrapf(err, "bad %s", EnvLogLevel)
	}
	return settings, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := getEnv(key, "")
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.Wrapf(err, "bad %s", key)
	}
	return n, nil
}
