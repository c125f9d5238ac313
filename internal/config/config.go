// Package config loads runtime settings from the environment, with an
// optional .env file in the working directory.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/FocuswithJustin/mushaf/internal/logging"
)

// Config holds settings shared by every command. CLI flags override fields
// that are set.
type Config struct {
	DBPath         string
	MetadataPath   string
	ChaptersPath   string
	ExportDir      string
	ExportFormat   string
	ExpectedVerses int
	LogLevel       string
	LogFormat      string
}

// Load reads .env (if present) and then the MUSHAF_* variables.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		DBPath:       getEnv("MUSHAF_DB", "quran.db"),
		MetadataPath: getEnv("MUSHAF_METADATA", ""),
		ChaptersPath: getEnv("MUSHAF_CHAPTERS", ""),
		ExportDir:    getEnv("MUSHAF_EXPORT_DIR", "export"),
		ExportFormat: getEnv("MUSHAF_EXPORT_FORMAT", "csv"),
		LogLevel:     getEnv("MUSHAF_LOG_LEVEL", "info"),
		LogFormat:    getEnv("MUSHAF_LOG_FORMAT", "text"),
	}

	expected, err := getEnvInt("MUSHAF_EXPECTED_VERSES", 0)
	if err != nil {
		return Config{}, err
	}
	if expected < 0 {
		return Config{}, fmt.Errorf("MUSHAF_EXPECTED_VERSES must not be negative, got %d", expected)
	}
	cfg.ExpectedVerses = expected

	return cfg, nil
}

// Require reports a missing value by its variable name.
func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required setting: %s", name)
	}
	return nil
}

// ApplyLogging initializes the global logger from LogLevel and LogFormat.
func (c Config) ApplyLogging() error {
	level, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		return err
	}
	format, err := logging.ParseFormat(c.LogFormat)
	if err != nil {
		return err
	}
	logging.InitLogger(level, format)
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(getEnv(key, ""))
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return parsed, nil
}
