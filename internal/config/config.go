package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/vogtb/go-spreadsheet/packages/formulas/xl"
)

// Config is the complete xlcalc configuration
type Config struct {
	Engine  EngineConfig
	Logging LoggingConfig
	Server  ServerConfig
	Batch   BatchConfig
}

// EngineConfig selects registry behavior
type EngineConfig struct {
	Compatibility xl.Compatibility
	Locale        xl.Locale
	LocaleTag     string
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level  string
	Format string
}

// ServerConfig holds HTTP host settings
type ServerConfig struct {
	ListenAddr string
}

// BatchConfig holds batch evaluation settings
type BatchConfig struct {
	Workers int
}

// Load reads optional .env files, then the XLCALC_* environment variables.
// files that do not exist are skipped; variables already set in the
// environment win over file contents.
func Load(files ...string) (*Config, error) {
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", file, err)
		}
	}

	engine, err := loadEngineConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load engine configuration: %w", err)
	}
	logging, err := loadLoggingConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load logging configuration: %w", err)
	}
	batch, err := loadBatchConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load batch configuration: %w", err)
	}

	return &Config{
		Engine:  *engine,
		Logging: *logging,
		Server: ServerConfig{
			ListenAddr: getEnvOrDefault("XLCALC_LISTEN_ADDR", ":8080"),
		},
		Batch: *batch,
	}, nil
}

// RegistryOptions turns the engine settings into registry options
func (c *Config) RegistryOptions() []xl.Option {
	return []xl.Option{
		xl.WithCompatibility(c.Engine.Compatibility),
		xl.WithLocale(c.Engine.Locale),
	}
}

func loadEngineConfig() (*EngineConfig, error) {
	mode, err := xl.ParseCompatibility(getEnvOrDefault("XLCALC_COMPATIBILITY", "Spreadsheet"))
	if err != nil {
		return nil, fmt.Errorf("XLCALC_COMPATIBILITY: %w", err)
	}
	tag := getEnvOrDefault("XLCALC_LOCALE", "en-US")
	loc, err := xl.NewLocale(tag)
	if err != nil {
		return nil, fmt.Errorf("XLCALC_LOCALE: %w", err)
	}
	return &EngineConfig{Compatibility: mode, Locale: loc, LocaleTag: tag}, nil
}

func loadLoggingConfig() (*LoggingConfig, error) {
	level := strings.ToLower(getEnvOrDefault("XLCALC_LOG_LEVEL", "info"))
	switch level {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("XLCALC_LOG_LEVEL: unknown level %q", level)
	}
	format := strings.ToLower(getEnvOrDefault("XLCALC_LOG_FORMAT", "console"))
	if format != "console" && format != "json" {
		return nil, fmt.Errorf("XLCALC_LOG_FORMAT: unknown format %q", format)
	}
	return &LoggingConfig{Level: level, Format: format}, nil
}

func loadBatchConfig() (*BatchConfig, error) {
	workers, err := getEnvIntOrDefault("XLCALC_BATCH_WORKERS", 8)
	if err != nil {
		return nil, err
	}
	if workers < 1 {
		return nil, fmt.Errorf("XLCALC_BATCH_WORKERS: must be positive, got %d", workers)
	}
	return &BatchConfig{Workers: workers}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return intValue, nil
}
