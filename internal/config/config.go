package config

import (
	"os"
	"strconv"

	"enersense/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Data     DataConfig `validate:"required"`
	Analysis AnalysisConfig
	Output   OutputConfig
}

// DataConfig locates the parsed simulation artifacts.
type DataConfig struct {
	Dir              string `validate:"required"` // root of the parsed-data layout
	RelationshipsDir string // zone/equipment relationship parquet files
	ResultType       string // default result granularity
}

// AnalysisConfig holds analysis-wide knobs.
type AnalysisConfig struct {
	MinSamples int
	CacheSize  int
	Seed       int64
}

// OutputConfig holds result persistence settings.
type OutputConfig struct {
	Dir         string
	WriteExcel  bool
	ReportLimit int
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Data:     loadDataConfig(),
		Analysis: loadAnalysisConfig(),
		Output:   loadOutputConfig(),
	}
	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func loadDataConfig() DataConfig {
	dir := getEnvOrDefault("ENERSENSE_DATA_DIR", "")
	return DataConfig{
		Dir:              dir,
		RelationshipsDir: getEnvOrDefault("ENERSENSE_RELATIONSHIPS_DIR", dir),
		ResultType:       getEnvOrDefault("ENERSENSE_RESULT_TYPE", "daily"),
	}
}

func loadAnalysisConfig() AnalysisConfig {
	return AnalysisConfig{
		MinSamples: getEnvIntOrDefault("ENERSENSE_MIN_SAMPLES", 10),
		CacheSize:  getEnvIntOrDefault("ENERSENSE_CACHE_SIZE", 8),
		Seed:       int64(getEnvIntOrDefault("ENERSENSE_SEED", 42)),
	}
}

func loadOutputConfig() OutputConfig {
	return OutputConfig{
		Dir:         getEnvOrDefault("ENERSENSE_OUTPUT_DIR", "./output"),
		WriteExcel:  getEnvBoolOrDefault("ENERSENSE_WRITE_EXCEL", false),
		ReportLimit: getEnvIntOrDefault("ENERSENSE_REPORT_LIMIT", 10),
	}
}

func validateConfig(config *Config) error {
	if config.Data.Dir == "" {
		return errors.ConfigInvalid("ENERSENSE_DATA_DIR is required")
	}
	if config.Analysis.MinSamples < 2 {
		return errors.ConfigInvalid("ENERSENSE_MIN_SAMPLES must be at least 2")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
