/**
 * Configuration for the lobbyscan worker
 *
 * Loads configuration from environment variables. Threshold validation fails
 * fast at startup; nothing downstream re-checks these bounds.
 */

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds worker configuration
type Config struct {
	// Redis configuration (queue + status mirror)
	RedisURL  string
	QueueName string

	// PostgreSQL configuration
	DatabaseURL string

	// OCR engines
	DefaultEngine string // "local" or "cloud"
	TesseractLang string
	VisionAPIKey  string

	// Roster cache
	SheetsAPIKey     string
	RosterSheetID    string
	RosterSheetRange string
	RosterTTL        time.Duration

	// Structuring pipeline
	ConfidenceThreshold       float64
	MergeGapFactor            float64
	MaxVerticalDistanceFactor float64
	UIKeywords                []string // empty = pipeline defaults
	TimestampPatternEnabled   bool

	// Worker configuration
	WorkerConcurrency int
	ProcessingTimeout time.Duration
	MaxImageSize      int64
	LogLevel          string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		RedisURL:  getEnvOrDefault("REDIS_URL", "redis://localhost:6379"),
		QueueName: getEnvOrDefault("QUEUE_NAME", "lobbyscan:scans"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		DefaultEngine: getEnvOrDefault("OCR_ENGINE", "local"),
		TesseractLang: getEnvOrDefault("TESSERACT_LANG", "eng"),
		VisionAPIKey:  os.Getenv("VISION_API_KEY"),

		SheetsAPIKey:     os.Getenv("SHEETS_API_KEY"),
		RosterSheetID:    os.Getenv("ROSTER_SHEET_ID"),
		RosterSheetRange: getEnvOrDefault("ROSTER_SHEET_RANGE", "Roster!A2:C"),
		RosterTTL:        getEnvAsDurationOrDefault("ROSTER_TTL", 15*time.Minute),

		ConfidenceThreshold:       getEnvAsFloatOrDefault("CONFIDENCE_THRESHOLD", 0.5),
		MergeGapFactor:            getEnvAsFloatOrDefault("MERGE_GAP_FACTOR", 1.5),
		MaxVerticalDistanceFactor: getEnvAsFloatOrDefault("MAX_VERTICAL_DISTANCE_FACTOR", 0.75),
		UIKeywords:                getEnvAsListOrDefault("UI_KEYWORDS", nil),
		TimestampPatternEnabled:   getEnvAsBoolOrDefault("TIMESTAMP_PATTERN_ENABLED", true),

		WorkerConcurrency: getEnvAsIntOrDefault("WORKER_CONCURRENCY", 4),
		ProcessingTimeout: getEnvAsDurationOrDefault("PROCESSING_TIMEOUT", 60*time.Second),
		MaxImageSize:      getEnvAsInt64OrDefault("MAX_IMAGE_SIZE", 16*1024*1024), // 16MB
		LogLevel:          getEnvOrDefault("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.RedisURL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.DefaultEngine != "local" && c.DefaultEngine != "cloud" {
		return fmt.Errorf("OCR_ENGINE must be \"local\" or \"cloud\", got %q", c.DefaultEngine)
	}

	if c.DefaultEngine == "cloud" && c.VisionAPIKey == "" {
		return fmt.Errorf("VISION_API_KEY is required when OCR_ENGINE=cloud")
	}

	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		return fmt.Errorf("CONFIDENCE_THRESHOLD must be within [0,1], got %g", c.ConfidenceThreshold)
	}

	if c.MergeGapFactor <= 0 {
		return fmt.Errorf("MERGE_GAP_FACTOR must be positive, got %g", c.MergeGapFactor)
	}

	if c.MaxVerticalDistanceFactor <= 0 {
		return fmt.Errorf("MAX_VERTICAL_DISTANCE_FACTOR must be positive, got %g", c.MaxVerticalDistanceFactor)
	}

	if c.WorkerConcurrency < 1 || c.WorkerConcurrency > 64 {
		return fmt.Errorf("WORKER_CONCURRENCY must be between 1 and 64, got %d", c.WorkerConcurrency)
	}

	if c.RosterTTL <= 0 {
		return fmt.Errorf("ROSTER_TTL must be positive, got %v", c.RosterTTL)
	}

	return nil
}

// getEnvOrDefault gets environment variable or returns default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsIntOrDefault gets environment variable as int or returns default
func getEnvAsIntOrDefault(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsInt64OrDefault gets environment variable as int64 or returns default
func getEnvAsInt64OrDefault(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsFloatOrDefault gets environment variable as float64 or returns default
func getEnvAsFloatOrDefault(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsBoolOrDefault gets environment variable as bool or returns default
func getEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsDurationOrDefault gets environment variable as duration or returns default
func getEnvAsDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsListOrDefault splits a comma-separated environment variable.
func getEnvAsListOrDefault(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
