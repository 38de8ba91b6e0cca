package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Server settings
	Port string `json:"port"`
	Host string `json:"host"`

	// Gemini API settings
	GoogleAPIKey    string        `json:"-"` // Don't expose in JSON
	GeminiModel     string        `json:"gemini_model"`
	GeminiBaseURL   string        `json:"gemini_base_url,omitempty"`
	MaxOutputTokens int           `json:"max_output_tokens"`
	UpstreamTimeout time.Duration `json:"upstream_timeout"`

	// Summarization settings
	DefaultLanguage     string   `json:"default_language"`
	TranscriptLanguages []string `json:"transcript_languages"`
	MaxInputChars       int      `json:"max_input_chars"`

	// HTTP surface
	CORSAllowedOrigins []string `json:"cors_allowed_origins"`
	RateLimitPerMinute int      `json:"rate_limit_per_minute"`
	RateLimitBurst     int      `json:"rate_limit_burst"`

	// Cache settings
	CacheType            string `json:"cache_type"`     // "memory", "sqlite", "cloud-storage" or "none"
	CacheDuration        int    `json:"cache_duration"` // in hours
	CacheBucket          string `json:"cache_bucket,omitempty"`
	CacheDBPath          string `json:"cache_db_path,omitempty"`
	CacheCleanupSchedule string `json:"cache_cleanup_schedule"`

	// Circuit breaker
	BreakerFailureThreshold float64       `json:"breaker_failure_threshold"`
	BreakerMinRequests      int           `json:"breaker_min_requests"`
	BreakerTimeout          time.Duration `json:"breaker_timeout"`

	// Logging
	LogLevel  string `json:"log_level"`
	LogFormat string `json:"log_format"`
	LogDir    string `json:"log_dir,omitempty"`
}

// Load reads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	config := &Config{
		Port:                    getEnvOrDefault("PORT", "8000"),
		Host:                    getEnvOrDefault("HOST", "0.0.0.0"),
		GoogleAPIKey:            getEnvOrDefault("GOOGLE_API_KEY", os.Getenv("GEMINI_API_KEY")),
		GeminiModel:             getEnvOrDefault("GEMINI_MODEL", "gemini-2.5-flash"),
		GeminiBaseURL:           getEnvOrDefault("GEMINI_BASE_URL", ""),
		MaxOutputTokens:         getEnvOrDefaultInt("MAX_OUTPUT_TOKENS", 0),
		UpstreamTimeout:         getEnvOrDefaultDuration("UPSTREAM_TIMEOUT", 60*time.Second),
		DefaultLanguage:         getEnvOrDefault("DEFAULT_LANGUAGE", "tr"),
		TranscriptLanguages:     parseStringSlice(getEnvOrDefault("TRANSCRIPT_LANGUAGES", "tr,tr-TR,en")),
		MaxInputChars:           getEnvOrDefaultInt("MAX_INPUT_CHARS", 12000),
		CORSAllowedOrigins:      parseStringSlice(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "*")),
		RateLimitPerMinute:      getEnvOrDefaultInt("RATE_LIMIT_PER_MINUTE", 0),
		RateLimitBurst:          getEnvOrDefaultInt("RATE_LIMIT_BURST", 10),
		CacheType:               getEnvOrDefault("CACHE_TYPE", "none"),
		CacheDuration:           getEnvOrDefaultInt("CACHE_DURATION_HOURS", 24),
		CacheBucket:             getEnvOrDefault("CACHE_BUCKET", ""),
		CacheDBPath:             getEnvOrDefault("CACHE_DB_PATH", "summaries.db"),
		CacheCleanupSchedule:    getEnvOrDefault("CACHE_CLEANUP_SCHEDULE", "@every 10m"),
		BreakerFailureThreshold: getEnvOrDefaultFloat("BREAKER_FAILURE_THRESHOLD", 0.6),
		BreakerMinRequests:      getEnvOrDefaultInt("BREAKER_MIN_REQUESTS", 5),
		BreakerTimeout:          getEnvOrDefaultDuration("BREAKER_TIMEOUT", 60*time.Second),
		LogLevel:                getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:               getEnvOrDefault("LOG_FORMAT", "text"),
		LogDir:                  getEnvOrDefault("LOG_DIR", ""),
	}

	return config, config.validate()
}

// validate checks if required configuration values are present
func (c *Config) validate() error {
	if c.GoogleAPIKey == "" {
		return &ConfigError{Field: "GOOGLE_API_KEY", Message: "Google API key is required"}
	}
	if c.MaxInputChars <= 0 {
		return &ConfigError{Field: "MAX_INPUT_CHARS", Message: "must be positive"}
	}
	if len(c.TranscriptLanguages) == 0 {
		return &ConfigError{Field: "TRANSCRIPT_LANGUAGES", Message: "at least one language is required"}
	}
	switch c.CacheType {
	case "memory", "sqlite", "none":
	case "cloud-storage":
		if c.CacheBucket == "" {
			return &ConfigError{Field: "CACHE_BUCKET", Message: "bucket is required for cloud-storage cache"}
		}
	default:
		return &ConfigError{Field: "CACHE_TYPE", Message: "unsupported cache type: " + c.CacheType}
	}
	return nil
}

// getEnvOrDefault returns environment variable value or default if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrDefaultInt returns environment variable value as int or default if not set
func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvOrDefaultFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvOrDefaultDuration accepts Go durations ("90s") or plain seconds ("90")
func getEnvOrDefaultDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

// parseStringSlice parses comma-separated string into slice
func parseStringSlice(value string) []string {
	if value == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
