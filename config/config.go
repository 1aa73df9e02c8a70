package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	ServerPort string
	ServerHost string

	// Database configuration
	DBDriver   string // "postgres" or "sqlite"
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	DBPath     string // sqlite file path, ":memory:" for tests

	// Redis configuration
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	RedisURL      string

	// Evaluation service (multimodal chat completions)
	EvalAPIKey  string
	EvalAPIURL  string
	EvalModel   string
	EvalTimeout int // seconds

	// Projection service (image variation)
	ProjectionAPIKey string
	ProjectionAPIURL string
	ProjectionModel  string

	// Pipeline tuning
	ScoreThreshold int

	// Image sink
	S3Bucket string
	S3Prefix string
}

// LoadConfig creates a new Config instance with values from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),
		ServerHost: getEnv("SERVER_HOST", "0.0.0.0"),

		DBDriver:   getEnv("DB_DRIVER", "postgres"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     getEnv("DB_NAME", "wellmirror"),
		DBSSLMode:  getEnv("DB_SSL_MODE", "disable"),
		DBPath:     getEnv("DB_PATH", "wellmirror.db"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		RedisURL:      os.Getenv("REDIS_URL"),

		EvalAPIKey:  os.Getenv("EVAL_API_KEY"),
		EvalAPIURL:  getEnv("EVAL_API_URL", "https://api.deepseek.com/v1/chat/completions"),
		EvalModel:   getEnv("EVAL_MODEL", "deepseek-chat"),
		EvalTimeout: getEnvInt("EVAL_TIMEOUT_SECONDS", 60),

		ProjectionAPIKey: os.Getenv("PROJECTION_API_KEY"),
		ProjectionAPIURL: getEnv("PROJECTION_API_URL", "https://api.example.com/v1/images/variations"),
		ProjectionModel:  getEnv("PROJECTION_MODEL", "image-variation-v1"),

		ScoreThreshold: getEnvInt("SCORE_THRESHOLD", 50),

		S3Bucket: os.Getenv("OUTPUT_S3_BUCKET"),
		S3Prefix: getEnv("OUTPUT_S3_PREFIX", "generated/"),
	}

	// Validate the configuration
	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// getEnv reads an environment variable with a fallback default
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvInt reads an integer environment variable with a fallback default
func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
