package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	Environment Environment

	// Server configuration
	ServerPort  string
	ServerHost  string
	CORSOrigins []string

	// Database configuration
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	// DBPath is the SQLite file used when DBDriver is "sqlite"
	DBPath string

	// Redis configuration
	RedisURL      string
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// JWT configuration
	JWTSecret string
	TokenTTL  time.Duration

	// Image storage
	S3Bucket        string
	S3Region        string
	S3Endpoint      string
	S3PublicBaseURL string
	MediaDir        string

	// Logging
	LogLevel  string
	LogFormat string

	// Rate limits, per hour
	RecipeCreateLimit int
	RecipeModifyLimit int
}

// LoadConfig builds a Config from environment variables, Docker secrets and defaults.
// An environment variable wins over a secret file of the same (lower-cased) name.
func LoadConfig() (*Config, error) {
	env := GetEnvironment()
	cfg := &Config{Environment: env}

	var errs []string
	intValue := func(key string, def int) int {
		raw := lookup(key, "")
		if raw == "" {
			return def
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s must be an integer, got %q", key, raw))
			return def
		}
		return n
	}

	cfg.ServerHost = lookup("SERVER_HOST", "0.0.0.0")
	cfg.ServerPort = lookup("SERVER_PORT", "8080")
	cfg.CORSOrigins = splitList(lookup("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173"))

	cfg.DBDriver = lookup("DB_DRIVER", "postgres")
	cfg.DBHost = lookup("DB_HOST", "localhost")
	cfg.DBPort = lookup("DB_PORT", "5432")
	cfg.DBUser = lookup("DB_USER", "postgres")
	cfg.DBPassword = lookup("DB_PASSWORD", "")
	cfg.DBName = lookup("DB_NAME", "foodgram")
	cfg.DBSSLMode = lookup("DB_SSL_MODE", "disable")
	cfg.DBPath = lookup("DB_PATH", "foodgram.db")

	cfg.RedisURL = lookup("REDIS_URL", "")
	cfg.RedisHost = lookup("REDIS_HOST", "localhost")
	cfg.RedisPort = lookup("REDIS_PORT", "6379")
	cfg.RedisPassword = lookup("REDIS_PASSWORD", "")
	cfg.RedisDB = intValue("REDIS_DB", 0)

	cfg.JWTSecret = lookup("JWT_SECRET", "")
	cfg.TokenTTL = time.Duration(intValue("TOKEN_TTL_HOURS", 24)) * time.Hour

	cfg.S3Bucket = lookup("S3_BUCKET_NAME", "")
	cfg.S3Region = lookup("AWS_REGION", "us-east-1")
	cfg.S3Endpoint = lookup("S3_ENDPOINT", "")
	cfg.S3PublicBaseURL = lookup("S3_PUBLIC_BASE_URL", "")
	cfg.MediaDir = lookup("MEDIA_DIR", "media")

	cfg.LogLevel = lookup("LOG_LEVEL", "info")
	cfg.LogFormat = lookup("LOG_FORMAT", defaultLogFormat(env))

	cfg.RecipeCreateLimit = intValue("RECIPE_CREATE_LIMIT", 20)
	cfg.RecipeModifyLimit = intValue("RECIPE_MODIFY_LIMIT", 30)

	if len(errs) > 0 {
		return nil, fmt.Errorf("failed to load configuration:\n%s", strings.Join(errs, "\n"))
	}

	// Development and test get a throwaway signing key so the server boots without secrets
	if cfg.JWTSecret == "" && (env == Development || env == Test) {
		cfg.JWTSecret = "dev-insecure-jwt-secret"
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// DSN returns the PostgreSQL connection string
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

// Addr returns the listen address of the HTTP server
func (c *Config) Addr() string {
	return c.ServerHost + ":" + c.ServerPort
}

// lookup resolves key from the environment, then from a secret file, then falls back to def
func lookup(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	if v := readSecret(strings.ToLower(key)); v != "" {
		return v
	}
	return def
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	secretPath := filepath.Join(secretsDir, name)
	if data, err := os.ReadFile(secretPath); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func defaultLogFormat(env Environment) string {
	if env == Development {
		return "console"
	}
	return "json"
}
