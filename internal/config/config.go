package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config carries all runtime settings for an ArtHub deployment.
// Values are read from the environment; a .env file is loaded by main
// via godotenv before this is constructed.
type Config struct {
	Environment string
	Port        string

	// Which persistence backend to run: relational, local, or remote
	StorageBackend string

	// Relational store (REST deployment)
	DatabaseURL string

	// Remote document store
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Local store
	BadgerDir string

	// Auth
	JWTSecret string

	// Logging
	LogLevel string
	LogFile  string
}

// Load builds a Config from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Environment:    getEnvOrDefault("ENVIRONMENT", "development"),
		Port:           getEnvOrDefault("PORT", "8080"),
		StorageBackend: getEnvOrDefault("STORAGE_BACKEND", "relational"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisAddr:      getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		BadgerDir:      getEnvOrDefault("BADGER_DIR", "arthub-local"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		LogLevel:       getEnvOrDefault("LOG_LEVEL", "info"),
		LogFile:        getEnvOrDefault("LOG_FILE", "arthub.log"),
	}

	if v := os.Getenv("REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_DB %q: %w", v, err)
		}
		cfg.RedisDB = n
	}

	if cfg.DatabaseURL == "" {
		// Fallback to individual components
		host := getEnvOrDefault("DB_HOST", "localhost")
		port := getEnvOrDefault("DB_PORT", "5432")
		user := getEnvOrDefault("DB_USER", "postgres")
		password := getEnvOrDefault("DB_PASSWORD", "")
		dbname := getEnvOrDefault("DB_NAME", "arthub")
		sslmode := getEnvOrDefault("DB_SSLMODE", "disable")

		cfg.DatabaseURL = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			host, port, user, password, dbname, sslmode)
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	return cfg, nil
}

// getEnvOrDefault returns environment variable or default value
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
