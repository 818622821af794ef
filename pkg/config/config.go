// Package config loads service settings from the environment.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is the full service configuration.
type Config struct {
	Port    string
	GinMode string

	DatabaseURL string
	DataPath    string

	JWTSecret       string
	APIMasterSecret string
	AdminUsername   string
	AdminPassword   string

	LogLevel  string
	LogFormat string

	SolveTimeout     time.Duration
	SolveMaxAttempts int
	SwapMaxRetries   int

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// LoadDotEnv loads the first .env file found in the working directory or
// up to two parents. Missing files are not an error.
func LoadDotEnv() {
	for _, p := range []string{".env", "../.env", "../../.env"} {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
			return
		}
	}
}

// Load reads the configuration from environment variables.
func Load() *Config {
	return &Config{
		Port:    getEnv("PORT", "8000"),
		GinMode: getEnv("GIN_MODE", ""),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		DataPath:    getEnv("DATA_PATH", "scheduler.db"),

		JWTSecret:       getEnv("JWT_SECRET", ""),
		APIMasterSecret: getEnv("API_MASTER_SECRET", ""),
		AdminUsername:   getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword:   getEnv("ADMIN_PASSWORD", "admin123"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),

		SolveTimeout:     getEnvDuration("SOLVE_TIMEOUT", 10*time.Second),
		SolveMaxAttempts: getEnvInt("SOLVE_MAX_ATTEMPTS", 50),
		SwapMaxRetries:   getEnvInt("SWAP_MAX_RETRIES", 3),

		ReadTimeout:  getEnvDuration("READ_TIMEOUT", 15*time.Second),
		WriteTimeout: getEnvDuration("WRITE_TIMEOUT", 30*time.Second),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
