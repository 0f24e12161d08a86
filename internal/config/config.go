// Package config loads server settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/mmynk/settleup/internal/calculator"
)

type Config struct {
	// HTTP Server
	Port            int
	ShutdownTimeout time.Duration

	// Database
	DBPath string

	// Logging
	LogLevel string

	// Distributed locks; empty keeps locks in process.
	RedisAddr string

	// AMQP; an empty URL disables event publishing.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Allocation
	EqualSplitMode calculator.EqualSplitMode

	rawEqualSplitMode string
}

// LoadEnvFile loads a .env file for local development. A missing file is not
// an error; a file that exists but cannot be read or parsed is.
func LoadEnvFile(paths ...string) error {
	if err := godotenv.Load(paths...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// Load reads the configuration from the environment. Call Validate before use.
func Load() *Config {
	cfg := &Config{
		Port:            getEnvInt("PORT", 8080),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),

		DBPath:   getEnv("DB_PATH", "./data/settleup.db"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		RedisAddr: getEnv("REDIS_ADDR", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "settleup"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "settleup.events"),

		rawEqualSplitMode: getEnv("EQUAL_SPLIT_MODE", "preserve"),
	}
	// An invalid mode is reported by Validate.
	cfg.EqualSplitMode, _ = calculator.ParseEqualSplitMode(cfg.rawEqualSplitMode)
	return cfg
}

// Validate reports every problem with the configuration at once.
func (c *Config) Validate() error {
	var errors []string

	if c.Port < 1 || c.Port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", c.Port))
	}
	if strings.TrimSpace(c.DBPath) == "" {
		errors = append(errors, "DB_PATH cannot be empty")
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level %q: must be debug, info, warn or error", c.LogLevel))
	}
	if _, err := calculator.ParseEqualSplitMode(c.rawEqualSplitMode); err != nil {
		errors = append(errors, err.Error())
	}
	if c.AMQPURL != "" {
		if !strings.HasPrefix(c.AMQPURL, "amqp://") && !strings.HasPrefix(c.AMQPURL, "amqps://") {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL %q: must start with amqp:// or amqps://", c.AMQPURL))
		}
		if c.AMQPExchange == "" || c.AMQPQueue == "" {
			errors = append(errors, "AMQP_EXCHANGE and AMQP_QUEUE are required when AMQP_URL is set")
		}
	}
	if c.ShutdownTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("invalid shutdown timeout %v: must be positive", c.ShutdownTimeout))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// Addr is the listen address of the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
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
		return -1
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		return 0
	}
	return defaultValue
}
