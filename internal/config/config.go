package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"batchstamp/internal/logger"
)

type Config struct {
	// HTTP Server Configuration
	HTTPAddr     string
	MaxUploadMB  int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

func Load() (*Config, error) {
	config := &Config{
		HTTPAddr:      getEnv("HTTP_ADDR", ":8080"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "console"),
		LogTimeFormat: getEnv("LOG_TIME_FORMAT", time.RFC3339),
		LogOutput:     getEnv("LOG_OUTPUT", "stdout"),
	}

	var err error
	if config.MaxUploadMB, err = getEnvInt("MAX_UPLOAD_MB", 20); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	readSecs, err := getEnvInt("READ_TIMEOUT_SECONDS", 30)
	if err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	writeSecs, err := getEnvInt("WRITE_TIMEOUT_SECONDS", 60)
	if err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	config.ReadTimeout = time.Duration(readSecs) * time.Second
	config.WriteTimeout = time.Duration(writeSecs) * time.Second

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	if c.HTTPAddr == "" {
		return fmt.Errorf("HTTP_ADDR must not be empty")
	}
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("MAX_UPLOAD_MB must be positive, got %d", c.MaxUploadMB)
	}
	if c.ReadTimeout <= 0 {
		return fmt.Errorf("READ_TIMEOUT_SECONDS must be positive")
	}
	if c.WriteTimeout <= 0 {
		return fmt.Errorf("WRITE_TIMEOUT_SECONDS must be positive")
	}
	return nil
}

// MaxUploadBytes returns the upload limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, value)
	}
	return n, nil
}
