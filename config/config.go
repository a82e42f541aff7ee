package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	APIBaseURL   string        `validate:"required,url"`
	StateFile    string        `validate:"required"`
	CRUDTimeout  time.Duration `validate:"required"`
	AITimeout    time.Duration `validate:"required"`
	MinRecording time.Duration
	MaxRecording time.Duration
	LogLevel     string
}

// LoadConfig loads configuration from environment variables.
// It first tries to load from .env file, then falls back to system
// environment variables.
func LoadConfig() *Config {
	// Load .env file if it exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		logrus.WithError(err).Debug(".env file not found or couldn't be loaded")
	}

	return &Config{
		APIBaseURL:   getEnv("VOICEPOST_API_URL", "https://api.voicepost.app/v1"),
		StateFile:    getEnv("VOICEPOST_STATE_FILE", defaultStateFile()),
		CRUDTimeout:  getDuration("VOICEPOST_CRUD_TIMEOUT", 30*time.Second),
		AITimeout:    getDuration("VOICEPOST_AI_TIMEOUT", 90*time.Second),
		MinRecording: getDuration("VOICEPOST_MIN_RECORDING", time.Second),
		MaxRecording: getDuration("VOICEPOST_MAX_RECORDING", 5*time.Minute),
		LogLevel:     getEnv("VOICEPOST_LOG_LEVEL", "info"),
	}
}

func defaultStateFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".voicepost/state.json"
	}
	return filepath.Join(home, ".voicepost", "state.json")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if parsed, err := time.ParseDuration(value); err == nil {
		return parsed
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}
	return defaultValue
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.MaxRecording <= c.MinRecording {
		return fmt.Errorf("VOICEPOST_MAX_RECORDING must be longer than VOICEPOST_MIN_RECORDING")
	}
	return nil
}
