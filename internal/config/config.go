// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Port        string
	FrontendURL string
	DBPath      string
	LogLevel    string

	// OpenAI-backed collaborators.
	OpenAIAPIKey  string
	OpenAIBaseURL string
	ChatModel     string

	// Session lifecycle.
	SessionTimeout time.Duration

	// Voice pipeline.
	TTSVoice string
	TTSSpeed float64

	// Archive retention for the transcript store.
	ArchiveRetention time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	timeoutMinutes := getEnvInt("SESSION_TIMEOUT_MINUTES", 5)
	if timeoutMinutes <= 0 {
		timeoutMinutes = 5
	}

	retentionDays := getEnvInt("ARCHIVE_RETENTION_DAYS", 7)
	if retentionDays <= 0 {
		retentionDays = 7
	}

	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		FrontendURL:      getEnv("FRONTEND_URL", ""),
		DBPath:           getEnv("DB_PATH", "./data/clinic.db"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		OpenAIAPIKey:     getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:    getEnv("OPENAI_BASE_URL", ""),
		ChatModel:        getEnv("CHAT_MODEL", "gpt-4o-mini"),
		SessionTimeout:   time.Duration(timeoutMinutes) * time.Minute,
		TTSVoice:         getEnv("TTS_VOICE", "onyx"),
		TTSSpeed:         getEnvFloat("TTS_SPEED", 2.0),
		ArchiveRetention: time.Duration(retentionDays) * 24 * time.Hour,
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.ChatModel == "" {
		return fmt.Errorf("CHAT_MODEL cannot be empty")
	}
	if c.SessionTimeout <= 0 {
		return fmt.Errorf("SESSION_TIMEOUT_MINUTES must be > 0")
	}
	if c.TTSSpeed <= 0 {
		return fmt.Errorf("TTS_SPEED must be > 0")
	}
	return nil
}

// VoiceEnabled reports whether the voice pipeline can run. Transcription and
// synthesis both need the OpenAI key.
func (c *Config) VoiceEnabled() bool {
	return c.OpenAIAPIKey != ""
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return f
}
