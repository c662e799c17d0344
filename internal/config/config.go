package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/dgnsrekt/playvoice-go/internal/tts"
)

// Config holds all application configuration.
type Config struct {
	// HTTP settings
	HTTPPort    int
	BearerToken string

	// Play.ai settings
	PlayAIAPIKey string
	PlayAIUserID string
	PlayAIURL    string

	// PlayHT settings
	PlayHTAPIKey      string
	PlayHTUserID      string
	PlayHTVoiceEngine string
	PlayHTURL         string
	PlayHTWSAuthURL   string

	// Synthesis settings
	DefaultEngine        string
	VoicesFile           string
	ResponseDir          string
	FFmpegPath           string
	MaxTextLength        int
	StreamTimeLimit      time.Duration
	VendorRateLimit      float64
	MaxConcurrentStreams int

	// Discord settings
	DiscordToken          string
	GuildID               string
	DefaultVoiceChannelID string
	AutoLeaveIdle         time.Duration
	QueueCapacity         int
	DefaultTTL            time.Duration

	// Logging settings
	LogLevel  string
	LogFormat string
}

// Load reads configuration from environment variables with sane defaults.
func Load() (*Config, error) {
	cfg := &Config{
		HTTPPort:    getEnvInt("HTTP_PORT", 8080),
		BearerToken: os.Getenv("BEARER_TOKEN"),

		PlayAIAPIKey: os.Getenv("PLAYAI_API_KEY"),
		PlayAIUserID: os.Getenv("PLAYAI_USER_ID"),
		PlayAIURL:    getEnvString("PLAYAI_API_URL", tts.DefaultPlayAIURL),

		PlayHTAPIKey:      os.Getenv("PLAY_HT_API_KEY"),
		PlayHTUserID:      os.Getenv("PLAY_HT_USER_ID"),
		PlayHTVoiceEngine: getEnvString("PLAYHT_VOICE_ENGINE", tts.VoiceEngineMiniHTTP),
		PlayHTURL:         getEnvString("PLAYHT_API_URL", tts.DefaultPlayHTURL),
		PlayHTWSAuthURL:   getEnvString("PLAYHT_WS_AUTH_URL", tts.DefaultPlayHTWSAuthURL),

		DefaultEngine:        os.Getenv("DEFAULT_ENGINE"),
		VoicesFile:           os.Getenv("VOICES_FILE"),
		ResponseDir:          getEnvString("RESPONSE_DIR", "responses"),
		FFmpegPath:           os.Getenv("FFMPEG_PATH"),
		MaxTextLength:        getEnvInt("MAX_TEXT_LENGTH", 2000),
		StreamTimeLimit:      getEnvDuration("STREAM_TIME_LIMIT", 60*time.Second),
		VendorRateLimit:      getEnvFloat("VENDOR_RATE_LIMIT", 0),
		MaxConcurrentStreams: getEnvInt("MAX_CONCURRENT_STREAMS", 4),

		DiscordToken:          os.Getenv("DISCORD_TOKEN"),
		GuildID:               os.Getenv("GUILD_ID"),
		DefaultVoiceChannelID: os.Getenv("DEFAULT_VOICE_CHANNEL_ID"),
		AutoLeaveIdle:         getEnvDuration("AUTO_LEAVE_IDLE", 5*time.Minute),
		QueueCapacity:         getEnvInt("QUEUE_CAPACITY", 100),
		DefaultTTL:            getEnvDuration("DEFAULT_TTL", 30*time.Second),

		LogLevel:  getEnvString("LOG_LEVEL", "info"),
		LogFormat: getEnvString("LOG_FORMAT", "text"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// AuthDisabled returns true if bearer token authentication is disabled.
func (c *Config) AuthDisabled() bool {
	return c.BearerToken == ""
}

// PlayAIEnabled reports whether Play.ai credentials are configured.
func (c *Config) PlayAIEnabled() bool {
	return c.PlayAIAPIKey != "" && c.PlayAIUserID != ""
}

// PlayHTEnabled reports whether PlayHT credentials are configured.
func (c *Config) PlayHTEnabled() bool {
	return c.PlayHTAPIKey != "" && c.PlayHTUserID != ""
}

// DiscordEnabled reports whether the Discord voice sink is configured.
func (c *Config) DiscordEnabled() bool {
	return c.DiscordToken != ""
}

// Validate checks that configuration values are consistent.
func (c *Config) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return errors.New("HTTP_PORT must be between 1 and 65535")
	}

	if (c.PlayAIAPIKey == "") != (c.PlayAIUserID == "") {
		return errors.New("PLAYAI_API_KEY and PLAYAI_USER_ID must be set together")
	}
	if (c.PlayHTAPIKey == "") != (c.PlayHTUserID == "") {
		return errors.New("PLAY_HT_API_KEY and PLAY_HT_USER_ID must be set together")
	}
	if err := tts.ValidateVoiceEngine(c.PlayHTVoiceEngine); err != nil {
		return fmt.Errorf("PLAYHT_VOICE_ENGINE: %w", err)
	}

	if c.MaxTextLength < 1 {
		return errors.New("MAX_TEXT_LENGTH must be at least 1")
	}
	if c.StreamTimeLimit <= 0 {
		return errors.New("STREAM_TIME_LIMIT must be positive")
	}
	if c.VendorRateLimit < 0 {
		return errors.New("VENDOR_RATE_LIMIT must be non-negative")
	}
	if c.MaxConcurrentStreams < 1 {
		return errors.New("MAX_CONCURRENT_STREAMS must be at least 1")
	}

	if c.DiscordToken != "" && (c.GuildID == "" || c.DefaultVoiceChannelID == "") {
		return errors.New("GUILD_ID and DEFAULT_VOICE_CHANNEL_ID are required with DISCORD_TOKEN")
	}
	if c.QueueCapacity < 1 {
		return errors.New("QUEUE_CAPACITY must be at least 1")
	}
	if c.AutoLeaveIdle < 0 {
		return errors.New("AUTO_LEAVE_IDLE must be non-negative")
	}
	if c.DefaultTTL < 0 {
		return errors.New("DEFAULT_TTL must be non-negative")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.LogLevel] {
		return errors.New("LOG_LEVEL must be one of: debug, info, warn, error")
	}

	validLogFormats := map[string]bool{"text": true, "json": true}
	if !validLogFormats[c.LogFormat] {
		return errors.New("LOG_FORMAT must be one of: text, json")
	}

	return nil
}

// getEnvString returns the environment variable value or a default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the environment variable as an int or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvFloat returns the environment variable as a float64 or a default.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvDuration returns the environment variable as a duration or a default.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
