package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port         string
	DatabasePath string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	AMQPURL string

	OpenAIKey     string
	OpenAIBaseURL string
	OpenAIModel   string

	VoiceAgentURL      string
	VoiceAgentAPIKey   string
	VoiceWorkflowID    string
	VoiceInterviewerID string

	IdentityAPIKey  string
	IdentityBaseURL string

	SessionTTL   time.Duration
	CookieSecure bool
	GuardTimeout time.Duration

	TechIconBaseURL string
	CORSOrigin      string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:         getEnv("PORT", "8080"),
		DatabasePath: getEnv("DATABASE_PATH", "data/onlevel.db"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		AMQPURL: os.Getenv("AMQP_URL"),

		OpenAIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL: os.Getenv("OPENAI_BASE_URL"),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),

		VoiceAgentURL:      os.Getenv("VOICE_AGENT_URL"),
		VoiceAgentAPIKey:   os.Getenv("VOICE_AGENT_API_KEY"),
		VoiceWorkflowID:    os.Getenv("VOICE_WORKFLOW_ID"),
		VoiceInterviewerID: os.Getenv("VOICE_INTERVIEWER_ID"),

		IdentityAPIKey:  os.Getenv("IDENTITY_API_KEY"),
		IdentityBaseURL: getEnv("IDENTITY_BASE_URL", "https://identitytoolkit.googleapis.com"),

		SessionTTL:   getEnvAsDuration("SESSION_TTL", 7*24*time.Hour),
		CookieSecure: getEnvAsBool("COOKIE_SECURE", false),
		GuardTimeout: getEnvAsDuration("GUARD_TIMEOUT", 30*time.Second),

		TechIconBaseURL: getEnv("TECH_ICON_BASE_URL", "https://cdn.jsdelivr.net/gh/devicons/devicon/icons"),
		CORSOrigin:      getEnv("CORS_ORIGIN", "*"),
	}

	// Validate required environment variables
	if cfg.OpenAIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required. Please set it as environment variable or in .env:\n  export OPENAI_API_KEY=\"your_key\"")
	}

	// The voice agent is optional; without it the call socket reports an error on start.
	return cfg, nil
}

// VoiceEnabled reports whether a voice agent endpoint is configured.
func (c *Config) VoiceEnabled() bool {
	return c.VoiceAgentURL != ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
