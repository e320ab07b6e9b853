package voice

import (
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"onlevel/internal/session"
)

const defaultHandshakeTimeout = 10 * time.Second

// Config describes how to reach the voice agent.
type Config struct {
	URL              string
	APIKey           string
	HandshakeTimeout time.Duration
	Logger           *log.Logger
}

// Factory creates a fresh voice client for every call.
type Factory func() session.VoiceClient

// NewFactory validates cfg and returns a Factory for it.
func NewFactory(cfg Config) (Factory, error) {
	cfg.URL = strings.TrimSpace(cfg.URL)
	if cfg.URL == "" {
		return nil, fmt.Errorf("voice agent url is required")
	}
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("voice agent url: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return nil, fmt.Errorf("voice agent url: unsupported scheme %q (want ws or wss)", u.Scheme)
	}
	if cfg.APIKey == "" {
		log.Printf("[Voice] VOICE_AGENT_API_KEY not set, connecting without credentials")
	}
	return func() session.VoiceClient {
		return NewClient(cfg)
	}, nil
}
