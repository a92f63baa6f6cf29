package avgchat

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config carries the client-side settings: where the services live, how
// long bounded requests may take, and the starting model variant.
type Config struct {
	// ServiceURL is the base URL serving the chat-stream, transcription
	// and extraction endpoints.
	ServiceURL string `env:"AVGCHAT_SERVICE_URL" envDefault:"http://localhost:3000"`

	// RequestTimeout bounds the transcription and extraction calls. The
	// chat stream itself has no deadline beyond the transport's.
	RequestTimeout time.Duration `env:"AVGCHAT_REQUEST_TIMEOUT" envDefault:"90s"`

	// DefaultModel is the model variant selected at startup.
	DefaultModel string `env:"AVGCHAT_MODEL" envDefault:"smart"`
}

// LoadConfig reads configuration from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if _, err := ParseModel(cfg.DefaultModel); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
