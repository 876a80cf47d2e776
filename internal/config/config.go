package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
)

const (
	DefaultBaseURL     = "http://localhost:10000"
	DefaultGatewayAddr = "127.0.0.1:8080"
	DefaultPlayer      = "ffplay -nodisp -autoexit -loglevel quiet"
)

// Config aggregates the client configuration.
type Config struct {
	Backend BackendConfig
	Gateway GatewayConfig
	Voice   VoiceConfig
	State   StateConfig
	UI      UIConfig
	Log     LogConfig
}

// BackendConfig points at the Shanvika server.
type BackendConfig struct {
	BaseURL string `env:"SHANVIKA_BASE_URL"`
}

// GatewayConfig describes the local HTTP gateway.
type GatewayConfig struct {
	Addr           string   `env:"SHANVIKA_GATEWAY_ADDR"`
	AllowedOrigins []string `env:"SHANVIKA_ALLOWED_ORIGINS" envSeparator:","`
}

// VoiceConfig controls spoken replies.
type VoiceConfig struct {
	Enabled bool   `env:"SHANVIKA_VOICE"`
	Player  string `env:"SHANVIKA_AUDIO_PLAYER"`
}

// StateConfig locates the local state database.
type StateConfig struct {
	DBPath string `env:"SHANVIKA_STATE_DB"`
}

// UIConfig tunes rendering.
type UIConfig struct {
	ToolsFile      string `env:"SHANVIKA_TOOLS_FILE"`
	MarkdownStyle  string `env:"SHANVIKA_MARKDOWN_STYLE"`
	HighlightStyle string `env:"SHANVIKA_HIGHLIGHT_STYLE"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level string `env:"SHANVIKA_LOG_LEVEL"`
	File  string `env:"SHANVIKA_LOG_FILE"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Backend: BackendConfig{BaseURL: DefaultBaseURL},
		Gateway: GatewayConfig{Addr: DefaultGatewayAddr, AllowedOrigins: []string{"*"}},
		Voice:   VoiceConfig{Player: DefaultPlayer},
		State:   StateConfig{DBPath: defaultStatePath()},
		UI:      UIConfig{MarkdownStyle: "auto", HighlightStyle: "github-dark"},
		Log:     LogConfig{Level: "info"},
	}
}

// Load reads the configuration from the environment on top of Default.
func Load() (*Config, error) {
	cfg := Default()
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if os.Getenv("SHANVIKA_GATEWAY_ADDR") == "" {
		if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
			addr, err := addrFromPort(port)
			if err != nil {
				return nil, err
			}
			cfg.Gateway.Addr = addr
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would only fail later at use.
func (c *Config) Validate() error {
	base := strings.TrimRight(strings.TrimSpace(c.Backend.BaseURL), "/")
	u, err := url.Parse(base)
	if err != nil {
		return fmt.Errorf("invalid SHANVIKA_BASE_URL %q: %w", c.Backend.BaseURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid SHANVIKA_BASE_URL %q: want http(s)://host[:port]", c.Backend.BaseURL)
	}
	c.Backend.BaseURL = base

	if strings.TrimSpace(c.Gateway.Addr) == "" {
		return errors.New("gateway address is empty")
	}
	return nil
}

// addrFromPort accepts "8080", ":8080" or "127.0.0.1:8080".
func addrFromPort(port string) (string, error) {
	if strings.Contains(port, ":") {
		return port, nil
	}
	if strings.Contains(port, " ") {
		return "", fmt.Errorf("invalid PORT value: %q", port)
	}
	return ":" + port, nil
}

func defaultStatePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "shanvika", "state.db")
}
