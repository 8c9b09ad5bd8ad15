// Package config provides configuration for go-voicemedia commands.
// Settings come from an optional YAML file with environment variable
// expansion, falling back to env vars and defaults.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults for the agent backend.
const (
	DefaultAgentURL = "http://localhost:8000"
	DefaultPushURL  = "ws://localhost:8000/ws/medias"
	DefaultLocale   = "zh-CN"
	DefaultRate     = 1.2
)

// Config holds all settings for the assistant and the dev agent.
type Config struct {
	Agent   AgentConfig   `yaml:"agent"`
	Speech  SpeechConfig  `yaml:"speech"`
	Session SessionConfig `yaml:"session"`
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
}

// AgentConfig locates the agent backend.
type AgentConfig struct {
	// BaseURL is the agent HTTP base, e.g. http://localhost:8000.
	BaseURL string `yaml:"base_url"`
	// PushURL is the media push websocket endpoint.
	PushURL string `yaml:"push_url"`
	// Reconnect enables automatic push channel reconnection.
	// The default is off: a failed channel stays closed until reopened.
	Reconnect         bool          `yaml:"reconnect"`
	ReconnectInterval time.Duration `yaml:"reconnect_interval"`
}

// SpeechConfig controls capture and narration.
type SpeechConfig struct {
	Locale     string  `yaml:"locale"`
	Rate       float64 `yaml:"rate"`
	Continuous bool    `yaml:"continuous"`
}

// SessionConfig controls the voice session controller.
type SessionConfig struct {
	// RequestTimeout bounds a single search request.
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// ServerConfig configures the dev agent server.
type ServerConfig struct {
	Port    string `yaml:"port"`
	Catalog string `yaml:"catalog"` // optional media catalog YAML
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads a YAML config file, expanding ${VAR} references.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.setDefaults()
	return &cfg, nil
}

// Default returns a Config built from env vars and defaults alone.
func Default() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

func (c *Config) setDefaults() {
	if c.Agent.BaseURL == "" {
		c.Agent.BaseURL = envOr("AGENT_URL", DefaultAgentURL)
	}
	if c.Agent.PushURL == "" {
		c.Agent.PushURL = envOr("AGENT_PUSH_URL", DefaultPushURL)
	}
	if c.Agent.ReconnectInterval == 0 {
		c.Agent.ReconnectInterval = 5 * time.Second
	}
	if c.Speech.Locale == "" {
		c.Speech.Locale = envOr("SPEECH_LOCALE", DefaultLocale)
	}
	if c.Speech.Rate == 0 {
		c.Speech.Rate = DefaultRate
	}
	if c.Session.RequestTimeout == 0 {
		c.Session.RequestTimeout = 15 * time.Second
	}
	if c.Server.Port == "" {
		c.Server.Port = envOr("AGENT_PORT", "8000")
	}
	if c.Log.Level == "" {
		c.Log.Level = envOr("LOG_LEVEL", "info")
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
