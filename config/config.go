package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultPort           = 3000
	DefaultRoom           = "general"
	DefaultSendBuffer     = 256
	DefaultMaxMessageSize = 4096
	DefaultWriteWait      = 10 * time.Second
	DefaultPongWait       = 60 * time.Second
	DefaultBackoffMin     = 1 * time.Second
	DefaultBackoffMax     = 30 * time.Second
	DefaultLiveEndpoint   = "wss://tiktok-live-events.example.com/live/%s"
)

// Config is the top-level configuration for the relay.
// Fields map 1:1 to config.example.yaml.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Hub    HubConfig    `yaml:"hub"`
	Live   LiveConfig   `yaml:"live"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	// Port is the port the REST API and WebSocket hub listen on.
	Port int `yaml:"port"`

	// Ngrok enables the optional public tunnel instead of a local listener.
	Ngrok bool `yaml:"ngrok"`
}

// HubConfig holds the WebSocket hub settings.
type HubConfig struct {
	// DefaultRoom is the room every connection joins automatically.
	DefaultRoom string `yaml:"default_room"`

	// SendBuffer is the per-connection outbound queue length. Frames beyond
	// it are dropped rather than blocking the hub.
	SendBuffer int `yaml:"send_buffer"`

	// MaxMessageSize caps inbound frame size in bytes.
	MaxMessageSize int64 `yaml:"max_message_size"`

	// WriteWait is the per-write deadline.
	WriteWait time.Duration `yaml:"write_wait"`

	// PongWait is how long a connection may stay silent before it is
	// considered dead. Pings are sent at a fraction of this interval.
	PongWait time.Duration `yaml:"pong_wait"`
}

// LiveConfig holds the external live-event source settings.
type LiveConfig struct {
	// Enabled turns the live bridge on. When false, tiktok-connect requests
	// are answered with an error envelope.
	Enabled bool `yaml:"enabled"`

	// Endpoint is the upstream WebSocket URL template. A %s placeholder is
	// replaced with the escaped username.
	Endpoint string `yaml:"endpoint"`

	// BackoffMin and BackoffMax bound the jittered reconnect delay.
	BackoffMin time.Duration `yaml:"backoff_min"`
	BackoffMax time.Duration `yaml:"backoff_max"`
}

// Load reads and parses the YAML config file at path, then applies
// environment overrides. Missing optional fields are filled with defaults.
// An empty path skips the file and returns defaults plus overrides, so the
// relay runs without any config file at all.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse yaml: %w", err)
		}
	}

	applyEnv(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port: DefaultPort,
		},
		Hub: HubConfig{
			DefaultRoom:    DefaultRoom,
			SendBuffer:     DefaultSendBuffer,
			MaxMessageSize: DefaultMaxMessageSize,
			WriteWait:      DefaultWriteWait,
			PongWait:       DefaultPongWait,
		},
		Live: LiveConfig{
			Enabled:    true,
			Endpoint:   DefaultLiveEndpoint,
			BackoffMin: DefaultBackoffMin,
			BackoffMax: DefaultBackoffMax,
		},
	}
}

// applyEnv overlays environment variables on top of the file values.
func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("USE_NGROK"); v == "true" {
		cfg.Server.Ngrok = true
	}
	if v := os.Getenv("DEFAULT_ROOM"); v != "" {
		cfg.Hub.DefaultRoom = v
	}
	if v := os.Getenv("TIKTOK_LIVE_ENDPOINT"); v != "" {
		cfg.Live.Endpoint = v
	}
	if v := os.Getenv("TIKTOK_LIVE_ENABLED"); v == "false" {
		cfg.Live.Enabled = false
	}
}

// validate checks required fields and structural constraints.
func validate(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if cfg.Hub.DefaultRoom == "" {
		return fmt.Errorf("hub.default_room is required")
	}
	if cfg.Hub.SendBuffer <= 0 {
		return fmt.Errorf("hub.send_buffer must be positive")
	}
	if cfg.Hub.MaxMessageSize <= 0 {
		return fmt.Errorf("hub.max_message_size must be positive")
	}
	if cfg.Hub.WriteWait <= 0 {
		return fmt.Errorf("hub.write_wait must be positive")
	}
	if cfg.Hub.PongWait <= 0 {
		return fmt.Errorf("hub.pong_wait must be positive")
	}
	if cfg.Live.Enabled && cfg.Live.Endpoint == "" {
		return fmt.Errorf("live.endpoint is required when live is enabled")
	}
	if cfg.Live.BackoffMin <= 0 || cfg.Live.BackoffMax < cfg.Live.BackoffMin {
		return fmt.Errorf("live backoff bounds must satisfy 0 < min <= max")
	}
	return nil
}
