package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	// Service information
	Service struct {
		Name        string `yaml:"name"`
		Version     string `yaml:"version"`
		Environment string `yaml:"environment"`
	} `yaml:"service"`

	HTTP      HTTPConfig      `yaml:"http"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	Realtime  RealtimeConfig  `yaml:"realtime"`
	Store     StoreConfig     `yaml:"store"`
	Auth      AuthConfig      `yaml:"auth"`
}

// HTTPConfig represents HTTP server configuration
type HTTPConfig struct {
	Address         string        `yaml:"address"`
	BaseURL         string        `yaml:"base_url"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
}

// WebSocketConfig represents WebSocket gateway configuration
type WebSocketConfig struct {
	BufferSize     int           `yaml:"buffer_size"`
	MaxMessageSize int64         `yaml:"max_message_size"`
	WriteWait      time.Duration `yaml:"write_wait"`
	PongWait       time.Duration `yaml:"pong_wait"`
	PingPeriod     time.Duration `yaml:"ping_period"`

	// MessageRate bounds inbound cursor/drawing envelopes per client,
	// in messages per second. Burst is the number of messages a client may
	// send back to back.
	MessageRate  float64 `yaml:"message_rate"`
	MessageBurst int     `yaml:"message_burst"`
}

// RealtimeConfig holds the timing model of the loopback transport. The
// values mirror the simulated network the service coordinates against;
// tests shrink them.
type RealtimeConfig struct {
	ConnectLatency     time.Duration `yaml:"connect_latency"`
	ConnectWaitTimeout time.Duration `yaml:"connect_wait_timeout"`
	LoopbackDelay      time.Duration `yaml:"loopback_delay"`
	RosterNotifyDelay  time.Duration `yaml:"roster_notify_delay"`
	JoinWaitTimeout    time.Duration `yaml:"join_wait_timeout"`
	ConnectAttempts    int           `yaml:"connect_attempts"`
	ConnectBackoff     time.Duration `yaml:"connect_backoff"`
}

// StoreConfig represents local persistent store configuration
type StoreConfig struct {
	// Backend is "memory" or "file"
	Backend string `yaml:"backend"`
	DataDir string `yaml:"data_dir"`
}

// AuthConfig represents authentication configuration
type AuthConfig struct {
	JWTSecret     string        `yaml:"jwt_secret"`
	JWTExpiration time.Duration `yaml:"jwt_expiration"`
}

// Default returns the configuration defaults
func Default() *Config {
	config := &Config{
		HTTP: HTTPConfig{
			Address:         ":8090",
			BaseURL:         "http://localhost:8090",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			AllowedOrigins:  []string{"*"},
		},
		WebSocket: WebSocketConfig{
			BufferSize:     1024,
			MaxMessageSize: 64 * 1024,
			WriteWait:      10 * time.Second,
			PongWait:       60 * time.Second,
			PingPeriod:     30 * time.Second,
			MessageRate:    60,
			MessageBurst:   120,
		},
		Realtime: RealtimeConfig{
			ConnectLatency:     500 * time.Millisecond,
			ConnectWaitTimeout: 5 * time.Second,
			LoopbackDelay:      100 * time.Millisecond,
			RosterNotifyDelay:  100 * time.Millisecond,
			JoinWaitTimeout:    10 * time.Second,
			ConnectAttempts:    3,
			ConnectBackoff:     500 * time.Millisecond,
		},
		Store: StoreConfig{
			Backend: "file",
			DataDir: "./data",
		},
		Auth: AuthConfig{
			JWTSecret:     "dev-secret-change-me",
			JWTExpiration: 24 * time.Hour,
		},
	}
	config.Service.Name = "boardhive"
	config.Service.Environment = "development"
	return config
}

// Load loads the configuration from a file
func Load(path string) (*Config, error) {
	config := Default()

	// Read the configuration file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse the configuration
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply environment overrides
	applyEnvironmentOverrides(config)

	return config, nil
}

// applyEnvironmentOverrides applies environment overrides
func applyEnvironmentOverrides(config *Config) {
	if addr := os.Getenv("HTTP_ADDRESS"); addr != "" {
		config.HTTP.Address = addr
	}

	if base := os.Getenv("BASE_URL"); base != "" {
		config.HTTP.BaseURL = base
	}

	if dir := os.Getenv("DATA_DIR"); dir != "" {
		config.Store.DataDir = dir
	}

	if backend := os.Getenv("STORE_BACKEND"); backend != "" {
		config.Store.Backend = backend
	}

	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		config.Auth.JWTSecret = secret
	}

	if env := os.Getenv("ENVIRONMENT"); env != "" {
		config.Service.Environment = env
	}
}
