package config

import (
	"fmt"
	"os"
	"time"
)

// Config holds runtime settings for the GemSpark CLI.
//
// Fields:
//   - ServerEndpointAddr: host:port of the backend gRPC endpoint.
//   - RequestTimeout: deadline of every call except chat turns.
//   - TurnTimeout: deadline of a chat turn; replies can take a while.
//   - StateDSN: SQLite database remembering the login and active session.
//   - OnlineCheckInterval: how often the client probes server reachability.
type Config struct {
	ServerEndpointAddr  string
	RequestTimeout      time.Duration
	TurnTimeout         time.Duration
	StateDSN            string
	OnlineCheckInterval time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.RequestTimeout = 10 * time.Second
	c.TurnTimeout = 3 * time.Minute
	c.StateDSN = "gemspark.db"
	c.OnlineCheckInterval = 3 * time.Second
}

// Validate rejects settings the CLI cannot run with.
func (c *Config) Validate() error {
	if c.ServerEndpointAddr == "" {
		return fmt.Errorf("server address is required")
	}
	if c.RequestTimeout <= 0 || c.TurnTimeout <= 0 || c.OnlineCheckInterval <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	return nil
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// a config file (if present) and command-line flags (if present). Later
// sources take precedence over earlier ones.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseFile(cfg); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, os.Args[1:]); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
