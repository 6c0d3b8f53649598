package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/gemspark/internal/flagx"
	"github.com/dmitrijs2005/gemspark/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is a DTO used exclusively for file unmarshalling. Zero values
// leave the current setting untouched.
type FileConfig struct {
	ServerEndpointAddr  string         `json:"server_endpoint_addr" yaml:"server_endpoint_addr"`
	RequestTimeout      timex.Duration `json:"request_timeout" yaml:"request_timeout"`
	TurnTimeout         timex.Duration `json:"turn_timeout" yaml:"turn_timeout"`
	StateDSN            string         `json:"state_dsn" yaml:"state_dsn"`
	OnlineCheckInterval timex.Duration `json:"online_check_interval" yaml:"online_check_interval"`
}

func parseFile(cfg *Config) error {
	path := flagx.ConfigFileFlag()
	if path == "" {
		return nil
	}
	fc, err := readFile(path)
	if err != nil {
		return err
	}
	fc.apply(cfg)
	return nil
}

func readFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	fc := &FileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, fc)
	default:
		err = json.Unmarshal(data, fc)
	}
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return fc, nil
}

func (fc *FileConfig) apply(c *Config) {
	if fc.ServerEndpointAddr != "" {
		c.ServerEndpointAddr = fc.ServerEndpointAddr
	}
	if fc.RequestTimeout.Duration > 0 {
		c.RequestTimeout = fc.RequestTimeout.Duration
	}
	if fc.TurnTimeout.Duration > 0 {
		c.TurnTimeout = fc.TurnTimeout.Duration
	}
	if fc.StateDSN != "" {
		c.StateDSN = fc.StateDSN
	}
	if fc.OnlineCheckInterval.Duration > 0 {
		c.OnlineCheckInterval = fc.OnlineCheckInterval.Duration
	}
}
