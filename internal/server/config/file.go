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

// FileConfig mirrors Config for JSON and YAML files. Durations accept both
// "1m" strings and integer nanoseconds. Zero values leave the current
// setting untouched.
type FileConfig struct {
	EndpointAddrGRPC             string         `json:"endpoint_addr_grpc" yaml:"endpoint_addr_grpc"`
	StorageBackend               string         `json:"storage_backend" yaml:"storage_backend"`
	DatabaseDSN                  string         `json:"database_dsn" yaml:"database_dsn"`
	SecretKey                    string         `json:"secret_key" yaml:"secret_key"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration" yaml:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration" yaml:"refresh_token_validity_duration"`
	BcryptCost                   int            `json:"bcrypt_cost" yaml:"bcrypt_cost"`
	ModelProvider                string         `json:"model_provider" yaml:"model_provider"`
	ModelName                    string         `json:"model_name" yaml:"model_name"`
	ModelAPIKey                  string         `json:"model_api_key" yaml:"model_api_key"`
	ModelBaseURL                 string         `json:"model_base_url" yaml:"model_base_url"`
	ModelTimeout                 timex.Duration `json:"model_timeout" yaml:"model_timeout"`
	HistoryWindow                int            `json:"history_window" yaml:"history_window"`
	StoreRetries                 uint64         `json:"store_retries" yaml:"store_retries"`
	StoreRetryBackoff            timex.Duration `json:"store_retry_backoff" yaml:"store_retry_backoff"`
	S3RootUser                   string         `json:"s3_root_user" yaml:"s3_root_user"`
	S3RootPassword               string         `json:"s3_root_password" yaml:"s3_root_password"`
	S3Bucket                     string         `json:"s3_bucket" yaml:"s3_bucket"`
	S3Region                     string         `json:"s3_region" yaml:"s3_region"`
	S3BaseEndpoint               string         `json:"s3_base_endpoint" yaml:"s3_base_endpoint"`
	LogFormat                    string         `json:"log_format" yaml:"log_format"`
	LogLevel                     string         `json:"log_level" yaml:"log_level"`
}

// parseFile overlays the file named by -c/-config, if any.
func parseFile(config *Config) error {
	path := flagx.ConfigFileFlag()
	if path == "" {
		return nil
	}
	fc, err := readFile(path)
	if err != nil {
		return err
	}
	fc.apply(config)
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
	setString(&c.EndpointAddrGRPC, fc.EndpointAddrGRPC)
	setString(&c.StorageBackend, fc.StorageBackend)
	setString(&c.DatabaseDSN, fc.DatabaseDSN)
	setString(&c.SecretKey, fc.SecretKey)
	if fc.AccessTokenValidityDuration.Duration > 0 {
		c.AccessTokenValidityDuration = fc.AccessTokenValidityDuration.Duration
	}
	if fc.RefreshTokenValidityDuration.Duration > 0 {
		c.RefreshTokenValidityDuration = fc.RefreshTokenValidityDuration.Duration
	}
	if fc.BcryptCost > 0 {
		c.BcryptCost = fc.BcryptCost
	}
	setString(&c.ModelProvider, fc.ModelProvider)
	setString(&c.ModelName, fc.ModelName)
	setString(&c.ModelAPIKey, fc.ModelAPIKey)
	setString(&c.ModelBaseURL, fc.ModelBaseURL)
	if fc.ModelTimeout.Duration > 0 {
		c.ModelTimeout = fc.ModelTimeout.Duration
	}
	if fc.HistoryWindow > 0 {
		c.HistoryWindow = fc.HistoryWindow
	}
	if fc.StoreRetries > 0 {
		c.StoreRetries = fc.StoreRetries
	}
	if fc.StoreRetryBackoff.Duration > 0 {
		c.StoreRetryBackoff = fc.StoreRetryBackoff.Duration
	}
	setString(&c.S3RootUser, fc.S3RootUser)
	setString(&c.S3RootPassword, fc.S3RootPassword)
	setString(&c.S3Bucket, fc.S3Bucket)
	setString(&c.S3Region, fc.S3Region)
	setString(&c.S3BaseEndpoint, fc.S3BaseEndpoint)
	setString(&c.LogFormat, fc.LogFormat)
	setString(&c.LogLevel, fc.LogLevel)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
