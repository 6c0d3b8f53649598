package config

import (
	"flag"
	"time"

	"github.com/dmitrijs2005/gemspark/internal/flagx"
)

var knownFlags = []string{
	"-a", "-d", "-s", "-t", "-r", "-u", "-p", "-b", "-g", "-e",
	"-storage", "-bcrypt-cost",
	"-model-provider", "-model", "-model-key", "-model-url", "-model-timeout", "-window",
	"-store-retries", "-store-backoff",
	"-log-format", "-log-level",
}

// parseFlags overlays command-line flags onto config.
//
// Short forms kept from the original server:
//
//	-a string   gRPC bind address (e.g., ":50051")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-t int      access token validity, minutes
//	-r int      refresh token validity, minutes
//	-u/-p/-b/-g/-e  S3 user, password, bucket, region, base endpoint
//
// Arguments not in knownFlags are dropped first so that -c and flags of
// other components do not cause parse errors.
func parseFlags(config *Config, osArgs []string) error {
	args := flagx.FilterArgs(osArgs, knownFlags)

	fs := flag.NewFlagSet("gemspark-server", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	accessTokenValidityDuration := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access_token_validity_duration (in minutes)")
	refreshTokenValidityDuration := fs.Int("r", int(config.RefreshTokenValidityDuration.Minutes()), "refresh_token_validity_duration (in minutes)")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket for transcript export (empty disables export)")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	fs.StringVar(&config.StorageBackend, "storage", config.StorageBackend, "storage backend: postgres or memory")
	fs.IntVar(&config.BcryptCost, "bcrypt-cost", config.BcryptCost, "bcrypt cost")

	fs.StringVar(&config.ModelProvider, "model-provider", config.ModelProvider, "gemini, openai, anthropic or echo")
	fs.StringVar(&config.ModelName, "model", config.ModelName, "model name")
	fs.StringVar(&config.ModelAPIKey, "model-key", config.ModelAPIKey, "model API key or env:NAME")
	fs.StringVar(&config.ModelBaseURL, "model-url", config.ModelBaseURL, "model API base URL")
	fs.DurationVar(&config.ModelTimeout, "model-timeout", config.ModelTimeout, "timeout for one model call")
	fs.IntVar(&config.HistoryWindow, "window", config.HistoryWindow, "number of trailing messages sent as history")

	fs.Uint64Var(&config.StoreRetries, "store-retries", config.StoreRetries, "retries for transient store errors")
	fs.DurationVar(&config.StoreRetryBackoff, "store-backoff", config.StoreRetryBackoff, "initial retry backoff")

	fs.StringVar(&config.LogFormat, "log-format", config.LogFormat, "json, text or zap")
	fs.StringVar(&config.LogLevel, "log-level", config.LogLevel, "debug, info, warn or error")

	if err := fs.Parse(args); err != nil {
		return err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			config.AccessTokenValidityDuration = time.Duration(*accessTokenValidityDuration) * time.Minute
		case "r":
			config.RefreshTokenValidityDuration = time.Duration(*refreshTokenValidityDuration) * time.Minute
		}
	})
	return nil
}
