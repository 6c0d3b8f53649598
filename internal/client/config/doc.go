// Package config loads runtime configuration for the GemSpark CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON or YAML file selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string              address:port of the backend gRPC endpoint
//	-timeout duration      deadline of ordinary requests
//	-turn-timeout duration deadline of one chat turn, reply included
//	-state string          path of the local state database
//	-i int                 online status check interval (seconds)
//
// # File schema
//
// Durations use timex.Duration, so values can be either strings like "30s"
// or integer nanoseconds:
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "request_timeout": "10s",
//	  "turn_timeout": "3m",
//	  "state_dsn": "gemspark.db",
//	  "online_check_interval": "3s"
//	}
package config
