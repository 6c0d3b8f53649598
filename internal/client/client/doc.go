// Package client contains client-side building blocks for GemSpark.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic API contract (see the Client interface) to talk
//     to the GemSpark server: accounts, sessions, history, export and
//     streamed chat turns.
//  2. A concrete gRPC implementation (see GRPCClient) that manages a
//     connection, injects the access token via an interceptor, transparently
//     refreshes expired tokens, and maps gRPC status codes to sentinel errors.
//  3. Local state bootstrap (InitDatabase, RunMigrations) for the CLI,
//     wiring an SQLite database and applying embedded goose migrations.
//
// # Error Handling
//
// Transport conditions are exposed as ErrUnavailable and ErrUnauthorized.
// Domain failures reported by the server come back as the matching
// sentinels of package common (ErrUsernameTaken, ErrSessionNotFound, ...),
// so callers use errors.Is throughout.
package client
