// Package common contains shared constants and sentinel errors used across
// GemSpark components.
package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on outbound requests.
const AccessTokenHeaderName = "access_token"

// DefaultSessionName is the name given to the session that is created
// lazily when a user has none.
const DefaultSessionName = "First Chat"
