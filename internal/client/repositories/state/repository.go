// Package state persists what the CLI remembers between runs: who was
// logged in, their refresh token and the session they were chatting in.
package state

import "context"

const (
	KeyUsername      = "username"
	KeyRefreshToken  = "refresh_token"
	KeyActiveSession = "active_session"
)

type Repository interface {
	// Get returns "" when key is absent.
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}
