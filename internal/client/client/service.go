package client

import (
	"context"

	"github.com/dmitrijs2005/gemspark/internal/api"
)

type Client interface {
	Close() error
	Register(ctx context.Context, username, password string) error
	Login(ctx context.Context, username, password string) error
	// Resume logs in again with a refresh token kept from an earlier run.
	Resume(ctx context.Context, refreshToken string) error
	Logout()
	RefreshTokenValue() string
	Ping(ctx context.Context) error

	ListSessions(ctx context.Context) ([]api.Session, error)
	CreateSession(ctx context.Context, name string) (*api.Session, error)
	NewChat(ctx context.Context) (*api.Session, error)
	EnsureDefaultSession(ctx context.Context) (*api.Session, error)
	RenameSession(ctx context.Context, sessionID, name string) error
	DeleteSession(ctx context.Context, sessionID string) error
	History(ctx context.Context, sessionID string) ([]api.Message, error)
	Export(ctx context.Context, sessionID string) (string, error)
	// SubmitTurn streams reply fragments to onFragment and returns the
	// final event once the server has saved the turn.
	SubmitTurn(ctx context.Context, sessionID, prompt string, onFragment func(string)) (*api.TurnEvent, error)
}
