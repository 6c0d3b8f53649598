// Package services contains application services for the GemSpark CLI.
// This file defines the authentication service: register, login, resuming
// a remembered login and logout, keeping the local state database in step.
package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gemspark/internal/client/client"
	"github.com/dmitrijs2005/gemspark/internal/client/repositories/state"
	"github.com/dmitrijs2005/gemspark/internal/common"
	"github.com/dmitrijs2005/gemspark/internal/dbx"
)

// AuthService defines authentication operations for the CLI.
//
// All methods must honor context cancellation/timeouts.
type AuthService interface {
	Register(ctx context.Context, username string, password []byte) error
	Login(ctx context.Context, username string, password []byte) error
	// Resume logs in with the remembered refresh token. It returns the
	// remembered username, or "" when there was nothing to resume.
	Resume(ctx context.Context) (string, error)
	// Checkpoint stores the current refresh token, which rotates on use.
	Checkpoint(ctx context.Context) error
	Logout(ctx context.Context) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

type authService struct {
	client client.Client
	db     *sql.DB
}

func NewAuthService(client client.Client, db *sql.DB) AuthService {
	return &authService{client: client, db: db}
}

func (a *authService) getStateRepo(db dbx.DBTX) state.Repository {
	return state.NewSQLiteRepository(db)
}

func validateCredentials(username string, password []byte) error {
	if strings.TrimSpace(username) == "" || len(password) == 0 {
		return fmt.Errorf("%w: username and password are required", common.ErrValidation)
	}
	return nil
}

func (a *authService) Register(ctx context.Context, username string, password []byte) error {
	if err := validateCredentials(username, password); err != nil {
		return err
	}
	return a.client.Register(ctx, username, string(password))
}

// Login authenticates against the server and remembers the user and their
// refresh token. A different user's active session is forgotten.
func (a *authService) Login(ctx context.Context, username string, password []byte) error {
	if err := validateCredentials(username, password); err != nil {
		return err
	}
	if err := a.client.Login(ctx, username, string(password)); err != nil {
		return err
	}

	return dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := a.getStateRepo(tx)
		prev, err := repo.Get(ctx, state.KeyUsername)
		if err != nil {
			return err
		}
		if prev != username {
			if err := repo.Delete(ctx, state.KeyActiveSession); err != nil {
				return err
			}
		}
		if err := repo.Set(ctx, state.KeyUsername, username); err != nil {
			return err
		}
		return repo.Set(ctx, state.KeyRefreshToken, a.client.RefreshTokenValue())
	})
}

func (a *authService) Resume(ctx context.Context) (string, error) {
	repo := a.getStateRepo(a.db)

	token, err := repo.Get(ctx, state.KeyRefreshToken)
	if err != nil || token == "" {
		return "", err
	}
	username, err := repo.Get(ctx, state.KeyUsername)
	if err != nil {
		return "", err
	}

	if err := a.client.Resume(ctx, token); err != nil {
		// the token is spent or expired either way
		_ = repo.Delete(ctx, state.KeyRefreshToken)
		return "", err
	}
	if err := a.Checkpoint(ctx); err != nil {
		return "", err
	}
	return username, nil
}

func (a *authService) Checkpoint(ctx context.Context) error {
	token := a.client.RefreshTokenValue()
	if token == "" {
		return nil
	}
	return a.getStateRepo(a.db).Set(ctx, state.KeyRefreshToken, token)
}

// Logout forgets the tokens locally and on disk. The username is kept as
// a hint for the next login.
func (a *authService) Logout(ctx context.Context) error {
	a.client.Logout()
	return dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := a.getStateRepo(tx)
		if err := repo.Delete(ctx, state.KeyRefreshToken); err != nil {
			return err
		}
		return repo.Delete(ctx, state.KeyActiveSession)
	})
}

// Ping proxies a liveness check to the underlying client.
func (a *authService) Ping(ctx context.Context) error {
	return a.client.Ping(ctx)
}

// Close releases resources held by the underlying client.
func (a *authService) Close(ctx context.Context) error {
	return a.client.Close()
}
