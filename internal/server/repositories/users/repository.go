// Package users persists registered accounts.
package users

import (
	"context"

	"github.com/dmitrijs2005/gemspark/internal/server/models"
)

type Repository interface {
	// Create inserts user and returns it. A duplicate username yields
	// common.ErrUsernameTaken.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	// GetUserByLogin looks a user up by exact username; common.ErrorNotFound
	// if absent.
	GetUserByLogin(ctx context.Context, userName string) (*models.User, error)
}
