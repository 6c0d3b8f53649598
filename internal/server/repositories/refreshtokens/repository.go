// Package refreshtokens stores the opaque refresh tokens handed out at login.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gemspark/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, token *models.RefreshToken) error

	// Find returns common.ErrorNotFound when the token is unknown.
	Find(ctx context.Context, token string) (*models.RefreshToken, error)

	// Delete is a no-op for unknown tokens.
	Delete(ctx context.Context, token string) error

	// DeleteExpired removes every token of userID that expired before now
	// and reports how many rows went away.
	DeleteExpired(ctx context.Context, userID string, now time.Time) (int64, error)
}
