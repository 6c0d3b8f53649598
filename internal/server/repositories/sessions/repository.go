// Package sessions persists the chat session directory.
package sessions

import (
	"context"

	"github.com/dmitrijs2005/gemspark/internal/server/models"
)

// Repository stores chat sessions. Every read and write except Create is
// scoped to the owning user; a session owned by someone else is reported
// as common.ErrorNotFound.
type Repository interface {
	// Create inserts s and fills in Seq and CreatedAt.
	Create(ctx context.Context, s *models.ChatSession) (*models.ChatSession, error)
	// ListByUser returns the user's sessions in creation order.
	ListByUser(ctx context.Context, userID string) ([]models.ChatSession, error)
	Get(ctx context.Context, userID, id string) (*models.ChatSession, error)
	Count(ctx context.Context, userID string) (int, error)
	Rename(ctx context.Context, userID, id, name string) error
	Delete(ctx context.Context, userID, id string) error
}
