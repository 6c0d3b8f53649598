// Package transcripts persists the ordered message list of each chat session.
package transcripts

import (
	"context"

	"github.com/dmitrijs2005/gemspark/internal/server/models"
)

type Repository interface {
	// Get returns the stored messages, or an empty non-nil slice when the
	// session has no transcript yet.
	Get(ctx context.Context, sessionID string) ([]models.Message, error)
	// Save replaces the whole transcript. common.ErrSessionNotFound when the
	// session does not exist.
	Save(ctx context.Context, sessionID string, messages []models.Message) error
	// Delete is a no-op when no transcript exists.
	Delete(ctx context.Context, sessionID string) error
}
