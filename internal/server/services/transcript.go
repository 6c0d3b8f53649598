package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gemspark/internal/server/models"
)

// TranscriptService reads and overwrites whole transcripts. It does not
// check ownership or validate roles; callers do.
type TranscriptService struct {
	store Store
}

func NewTranscriptService(store Store) *TranscriptService {
	return &TranscriptService{store: store}
}

// GetHistory returns the stored messages, empty when nothing was saved yet.
func (s *TranscriptService) GetHistory(ctx context.Context, sessionID string) ([]models.Message, error) {
	var msgs []models.Message
	err := s.store.run(ctx, func(ctx context.Context) error {
		var err error
		msgs, err = s.store.Repos.Transcripts(s.store.DB).Get(ctx, sessionID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("error loading transcript: %w", err)
	}
	return msgs, nil
}

// SaveHistory replaces the transcript with messages.
func (s *TranscriptService) SaveHistory(ctx context.Context, sessionID string, messages []models.Message) error {
	err := s.store.run(ctx, func(ctx context.Context) error {
		return s.store.Repos.Transcripts(s.store.DB).Save(ctx, sessionID, messages)
	})
	if err != nil {
		return fmt.Errorf("error saving transcript: %w", err)
	}
	return nil
}
