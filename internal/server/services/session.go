package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gemspark/internal/common"
	"github.com/dmitrijs2005/gemspark/internal/dbx"
	"github.com/dmitrijs2005/gemspark/internal/logging"
	"github.com/dmitrijs2005/gemspark/internal/server/models"
	"github.com/google/uuid"
)

// SessionService manages the per-user directory of chat sessions. Every
// session is created together with an empty transcript and deleted
// together with it.
type SessionService struct {
	store  Store
	logger logging.Logger
}

func NewSessionService(store Store, logger logging.Logger) *SessionService {
	return &SessionService{store: store, logger: logger.With("module", "sessions")}
}

// CreateSession stores a new session named name for userID and provisions
// its empty transcript in the same transaction.
func (s *SessionService) CreateSession(ctx context.Context, userID, name string) (*models.ChatSession, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: session name is required", common.ErrValidation)
	}
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	var created *models.ChatSession
	err = s.store.inTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		cs, err := s.store.Repos.Sessions(tx).Create(ctx, &models.ChatSession{ID: id.String(), UserID: userID, Name: name})
		if err != nil {
			return err
		}
		if err := s.store.Repos.Transcripts(tx).Save(ctx, cs.ID, []models.Message{}); err != nil {
			return err
		}
		created = cs
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: unknown user", common.ErrorUnauthorized)
		}
		return nil, fmt.Errorf("error creating session: %w", err)
	}

	s.logger.Info(ctx, "session created", "user_id", userID, "session_id", created.ID)
	return created, nil
}

// ListSessions returns the user's sessions in creation order.
func (s *SessionService) ListSessions(ctx context.Context, userID string) ([]models.ChatSession, error) {
	var list []models.ChatSession
	err := s.store.run(ctx, func(ctx context.Context) error {
		var err error
		list, err = s.store.Repos.Sessions(s.store.DB).ListByUser(ctx, userID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("error listing sessions: %w", err)
	}
	return list, nil
}

// RenameSession changes only the display name.
func (s *SessionService) RenameSession(ctx context.Context, userID, sessionID, newName string) error {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return fmt.Errorf("%w: session name is required", common.ErrValidation)
	}
	err := s.store.run(ctx, func(ctx context.Context) error {
		return s.store.Repos.Sessions(s.store.DB).Rename(ctx, userID, sessionID, newName)
	})
	if err != nil {
		return sessionErr("renaming", err)
	}
	s.logger.Info(ctx, "session renamed", "user_id", userID, "session_id", sessionID)
	return nil
}

// DeleteSession removes the transcript and then the session in one
// transaction.
func (s *SessionService) DeleteSession(ctx context.Context, userID, sessionID string) error {
	err := s.store.inTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.store.Repos.Sessions(tx).Get(ctx, userID, sessionID); err != nil {
			return err
		}
		if err := s.store.Repos.Transcripts(tx).Delete(ctx, sessionID); err != nil {
			return err
		}
		return s.store.Repos.Sessions(tx).Delete(ctx, userID, sessionID)
	})
	if err != nil {
		return sessionErr("deleting", err)
	}
	s.logger.Info(ctx, "session deleted", "user_id", userID, "session_id", sessionID)
	return nil
}

// EnsureDefaultSession returns the first session of the user, creating
// "First Chat" when there is none.
func (s *SessionService) EnsureDefaultSession(ctx context.Context, userID string) (*models.ChatSession, error) {
	list, err := s.ListSessions(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(list) > 0 {
		return &list[0], nil
	}
	return s.CreateSession(ctx, userID, common.DefaultSessionName)
}

// NewChat creates a session named "Chat N", N being one more than the
// number of sessions the user has.
func (s *SessionService) NewChat(ctx context.Context, userID string) (*models.ChatSession, error) {
	var n int
	err := s.store.run(ctx, func(ctx context.Context) error {
		var err error
		n, err = s.store.Repos.Sessions(s.store.DB).Count(ctx, userID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("error counting sessions: %w", err)
	}
	return s.CreateSession(ctx, userID, fmt.Sprintf("Chat %d", n+1))
}

// Get returns the session when userID owns it.
func (s *SessionService) Get(ctx context.Context, userID, sessionID string) (*models.ChatSession, error) {
	var cs *models.ChatSession
	err := s.store.run(ctx, func(ctx context.Context) error {
		var err error
		cs, err = s.store.Repos.Sessions(s.store.DB).Get(ctx, userID, sessionID)
		return err
	})
	if err != nil {
		return nil, sessionErr("loading", err)
	}
	return cs, nil
}

// History returns the transcript of a session owned by userID.
func (s *SessionService) History(ctx context.Context, userID, sessionID string) ([]models.Message, error) {
	if _, err := s.Get(ctx, userID, sessionID); err != nil {
		return nil, err
	}
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

func sessionErr(op string, err error) error {
	if errors.Is(err, common.ErrorNotFound) || errors.Is(err, common.ErrSessionNotFound) {
		return common.ErrSessionNotFound
	}
	return fmt.Errorf("error %s session: %w", op, err)
}
