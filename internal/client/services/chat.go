package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/gemspark/internal/api"
	"github.com/dmitrijs2005/gemspark/internal/client/client"
	"github.com/dmitrijs2005/gemspark/internal/client/repositories/state"
	"github.com/dmitrijs2005/gemspark/internal/common"
)

// ChatService keeps track of the active session and runs chat commands
// against it.
//
// The active session is either unset or one session id. Listing picks the
// remembered session when it still exists, otherwise position 0, and
// creates "First Chat" for a user with no sessions. Creating a chat makes
// it active; deleting the active session selects afresh.
type ChatService interface {
	Sessions(ctx context.Context) ([]api.Session, error)
	Active(ctx context.Context) (*api.Session, error)
	// Use activates the n-th session of Sessions, counting from 1.
	Use(ctx context.Context, n int) (*api.Session, error)
	NewChat(ctx context.Context, name string) (*api.Session, error)
	Rename(ctx context.Context, name string) (*api.Session, error)
	Delete(ctx context.Context) (*api.Session, error)
	History(ctx context.Context) ([]api.Message, error)
	Export(ctx context.Context) (string, error)
	Send(ctx context.Context, prompt string, onFragment func(string)) (*api.TurnEvent, error)
}

type chatService struct {
	client client.Client
	state  state.Repository
}

func NewChatService(client client.Client, db *sql.DB) ChatService {
	return &chatService{client: client, state: state.NewSQLiteRepository(db)}
}

func (c *chatService) Sessions(ctx context.Context) ([]api.Session, error) {
	return c.client.ListSessions(ctx)
}

func (c *chatService) activate(ctx context.Context, s *api.Session) (*api.Session, error) {
	if err := c.state.Set(ctx, state.KeyActiveSession, s.ID); err != nil {
		return nil, err
	}
	return s, nil
}

func (c *chatService) Active(ctx context.Context) (*api.Session, error) {
	list, err := c.client.ListSessions(ctx)
	if err != nil {
		return nil, err
	}

	activeID, err := c.state.Get(ctx, state.KeyActiveSession)
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].ID == activeID {
			return &list[i], nil
		}
	}

	if len(list) > 0 {
		return c.activate(ctx, &list[0])
	}

	s, err := c.client.EnsureDefaultSession(ctx)
	if err != nil {
		return nil, err
	}
	return c.activate(ctx, s)
}

func (c *chatService) Use(ctx context.Context, n int) (*api.Session, error) {
	list, err := c.client.ListSessions(ctx)
	if err != nil {
		return nil, err
	}
	if n < 1 || n > len(list) {
		return nil, fmt.Errorf("%w: no session #%d", common.ErrValidation, n)
	}
	return c.activate(ctx, &list[n-1])
}

// NewChat creates a session, named "Chat N" by the server when name is
// empty, and makes it active.
func (c *chatService) NewChat(ctx context.Context, name string) (*api.Session, error) {
	var s *api.Session
	var err error
	if name == "" {
		s, err = c.client.NewChat(ctx)
	} else {
		s, err = c.client.CreateSession(ctx, name)
	}
	if err != nil {
		return nil, err
	}
	return c.activate(ctx, s)
}

func (c *chatService) Rename(ctx context.Context, name string) (*api.Session, error) {
	s, err := c.Active(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.client.RenameSession(ctx, s.ID, name); err != nil {
		return nil, err
	}
	s.Name = name
	return s, nil
}

// Delete removes the active session and returns the newly selected one.
func (c *chatService) Delete(ctx context.Context) (*api.Session, error) {
	s, err := c.Active(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.client.DeleteSession(ctx, s.ID); err != nil {
		return nil, err
	}
	if err := c.state.Delete(ctx, state.KeyActiveSession); err != nil {
		return nil, err
	}
	return c.Active(ctx)
}

func (c *chatService) History(ctx context.Context) ([]api.Message, error) {
	s, err := c.Active(ctx)
	if err != nil {
		return nil, err
	}
	return c.client.History(ctx, s.ID)
}

func (c *chatService) Export(ctx context.Context) (string, error) {
	s, err := c.Active(ctx)
	if err != nil {
		return "", err
	}
	return c.client.Export(ctx, s.ID)
}

// Send submits prompt on the active session, selecting one first when none
// is remembered.
func (c *chatService) Send(ctx context.Context, prompt string, onFragment func(string)) (*api.TurnEvent, error) {
	activeID, err := c.state.Get(ctx, state.KeyActiveSession)
	if err != nil {
		return nil, err
	}
	if activeID == "" {
		s, err := c.Active(ctx)
		if err != nil {
			return nil, err
		}
		activeID = s.ID
	}
	return c.client.SubmitTurn(ctx, activeID, prompt, onFragment)
}
