// Package memory is a process-local storage backend. It implements the same
// repository contracts as the PostgreSQL backend and is used for local runs
// and tests.
package memory

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/dmitrijs2005/gemspark/internal/common"
	"github.com/dmitrijs2005/gemspark/internal/dbx"
	"github.com/dmitrijs2005/gemspark/internal/server/models"
	"github.com/dmitrijs2005/gemspark/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/gemspark/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/gemspark/internal/server/repositories/transcripts"
	"github.com/dmitrijs2005/gemspark/internal/server/repositories/users"
)

// Store holds all state. The zero value is not usable; call NewStore.
type Store struct {
	mu          sync.RWMutex
	usersByName map[string]models.User
	tokens      map[string]models.RefreshToken
	sessions    map[string]models.ChatSession
	transcripts map[string][]models.Message
	seq         int64
}

func NewStore() *Store {
	return &Store{
		usersByName: make(map[string]models.User),
		tokens:      make(map[string]models.RefreshToken),
		sessions:    make(map[string]models.ChatSession),
		transcripts: make(map[string][]models.Message),
	}
}

// Manager vends repositories over a Store. The DBTX argument is ignored.
type Manager struct {
	store *Store
}

func NewManager(store *Store) *Manager {
	return &Manager{store: store}
}

func (m *Manager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *Manager) Users(dbx.DBTX) users.Repository { return (*userRepo)(m.store) }

func (m *Manager) RefreshTokens(dbx.DBTX) refreshtokens.Repository { return (*tokenRepo)(m.store) }

func (m *Manager) Sessions(dbx.DBTX) sessions.Repository { return (*sessionRepo)(m.store) }

func (m *Manager) Transcripts(dbx.DBTX) transcripts.Repository { return (*transcriptRepo)(m.store) }

// Transactor runs fn directly. Writes made before a failing step are not
// rolled back.
type Transactor struct{}

func (Transactor) WithTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	return fn(ctx, nil)
}

type userRepo Store

func (r *userRepo) Create(ctx context.Context, user *models.User) (*models.User, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.usersByName[user.UserName]; ok {
		return nil, common.ErrUsernameTaken
	}
	user.CreatedAt = time.Now()
	u := *user
	u.PasswordHash = append([]byte(nil), user.PasswordHash...)
	s.usersByName[user.UserName] = u
	return user, nil
}

func (r *userRepo) GetUserByLogin(ctx context.Context, userName string) (*models.User, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.usersByName[userName]
	if !ok {
		return nil, common.ErrorNotFound
	}
	u.PasswordHash = append([]byte(nil), u.PasswordHash...)
	return &u, nil
}

type tokenRepo Store

func (r *tokenRepo) Create(ctx context.Context, token *models.RefreshToken) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token.Token] = *token
	return nil
}

func (r *tokenRepo) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tokens[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &t, nil
}

func (r *tokenRepo) Delete(ctx context.Context, token string) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
	return nil
}

func (r *tokenRepo) DeleteExpired(ctx context.Context, userID string, now time.Time) (int64, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for k, t := range s.tokens {
		if t.UserID == userID && t.Expires.Before(now) {
			delete(s.tokens, k)
			n++
		}
	}
	return n, nil
}

type sessionRepo Store

func (r *sessionRepo) Create(ctx context.Context, cs *models.ChatSession) (*models.ChatSession, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	cs.Seq = s.seq
	cs.CreatedAt = time.Now()
	s.sessions[cs.ID] = *cs
	return cs, nil
}

func (r *sessionRepo) ListByUser(ctx context.Context, userID string) ([]models.ChatSession, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.ChatSession, 0)
	for _, cs := range s.sessions {
		if cs.UserID == userID {
			result = append(result, cs)
		}
	}
	sortBySeq(result)
	return result, nil
}

func (r *sessionRepo) Get(ctx context.Context, userID, id string) (*models.ChatSession, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	cs, ok := s.sessions[id]
	if !ok || cs.UserID != userID {
		return nil, common.ErrorNotFound
	}
	return &cs, nil
}

func (r *sessionRepo) Count(ctx context.Context, userID string) (int, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, cs := range s.sessions {
		if cs.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (r *sessionRepo) Rename(ctx context.Context, userID, id, name string) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	cs, ok := s.sessions[id]
	if !ok || cs.UserID != userID {
		return common.ErrorNotFound
	}
	cs.Name = name
	s.sessions[id] = cs
	return nil
}

func (r *sessionRepo) Delete(ctx context.Context, userID, id string) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	cs, ok := s.sessions[id]
	if !ok || cs.UserID != userID {
		return common.ErrorNotFound
	}
	delete(s.sessions, id)
	delete(s.transcripts, id)
	return nil
}

type transcriptRepo Store

func (r *transcriptRepo) Get(ctx context.Context, sessionID string) ([]models.Message, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.CloneMessages(s.transcripts[sessionID]), nil
}

func (r *transcriptRepo) Save(ctx context.Context, sessionID string, messages []models.Message) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return common.ErrSessionNotFound
	}
	s.transcripts[sessionID] = models.CloneMessages(messages)
	return nil
}

func (r *transcriptRepo) Delete(ctx context.Context, sessionID string) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.transcripts, sessionID)
	return nil
}
