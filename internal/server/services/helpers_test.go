package services

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"iter"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gemspark/internal/dbx"
	"github.com/dmitrijs2005/gemspark/internal/logging"
	"github.com/dmitrijs2005/gemspark/internal/server/config"
	"github.com/dmitrijs2005/gemspark/internal/server/llm"
	"github.com/dmitrijs2005/gemspark/internal/server/models"
	"github.com/dmitrijs2005/gemspark/internal/server/repositories/memory"
	refreshtokensrepo "github.com/dmitrijs2005/gemspark/internal/server/repositories/refreshtokens"
	sessionsrepo "github.com/dmitrijs2005/gemspark/internal/server/repositories/sessions"
	transcriptsrepo "github.com/dmitrijs2005/gemspark/internal/server/repositories/transcripts"
	usersrepo "github.com/dmitrijs2005/gemspark/internal/server/repositories/users"
)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

// --- hashing ---

// plainHasher keeps bcrypt out of the unit tests.
type plainHasher struct{}

func (plainHasher) Hash(p []byte) ([]byte, error) { return append([]byte("h:"), p...), nil }
func (plainHasher) Verify(p, digest []byte) bool {
	return bytes.Equal(append([]byte("h:"), p...), digest)
}

// --- config and wiring ---

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.SecretKey = "k"
	cfg.AccessTokenValidityDuration = time.Hour
	cfg.RefreshTokenValidityDuration = 2 * time.Hour
	cfg.ModelTimeout = 5 * time.Second
	return cfg
}

func newMemoryStore() Store {
	return Store{
		Tx:    memory.Transactor{},
		Repos: memory.NewManager(memory.NewStore()),
	}
}

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

func sqlStore(db *sql.DB, rm *fakeRepoManager) Store {
	return Store{DB: db, Tx: dbx.NewSQLTransactor(db, nil), Repos: rm}
}

type testServices struct {
	users         *UserService
	sessions      *SessionService
	transcripts   *TranscriptService
	conversations *ConversationService
}

func newServices(t *testing.T, store Store, model llm.Model) *testServices {
	t.Helper()
	cfg := testConfig()
	log := logging.Discard()
	users, err := NewUserService(store, plainHasher{}, cfg, log)
	if err != nil {
		t.Fatalf("NewUserService: %v", err)
	}
	sessions := NewSessionService(store, log)
	transcripts := NewTranscriptService(store)
	return &testServices{
		users:         users,
		sessions:      sessions,
		transcripts:   transcripts,
		conversations: NewConversationService(sessions, transcripts, model, llm.DefaultWindow, cfg.ModelTimeout, log),
	}
}

// --- fake repositories ---

type fakeUsersRepo struct {
	createOut *models.User
	createErr error

	getOut *models.User
	getErr error
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.createOut != nil {
		return f.createOut, nil
	}
	return u, nil
}

func (f *fakeUsersRepo) GetUserByLogin(ctx context.Context, userName string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getOut, nil
}

type fakeRefreshRepo struct {
	findOut *models.RefreshToken
	findErr error

	delErr    error
	createErr error

	created []*models.RefreshToken
}

func (f *fakeRefreshRepo) Create(ctx context.Context, token *models.RefreshToken) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, token)
	return nil
}

func (f *fakeRefreshRepo) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.findOut, nil
}

func (f *fakeRefreshRepo) Delete(ctx context.Context, token string) error { return f.delErr }

func (f *fakeRefreshRepo) DeleteExpired(ctx context.Context, userID string, now time.Time) (int64, error) {
	return 0, nil
}

type fakeRepoManager struct {
	u  usersrepo.Repository
	r  refreshtokensrepo.Repository
	s  sessionsrepo.Repository
	tr transcriptsrepo.Repository
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error                { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository                     { return m.u }
func (m *fakeRepoManager) RefreshTokens(db dbx.DBTX) refreshtokensrepo.Repository     { return m.r }
func (m *fakeRepoManager) Sessions(db dbx.DBTX) sessionsrepo.Repository               { return m.s }
func (m *fakeRepoManager) Transcripts(db dbx.DBTX) transcriptsrepo.Repository         { return m.tr }

// flakyTranscripts fails the first failures Save/Get calls with err.
type flakyTranscripts struct {
	transcriptsrepo.Repository
	mu       sync.Mutex
	failures int
	err      error
	calls    int
}

func (f *flakyTranscripts) fail() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failures > 0 {
		f.failures--
		return f.err
	}
	return nil
}

func (f *flakyTranscripts) Save(ctx context.Context, sessionID string, messages []models.Message) error {
	if err := f.fail(); err != nil {
		return err
	}
	return f.Repository.Save(ctx, sessionID, messages)
}

// --- scripted model ---

type scriptedModel struct {
	mu        sync.Mutex
	fragments []string
	err       error
	// block makes SendStream wait for ctx to end before yielding anything.
	block bool
	delay time.Duration

	histories [][]llm.Turn
	prompts   []string
}

func (m *scriptedModel) StartChat(ctx context.Context, history []llm.Turn) (llm.Chat, error) {
	m.mu.Lock()
	m.histories = append(m.histories, append([]llm.Turn(nil), history...))
	m.mu.Unlock()
	return &scriptedChat{m: m}, nil
}

func (m *scriptedModel) calls() ([][]llm.Turn, []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.histories, m.prompts
}

type scriptedChat struct{ m *scriptedModel }

func (c *scriptedChat) SendStream(ctx context.Context, prompt string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		c.m.mu.Lock()
		c.m.prompts = append(c.m.prompts, prompt)
		frags, err, block, delay := c.m.fragments, c.m.err, c.m.block, c.m.delay
		c.m.mu.Unlock()

		if block {
			<-ctx.Done()
			yield("", ctx.Err())
			return
		}
		for _, f := range frags {
			if delay > 0 {
				time.Sleep(delay)
			}
			if !yield(f, nil) {
				return
			}
		}
		if err != nil {
			yield("", err)
		}
	}
}

var errQuota = errors.New("quota exceeded")

func sqlTransactor(db *sql.DB) dbx.Transactor {
	return dbx.NewSQLTransactor(db, nil)
}
