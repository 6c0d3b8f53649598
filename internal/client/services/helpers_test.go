package services

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/gemspark/internal/api"
	"github.com/dmitrijs2005/gemspark/internal/client/client"
	"github.com/dmitrijs2005/gemspark/internal/common"
	"github.com/stretchr/testify/require"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := client.InitDatabase(context.Background(), filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// fakeClient is an in-memory client.Client for one user.
type fakeClient struct {
	users    map[string]string
	loggedIn bool
	refresh  string
	rotation int

	sessions []api.Session
	history  map[string][]api.Message
	nextID   int

	loginErr  error
	resumeErr error
	listErr   error
	exportURL string
	closed    bool
}

func newFakeClient() *fakeClient {
	return &fakeClient{users: map[string]string{}, history: map[string][]api.Message{}}
}

func (f *fakeClient) Close() error { f.closed = true; return nil }

func (f *fakeClient) Register(_ context.Context, username, password string) error {
	if _, ok := f.users[username]; ok {
		return common.ErrUsernameTaken
	}
	f.users[username] = password
	return nil
}

func (f *fakeClient) Login(_ context.Context, username, password string) error {
	if f.loginErr != nil {
		return f.loginErr
	}
	if pw, ok := f.users[username]; !ok || pw != password {
		return common.ErrInvalidCredentials
	}
	f.loggedIn = true
	f.rotate()
	return nil
}

func (f *fakeClient) rotate() {
	f.rotation++
	f.refresh = fmt.Sprintf("r%d", f.rotation)
}

func (f *fakeClient) Resume(_ context.Context, token string) error {
	if f.resumeErr != nil {
		return f.resumeErr
	}
	if token != f.refresh {
		return client.ErrUnauthorized
	}
	f.loggedIn = true
	f.rotate()
	return nil
}

func (f *fakeClient) Logout() { f.loggedIn = false; f.refresh = "" }

func (f *fakeClient) RefreshTokenValue() string { return f.refresh }

func (f *fakeClient) Ping(context.Context) error { return nil }

func (f *fakeClient) ListSessions(context.Context) ([]api.Session, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	if !f.loggedIn {
		return nil, client.ErrUnauthorized
	}
	return append([]api.Session(nil), f.sessions...), nil
}

func (f *fakeClient) CreateSession(_ context.Context, name string) (*api.Session, error) {
	f.nextID++
	s := api.Session{ID: fmt.Sprintf("s%d", f.nextID), Name: name, Seq: int64(f.nextID)}
	f.sessions = append(f.sessions, s)
	return &s, nil
}

func (f *fakeClient) NewChat(ctx context.Context) (*api.Session, error) {
	return f.CreateSession(ctx, fmt.Sprintf("Chat %d", len(f.sessions)+1))
}

func (f *fakeClient) EnsureDefaultSession(ctx context.Context) (*api.Session, error) {
	if len(f.sessions) > 0 {
		s := f.sessions[0]
		return &s, nil
	}
	return f.CreateSession(ctx, common.DefaultSessionName)
}

func (f *fakeClient) find(id string) int {
	for i := range f.sessions {
		if f.sessions[i].ID == id {
			return i
		}
	}
	return -1
}

func (f *fakeClient) RenameSession(_ context.Context, id, name string) error {
	i := f.find(id)
	if i < 0 {
		return common.ErrSessionNotFound
	}
	f.sessions[i].Name = name
	return nil
}

func (f *fakeClient) DeleteSession(_ context.Context, id string) error {
	i := f.find(id)
	if i < 0 {
		return common.ErrSessionNotFound
	}
	f.sessions = append(f.sessions[:i], f.sessions[i+1:]...)
	delete(f.history, id)
	return nil
}

func (f *fakeClient) History(_ context.Context, id string) ([]api.Message, error) {
	if f.find(id) < 0 {
		return nil, common.ErrSessionNotFound
	}
	return f.history[id], nil
}

func (f *fakeClient) Export(_ context.Context, id string) (string, error) {
	if f.exportURL == "" {
		return "", common.ErrExportDisabled
	}
	return f.exportURL + id, nil
}

func (f *fakeClient) SubmitTurn(_ context.Context, id, prompt string, onFragment func(string)) (*api.TurnEvent, error) {
	if f.find(id) < 0 {
		return nil, common.ErrSessionNotFound
	}
	reply := "re: " + prompt
	if onFragment != nil {
		onFragment("re: ")
		onFragment(prompt)
	}
	f.history[id] = append(f.history[id], api.Message{Role: "user", Text: prompt}, api.Message{Role: "assistant", Text: reply})
	return &api.TurnEvent{Done: true, Reply: reply, Length: len(f.history[id])}, nil
}
