package grpc

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/gemspark/internal/api"
	"github.com/dmitrijs2005/gemspark/internal/common"
	"github.com/dmitrijs2005/gemspark/internal/cryptox"
	"github.com/dmitrijs2005/gemspark/internal/logging"
	"github.com/dmitrijs2005/gemspark/internal/server/config"
	"github.com/dmitrijs2005/gemspark/internal/server/llm"
	"github.com/dmitrijs2005/gemspark/internal/server/repositories/memory"
	"github.com/dmitrijs2005/gemspark/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.SecretKey = "k"
	cfg.ModelTimeout = 5 * time.Second
	return cfg
}

func newTestServices(t *testing.T, cfg *config.Config, model llm.Model) Services {
	t.Helper()
	store := services.Store{Tx: memory.Transactor{}, Repos: memory.NewManager(memory.NewStore())}
	log := logging.Discard()

	users, err := services.NewUserService(store, cryptox.NewBcryptHasher(4), cfg, log)
	require.NoError(t, err)
	sessions := services.NewSessionService(store, log)
	transcripts := services.NewTranscriptService(store)

	return Services{
		Users:         users,
		Sessions:      sessions,
		Conversations: services.NewConversationService(sessions, transcripts, model, llm.DefaultWindow, cfg.ModelTimeout, log),
		Exports:       services.NewExportService(sessions, cfg, log),
	}
}

// startBufconn serves s over an in-memory listener and returns a client.
func startBufconn(t *testing.T, s *GRPCServer) *api.ChatServiceClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = conn.Close()
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("server did not stop")
		}
	})
	return api.NewChatServiceClient(conn)
}

func withToken(ctx context.Context, token string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, common.AccessTokenHeaderName, token)
}

func login(t *testing.T, c *api.ChatServiceClient, username, password string) context.Context {
	t.Helper()
	ctx := context.Background()
	_, err := c.Register(ctx, &api.RegisterRequest{Username: username, Password: password})
	require.NoError(t, err)
	tokens, err := c.Login(ctx, &api.LoginRequest{Username: username, Password: password})
	require.NoError(t, err)
	return withToken(ctx, tokens.AccessToken)
}

func collectTurn(t *testing.T, stream grpc.ServerStreamingClient[api.TurnEvent]) ([]string, *api.TurnEvent, error) {
	t.Helper()
	var fragments []string
	var final *api.TurnEvent
	for {
		ev, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return fragments, final, nil
		}
		if err != nil {
			return fragments, final, err
		}
		if ev.Done {
			final = ev
			continue
		}
		fragments = append(fragments, ev.Fragment)
	}
}

func TestRoundTrip_ChatFlow(t *testing.T) {
	cfg := testConfig()
	c := startBufconn(t, NewGRPCServer("bufnet", logging.Discard(), newTestServices(t, cfg, llm.EchoModel{}), cfg.SecretKey))

	pong, err := c.Ping(context.Background(), &api.PingRequest{})
	require.NoError(t, err)
	assert.Equal(t, "OK", pong.Status)

	ctx := login(t, c, "alice", "pw")

	list, err := c.ListSessions(ctx, &api.Empty{})
	require.NoError(t, err)
	assert.Empty(t, list.Sessions)

	def, err := c.EnsureDefaultSession(ctx, &api.Empty{})
	require.NoError(t, err)
	assert.Equal(t, common.DefaultSessionName, def.Session.Name)

	stream, err := c.SubmitTurn(ctx, &api.SubmitTurnRequest{SessionID: def.Session.ID, Prompt: "Hello"})
	require.NoError(t, err)
	fragments, final, err := collectTurn(t, stream)
	require.NoError(t, err)
	require.NotNil(t, final)
	assert.Equal(t, final.Reply, strings.Join(fragments, ""))
	assert.Equal(t, 2, final.Length)

	hist, err := c.GetHistory(ctx, &api.SessionRequest{SessionID: def.Session.ID})
	require.NoError(t, err)
	require.Len(t, hist.Messages, 2)
	assert.Equal(t, api.Message{Role: "user", Text: "Hello"}, hist.Messages[0])
	assert.Equal(t, api.Message{Role: "assistant", Text: final.Reply}, hist.Messages[1])

	second, err := c.NewChat(ctx, &api.Empty{})
	require.NoError(t, err)
	assert.Equal(t, "Chat 2", second.Session.Name)

	_, err = c.RenameSession(ctx, &api.RenameSessionRequest{SessionID: second.Session.ID, Name: "Ideas"})
	require.NoError(t, err)

	list, err = c.ListSessions(ctx, &api.Empty{})
	require.NoError(t, err)
	require.Len(t, list.Sessions, 2)
	assert.Equal(t, def.Session.ID, list.Sessions[0].ID)
	assert.Equal(t, "Ideas", list.Sessions[1].Name)

	_, err = c.DeleteSession(ctx, &api.SessionRequest{SessionID: def.Session.ID})
	require.NoError(t, err)

	_, err = c.GetHistory(ctx, &api.SessionRequest{SessionID: def.Session.ID})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestRoundTrip_RequiresToken(t *testing.T) {
	cfg := testConfig()
	c := startBufconn(t, NewGRPCServer("bufnet", logging.Discard(), newTestServices(t, cfg, llm.EchoModel{}), cfg.SecretKey))

	_, err := c.ListSessions(context.Background(), &api.Empty{})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	_, err = c.ListSessions(withToken(context.Background(), "garbage"), &api.Empty{})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	stream, err := c.SubmitTurn(context.Background(), &api.SubmitTurnRequest{SessionID: "s", Prompt: "hi"})
	require.NoError(t, err)
	_, _, err = collectTurn(t, stream)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestRoundTrip_ErrorCodes(t *testing.T) {
	cfg := testConfig()
	c := startBufconn(t, NewGRPCServer("bufnet", logging.Discard(), newTestServices(t, cfg, llm.EchoModel{}), cfg.SecretKey))

	ctx := login(t, c, "bob", "pw")

	_, err := c.Register(context.Background(), &api.RegisterRequest{Username: "bob", Password: "other"})
	assert.Equal(t, codes.AlreadyExists, status.Code(err))

	_, err = c.Login(context.Background(), &api.LoginRequest{Username: "bob", Password: "wrong"})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	_, err = c.RefreshToken(context.Background(), &api.RefreshTokenRequest{RefreshToken: "nope"})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	s, err := c.CreateSession(ctx, &api.CreateSessionRequest{Name: "Work"})
	require.NoError(t, err)

	stream, err := c.SubmitTurn(ctx, &api.SubmitTurnRequest{SessionID: s.Session.ID, Prompt: "   "})
	require.NoError(t, err)
	_, _, err = collectTurn(t, stream)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = c.ExportSession(ctx, &api.SessionRequest{SessionID: s.Session.ID})
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	// another user's session is invisible
	other := login(t, c, "carol", "pw")
	_, err = c.GetHistory(other, &api.SessionRequest{SessionID: s.Session.ID})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

type failingModel struct{}

func (failingModel) StartChat(context.Context, []llm.Turn) (llm.Chat, error) {
	return nil, errors.New("quota exceeded")
}

func TestRoundTrip_ModelFailureLeavesHistory(t *testing.T) {
	cfg := testConfig()
	c := startBufconn(t, NewGRPCServer("bufnet", logging.Discard(), newTestServices(t, cfg, failingModel{}), cfg.SecretKey))

	ctx := login(t, c, "dave", "pw")
	s, err := c.NewChat(ctx, &api.Empty{})
	require.NoError(t, err)

	stream, err := c.SubmitTurn(ctx, &api.SubmitTurnRequest{SessionID: s.Session.ID, Prompt: "hi"})
	require.NoError(t, err)
	_, final, err := collectTurn(t, stream)
	assert.Equal(t, codes.Unavailable, status.Code(err))
	assert.Nil(t, final)

	hist, err := c.GetHistory(ctx, &api.SessionRequest{SessionID: s.Session.ID})
	require.NoError(t, err)
	assert.Empty(t, hist.Messages)
}

func TestRun_ReturnsErrorOnBadAddress(t *testing.T) {
	t.Parallel()

	srv := NewGRPCServer("127.0.0.1:99999", logging.Discard(), Services{}, "secret")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	assert.Error(t, srv.Run(ctx))
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	srv := NewGRPCServer("127.0.0.1:0", logging.Discard(), Services{}, "secret")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	select {
	case err := <-done:
		t.Fatalf("server exited too early: %v", err)
	case <-time.After(150 * time.Millisecond):
	}

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop within timeout after context cancel")
	}
}
