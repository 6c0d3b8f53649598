package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/dmitrijs2005/gemspark/internal/api"
	"github.com/dmitrijs2005/gemspark/internal/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	client      *api.ChatServiceClient

	mu           sync.Mutex
	accessToken  string
	refreshToken string
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AccessTokenHeaderName)
	if token != "" {
		md.Set(common.AccessTokenHeaderName, token)
	}

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) tokens() (string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accessToken, s.refreshToken
}

func (s *GRPCClient) setTokens(access, refresh string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = access
	s.refreshToken = refresh
}

// isTokenExpired reports whether the server rejected the access token only
// because it is too old.
func isTokenExpired(err error) bool {
	st, ok := status.FromError(err)
	return ok && st.Code() == codes.Unauthenticated && st.Message() == common.ErrTokenExpired.Error()
}

// refresh rotates the token pair. It fails when no refresh token is held.
func (s *GRPCClient) refresh(ctx context.Context) error {
	_, refreshToken := s.tokens()
	if refreshToken == "" {
		return ErrNotLoggedIn
	}

	resp, err := s.client.RefreshToken(ctx, &api.RefreshTokenRequest{RefreshToken: refreshToken})
	if err != nil {
		return err
	}

	s.setTokens(resp.AccessToken, resp.RefreshToken)
	return nil
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {

	if api.PublicMethods[method] {
		return invoker(ctx, method, req, reply, cc, opts...)
	}

	accessToken, _ := s.tokens()
	err := invoker(withAccessToken(ctx, accessToken), method, req, reply, cc, opts...)
	if !isTokenExpired(err) {
		return err
	}

	if rerr := s.refresh(ctx); rerr != nil {
		return err
	}

	// tokens refreshed, retrying with the new access token
	accessToken, _ = s.tokens()
	return invoker(withAccessToken(ctx, accessToken), method, req, reply, cc, opts...)
}

func (s *GRPCClient) streamAccessTokenInterceptor(
	ctx context.Context,
	desc *grpc.StreamDesc,
	cc *grpc.ClientConn,
	method string,
	streamer grpc.Streamer,
	opts ...grpc.CallOption,
) (grpc.ClientStream, error) {
	accessToken, _ := s.tokens()
	return streamer(withAccessToken(ctx, accessToken), desc, cc, method, opts...)
}

// NewGRPCClient connects lazily to endpointURL. Extra dial options are
// appended after the defaults.
func NewGRPCClient(endpointURL string, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL}

	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.accessTokenInterceptor),
		grpc.WithStreamInterceptor(c.streamAccessTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(endpointURL, dialOpts...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	c.client = api.NewChatServiceClient(conn)
	return c, nil
}

func (s *GRPCClient) Close() error {
	return s.conn.Close()
}

func (s *GRPCClient) Register(ctx context.Context, username, password string) error {
	_, err := s.client.Register(ctx, &api.RegisterRequest{Username: username, Password: password})
	return mapError(err)
}

func (s *GRPCClient) Login(ctx context.Context, username, password string) error {
	resp, err := s.client.Login(ctx, &api.LoginRequest{Username: username, Password: password})
	if err != nil {
		return mapError(err)
	}

	s.setTokens(resp.AccessToken, resp.RefreshToken)
	return nil
}

func (s *GRPCClient) Resume(ctx context.Context, refreshToken string) error {
	s.setTokens("", refreshToken)
	if err := s.refresh(ctx); err != nil {
		s.setTokens("", "")
		return mapError(err)
	}
	return nil
}

func (s *GRPCClient) Logout() {
	s.setTokens("", "")
}

// RefreshTokenValue returns the refresh token currently held, which changes
// on every rotation.
func (s *GRPCClient) RefreshTokenValue() string {
	_, r := s.tokens()
	return r
}

func (s *GRPCClient) Ping(ctx context.Context) error {
	resp, err := s.client.Ping(ctx, &api.PingRequest{})
	if err != nil {
		return mapError(err)
	}
	if resp.Status != "OK" {
		return ErrUnavailable
	}
	return nil
}

func (s *GRPCClient) ListSessions(ctx context.Context) ([]api.Session, error) {
	resp, err := s.client.ListSessions(ctx, &api.Empty{})
	if err != nil {
		return nil, mapError(err)
	}
	return resp.Sessions, nil
}

func (s *GRPCClient) CreateSession(ctx context.Context, name string) (*api.Session, error) {
	resp, err := s.client.CreateSession(ctx, &api.CreateSessionRequest{Name: name})
	if err != nil {
		return nil, mapError(err)
	}
	return &resp.Session, nil
}

func (s *GRPCClient) NewChat(ctx context.Context) (*api.Session, error) {
	resp, err := s.client.NewChat(ctx, &api.Empty{})
	if err != nil {
		return nil, mapError(err)
	}
	return &resp.Session, nil
}

func (s *GRPCClient) EnsureDefaultSession(ctx context.Context) (*api.Session, error) {
	resp, err := s.client.EnsureDefaultSession(ctx, &api.Empty{})
	if err != nil {
		return nil, mapError(err)
	}
	return &resp.Session, nil
}

func (s *GRPCClient) RenameSession(ctx context.Context, sessionID, name string) error {
	_, err := s.client.RenameSession(ctx, &api.RenameSessionRequest{SessionID: sessionID, Name: name})
	return mapError(err)
}

func (s *GRPCClient) DeleteSession(ctx context.Context, sessionID string) error {
	_, err := s.client.DeleteSession(ctx, &api.SessionRequest{SessionID: sessionID})
	return mapError(err)
}

func (s *GRPCClient) History(ctx context.Context, sessionID string) ([]api.Message, error) {
	resp, err := s.client.GetHistory(ctx, &api.SessionRequest{SessionID: sessionID})
	if err != nil {
		return nil, mapError(err)
	}
	return resp.Messages, nil
}

func (s *GRPCClient) Export(ctx context.Context, sessionID string) (string, error) {
	resp, err := s.client.ExportSession(ctx, &api.SessionRequest{SessionID: sessionID})
	if err != nil {
		return "", mapError(err)
	}
	return resp.URL, nil
}

func (s *GRPCClient) SubmitTurn(ctx context.Context, sessionID, prompt string, onFragment func(string)) (*api.TurnEvent, error) {
	final, delivered, err := s.submitTurn(ctx, sessionID, prompt, onFragment)
	// The token is checked before the turn starts, so an expired one never
	// leaves a half-delivered reply behind.
	if err != nil && !delivered && isTokenExpired(err) {
		if rerr := s.refresh(ctx); rerr == nil {
			final, _, err = s.submitTurn(ctx, sessionID, prompt, onFragment)
		}
	}
	if err != nil {
		return nil, mapError(err)
	}
	return final, nil
}

func (s *GRPCClient) submitTurn(ctx context.Context, sessionID, prompt string, onFragment func(string)) (*api.TurnEvent, bool, error) {
	stream, err := s.client.SubmitTurn(ctx, &api.SubmitTurnRequest{SessionID: sessionID, Prompt: prompt})
	if err != nil {
		return nil, false, err
	}

	delivered := false
	var final *api.TurnEvent
	for {
		ev, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, delivered, err
		}
		delivered = true
		if ev.Done {
			final = ev
			continue
		}
		if onFragment != nil {
			onFragment(ev.Fragment)
		}
	}

	if final == nil {
		return nil, delivered, fmt.Errorf("%w: reply stream ended early", ErrUnavailable)
	}
	return final, delivered, nil
}

// mapError turns a gRPC status into the matching sentinel.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotLoggedIn) {
		return err
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}

	msg := st.Message()
	switch st.Code() {
	case codes.AlreadyExists:
		return common.ErrUsernameTaken
	case codes.Unauthenticated, codes.PermissionDenied:
		if msg == common.ErrInvalidCredentials.Error() {
			return common.ErrInvalidCredentials
		}
		return fmt.Errorf("%w: %s", ErrUnauthorized, msg)
	case codes.NotFound:
		return common.ErrSessionNotFound
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", common.ErrValidation, strings.TrimPrefix(msg, common.ErrValidation.Error()+": "))
	case codes.FailedPrecondition:
		return common.ErrExportDisabled
	case codes.Unavailable:
		if strings.HasPrefix(msg, common.ErrModelInvocation.Error()) {
			return fmt.Errorf("%w: %s", common.ErrModelInvocation, strings.TrimPrefix(msg, common.ErrModelInvocation.Error()+": "))
		}
		return fmt.Errorf("%w: %s", ErrUnavailable, msg)
	case codes.DeadlineExceeded:
		return fmt.Errorf("%w: %s", ErrUnavailable, msg)
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
