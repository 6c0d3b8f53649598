package grpc

import (
	"context"

	"github.com/dmitrijs2005/gemspark/internal/api"
	"github.com/dmitrijs2005/gemspark/internal/server/models"
	"google.golang.org/grpc"
)

func (s *GRPCServer) Register(ctx context.Context, req *api.RegisterRequest) (*api.RegisterResponse, error) {

	s.logger.Info(ctx, "Registration request", "username", req.Username)

	user, err := s.svc.Users.Register(ctx, req.Username, req.Password)
	if err != nil {
		s.logger.Warn(ctx, "registration failed", "username", req.Username, "error", err)
		return nil, toStatus(err)
	}

	s.logger.Info(ctx, "Registered", "username", req.Username, "user_id", user.ID)
	return &api.RegisterResponse{UserID: user.ID}, nil
}

func (s *GRPCServer) Login(ctx context.Context, req *api.LoginRequest) (*api.TokenPair, error) {

	tokens, err := s.svc.Users.Login(ctx, req.Username, req.Password)
	if err != nil {
		return nil, toStatus(err)
	}

	return &api.TokenPair{AccessToken: tokens.AccessToken, RefreshToken: tokens.RefreshToken}, nil
}

func (s *GRPCServer) RefreshToken(ctx context.Context, req *api.RefreshTokenRequest) (*api.TokenPair, error) {

	tokens, err := s.svc.Users.RefreshToken(ctx, req.RefreshToken)
	if err != nil {
		return nil, toStatus(err)
	}

	return &api.TokenPair{AccessToken: tokens.AccessToken, RefreshToken: tokens.RefreshToken}, nil
}

func (s *GRPCServer) Ping(ctx context.Context, req *api.PingRequest) (*api.PingResponse, error) {
	return &api.PingResponse{Status: "OK"}, nil
}

func toAPISession(cs *models.ChatSession) api.Session {
	return api.Session{ID: cs.ID, Name: cs.Name, Seq: cs.Seq, CreatedAt: cs.CreatedAt}
}

func (s *GRPCServer) ListSessions(ctx context.Context, _ *api.Empty) (*api.ListSessionsResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	list, err := s.svc.Sessions.ListSessions(ctx, userID)
	if err != nil {
		return nil, toStatus(err)
	}

	resp := &api.ListSessionsResponse{Sessions: make([]api.Session, 0, len(list))}
	for i := range list {
		resp.Sessions = append(resp.Sessions, toAPISession(&list[i]))
	}
	return resp, nil
}

func (s *GRPCServer) sessionCall(ctx context.Context, fn func(userID string) (*models.ChatSession, error)) (*api.SessionResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	cs, err := fn(userID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &api.SessionResponse{Session: toAPISession(cs)}, nil
}

func (s *GRPCServer) CreateSession(ctx context.Context, req *api.CreateSessionRequest) (*api.SessionResponse, error) {
	return s.sessionCall(ctx, func(userID string) (*models.ChatSession, error) {
		return s.svc.Sessions.CreateSession(ctx, userID, req.Name)
	})
}

func (s *GRPCServer) NewChat(ctx context.Context, _ *api.Empty) (*api.SessionResponse, error) {
	return s.sessionCall(ctx, func(userID string) (*models.ChatSession, error) {
		return s.svc.Sessions.NewChat(ctx, userID)
	})
}

func (s *GRPCServer) EnsureDefaultSession(ctx context.Context, _ *api.Empty) (*api.SessionResponse, error) {
	return s.sessionCall(ctx, func(userID string) (*models.ChatSession, error) {
		return s.svc.Sessions.EnsureDefaultSession(ctx, userID)
	})
}

func (s *GRPCServer) RenameSession(ctx context.Context, req *api.RenameSessionRequest) (*api.Empty, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.svc.Sessions.RenameSession(ctx, userID, req.SessionID, req.Name); err != nil {
		return nil, toStatus(err)
	}
	return &api.Empty{}, nil
}

func (s *GRPCServer) DeleteSession(ctx context.Context, req *api.SessionRequest) (*api.Empty, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.svc.Sessions.DeleteSession(ctx, userID, req.SessionID); err != nil {
		return nil, toStatus(err)
	}
	return &api.Empty{}, nil
}

func (s *GRPCServer) GetHistory(ctx context.Context, req *api.SessionRequest) (*api.HistoryResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	msgs, err := s.svc.Sessions.History(ctx, userID, req.SessionID)
	if err != nil {
		return nil, toStatus(err)
	}

	resp := &api.HistoryResponse{Messages: make([]api.Message, 0, len(msgs))}
	for _, m := range msgs {
		resp.Messages = append(resp.Messages, api.Message{Role: string(m.Role), Text: m.Text})
	}
	return resp, nil
}

func (s *GRPCServer) ExportSession(ctx context.Context, req *api.SessionRequest) (*api.ExportResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	url, err := s.svc.Exports.Export(ctx, userID, req.SessionID)
	if err != nil {
		s.logger.Warn(ctx, "export failed", "session_id", req.SessionID, "error", err)
		return nil, toStatus(err)
	}
	return &api.ExportResponse{URL: url}, nil
}

// SubmitTurn relays reply fragments as they arrive and finishes with one
// Done event once the turn has been saved. A fragment that cannot be sent
// does not abort the turn; the saved transcript is authoritative.
func (s *GRPCServer) SubmitTurn(req *api.SubmitTurnRequest, stream grpc.ServerStreamingServer[api.TurnEvent]) error {
	ctx := stream.Context()

	userID, err := userIDFromContext(ctx)
	if err != nil {
		return err
	}

	var sendErr error
	onFragment := func(fragment string) {
		if sendErr != nil {
			return
		}
		sendErr = stream.Send(&api.TurnEvent{Fragment: fragment})
	}

	res, err := s.svc.Conversations.SubmitTurn(ctx, userID, req.SessionID, req.Prompt, onFragment)
	if err != nil {
		s.logger.Warn(ctx, "turn failed", "session_id", req.SessionID, "error", err)
		return toStatus(err)
	}
	if sendErr != nil {
		s.logger.Warn(ctx, "fragment delivery failed", "session_id", req.SessionID, "error", sendErr)
	}

	return stream.Send(&api.TurnEvent{Done: true, Reply: res.Reply.Text, Length: res.Length})
}
