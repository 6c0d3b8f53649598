package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/gemspark/internal/api"
	"github.com/dmitrijs2005/gemspark/internal/logging"
	"github.com/dmitrijs2005/gemspark/internal/server/models"
	"github.com/dmitrijs2005/gemspark/internal/server/services"
	"google.golang.org/grpc"
)

type userService interface {
	Register(ctx context.Context, username, password string) (*models.User, error)
	Login(ctx context.Context, username, password string) (*services.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
}

type sessionService interface {
	ListSessions(ctx context.Context, userID string) ([]models.ChatSession, error)
	CreateSession(ctx context.Context, userID, name string) (*models.ChatSession, error)
	NewChat(ctx context.Context, userID string) (*models.ChatSession, error)
	EnsureDefaultSession(ctx context.Context, userID string) (*models.ChatSession, error)
	RenameSession(ctx context.Context, userID, sessionID, newName string) error
	DeleteSession(ctx context.Context, userID, sessionID string) error
	History(ctx context.Context, userID, sessionID string) ([]models.Message, error)
}

type conversationService interface {
	SubmitTurn(ctx context.Context, userID, sessionID, prompt string, onFragment func(string)) (*services.TurnResult, error)
}

type exportService interface {
	Export(ctx context.Context, userID, sessionID string) (string, error)
}

// Services groups the business services the transport dispatches to.
type Services struct {
	Users         userService
	Sessions      sessionService
	Conversations conversationService
	Exports       exportService
}

type GRPCServer struct {
	address   string
	svc       Services
	logger    logging.Logger
	jwtSecret []byte
}

func NewGRPCServer(a string, l logging.Logger, svc Services, secretKey string) *GRPCServer {
	return &GRPCServer{
		address:   a,
		logger:    l.With("module", "grpc_server"),
		svc:       svc,
		jwtSecret: []byte(secretKey),
	}
}

// newServer builds the grpc.Server with interceptors and the chat service
// registered.
func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(s.loggingInterceptor, s.accessTokenInterceptor),
		grpc.ChainStreamInterceptor(s.streamLoggingInterceptor, s.streamAccessTokenInterceptor),
	)
	api.RegisterChatServiceServer(srv, s)
	return srv
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is done, then stops gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(lis); err != nil {
		return err
	}

	return nil
}
