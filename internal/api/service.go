package api

import (
	"context"

	"google.golang.org/grpc"
)

const ServiceName = "gemspark.ChatService"

const (
	RegisterMethod             = "/" + ServiceName + "/Register"
	LoginMethod                = "/" + ServiceName + "/Login"
	RefreshTokenMethod         = "/" + ServiceName + "/RefreshToken"
	PingMethod                 = "/" + ServiceName + "/Ping"
	ListSessionsMethod         = "/" + ServiceName + "/ListSessions"
	CreateSessionMethod        = "/" + ServiceName + "/CreateSession"
	NewChatMethod              = "/" + ServiceName + "/NewChat"
	EnsureDefaultSessionMethod = "/" + ServiceName + "/EnsureDefaultSession"
	RenameSessionMethod        = "/" + ServiceName + "/RenameSession"
	DeleteSessionMethod        = "/" + ServiceName + "/DeleteSession"
	GetHistoryMethod           = "/" + ServiceName + "/GetHistory"
	ExportSessionMethod        = "/" + ServiceName + "/ExportSession"
	SubmitTurnMethod           = "/" + ServiceName + "/SubmitTurn"
)

// PublicMethods need no access token.
var PublicMethods = map[string]bool{
	RegisterMethod:     true,
	LoginMethod:        true,
	RefreshTokenMethod: true,
	PingMethod:         true,
}

// ChatServiceServer is implemented by the server transport.
type ChatServiceServer interface {
	Register(context.Context, *RegisterRequest) (*RegisterResponse, error)
	Login(context.Context, *LoginRequest) (*TokenPair, error)
	RefreshToken(context.Context, *RefreshTokenRequest) (*TokenPair, error)
	Ping(context.Context, *PingRequest) (*PingResponse, error)
	ListSessions(context.Context, *Empty) (*ListSessionsResponse, error)
	CreateSession(context.Context, *CreateSessionRequest) (*SessionResponse, error)
	NewChat(context.Context, *Empty) (*SessionResponse, error)
	EnsureDefaultSession(context.Context, *Empty) (*SessionResponse, error)
	RenameSession(context.Context, *RenameSessionRequest) (*Empty, error)
	DeleteSession(context.Context, *SessionRequest) (*Empty, error)
	GetHistory(context.Context, *SessionRequest) (*HistoryResponse, error)
	ExportSession(context.Context, *SessionRequest) (*ExportResponse, error)
	SubmitTurn(*SubmitTurnRequest, grpc.ServerStreamingServer[TurnEvent]) error
}

func RegisterChatServiceServer(s grpc.ServiceRegistrar, srv ChatServiceServer) {
	s.RegisterService(&ChatService_ServiceDesc, srv)
}

// unary builds a MethodDesc handler for one request type.
func unary[Req any, Resp any](method string, call func(ChatServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ChatServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(ChatServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func submitTurnHandler(srv any, stream grpc.ServerStream) error {
	in := new(SubmitTurnRequest)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(ChatServiceServer).SubmitTurn(in, &grpc.GenericServerStream[SubmitTurnRequest, TurnEvent]{ServerStream: stream})
}

var ChatService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ChatServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Register", Handler: unary(RegisterMethod, ChatServiceServer.Register)},
		{MethodName: "Login", Handler: unary(LoginMethod, ChatServiceServer.Login)},
		{MethodName: "RefreshToken", Handler: unary(RefreshTokenMethod, ChatServiceServer.RefreshToken)},
		{MethodName: "Ping", Handler: unary(PingMethod, ChatServiceServer.Ping)},
		{MethodName: "ListSessions", Handler: unary(ListSessionsMethod, ChatServiceServer.ListSessions)},
		{MethodName: "CreateSession", Handler: unary(CreateSessionMethod, ChatServiceServer.CreateSession)},
		{MethodName: "NewChat", Handler: unary(NewChatMethod, ChatServiceServer.NewChat)},
		{MethodName: "EnsureDefaultSession", Handler: unary(EnsureDefaultSessionMethod, ChatServiceServer.EnsureDefaultSession)},
		{MethodName: "RenameSession", Handler: unary(RenameSessionMethod, ChatServiceServer.RenameSession)},
		{MethodName: "DeleteSession", Handler: unary(DeleteSessionMethod, ChatServiceServer.DeleteSession)},
		{MethodName: "GetHistory", Handler: unary(GetHistoryMethod, ChatServiceServer.GetHistory)},
		{MethodName: "ExportSession", Handler: unary(ExportSessionMethod, ChatServiceServer.ExportSession)},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "SubmitTurn",
			Handler:       submitTurnHandler,
			ServerStreams: true,
		},
	},
	Metadata: "gemspark/chat.json",
}
