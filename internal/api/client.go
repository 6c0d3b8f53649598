package api

import (
	"context"
	"errors"
	"io"

	"google.golang.org/grpc"
)

// ChatServiceClient is a typed client over a gRPC connection. Every call is
// sent with the JSON content-subtype.
type ChatServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewChatServiceClient(cc grpc.ClientConnInterface) *ChatServiceClient {
	return &ChatServiceClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ChatServiceClient) Register(ctx context.Context, in *RegisterRequest, opts ...grpc.CallOption) (*RegisterResponse, error) {
	return invoke[RegisterResponse](ctx, c.cc, RegisterMethod, in, opts)
}

func (c *ChatServiceClient) Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*TokenPair, error) {
	return invoke[TokenPair](ctx, c.cc, LoginMethod, in, opts)
}

func (c *ChatServiceClient) RefreshToken(ctx context.Context, in *RefreshTokenRequest, opts ...grpc.CallOption) (*TokenPair, error) {
	return invoke[TokenPair](ctx, c.cc, RefreshTokenMethod, in, opts)
}

func (c *ChatServiceClient) Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingResponse, error) {
	return invoke[PingResponse](ctx, c.cc, PingMethod, in, opts)
}

func (c *ChatServiceClient) ListSessions(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*ListSessionsResponse, error) {
	return invoke[ListSessionsResponse](ctx, c.cc, ListSessionsMethod, in, opts)
}

func (c *ChatServiceClient) CreateSession(ctx context.Context, in *CreateSessionRequest, opts ...grpc.CallOption) (*SessionResponse, error) {
	return invoke[SessionResponse](ctx, c.cc, CreateSessionMethod, in, opts)
}

func (c *ChatServiceClient) NewChat(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*SessionResponse, error) {
	return invoke[SessionResponse](ctx, c.cc, NewChatMethod, in, opts)
}

func (c *ChatServiceClient) EnsureDefaultSession(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*SessionResponse, error) {
	return invoke[SessionResponse](ctx, c.cc, EnsureDefaultSessionMethod, in, opts)
}

func (c *ChatServiceClient) RenameSession(ctx context.Context, in *RenameSessionRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, RenameSessionMethod, in, opts)
}

func (c *ChatServiceClient) DeleteSession(ctx context.Context, in *SessionRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, DeleteSessionMethod, in, opts)
}

func (c *ChatServiceClient) GetHistory(ctx context.Context, in *SessionRequest, opts ...grpc.CallOption) (*HistoryResponse, error) {
	return invoke[HistoryResponse](ctx, c.cc, GetHistoryMethod, in, opts)
}

func (c *ChatServiceClient) ExportSession(ctx context.Context, in *SessionRequest, opts ...grpc.CallOption) (*ExportResponse, error) {
	return invoke[ExportResponse](ctx, c.cc, ExportSessionMethod, in, opts)
}

// SubmitTurn opens the reply stream. Read events with Recv until io.EOF.
func (c *ChatServiceClient) SubmitTurn(ctx context.Context, in *SubmitTurnRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[TurnEvent], error) {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	stream, err := c.cc.NewStream(ctx, &ChatService_ServiceDesc.Streams[0], SubmitTurnMethod, opts...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[SubmitTurnRequest, TurnEvent]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		// io.EOF means the server already ended the call; Recv reports why.
		if errors.Is(err, io.EOF) {
			return x, nil
		}
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}
