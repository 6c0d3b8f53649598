package api

import "time"

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RegisterResponse struct {
	UserID string `json:"user_id"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenPair is returned by Login and RefreshToken.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type PingRequest struct{}

type PingResponse struct {
	Status string `json:"status"`
}

type Empty struct{}

type Session struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Seq       int64     `json:"seq"`
	CreatedAt time.Time `json:"created_at"`
}

type ListSessionsResponse struct {
	Sessions []Session `json:"sessions"`
}

type CreateSessionRequest struct {
	Name string `json:"name"`
}

type SessionResponse struct {
	Session Session `json:"session"`
}

type RenameSessionRequest struct {
	SessionID string `json:"session_id"`
	Name      string `json:"name"`
}

type SessionRequest struct {
	SessionID string `json:"session_id"`
}

type Message struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

type HistoryResponse struct {
	Messages []Message `json:"messages"`
}

type ExportResponse struct {
	URL string `json:"url"`
}

type SubmitTurnRequest struct {
	SessionID string `json:"session_id"`
	Prompt    string `json:"prompt"`
}

// TurnEvent is streamed by SubmitTurn: zero or more fragment events, then
// exactly one event with Done set once the turn has been saved.
type TurnEvent struct {
	Fragment string `json:"fragment,omitempty"`
	Done     bool   `json:"done,omitempty"`
	Reply    string `json:"reply,omitempty"`
	Length   int    `json:"length,omitempty"`
}
