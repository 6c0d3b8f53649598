package models

// Role identifies who authored a transcript message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Message is one transcript entry. Position in the transcript is implied by
// its index.
type Message struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// CloneMessages returns a copy of msgs that never aliases the input and is
// never nil.
func CloneMessages(msgs []Message) []Message {
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out
}
