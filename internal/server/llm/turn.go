// Package llm adapts stored transcripts to generative model providers and
// streams their replies back as text fragments.
package llm

import "github.com/dmitrijs2005/gemspark/internal/server/models"

// DefaultWindow is how many trailing transcript messages are sent as history.
const DefaultWindow = 10

const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Turn is one history entry in the provider-neutral schema. Each turn
// carries exactly one text part.
type Turn struct {
	Role string
	Text string
}

// Format returns the last window messages of history as turns, oldest first.
// A window <= 0 keeps the whole history. Assistant messages become model
// turns; every other role, known or not, becomes a user turn.
func Format(history []models.Message, window int) []Turn {
	tail := trailing(history, window)
	turns := make([]Turn, 0, len(tail))
	for _, m := range tail {
		role := RoleUser
		if m.Role == models.RoleAssistant {
			role = RoleModel
		}
		turns = append(turns, Turn{Role: role, Text: m.Text})
	}
	return turns
}

// UnknownRoles returns the indexes, relative to history, of messages inside
// the window whose role Format had to fold into user.
func UnknownRoles(history []models.Message, window int) []int {
	offset := len(history) - len(trailing(history, window))
	var idx []int
	for i := offset; i < len(history); i++ {
		if !history[i].Role.Valid() {
			idx = append(idx, i)
		}
	}
	return idx
}

func trailing(history []models.Message, window int) []models.Message {
	if window <= 0 || len(history) <= window {
		return history
	}
	return history[len(history)-window:]
}
