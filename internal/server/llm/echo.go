package llm

import (
	"context"
	"fmt"
	"iter"
	"strings"
)

// EchoModel answers every prompt by repeating it, one word per fragment.
// It needs no credentials and is meant for local runs.
type EchoModel struct{}

func (EchoModel) StartChat(ctx context.Context, history []Turn) (Chat, error) {
	return &echoChat{turns: len(history)}, nil
}

type echoChat struct {
	turns int
}

func (c *echoChat) SendStream(ctx context.Context, prompt string) iter.Seq2[string, error] {
	reply := fmt.Sprintf("echo (%d prior turns): %s", c.turns, prompt)
	return func(yield func(string, error) bool) {
		words := strings.SplitAfter(reply, " ")
		for _, w := range words {
			if err := ctx.Err(); err != nil {
				yield("", err)
				return
			}
			if !yield(w, nil) {
				return
			}
		}
		c.turns += 2
	}
}
