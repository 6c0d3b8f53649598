package llm

import (
	"context"
	"errors"
	"iter"
	"strings"
)

// Model starts chats seeded with prior history.
type Model interface {
	StartChat(ctx context.Context, history []Turn) (Chat, error)
}

// Chat sends one prompt and streams the reply. The returned sequence is
// finite and cannot be restarted; a non-nil error ends it.
type Chat interface {
	SendStream(ctx context.Context, prompt string) iter.Seq2[string, error]
}

// ErrEmptyReply is returned by Collect when the stream produced no text.
var ErrEmptyReply = errors.New("model returned an empty reply")

// Collect drains stream, concatenating fragments in arrival order. Every
// non-empty fragment is passed to onFragment when it is not nil.
func Collect(stream iter.Seq2[string, error], onFragment func(string)) (string, error) {
	var b strings.Builder
	for frag, err := range stream {
		if err != nil {
			return "", err
		}
		if frag == "" {
			continue
		}
		b.WriteString(frag)
		if onFragment != nil {
			onFragment(frag)
		}
	}
	if b.Len() == 0 {
		return "", ErrEmptyReply
	}
	return b.String(), nil
}
