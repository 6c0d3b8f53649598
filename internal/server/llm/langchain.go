package llm

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"

	"github.com/tmc/langchaingo/llms"
)

var errStreamStopped = errors.New("stream consumer stopped")

// LangChainModel adapts any langchaingo llms.Model (OpenAI, Anthropic and
// OpenAI-compatible endpoints) to the streaming Chat interface.
type LangChainModel struct {
	llm llms.Model
}

func NewLangChainModel(llm llms.Model) *LangChainModel {
	return &LangChainModel{llm: llm}
}

func (m *LangChainModel) StartChat(ctx context.Context, history []Turn) (Chat, error) {
	msgs := make([]llms.MessageContent, 0, len(history)+1)
	for _, t := range history {
		msgs = append(msgs, llms.TextParts(toChatMessageType(t.Role), t.Text))
	}
	return &langChainChat{llm: m.llm, messages: msgs}, nil
}

type langChainChat struct {
	llm      llms.Model
	messages []llms.MessageContent
}

// SendStream runs GenerateContent and yields chunks from inside the
// streaming callback, so fragments reach the consumer as they arrive.
func (c *langChainChat) SendStream(ctx context.Context, prompt string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		msgs := append(c.messages[:len(c.messages):len(c.messages)], llms.TextParts(llms.ChatMessageTypeHuman, prompt))

		var full strings.Builder
		stopped := false
		resp, err := c.llm.GenerateContent(ctx, msgs,
			llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
				if len(chunk) == 0 {
					return nil
				}
				full.Write(chunk)
				if !yield(string(chunk), nil) {
					stopped = true
					return errStreamStopped
				}
				return nil
			}),
		)
		if stopped {
			return
		}
		if err != nil {
			yield("", fmt.Errorf("langchain generate: %w", err))
			return
		}

		// Some providers ignore the streaming func and only fill the response.
		if full.Len() == 0 && resp != nil && len(resp.Choices) > 0 {
			text := resp.Choices[0].Content
			full.WriteString(text)
			if text != "" && !yield(text, nil) {
				return
			}
		}

		c.messages = append(msgs, llms.TextParts(llms.ChatMessageTypeAI, full.String()))
	}
}

func toChatMessageType(role string) llms.ChatMessageType {
	if role == RoleModel {
		return llms.ChatMessageTypeAI
	}
	return llms.ChatMessageTypeHuman
}
