package llm

import (
	"context"
	"fmt"
	"iter"

	"google.golang.org/genai"
)

// geminiChat is the part of *genai.Chat we rely on.
type geminiChat interface {
	SendMessageStream(ctx context.Context, parts ...genai.Part) iter.Seq2[*genai.GenerateContentResponse, error]
}

// GeminiModel talks to the Gemini API through the genai chats endpoint.
type GeminiModel struct {
	client *genai.Client
	model  string
	// createChat is swapped in tests.
	createChat func(ctx context.Context, model string, history []*genai.Content) (geminiChat, error)
}

func NewGeminiModel(ctx context.Context, apiKey, model, baseURL string) (*GeminiModel, error) {
	cc := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	m := &GeminiModel{client: client, model: model}
	m.createChat = func(ctx context.Context, model string, history []*genai.Content) (geminiChat, error) {
		chat, err := m.client.Chats.Create(ctx, model, nil, history)
		if err != nil {
			return nil, err
		}
		return chat, nil
	}
	return m, nil
}

func (m *GeminiModel) StartChat(ctx context.Context, history []Turn) (Chat, error) {
	chat, err := m.createChat(ctx, m.model, toGenaiContents(history))
	if err != nil {
		return nil, fmt.Errorf("gemini start chat: %w", err)
	}
	return &geminiSession{chat: chat}, nil
}

type geminiSession struct {
	chat geminiChat
}

func (s *geminiSession) SendStream(ctx context.Context, prompt string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for resp, err := range s.chat.SendMessageStream(ctx, genai.Part{Text: prompt}) {
			if err != nil {
				yield("", fmt.Errorf("gemini stream: %w", err))
				return
			}
			if !yield(resp.Text(), nil) {
				return
			}
		}
	}
}

func toGenaiContents(turns []Turn) []*genai.Content {
	contents := make([]*genai.Content, 0, len(turns))
	for _, t := range turns {
		role := genai.Role(genai.RoleUser)
		if t.Role == RoleModel {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(t.Text, role))
	}
	return contents
}
