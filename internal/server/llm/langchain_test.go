package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

// fakeLLM streams chunks through the streaming func when one is set.
type fakeLLM struct {
	chunks   []string
	err      error
	calls    [][]llms.MessageContent
	noStream bool
}

func (f *fakeLLM) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.calls = append(f.calls, messages)
	opts := llms.CallOptions{}
	for _, o := range options {
		o(&opts)
	}

	var full string
	for _, c := range f.chunks {
		full += c
		if opts.StreamingFunc != nil && !f.noStream {
			if err := opts.StreamingFunc(ctx, []byte(c)); err != nil {
				return nil, err
			}
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: full}}}, nil
}

func (f *fakeLLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

func TestLangChainModel_Streams(t *testing.T) {
	fake := &fakeLLM{chunks: []string{"Hi", " there"}}
	chat, err := NewLangChainModel(fake).StartChat(context.Background(), []Turn{{RoleUser, "q"}, {RoleModel, "a"}})
	require.NoError(t, err)

	var seen []string
	got, err := Collect(chat.SendStream(context.Background(), "Hello"), func(s string) { seen = append(seen, s) })
	require.NoError(t, err)
	assert.Equal(t, "Hi there", got)
	assert.Equal(t, []string{"Hi", " there"}, seen)

	require.Len(t, fake.calls, 1)
	sent := fake.calls[0]
	require.Len(t, sent, 3)
	assert.Equal(t, llms.ChatMessageTypeHuman, sent[0].Role)
	assert.Equal(t, llms.ChatMessageTypeAI, sent[1].Role)
	assert.Equal(t, llms.ChatMessageTypeHuman, sent[2].Role)
	assert.Equal(t, llms.TextContent{Text: "Hello"}, sent[2].Parts[0])
}

func TestLangChainModel_KeepsChatHistory(t *testing.T) {
	fake := &fakeLLM{chunks: []string{"one"}}
	chat, err := NewLangChainModel(fake).StartChat(context.Background(), nil)
	require.NoError(t, err)

	_, err = Collect(chat.SendStream(context.Background(), "first"), nil)
	require.NoError(t, err)
	_, err = Collect(chat.SendStream(context.Background(), "second"), nil)
	require.NoError(t, err)

	require.Len(t, fake.calls, 2)
	assert.Len(t, fake.calls[1], 3)
}

func TestLangChainModel_NonStreamingProvider(t *testing.T) {
	fake := &fakeLLM{chunks: []string{"whole reply"}, noStream: true}
	chat, _ := NewLangChainModel(fake).StartChat(context.Background(), nil)

	got, err := Collect(chat.SendStream(context.Background(), "x"), nil)
	require.NoError(t, err)
	assert.Equal(t, "whole reply", got)
}

func TestLangChainModel_Error(t *testing.T) {
	boom := errors.New("rate limited")
	fake := &fakeLLM{chunks: []string{"partial"}, err: boom}
	chat, _ := NewLangChainModel(fake).StartChat(context.Background(), nil)

	_, err := Collect(chat.SendStream(context.Background(), "x"), nil)
	assert.ErrorIs(t, err, boom)
}

func TestLangChainModel_ConsumerStops(t *testing.T) {
	fake := &fakeLLM{chunks: []string{"a", "b", "c"}}
	chat, _ := NewLangChainModel(fake).StartChat(context.Background(), nil)

	var got []string
	for frag, err := range chat.SendStream(context.Background(), "x") {
		require.NoError(t, err)
		got = append(got, frag)
		break
	}
	assert.Equal(t, []string{"a"}, got)
}
