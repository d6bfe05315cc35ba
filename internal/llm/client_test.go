package llm

import (
	"context"
	"errors"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stackfast/config"
)

// mockChatModel implements model.BaseChatModel for testing.
type mockChatModel struct {
	generateFunc func(ctx context.Context, messages []*schema.Message) (*schema.Message, error)
}

func (m *mockChatModel) Generate(ctx context.Context, messages []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	if m.generateFunc != nil {
		return m.generateFunc(ctx, messages)
	}
	return nil, errors.New("not implemented")
}

func (m *mockChatModel) Stream(_ context.Context, _ []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not implemented")
}

func TestOpenAIClient_Request(t *testing.T) {
	var seen []*schema.Message
	m := &mockChatModel{generateFunc: func(_ context.Context, messages []*schema.Message) (*schema.Message, error) {
		seen = messages
		return &schema.Message{
			Role:    schema.Assistant,
			Content: "```json\n{\"complexity\":\"Low\"}\n```",
			ResponseMeta: &schema.ResponseMeta{
				Usage: &schema.TokenUsage{TotalTokens: 12},
			},
		}, nil
	}}

	client := newOpenAIClientWithModel(m, 10)
	answer, err := client.Request(context.Background(), "system", "a prompt that is long")
	require.NoError(t, err)

	assert.Equal(t, `{"complexity":"Low"}`, answer)
	require.Len(t, seen, 2)
	assert.Equal(t, schema.System, seen[0].Role)
	assert.Equal(t, "a prompt t", seen[1].Content)
}

func TestOpenAIClient_Errors(t *testing.T) {
	failing := newOpenAIClientWithModel(&mockChatModel{}, 100)
	_, err := failing.Request(context.Background(), "s", "u")
	assert.ErrorContains(t, err, "LLM generate")

	empty := newOpenAIClientWithModel(&mockChatModel{generateFunc: func(context.Context, []*schema.Message) (*schema.Message, error) {
		return &schema.Message{Content: "  "}, nil
	}}, 100)
	_, err = empty.Request(context.Background(), "s", "u")
	assert.ErrorContains(t, err, "empty")
}

func TestNewOpenAIClient_RequiresKey(t *testing.T) {
	_, err := NewOpenAIClient(context.Background(), config.LLMConfig{Provider: "openai", Model: "m", APIKeyEnv: "OPENAI_API_KEY"})
	assert.ErrorContains(t, err, "API key is required")
}

func TestNew_UnknownProvider(t *testing.T) {
	_, err := New(context.Background(), config.LLMConfig{Provider: "telepathy"}, nil)
	assert.Error(t, err)
}

type recordingObserver struct {
	provider string
	err      error
	calls    int
}

func (r *recordingObserver) ObserveLLMLatency(provider, _ string, _ time.Duration, err error) {
	r.provider = provider
	r.err = err
	r.calls++
}

type staticClient struct {
	answer string
	err    error
}

func (s staticClient) Request(context.Context, string, string) (string, error) {
	return s.answer, s.err
}

func TestObservedClient(t *testing.T) {
	obs := &recordingObserver{}
	c := &observedClient{next: staticClient{err: errors.New("boom")}, provider: "ollama", model: "m", observer: obs}

	_, err := c.Request(context.Background(), "s", "u")
	assert.Error(t, err)
	assert.Equal(t, 1, obs.calls)
	assert.Equal(t, "ollama", obs.provider)
	assert.EqualError(t, obs.err, "boom")
}

func TestOllamaClient_CanceledContext(t *testing.T) {
	client, err := NewOllamaClient(config.LLMConfig{Host: "http://127.0.0.1:1", Model: "m", MaxPromptLength: 100})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = client.Request(ctx, "s", "u")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTruncatePrompt(t *testing.T) {
	tests := []struct {
		name   string
		prompt string
		maxLen int
		want   string
	}{
		{name: "under limit", prompt: "hello", maxLen: 10, want: "hello"},
		{name: "no limit", prompt: "hello", maxLen: 0, want: "hello"},
		{name: "ascii cut", prompt: "hello", maxLen: 3, want: "hel"},
		{name: "cut inside two-byte rune", prompt: "héllo", maxLen: 2, want: "h"},
		{name: "cut after two-byte rune", prompt: "héllo", maxLen: 3, want: "hé"},
		{name: "cut inside four-byte rune", prompt: "a🚀b", maxLen: 4, want: "a"},
		{name: "cut inside first rune", prompt: "日本", maxLen: 2, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncatePrompt(tt.prompt, tt.maxLen)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}

func TestCleanAnswer(t *testing.T) {
	testCases := map[string]string{
		"plain":                  "plain",
		"```\nfenced\n```":       "fenced",
		"```json\n{\"a\":1}\n```": `{"a":1}`,
		"  spaced  ":             "spaced",
	}
	for in, want := range testCases {
		assert.Equal(t, want, cleanAnswer(in))
	}
}
