package llm

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"stackfast/config"
)

// Client defines the interface for LLM clients.
type Client interface {
	// Request sends a system message and a user prompt and returns the
	// model's text answer.
	Request(ctx context.Context, systemMessage, userPrompt string) (string, error)
}

// LatencyObserver receives the duration of every model call.
type LatencyObserver interface {
	ObserveLLMLatency(provider, model string, d time.Duration, err error)
}

// New builds the client selected by cfg.Provider.
func New(ctx context.Context, cfg config.LLMConfig, observer LatencyObserver) (Client, error) {
	var (
		client Client
		err    error
	)
	switch strings.ToLower(cfg.Provider) {
	case "ollama", "":
		client, err = NewOllamaClient(cfg)
	case "openai":
		client, err = NewOpenAIClient(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	if observer == nil {
		return client, nil
	}
	return &observedClient{next: client, provider: strings.ToLower(cfg.Provider), model: cfg.Model, observer: observer}, nil
}

type observedClient struct {
	next     Client
	provider string
	model    string
	observer LatencyObserver
}

func (c *observedClient) Request(ctx context.Context, systemMessage, userPrompt string) (string, error) {
	started := time.Now()
	answer, err := c.next.Request(ctx, systemMessage, userPrompt)
	c.observer.ObserveLLMLatency(c.provider, c.model, time.Since(started), err)
	return answer, err
}

// truncatePrompt caps the prompt at maxLen bytes without splitting a
// multi-byte character.
func truncatePrompt(prompt string, maxLen int) string {
	logrus.Debugf("Sending prompt of %d bytes (max: %d)", len(prompt), maxLen)
	if maxLen <= 0 || len(prompt) <= maxLen {
		return prompt
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(prompt[cut]) {
		cut--
	}
	logrus.Warnf("Prompt is being truncated from %d to %d bytes.", len(prompt), cut)
	return prompt[:cut]
}

// cleanAnswer strips the code fences models like to wrap answers in.
func cleanAnswer(answer string) string {
	answer = strings.TrimSpace(answer)
	answer = strings.TrimPrefix(answer, "```json")
	return strings.TrimSpace(strings.Trim(answer, "`"))
}
