package llm

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/JexSrs/go-ollama"
	"github.com/sirupsen/logrus"

	"stackfast/config"
)

// OllamaClient talks to a local Ollama server.
type OllamaClient struct {
	client       *ollama.Ollama
	model        string
	maxPromptLen int
	timeout      time.Duration
}

// NewOllamaClient creates a new client for Ollama.
func NewOllamaClient(cfg config.LLMConfig) (*OllamaClient, error) {
	ollamaURL, err := url.Parse(cfg.Host)
	if err != nil {
		return nil, fmt.Errorf("invalid Ollama URL: %w", err)
	}

	logrus.Infof("Using Ollama client for host: %s", cfg.Host)
	logrus.Infof("Using Ollama model: %s", cfg.Model)

	return &OllamaClient{
		client:       ollama.New(*ollamaURL),
		model:        cfg.Model,
		maxPromptLen: cfg.MaxPromptLength,
		timeout:      cfg.Timeout,
	}, nil
}

type generateResult struct {
	answer string
	err    error
}

// Request runs a single Generate call. The Ollama library has no context
// support, so the call runs in its own goroutine and ctx only bounds the wait.
func (oc *OllamaClient) Request(ctx context.Context, systemMessage, userPrompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if oc.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, oc.timeout)
		defer cancel()
	}
	userPrompt = truncatePrompt(userPrompt, oc.maxPromptLen)

	done := make(chan generateResult, 1)
	go func() {
		answer, err := oc.generate(systemMessage, userPrompt)
		done <- generateResult{answer: answer, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("ollama request: %w", ctx.Err())
	case res := <-done:
		return res.answer, res.err
	}
}

func (oc *OllamaClient) generate(systemMessage, userPrompt string) (string, error) {
	res, err := oc.client.Generate(
		oc.client.Generate.WithModel(oc.model),
		oc.client.Generate.WithSystem(systemMessage),
		oc.client.Generate.WithPrompt(userPrompt),
	)
	if err != nil {
		return "", fmt.Errorf("ollama generate: %w", err)
	}

	if !res.Done {
		return "", fmt.Errorf("ollama request did not finish (unexpected streaming behaviour)")
	}
	if res.Response == "" {
		return "", fmt.Errorf("ollama response is empty but marked done")
	}
	logrus.Debug("Response received from Ollama.")
	return cleanAnswer(res.Response), nil
}
