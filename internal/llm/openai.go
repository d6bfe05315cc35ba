package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/sirupsen/logrus"

	"stackfast/config"
)

// OpenAIClient talks to any OpenAI-compatible chat completion endpoint.
type OpenAIClient struct {
	model        model.BaseChatModel
	maxPromptLen int
}

// NewOpenAIClient creates the chat model from cfg. The API key must already
// be resolved (see config.Load).
func NewOpenAIClient(ctx context.Context, cfg config.LLMConfig) (*OpenAIClient, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required: set llm.api_key or $%s", cfg.APIKeyEnv)
	}

	modelCfg := &openai.ChatModelConfig{
		Model:  cfg.Model,
		APIKey: apiKey,
	}
	if cfg.BaseURL != "" {
		modelCfg.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		modelCfg.Timeout = cfg.Timeout
	}

	chatModel, err := openai.NewChatModel(ctx, modelCfg)
	if err != nil {
		return nil, fmt.Errorf("initialize openai model: %w", err)
	}
	logrus.Infof("Using OpenAI-compatible model: %s", cfg.Model)

	return newOpenAIClientWithModel(chatModel, cfg.MaxPromptLength), nil
}

func newOpenAIClientWithModel(m model.BaseChatModel, maxPromptLen int) *OpenAIClient {
	return &OpenAIClient{model: m, maxPromptLen: maxPromptLen}
}

// Request sends one system and one user message.
func (c *OpenAIClient) Request(ctx context.Context, systemMessage, userPrompt string) (string, error) {
	messages := []*schema.Message{
		schema.SystemMessage(systemMessage),
		schema.UserMessage(truncatePrompt(userPrompt, c.maxPromptLen)),
	}

	response, err := c.model.Generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("LLM generate: %w", err)
	}
	if response == nil || strings.TrimSpace(response.Content) == "" {
		return "", fmt.Errorf("LLM returned an empty message")
	}
	if response.ResponseMeta != nil && response.ResponseMeta.Usage != nil {
		logrus.Debugf("LLM usage: %d tokens", response.ResponseMeta.Usage.TotalTokens)
	}
	return cleanAnswer(response.Content), nil
}
