package sampler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ppiankov/veracity/internal/model"
	"github.com/ppiankov/veracity/internal/util"
	"github.com/sashabaranov/go-openai"
)

// OpenAISampler draws samples from the OpenAI Chat Completions API
type OpenAISampler struct {
	client *openai.Client
	config model.SamplerConfig
	logger *slog.Logger
}

// NewOpenAISampler creates a new OpenAI sampler
func NewOpenAISampler(config model.SamplerConfig, logger *slog.Logger) (*OpenAISampler, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	clientConfig.HTTPClient = &http.Client{
		Timeout: config.Timeout,
		Transport: &http.Transport{
			Proxy: util.NewProxyFunc(config.HTTPProxy, config.HTTPSProxy, config.NoProxy),
		},
	}

	return &OpenAISampler{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
		logger: logger,
	}, nil
}

// Name returns the provider name
func (s *OpenAISampler) Name() string {
	return "openai"
}

// IsAvailable checks if the provider is properly configured
func (s *OpenAISampler) IsAvailable(ctx context.Context) bool {
	// Listing models is the cheapest authenticated call
	if _, err := s.client.ListModels(ctx); err != nil {
		s.logger.Warn("OpenAI API check failed", "error", err)
		return false
	}
	return true
}

// Generate draws one completion for input
func (s *OpenAISampler) Generate(ctx context.Context, input map[string]interface{}) (string, error) {
	modelName := s.config.Model
	if modelName == "" {
		modelName = openai.GPT4oMini
	}

	req := openai.ChatCompletionRequest{
		Model: modelName,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: BuildPrompt(input)},
		},
		MaxTokens:   s.config.MaxTokens,
		Temperature: s.config.Temperature,
	}

	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
