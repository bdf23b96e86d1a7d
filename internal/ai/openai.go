package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

type openAIConfig struct {
	APIKey     string `json:"api_key"`
	BaseURL    string `json:"base_url"`
	Dimensions int    `json:"dimensions"`
}

// openAIProvider talks to any OpenAI compatible endpoint, e.g. Together or OpenRouter.
type openAIProvider struct {
	client     *openai.Client
	enabled    bool
	dimensions int
}

func (p *openAIProvider) Name() string {
	return "openai"
}

func toOpenAIMessages(messages []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		role := openai.ChatMessageRoleUser
		switch msg.Role {
		case RoleSystem:
			role = openai.ChatMessageRoleSystem
		case RoleAssistant:
			role = openai.ChatMessageRoleAssistant
		}
		out = append(out, openai.ChatCompletionMessage{Role: role, Content: msg.Content})
	}
	return out
}

func (p *openAIProvider) Chat(ctx context.Context, model string, messages []Message, opts ChatOptions) (string, error) {
	if !p.enabled {
		return "", ErrUnavailable
	}
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    toOpenAIMessages(messages),
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai response has no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (p *openAIProvider) Embed(ctx context.Context, model string, text string, taskType string) ([]float32, error) {
	_ = taskType
	if !p.enabled {
		return nil, ErrUnavailable
	}
	resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:      []string{text},
		Model:      openai.EmbeddingModel(model),
		Dimensions: p.dimensions,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("openai response has no embeddings")
	}
	return resp.Data[0].Embedding, nil
}

func createOpenAIFactory(args interface{}) (IProvider, error) {
	cfg := &openAIConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	clientConfig := openai.DefaultConfig(apiKey)
	clientConfig.BaseURL = baseURL
	return &openAIProvider{
		client:     openai.NewClientWithConfig(clientConfig),
		enabled:    apiKey != "",
		dimensions: cfg.Dimensions,
	}, nil
}

func init() {
	Register("openai", createOpenAIFactory)
}
