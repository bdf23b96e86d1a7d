package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var ErrUnavailable = errors.New("ai provider unavailable")

const (
	TaskRetrievalDocument = "RETRIEVAL_DOCUMENT"
	TaskRetrievalQuery    = "RETRIEVAL_QUERY"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string
	Content string
}

type ChatOptions struct {
	Temperature float32
	MaxTokens   int
}

type IProvider interface {
	Name() string
	Chat(ctx context.Context, model string, messages []Message, opts ChatOptions) (string, error)
	Embed(ctx context.Context, model string, text string, taskType string) ([]float32, error)
}

type IChatModel interface {
	Chat(ctx context.Context, messages []Message) (string, error)
	ModelName() string
}

type IEmbedder interface {
	Embed(ctx context.Context, text string, taskType string) ([]float32, error)
	ModelName() string
}

type chatModel struct {
	provider IProvider
	model    string
	opts     ChatOptions
}

func NewChatModel(p IProvider, model string, opts ChatOptions) IChatModel {
	return &chatModel{provider: p, model: model, opts: opts}
}

func (m *chatModel) Chat(ctx context.Context, messages []Message) (string, error) {
	return m.provider.Chat(ctx, m.model, messages, m.opts)
}

func (m *chatModel) ModelName() string {
	return m.model
}

type embedder struct {
	provider IProvider
	model    string
}

func NewEmbedder(p IProvider, model string) IEmbedder {
	return &embedder{provider: p, model: model}
}

func (e *embedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	return e.provider.Embed(ctx, e.model, text, taskType)
}

func (e *embedder) ModelName() string {
	return e.model
}

// SystemAndUser is the two-message shape used by every prompt in the service.
func SystemAndUser(system, user string) []Message {
	return []Message{
		{Role: RoleSystem, Content: system},
		{Role: RoleUser, Content: user},
	}
}

type ProviderFactory func(args interface{}) (IProvider, error)

var registry = map[string]ProviderFactory{}

func Register(name string, factory ProviderFactory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	registry[key] = factory
}

func NewProvider(name string, args interface{}) (IProvider, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil, fmt.Errorf("ai provider is required")
	}
	factory := registry[key]
	if factory == nil {
		return nil, fmt.Errorf("unsupported ai provider: %s", name)
	}
	return factory(args)
}
