package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xxxsen/medassist/internal/config"
)

type timeoutChatModel struct {
	next    IChatModel
	timeout time.Duration
}

// WithTimeout bounds every call and rejects blank replies.
func WithTimeout(next IChatModel, timeout time.Duration) IChatModel {
	if next == nil {
		return nil
	}
	return &timeoutChatModel{next: next, timeout: timeout}
}

func (m *timeoutChatModel) Chat(ctx context.Context, messages []Message) (string, error) {
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}
	resp, err := m.next.Chat(ctx, messages)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(resp)
	if text == "" {
		return "", fmt.Errorf("empty ai response")
	}
	return text, nil
}

func (m *timeoutChatModel) ModelName() string {
	return m.next.ModelName()
}

type timeoutEmbedder struct {
	next    IEmbedder
	timeout time.Duration
}

// WithEmbedTimeout bounds every embedding call.
func WithEmbedTimeout(next IEmbedder, timeout time.Duration) IEmbedder {
	if next == nil || timeout <= 0 {
		return next
	}
	return &timeoutEmbedder{next: next, timeout: timeout}
}

func (e *timeoutEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	return e.next.Embed(ctx, text, taskType)
}

func (e *timeoutEmbedder) ModelName() string {
	return e.next.ModelName()
}

// BuildChatModel assembles the configured providers into one fallback chat model.
func BuildChatModel(cfg config.AIConfig) (IChatModel, error) {
	opts := ChatOptions{Temperature: cfg.Temperature, MaxTokens: cfg.MaxTokens}
	entries := make([]ChatModelEntry, 0, len(cfg.Chat))
	for _, item := range cfg.Chat {
		p, err := NewProvider(item.Provider, item.Data)
		if err != nil {
			return nil, fmt.Errorf("init chat provider %s: %w", item.Name, err)
		}
		entries = append(entries, ChatModelEntry{Name: entryName(item), Model: NewChatModel(p, item.Model, opts)})
	}
	model := NewGroupChatModel(entries)
	if model == nil {
		return nil, fmt.Errorf("no chat provider configured")
	}
	return WithTimeout(model, time.Duration(cfg.Timeout)*time.Second), nil
}

func BuildEmbedder(cfg config.AIConfig) (IEmbedder, error) {
	entries := make([]EmbedderEntry, 0, len(cfg.Embed))
	for _, item := range cfg.Embed {
		p, err := NewProvider(item.Provider, item.Data)
		if err != nil {
			return nil, fmt.Errorf("init embed provider %s: %w", item.Name, err)
		}
		entries = append(entries, EmbedderEntry{Name: entryName(item), Embedder: NewEmbedder(p, item.Model)})
	}
	e := NewGroupEmbedder(entries)
	if e == nil {
		return nil, fmt.Errorf("no embed provider configured")
	}
	return WithEmbedTimeout(e, time.Duration(cfg.Timeout)*time.Second), nil
}

func entryName(item config.AIProviderConfig) string {
	if item.Name != "" {
		return item.Name
	}
	return item.Provider + ":" + item.Model
}
