package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

type ChatModelEntry struct {
	Name  string
	Model IChatModel
}

type EmbedderEntry struct {
	Name     string
	Embedder IEmbedder
}

type groupChatModel struct {
	items []ChatModelEntry
}

// NewGroupChatModel tries each model in order and returns the first success.
func NewGroupChatModel(items []ChatModelEntry) IChatModel {
	if len(items) == 0 {
		return nil
	}
	return &groupChatModel{items: items}
}

func (g *groupChatModel) Chat(ctx context.Context, messages []Message) (string, error) {
	var lastErr error
	for i, item := range g.items {
		if item.Model == nil {
			continue
		}
		res, err := item.Model.Chat(ctx, messages)
		if err == nil {
			return res, nil
		}
		lastErr = err
		logutil.GetLogger(ctx).Warn("chat model failed", zap.Int("index", i), zap.String("name", item.Name), zap.Error(err))
	}
	if lastErr == nil {
		return "", fmt.Errorf("chat model not configured")
	}
	return "", lastErr
}

func (g *groupChatModel) ModelName() string {
	return joinNames(len(g.items), func(i int) string { return g.items[i].Name })
}

type groupEmbedder struct {
	items []EmbedderEntry
}

// NewGroupEmbedder falls back across embedders. All entries must produce
// vectors of the same dimension, otherwise stored vectors become incomparable.
func NewGroupEmbedder(items []EmbedderEntry) IEmbedder {
	if len(items) == 0 {
		return nil
	}
	return &groupEmbedder{items: items}
}

func (g *groupEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	var lastErr error
	for i, item := range g.items {
		if item.Embedder == nil {
			continue
		}
		res, err := item.Embedder.Embed(ctx, text, taskType)
		if err == nil {
			return res, nil
		}
		lastErr = err
		logutil.GetLogger(ctx).Warn("embedder failed", zap.Int("index", i), zap.String("name", item.Name), zap.Error(err))
	}
	if lastErr == nil {
		return nil, fmt.Errorf("embedder not configured")
	}
	return nil, lastErr
}

func (g *groupEmbedder) ModelName() string {
	return joinNames(len(g.items), func(i int) string { return g.items[i].Name })
}

func joinNames(n int, name func(i int) string) string {
	names := make([]string, 0, n)
	for i := 0; i < n; i++ {
		if v := name(i); v != "" {
			names = append(names, v)
		}
	}
	return strings.Join(names, "|")
}
