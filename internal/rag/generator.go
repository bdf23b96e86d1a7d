package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/medassist/internal/ai"
	"github.com/xxxsen/medassist/internal/metrics"
	"github.com/xxxsen/medassist/internal/model"
)

var ErrGenerationFailed = errors.New("answer generation failed")

type Generator struct {
	chat ai.IChatModel
}

func NewGenerator(chat ai.IChatModel) *Generator {
	return &Generator{chat: chat}
}

// Generate answers query from the retrieved chunks only. Without chunks it
// returns FallbackAnswer and never calls the model.
func (g *Generator) Generate(ctx context.Context, prompt string, chunks []model.ScoredChunk, query string) (string, error) {
	if len(chunks) == 0 {
		metrics.Generations.WithLabelValues("fallback").Inc()
		return FallbackAnswer, nil
	}
	system := prompt + "\n\nContext:\n" + joinChunks(chunks)
	answer, err := g.chat.Chat(ctx, ai.SystemAndUser(system, query))
	if err != nil {
		metrics.Generations.WithLabelValues("failed").Inc()
		logutil.GetLogger(ctx).Error("generate answer failed", zap.String("model", g.chat.ModelName()), zap.Error(err))
		return "", fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}
	metrics.Generations.WithLabelValues("ok").Inc()
	return strings.TrimSpace(answer), nil
}

func joinChunks(chunks []model.ScoredChunk) string {
	parts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		parts = append(parts, c.Chunk.Text)
	}
	return strings.Join(parts, "\n\n")
}
