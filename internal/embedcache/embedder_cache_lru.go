package embedcache

import (
	"context"
	"slices"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/medassist/internal/ai"
	"github.com/xxxsen/medassist/internal/metrics"
)

// WrapLruCacheToEmbedder keeps recent vectors in process. Repeated questions
// within a session skip the embedding call entirely.
func WrapLruCacheToEmbedder(e ai.IEmbedder, size int, ttl time.Duration) ai.IEmbedder {
	if e == nil || size <= 0 || ttl <= 0 {
		return e
	}
	return &lruEmbedder{
		next:  e,
		cache: expirable.NewLRU[string, []float32](size, nil, ttl),
	}
}

type lruEmbedder struct {
	next  ai.IEmbedder
	cache *expirable.LRU[string, []float32]
}

func (l *lruEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	key, _, _ := buildCacheKey(l.next.ModelName(), taskType, text)
	if vec, ok := l.cache.Get(key); ok {
		metrics.EmbedCacheLookups.WithLabelValues("lru", "hit").Inc()
		logutil.GetLogger(ctx).Debug("embedding served from memory", zap.String("task_type", taskType))
		return slices.Clone(vec), nil
	}
	metrics.EmbedCacheLookups.WithLabelValues("lru", "miss").Inc()
	vec, err := l.next.Embed(ctx, text, taskType)
	if err != nil {
		return nil, err
	}
	if len(vec) > 0 {
		l.cache.Add(key, slices.Clone(vec))
	}
	return vec, nil
}

func (l *lruEmbedder) ModelName() string {
	return l.next.ModelName()
}
