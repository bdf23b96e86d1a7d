package job

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

type embedCachePruner interface {
	DeleteBefore(ctx context.Context, cutoff int64) (int64, error)
}

// EmbeddingCacheCleanupJob drops persisted embeddings older than maxAgeDays.
type EmbeddingCacheCleanupJob struct {
	repo       embedCachePruner
	maxAgeDays int
	now        func() time.Time
}

func NewEmbeddingCacheCleanupJob(repo embedCachePruner, maxAgeDays int) *EmbeddingCacheCleanupJob {
	if maxAgeDays <= 0 {
		maxAgeDays = 30
	}
	return &EmbeddingCacheCleanupJob{repo: repo, maxAgeDays: maxAgeDays, now: time.Now}
}

func (j *EmbeddingCacheCleanupJob) Name() string {
	return "embedding_cache_cleanup"
}

func (j *EmbeddingCacheCleanupJob) Run(ctx context.Context) error {
	if j.repo == nil {
		return nil
	}
	cutoff := j.now().AddDate(0, 0, -j.maxAgeDays).Unix()
	removed, err := j.repo.DeleteBefore(ctx, cutoff)
	if err != nil {
		return err
	}
	if removed > 0 {
		logutil.GetLogger(ctx).Info("embedding cache pruned", zap.Int64("removed", removed))
	}
	return nil
}
