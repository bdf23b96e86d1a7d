package job

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

type expiredSessionCleaner interface {
	CleanupExpired(ctx context.Context) (int, error)
}

// SessionCleanupJob removes uploads whose conversation session has expired,
// covering clients that never called cleanup themselves.
type SessionCleanupJob struct {
	documents expiredSessionCleaner
}

func NewSessionCleanupJob(documents expiredSessionCleaner) *SessionCleanupJob {
	return &SessionCleanupJob{documents: documents}
}

func (j *SessionCleanupJob) Name() string {
	return "session_cleanup"
}

func (j *SessionCleanupJob) Run(ctx context.Context) error {
	removed, err := j.documents.CleanupExpired(ctx)
	if removed > 0 {
		logutil.GetLogger(ctx).Info("expired session documents removed", zap.Int("removed", removed))
	}
	return err
}
