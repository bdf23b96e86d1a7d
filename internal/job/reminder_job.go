package job

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

type reminderDispatcher interface {
	Dispatch(ctx context.Context) (sent int, failed int, err error)
}

// ReminderJob sends reminders whose time has come.
type ReminderJob struct {
	reminders reminderDispatcher
}

func NewReminderJob(reminders reminderDispatcher) *ReminderJob {
	return &ReminderJob{reminders: reminders}
}

func (j *ReminderJob) Name() string {
	return "reminder_dispatch"
}

func (j *ReminderJob) Run(ctx context.Context) error {
	sent, failed, err := j.reminders.Dispatch(ctx)
	if sent > 0 || failed > 0 {
		logutil.GetLogger(ctx).Info("reminders dispatched", zap.Int("sent", sent), zap.Int("failed", failed))
	}
	return err
}
