package schedule

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/medassist/internal/metrics"
)

type Job interface {
	Name() string
	Run(ctx context.Context) error
}

type Scheduler interface {
	AddJob(job Job, spec string) error
	Start(ctx context.Context)
	Stop()
}

type Option func(*CronScheduler)

// WithJobTimeout bounds every run. Zero leaves runs unbounded.
func WithJobTimeout(d time.Duration) Option {
	return func(c *CronScheduler) {
		c.timeout = d
	}
}

// CronScheduler runs jobs on five-field cron specs. A run that is still in
// progress when its next tick fires makes that tick a no-op.
type CronScheduler struct {
	cron    *cron.Cron
	runners map[string]func()
	timeout time.Duration
	ctx     context.Context
}

func NewCronScheduler(opts ...Option) *CronScheduler {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	c := &CronScheduler{
		cron:    cron.New(cron.WithParser(parser)),
		runners: make(map[string]func()),
		ctx:     context.Background(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *CronScheduler) AddJob(job Job, spec string) error {
	name := job.Name()
	if _, ok := c.runners[name]; ok {
		return fmt.Errorf("job %s already scheduled", name)
	}
	logger := logutil.GetLogger(context.Background()).With(zap.String("job", name), zap.String("spec", spec))
	runner := c.wrap(job)
	if _, err := c.cron.AddFunc(spec, runner); err != nil {
		logger.Error("schedule job failed", zap.Error(err))
		return fmt.Errorf("schedule job %s: %w", name, err)
	}
	c.runners[name] = runner
	logger.Info("job scheduled")
	return nil
}

// RunNow runs a scheduled job synchronously, outside its cron tick.
func (c *CronScheduler) RunNow(name string) error {
	runner, ok := c.runners[name]
	if !ok {
		return fmt.Errorf("job %s not scheduled", name)
	}
	runner()
	return nil
}

func (c *CronScheduler) Start(ctx context.Context) {
	if ctx != nil {
		c.ctx = ctx
	}
	c.cron.Start()
}

// Stop waits for running jobs to return.
func (c *CronScheduler) Stop() {
	<-c.cron.Stop().Done()
}

func (c *CronScheduler) wrap(job Job) func() {
	var running atomic.Bool
	return func() {
		logger := logutil.GetLogger(c.ctx).With(zap.String("job", job.Name()))
		if !running.CompareAndSwap(false, true) {
			logger.Info("job skipped: still running")
			metrics.JobRuns.WithLabelValues(job.Name(), "skipped").Inc()
			return
		}
		defer running.Store(false)

		ctx := c.ctx
		if c.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, c.timeout)
			defer cancel()
		}
		start := time.Now()
		err := job.Run(ctx)
		elapsed := time.Since(start)
		if err != nil {
			metrics.JobRuns.WithLabelValues(job.Name(), "failed").Inc()
			logger.Error("job failed", zap.Error(err), zap.Duration("duration", elapsed))
			return
		}
		metrics.JobRuns.WithLabelValues(job.Name(), "ok").Inc()
		logger.Debug("job finished", zap.Duration("duration", elapsed))
	}
}
