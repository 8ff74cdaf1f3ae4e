// Package scheduler runs the worker's periodic jobs on a single gocron v2
// scheduler.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/orris-inc/tollgate/internal/shared/biztime"
	"github.com/orris-inc/tollgate/internal/shared/logger"
)

// DueTaskPromoter moves delayed queue entries whose retry time has passed
// back onto the ready list.
type DueTaskPromoter interface {
	PromoteDue(ctx context.Context) (int, error)
}

// EventLogPruner deletes processed webhook events older than cutoff.
type EventLogPruner interface {
	DeleteProcessedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

const (
	DefaultPromoteInterval = 15 * time.Second
	DefaultRetentionDays   = 30
)

type SchedulerManager struct {
	scheduler gocron.Scheduler
	logger    logger.Interface

	started   bool
	startedMu sync.RWMutex
}

func NewSchedulerManager(log logger.Interface) (*SchedulerManager, error) {
	scheduler, err := gocron.NewScheduler(
		gocron.WithLocation(time.UTC),
	)
	if err != nil {
		return nil, err
	}

	return &SchedulerManager{
		scheduler: scheduler,
		logger:    log,
	}, nil
}

// RegisterQueueJobs registers the delayed-retry promotion job for the email
// queue.
func (m *SchedulerManager) RegisterQueueJobs(promoter DueTaskPromoter, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultPromoteInterval
	}

	_, err := m.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			defer cancel()
			m.promoteDueTasks(ctx, promoter)
		}),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("queue", "email", "retry"),
		gocron.WithName("email-retry-promoter"),
	)
	if err != nil {
		return err
	}

	m.logger.Infow("registered queue jobs", "interval", interval.String())
	return nil
}

func (m *SchedulerManager) promoteDueTasks(ctx context.Context, promoter DueTaskPromoter) {
	moved, err := promoter.PromoteDue(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		m.logger.Errorw("failed to promote delayed email tasks", "error", err)
		return
	}
	if moved > 0 {
		m.logger.Infow("delayed email tasks promoted", "count", moved)
	}
}

// RegisterEventLogJobs registers the daily prune of processed webhook events
// (04:00 UTC).
func (m *SchedulerManager) RegisterEventLogJobs(pruner EventLogPruner, retentionDays int) error {
	if retentionDays <= 0 {
		retentionDays = DefaultRetentionDays
	}

	_, err := m.scheduler.NewJob(
		gocron.CronJob("0 4 * * *", false),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
			defer cancel()
			m.pruneEventLog(ctx, pruner, retentionDays)
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("webhook", "cleanup"),
		gocron.WithName("webhook-event-prune"),
	)
	if err != nil {
		return err
	}

	m.logger.Infow("registered event log jobs",
		"cleanup", "04:00",
		"retention_days", retentionDays,
	)
	return nil
}

func (m *SchedulerManager) pruneEventLog(ctx context.Context, pruner EventLogPruner, retentionDays int) {
	startTime := biztime.NowUTC()
	cutoff := startTime.AddDate(0, 0, -retentionDays)

	deleted, err := pruner.DeleteProcessedBefore(ctx, cutoff)
	if err != nil {
		m.logger.Errorw("webhook event prune failed",
			"error", err,
			"duration", time.Since(startTime),
			"retention_days", retentionDays,
		)
		return
	}

	m.logger.Infow("webhook event prune completed",
		"deleted", deleted,
		"cutoff", cutoff,
		"duration", time.Since(startTime),
	)
}

// Start starts the scheduler and all registered jobs.
func (m *SchedulerManager) Start() {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if m.started {
		return
	}

	m.scheduler.Start()
	m.started = true
	m.logger.Infow("scheduler manager started", "job_count", len(m.scheduler.Jobs()))
}

// Stop waits for running jobs to complete before returning.
func (m *SchedulerManager) Stop() error {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if !m.started {
		return nil
	}

	err := m.scheduler.Shutdown()
	m.started = false

	if err != nil {
		m.logger.Errorw("scheduler manager shutdown with error", "error", err)
		return err
	}

	m.logger.Infow("scheduler manager stopped")
	return nil
}

func (m *SchedulerManager) IsStarted() bool {
	m.startedMu.RLock()
	defer m.startedMu.RUnlock()
	return m.started
}

func (m *SchedulerManager) Jobs() []gocron.Job {
	return m.scheduler.Jobs()
}
