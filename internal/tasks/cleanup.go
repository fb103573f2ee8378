package tasks

import (
	"context"
	"log/slog"
	"time"
)

// CleanupTask is the registered name of the nightly purge.
const CleanupTask = "cleanup"

// CleanupSchedule runs the purge at 03:00 UTC.
const CleanupSchedule = "0 3 * * *"

// finishedTaskRetention is how long completed and failed tasks are kept.
const finishedTaskRetention = 7 * 24 * time.Hour

// CleanupStore is what the purge deletes from.
type CleanupStore interface {
	PurgeSearchesBefore(ctx context.Context, t time.Time) (int64, error)
	FailStaleTasks(ctx context.Context, t time.Time, errText string) (int64, error)
	PurgeTasksBefore(ctx context.Context, t time.Time) (int64, error)
}

// staleTaskError is recorded on tasks whose worker disappeared.
const staleTaskError = "task timed out without progress"

// Cleanup removes expired search history and old finished tasks, and fails
// tasks that stopped making progress.
type Cleanup struct {
	store     CleanupStore
	retention time.Duration
	now       func() time.Time
	logger    *slog.Logger
}

func NewCleanup(s CleanupStore, retention time.Duration, logger *slog.Logger) *Cleanup {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Cleanup{store: s, retention: retention, now: time.Now, logger: logger}
}

func (c *Cleanup) Name() string     { return CleanupTask }
func (c *Cleanup) Schedule() string { return CleanupSchedule }

func (c *Cleanup) Handle(ctx context.Context) error {
	now := c.now()

	searches, err := c.store.PurgeSearchesBefore(ctx, now.Add(-c.retention))
	if err != nil {
		return err
	}
	stale, err := c.store.FailStaleTasks(ctx, now.Add(-StaleTaskAfter), staleTaskError)
	if err != nil {
		return err
	}
	tasks, err := c.store.PurgeTasksBefore(ctx, now.Add(-finishedTaskRetention))
	if err != nil {
		return err
	}

	c.logger.InfoContext(ctx, "cleanup finished",
		slog.Int64("searches", searches),
		slog.Int64("stale_tasks", stale),
		slog.Int64("tasks", tasks),
	)
	return nil
}
