package job

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/riverqueue/river"
	"github.com/robfig/cron/v3"
)

type enqueueOptions struct {
	queue       string
	scheduledAt time.Time
	maxAttempts int
	uniqueFor   time.Duration
	uniqueKey   string
}

// EnqueueOption adjusts a single insert.
type EnqueueOption func(*enqueueOptions)

// InQueue routes the job to a named queue.
func InQueue(name string) EnqueueOption {
	return func(o *enqueueOptions) { o.queue = name }
}

// ScheduledIn delays the job by d.
func ScheduledIn(d time.Duration) EnqueueOption {
	return func(o *enqueueOptions) { o.scheduledAt = time.Now().Add(d) }
}

// MaxAttempts caps retries. River's default is 25.
func MaxAttempts(n int) EnqueueOption {
	return func(o *enqueueOptions) {
		if n > 0 {
			o.maxAttempts = n
		}
	}
}

// UniqueFor skips the insert when a job with the same task and key was
// inserted within d.
func UniqueFor(key string, d time.Duration) EnqueueOption {
	return func(o *enqueueOptions) {
		o.uniqueKey = key
		o.uniqueFor = d
	}
}

func buildArgs(name string, payload any, opts ...EnqueueOption) (taskArgs, *river.InsertOpts, error) {
	args := taskArgs{Task: name}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return args, nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
		}
		args.Payload = raw
	}

	var o enqueueOptions
	for _, opt := range opts {
		opt(&o)
	}

	insert := &river.InsertOpts{
		Queue:       o.queue,
		ScheduledAt: o.scheduledAt,
		MaxAttempts: o.maxAttempts,
	}
	if o.uniqueFor > 0 {
		args.UniqueKey = o.uniqueKey
		insert.UniqueOpts = river.UniqueOpts{ByArgs: true, ByPeriod: o.uniqueFor}
	}
	return args, insert, nil
}

// ParseSchedule parses a five-field cron expression
// (minute hour day-of-month month day-of-week).
func ParseSchedule(expr string) (river.PeriodicSchedule, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	s, err := parser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidSchedule, expr, err)
	}
	return cronSchedule{s}, nil
}

type cronSchedule struct {
	cron.Schedule
}

func (c cronSchedule) Next(t time.Time) time.Time {
	return c.Schedule.Next(t)
}
