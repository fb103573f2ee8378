// Package job runs background work on River, a Postgres-backed queue.
//
// Every task is stored under one River job kind carrying the task name and
// a JSON payload, so adding a task means registering a type with a Name
// and a Handle method:
//
//	m, err := job.NewManager(pool,
//		job.WithTask[tasks.TranscribePayload](transcribe),
//		job.WithScheduledTask(cleanup),
//		job.WithLogger(log),
//	)
//	_ = m.Start(ctx)
//	id, err := m.Enqueue(ctx, "transcribe", payload, job.MaxAttempts(3))
//
// River's own tables must exist before Start; Migrate creates them and
// `latios migrate up` runs it.
package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
)

var (
	ErrPoolRequired      = errors.New("job: pool is required")
	ErrUnknownTask       = errors.New("job: unknown task")
	ErrInvalidPayload    = errors.New("job: invalid payload")
	ErrAlreadyStarted    = errors.New("job: already started")
	ErrNotStarted        = errors.New("job: not started")
	ErrInvalidSchedule   = errors.New("job: invalid cron schedule")
	ErrHealthcheckFailed = errors.New("job: healthcheck failed")
)

// Config is loaded with the JOBS_ prefix.
type Config struct {
	MaxWorkers int `env:"MAX_WORKERS" envDefault:"10"`
}

// Manager enqueues tasks and, once started, works them.
type Manager struct {
	pool     *pgxpool.Pool
	client   *river.Client[pgx.Tx]
	registry *registry
	logger   *slog.Logger

	mu      sync.Mutex
	started bool
}

// NewManager builds the River client. Tasks may be enqueued before Start.
func NewManager(pool *pgxpool.Pool, opts ...Option) (*Manager, error) {
	if pool == nil {
		return nil, ErrPoolRequired
	}

	o := &options{registry: newRegistry(), maxWorkers: 10, queues: map[string]int{}}
	for _, opt := range opts {
		opt(o)
	}
	if o.err != nil {
		return nil, o.err
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	queues := map[string]river.QueueConfig{
		river.QueueDefault: {MaxWorkers: o.maxWorkers},
	}
	for name, n := range o.queues {
		queues[name] = river.QueueConfig{MaxWorkers: n}
	}

	periodic := make([]*river.PeriodicJob, 0, len(o.periodic))
	for _, p := range o.periodic {
		name := p.name
		periodic = append(periodic, river.NewPeriodicJob(
			p.schedule,
			func() (river.JobArgs, *river.InsertOpts) {
				return taskArgs{Task: name}, nil
			},
			&river.PeriodicJobOpts{RunOnStart: false},
		))
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, &taskWorker{registry: o.registry, logger: o.logger})

	client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues:       queues,
		Workers:      workers,
		PeriodicJobs: periodic,
		Logger:       o.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("job: create client: %w", err)
	}

	return &Manager{
		pool:     pool,
		client:   client,
		registry: o.registry,
		logger:   o.logger,
	}, nil
}

// Start begins working jobs.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return ErrAlreadyStarted
	}
	if err := m.client.Start(ctx); err != nil {
		return fmt.Errorf("job: start: %w", err)
	}
	m.started = true
	m.logger.Info("job manager started", slog.Any("tasks", m.registry.names()))
	return nil
}

// Stop waits for running jobs to finish or ctx to expire.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.started {
		return ErrNotStarted
	}
	if err := m.client.Stop(ctx); err != nil {
		return fmt.Errorf("job: stop: %w", err)
	}
	m.started = false
	m.logger.Info("job manager stopped")
	return nil
}

// Enqueue inserts a job for task name and returns its River id. A job
// skipped as a duplicate under UniqueFor returns the existing job's id.
func (m *Manager) Enqueue(ctx context.Context, name string, payload any, opts ...EnqueueOption) (int64, error) {
	if !m.registry.has(name) {
		return 0, fmt.Errorf("%w: %s", ErrUnknownTask, name)
	}

	args, insertOpts, err := buildArgs(name, payload, opts...)
	if err != nil {
		return 0, err
	}

	res, err := m.client.Insert(ctx, args, insertOpts)
	if err != nil {
		return 0, fmt.Errorf("job: enqueue %s: %w", name, err)
	}
	return res.Job.ID, nil
}

// Check reports whether the manager is running, its database reachable and
// River's tables installed. It has the shape of a health check function.
func (m *Manager) Check(ctx context.Context) error {
	m.mu.Lock()
	started := m.started
	m.mu.Unlock()

	if !started {
		return errors.Join(ErrHealthcheckFailed, ErrNotStarted)
	}
	if err := m.pool.Ping(ctx); err != nil {
		return errors.Join(ErrHealthcheckFailed, err)
	}
	if err := checkSchema(ctx, m.pool); err != nil {
		return errors.Join(ErrHealthcheckFailed, err)
	}
	return nil
}

// taskArgs is the single River job kind used for every task. Uniqueness is
// computed over the task name and the optional unique key only.
type taskArgs struct {
	Task      string          `json:"task" river:"unique"`
	UniqueKey string          `json:"unique_key,omitempty" river:"unique"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

func (taskArgs) Kind() string { return "latios:task" }

type taskWorker struct {
	river.WorkerDefaults[taskArgs]
	registry *registry
	logger   *slog.Logger
}

// Timeout applies the deadline registered for the job's task. Zero keeps
// the client default.
func (w *taskWorker) Timeout(j *river.Job[taskArgs]) time.Duration {
	return w.registry.timeout(j.Args.Task)
}

func (w *taskWorker) Work(ctx context.Context, j *river.Job[taskArgs]) error {
	h, ok := w.registry.get(j.Args.Task)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTask, j.Args.Task)
	}

	log := w.logger.With(
		slog.String("task", j.Args.Task),
		slog.Int64("job_id", j.ID),
		slog.Int("attempt", j.Attempt),
	)
	log.DebugContext(ctx, "task started")

	if err := h(ctx, j.Args.Payload); err != nil {
		log.ErrorContext(ctx, "task failed", slog.Any("error", err))
		return err
	}

	log.DebugContext(ctx, "task done")
	return nil
}

// Permanent stops retries: the job is cancelled with err.
func Permanent(err error) error {
	return river.JobCancel(err)
}
