package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/riverqueue/river"
)

type handlerFunc func(ctx context.Context, payload json.RawMessage) error

type registry struct {
	mu       sync.RWMutex
	handlers map[string]handlerFunc
	timeouts map[string]time.Duration
}

func newRegistry() *registry {
	return &registry{
		handlers: make(map[string]handlerFunc),
		timeouts: make(map[string]time.Duration),
	}
}

func (r *registry) add(name string, h handlerFunc, timeout time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[name] = h
	if timeout != 0 {
		r.timeouts[name] = timeout
	} else {
		delete(r.timeouts, name)
	}
}

// timeout is zero for tasks that run under River's default.
func (r *registry) timeout(name string) time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.timeouts[name]
}

func (r *registry) get(name string) (handlerFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[name]
	return h, ok
}

func (r *registry) has(name string) bool {
	_, ok := r.get(name)
	return ok
}

func (r *registry) names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.handlers))
}

// decode adapts a typed handler to the raw payload stored in River.
func decode[P any](handle func(context.Context, P) error) handlerFunc {
	return func(ctx context.Context, raw json.RawMessage) error {
		var p P
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &p); err != nil {
				return errors.Join(ErrInvalidPayload, err)
			}
		}
		return handle(ctx, p)
	}
}

type periodicTask struct {
	name     string
	schedule river.PeriodicSchedule
}

type options struct {
	registry   *registry
	periodic   []periodicTask
	queues     map[string]int
	logger     *slog.Logger
	maxWorkers int
	err        error
}

// Option configures a Manager.
type Option func(*options)

// Task is a unit of background work with a JSON payload P.
type Task[P any] interface {
	Name() string
	Handle(ctx context.Context, payload P) error
}

// ScheduledTask runs on a five-field cron schedule without a payload.
type ScheduledTask interface {
	Name() string
	Schedule() string
	Handle(ctx context.Context) error
}

// Timeouter is implemented by tasks that need a deadline other than River's
// one-minute default. A negative duration disables the deadline.
type Timeouter interface {
	Timeout() time.Duration
}

func timeoutOf(task any) time.Duration {
	if t, ok := task.(Timeouter); ok {
		return t.Timeout()
	}
	return 0
}

// WithTask registers a task. P is usually given explicitly:
//
//	job.WithTask[TranscribePayload](t)
func WithTask[P any, T Task[P]](task T) Option {
	return func(o *options) {
		o.registry.add(task.Name(), decode(task.Handle), timeoutOf(task))
	}
}

// WithScheduledTask registers a periodic task. An invalid cron expression
// makes NewManager fail.
func WithScheduledTask(task ScheduledTask) Option {
	return func(o *options) {
		sched, err := ParseSchedule(task.Schedule())
		if err != nil {
			o.err = errors.Join(o.err, fmt.Errorf("%s: %w", task.Name(), err))
			return
		}
		o.registry.add(task.Name(), func(ctx context.Context, _ json.RawMessage) error {
			return task.Handle(ctx)
		}, timeoutOf(task))
		o.periodic = append(o.periodic, periodicTask{name: task.Name(), schedule: sched})
	}
}

// WithQueue adds a named queue with its own worker limit.
func WithQueue(name string, workers int) Option {
	return func(o *options) {
		if name != "" && workers > 0 {
			o.queues[name] = workers
		}
	}
}

// WithMaxWorkers sets the default queue's worker limit.
func WithMaxWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxWorkers = n
		}
	}
}

// WithLogger sets the logger shared with River.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
