package queue

import (
	"context"
	"sync"
	"time"

	"github.com/gighall/calsync/pkg/domain/types"
	"github.com/gighall/calsync/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

const (
	defaultWorkers     = 4
	defaultBufferSize  = 256
	defaultMaxAttempts = 3
	defaultBaseBackoff = time.Second
)

// Task is one unit of synchronization work
type Task struct {
	EventID types.EventID
	RoleID  types.RoleID
	Action  types.SyncAction
	Attempt int
}

// Handler processes one task. An error requeues the task with backoff until
// the attempt budget is spent.
type Handler func(ctx context.Context, task *Task) error

// DeadLetterFunc is called when a task has exhausted its attempts
type DeadLetterFunc func(ctx context.Context, task *Task, err error)

// Queue is an in-process sync job queue backed by a buffered channel and a
// fixed worker pool.
//
// Architecture assumptions:
// - Single server instance (no distributed queue)
// - Tasks are lost on process restart; the bulk sync command backfills
type Queue struct {
	tasks       chan *Task
	handler     Handler
	deadLetter  DeadLetterFunc
	workers     int
	maxAttempts int
	baseBackoff time.Duration

	stopCh chan struct{}
	doneWg sync.WaitGroup
	timers sync.WaitGroup
}

// Option configures the queue
type Option func(*Queue)

// WithWorkers sets the number of worker goroutines
func WithWorkers(n int) Option {
	return func(q *Queue) {
		q.workers = n
	}
}

// WithBufferSize sets the task channel capacity
func WithBufferSize(n int) Option {
	return func(q *Queue) {
		q.tasks = make(chan *Task, n)
	}
}

// WithMaxAttempts sets the attempt budget per task
func WithMaxAttempts(n int) Option {
	return func(q *Queue) {
		q.maxAttempts = n
	}
}

// WithBaseBackoff sets the first retry delay; it doubles per attempt
func WithBaseBackoff(d time.Duration) Option {
	return func(q *Queue) {
		q.baseBackoff = d
	}
}

// WithDeadLetter sets the hook called after the final failed attempt
func WithDeadLetter(fn DeadLetterFunc) Option {
	return func(q *Queue) {
		q.deadLetter = fn
	}
}

// New creates a queue. Start must be called before tasks are processed.
func New(handler Handler, opts ...Option) (*Queue, error) {
	if handler == nil {
		return nil, goerr.New("queue handler is required")
	}

	q := &Queue{
		tasks:       make(chan *Task, defaultBufferSize),
		handler:     handler,
		workers:     defaultWorkers,
		maxAttempts: defaultMaxAttempts,
		baseBackoff: defaultBaseBackoff,
		stopCh:      make(chan struct{}),
	}

	for _, opt := range opts {
		opt(q)
	}

	return q, nil
}

// Enqueue submits a task. It fails when the buffer is full rather than
// blocking request handlers.
func (q *Queue) Enqueue(ctx context.Context, task *Task) error {
	if err := task.EventID.Validate(); err != nil {
		return goerr.Wrap(err, "task requires an event ID")
	}
	if err := task.RoleID.Validate(); err != nil {
		return goerr.Wrap(err, "task requires a role ID")
	}
	if !task.Action.IsValid() {
		return goerr.New("invalid sync action", goerr.V("action", task.Action))
	}

	select {
	case q.tasks <- task:
		return nil
	case <-ctx.Done():
		return goerr.Wrap(ctx.Err(), "enqueue cancelled")
	default:
		return goerr.New("sync queue is full",
			goerr.V("eventID", task.EventID), goerr.V("roleID", task.RoleID))
	}
}

// Start launches the worker pool
func (q *Queue) Start(ctx context.Context) error {
	logging.From(ctx).Info("sync queue starting",
		"workers", q.workers, "maxAttempts", q.maxAttempts)

	for range q.workers {
		q.doneWg.Add(1)
		go q.run(ctx)
	}

	return nil
}

// Stop signals the workers to stop and waits for in-flight tasks and retry
// timers to settle.
func (q *Queue) Stop() {
	close(q.stopCh)
	q.timers.Wait()
	q.doneWg.Wait()
}

func (q *Queue) run(ctx context.Context) {
	defer q.doneWg.Done()

	for {
		select {
		case task := <-q.tasks:
			q.process(ctx, task)

		case <-q.stopCh:
			return

		case <-ctx.Done():
			return
		}
	}
}

func (q *Queue) process(ctx context.Context, task *Task) {
	logger := logging.From(ctx)

	err := q.handler(ctx, task)
	if err == nil {
		return
	}

	task.Attempt++
	if task.Attempt >= q.maxAttempts {
		logger.Error("sync task dead-lettered",
			"eventID", task.EventID, "roleID", task.RoleID,
			"action", task.Action, "attempts", task.Attempt, "error", err)
		if q.deadLetter != nil {
			q.deadLetter(ctx, task, err)
		}
		return
	}

	backoff := q.baseBackoff << (task.Attempt - 1)
	logger.Warn("sync task failed, will retry",
		"eventID", task.EventID, "roleID", task.RoleID,
		"action", task.Action, "attempt", task.Attempt,
		"backoff", backoff.String(), "error", err)

	q.timers.Add(1)
	time.AfterFunc(backoff, func() {
		defer q.timers.Done()

		select {
		case q.tasks <- task:
		case <-q.stopCh:
		default:
			logger.Error("sync queue full on retry, task dead-lettered",
				"eventID", task.EventID, "roleID", task.RoleID)
			if q.deadLetter != nil {
				q.deadLetter(ctx, task, goerr.Wrap(err, "retry dropped, queue full"))
			}
		}
	})
}
