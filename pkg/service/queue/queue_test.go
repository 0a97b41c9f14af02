package queue_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gighall/calsync/pkg/domain/types"
	"github.com/gighall/calsync/pkg/service/queue"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
)

func newTask() *queue.Task {
	return &queue.Task{
		EventID: types.NewEventID(),
		RoleID:  types.NewRoleID(),
		Action:  types.SyncActionCreate,
	}
}

func TestProcessesTask(t *testing.T) {
	done := make(chan *queue.Task, 1)
	q, err := queue.New(func(ctx context.Context, task *queue.Task) error {
		done <- task
		return nil
	})
	gt.NoError(t, err).Required()

	ctx := context.Background()
	gt.NoError(t, q.Start(ctx)).Required()
	t.Cleanup(q.Stop)

	task := newTask()
	gt.NoError(t, q.Enqueue(ctx, task)).Required()

	select {
	case got := <-done:
		gt.Value(t, got.EventID).Equal(task.EventID)
	case <-time.After(time.Second):
		t.Fatal("task was not processed")
	}
}

func TestRetriesWithBackoff(t *testing.T) {
	var attempts int32
	done := make(chan struct{})
	q, err := queue.New(func(ctx context.Context, task *queue.Task) error {
		if atomic.AddInt32(&attempts, 1) < 3 {
			return goerr.New("transient")
		}
		close(done)
		return nil
	}, queue.WithBaseBackoff(time.Millisecond))
	gt.NoError(t, err).Required()

	ctx := context.Background()
	gt.NoError(t, q.Start(ctx)).Required()
	t.Cleanup(q.Stop)

	gt.NoError(t, q.Enqueue(ctx, newTask())).Required()

	select {
	case <-done:
		gt.Value(t, atomic.LoadInt32(&attempts)).Equal(int32(3))
	case <-time.After(time.Second):
		t.Fatal("task never succeeded")
	}
}

func TestDeadLetterAfterMaxAttempts(t *testing.T) {
	var attempts int32
	var mu sync.Mutex
	var dead *queue.Task
	deadCh := make(chan struct{})

	q, err := queue.New(func(ctx context.Context, task *queue.Task) error {
		atomic.AddInt32(&attempts, 1)
		return goerr.New("permanent failure")
	},
		queue.WithBaseBackoff(time.Millisecond),
		queue.WithMaxAttempts(2),
		queue.WithDeadLetter(func(ctx context.Context, task *queue.Task, err error) {
			mu.Lock()
			dead = task
			mu.Unlock()
			close(deadCh)
		}),
	)
	gt.NoError(t, err).Required()

	ctx := context.Background()
	gt.NoError(t, q.Start(ctx)).Required()
	t.Cleanup(q.Stop)

	task := newTask()
	gt.NoError(t, q.Enqueue(ctx, task)).Required()

	select {
	case <-deadCh:
	case <-time.After(time.Second):
		t.Fatal("task was not dead-lettered")
	}

	mu.Lock()
	defer mu.Unlock()
	gt.Value(t, dead.EventID).Equal(task.EventID)
	gt.Value(t, dead.Attempt).Equal(2)
	gt.Value(t, atomic.LoadInt32(&attempts)).Equal(int32(2))
}

func TestEnqueueValidation(t *testing.T) {
	q, err := queue.New(func(ctx context.Context, task *queue.Task) error { return nil })
	gt.NoError(t, err).Required()

	ctx := context.Background()

	gt.Value(t, q.Enqueue(ctx, &queue.Task{
		RoleID: types.NewRoleID(),
		Action: types.SyncActionCreate,
	})).NotNil()

	gt.Value(t, q.Enqueue(ctx, &queue.Task{
		EventID: types.NewEventID(),
		RoleID:  types.NewRoleID(),
		Action:  types.SyncAction("reap"),
	})).NotNil()
}

func TestEnqueueFailsWhenFull(t *testing.T) {
	// No workers started, so the buffer never drains
	q, err := queue.New(func(ctx context.Context, task *queue.Task) error { return nil },
		queue.WithBufferSize(1),
	)
	gt.NoError(t, err).Required()

	ctx := context.Background()
	gt.NoError(t, q.Enqueue(ctx, newTask())).Required()
	gt.Value(t, q.Enqueue(ctx, newTask())).NotNil()
}

func TestNewRequiresHandler(t *testing.T) {
	_, err := queue.New(nil)
	gt.Value(t, err).NotNil()
}
