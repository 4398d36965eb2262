/*
Package queue connects the batch source of a stream with the workers
that fold batches into partial models. It is the delivery interface
of the external scheduler: the tree itself never waits, the queue
does.
*/
package queue

import (
	"context"
	"sync"
	"time"
)

// Queue represents a queue where batches of examples are pushed by a
// source and pulled by training workers. A worker pulls a task,
// folds and merges it and then either completes it or drops it
// halfway so another worker can pick it up.
//
// All its methods have a context.Context as first parameter that
// implementations may use to allow timeouts and cancellations on the
// Queue operations.
type Queue interface {
	// Push takes a task and stores it in the queue or returns an
	// error. The task will count as pending.
	Push(context.Context, *Task) error
	// Pull returns a task, a context that may have a timeout or
	// allow its cancellation and that context's cancel function, or
	// an error. The pulled task is counted as running from then on.
	// If there are no tasks to pull, implementations should not
	// return an error, but 4 nil values. In case of cancellation,
	// workers should still drop the task.
	Pull(context.Context) (*Task, context.Context, context.CancelFunc, error)
	// Drop takes the ID for a task and makes it available for
	// pulling from the Queue again, unless it has been previously
	// completed. Workers use this to return tasks they have not
	// completed.
	Drop(context.Context, string) error
	// Complete takes the ID for a task and removes it from the
	// running state.
	Complete(context.Context, string) error
	// Count returns the number of pending and running tasks in the
	// queue or an error.
	Count(context.Context) (int, int, error)
	// Stop stops the queue. Implementations should use the call to
	// free resources and cancel pulled contexts.
	Stop(context.Context) error
}

type memQueue struct {
	mu        sync.RWMutex
	pending   []*Task
	running   map[string]*Task
	ctx       context.Context
	ctxCancel context.CancelFunc
}

// New returns a queue backed only by the process memory.
func New() Queue {
	ctx, cancel := context.WithCancel(context.Background())
	return &memQueue{
		running:   make(map[string]*Task),
		ctx:       ctx,
		ctxCancel: cancel,
	}
}

/*
WaitFor takes a context and a queue and waits for all the queue's
tasks to have been processed, that is, for the queue's Count method
to return 0, 0, nil. It returns a non-nil error if the given context
times out or is cancelled, or if the queue's Count operation returns
an error. Use it to wait for the training of a stream once the
batches are pushed and workers are processing them.
*/
func WaitFor(ctx context.Context, q Queue) error {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		pending, running, err := q.Count(ctx)
		if err != nil {
			return err
		}
		if pending+running == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (mq *memQueue) Push(ctx context.Context, t *Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	mq.mu.Lock()
	defer mq.mu.Unlock()
	mq.pending = append(mq.pending, t)
	return nil
}

func (mq *memQueue) Pull(ctx context.Context) (*Task, context.Context, context.CancelFunc, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, nil, err
	}
	mq.mu.Lock()
	defer mq.mu.Unlock()
	if len(mq.pending) == 0 {
		return nil, nil, nil, nil
	}
	task := mq.pending[0]
	mq.pending = mq.pending[1:]
	mq.running[task.ID()] = task
	tctx, tcf := context.WithCancel(mq.ctx)
	return task, tctx, tcf, nil
}

func (mq *memQueue) Drop(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	mq.mu.Lock()
	defer mq.mu.Unlock()
	task, ok := mq.running[id]
	if !ok {
		return nil
	}
	delete(mq.running, id)
	mq.pending = append(mq.pending, task)
	return nil
}

func (mq *memQueue) Complete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	mq.mu.Lock()
	defer mq.mu.Unlock()
	delete(mq.running, id)
	return nil
}

func (mq *memQueue) Count(ctx context.Context) (int, int, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}
	mq.mu.RLock()
	defer mq.mu.RUnlock()
	return len(mq.pending), len(mq.running), nil
}

func (mq *memQueue) Stop(ctx context.Context) error {
	mq.ctxCancel()
	return nil
}
