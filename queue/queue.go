package queue

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Queue represents a queue where partition mining
// tasks can be pushed and pulled. A worker uses the
// Pull method to obtain a task, mines it and then
// either completes it or drops it halfway.
//
// All its methods have a context.Context as first
// parameter that implementations may use to allow
// timeouts and cancellations on the Queue operations.
type Queue interface {
	// Push takes a task and stores it in the queue or
	// returns an error. The task will count as pending.
	Push(context.Context, *Task) error
	// Pull returns a task, a context for its processing
	// with its cancel function, or an error.
	// The pulled task counts as running from then on.
	// If there are no tasks to pull, implementations
	// return 4 nil values. A pulled task that cannot be
	// read or decoded makes Pull fail.
	// Workers must call the cancel function once done
	// with the task, and should drop the task when its
	// context is cancelled.
	Pull(context.Context) (*Task, context.Context, context.CancelFunc, error)
	// Drop takes the ID of a task and makes it available
	// for pulling again, unless it has been completed.
	Drop(context.Context, string) error
	// Complete takes the ID of a task and removes it
	// from the running state.
	Complete(context.Context, string) error
	// Count returns the number of pending and
	// running tasks in the queue or an error.
	Count(context.Context) (int, int, error)
	// Stop frees the queue resources and cancels
	// the contexts of pulled tasks.
	Stop(context.Context) error
}

type memQueue struct {
	pending   []*Task
	running   map[string]*Task
	lock      *sync.RWMutex
	ctx       context.Context
	ctxCancel context.CancelFunc
}

// New returns a queue backed only by the process memory
func New() Queue {
	ctx, cancel := context.WithCancel(context.Background())
	return &memQueue{
		running:   make(map[string]*Task),
		lock:      &sync.RWMutex{},
		ctx:       ctx,
		ctxCancel: cancel,
	}
}

// WaitFor takes a context, a queue and a polling period
// and waits for all its tasks to have been processed, that
// is, for the queue's Count method to return 0, 0, nil.
// It returns a non-nil error if the given context
// is done or if the queue's Count operation fails.
func WaitFor(ctx context.Context, q Queue, period time.Duration) error {
	if period <= 0 {
		period = time.Second
	}
	ticker := time.NewTicker(period)
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
	return mq.withLock(ctx, func(ctx context.Context) error {
		id := t.ID()
		if _, ok := mq.running[id]; ok {
			return fmt.Errorf("pushing task %s: task already running", id)
		}
		for _, p := range mq.pending {
			if p.ID() == id {
				return fmt.Errorf("pushing task %s: task already pending", id)
			}
		}
		mq.pending = append(mq.pending, t)
		return nil
	})
}

func (mq *memQueue) Pull(ctx context.Context) (*Task, context.Context, context.CancelFunc, error) {
	var task *Task
	err := mq.withLock(ctx, func(ctx context.Context) error {
		if len(mq.pending) == 0 {
			return nil
		}
		task = mq.pending[0]
		mq.pending[0] = nil
		mq.pending = mq.pending[1:]
		mq.running[task.ID()] = task
		return nil
	})
	if err != nil || task == nil {
		return nil, nil, nil, err
	}
	tctx, cancel := context.WithCancel(mq.ctx)
	return task, tctx, cancel, nil
}

func (mq *memQueue) Drop(ctx context.Context, id string) error {
	return mq.withLock(ctx, func(ctx context.Context) error {
		t, ok := mq.running[id]
		if !ok {
			return nil
		}
		delete(mq.running, id)
		mq.pending = append(mq.pending, t)
		return nil
	})
}

func (mq *memQueue) Complete(ctx context.Context, id string) error {
	return mq.withLock(ctx, func(ctx context.Context) error {
		delete(mq.running, id)
		return nil
	})
}

func (mq *memQueue) Count(ctx context.Context) (int, int, error) {
	var pending, running int
	err := mq.withRLock(ctx, func(ctx context.Context) error {
		pending = len(mq.pending)
		running = len(mq.running)
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return pending, running, nil
}

func (mq *memQueue) Stop(ctx context.Context) error {
	mq.ctxCancel()
	return nil
}

func (mq *memQueue) String() string {
	mq.lock.RLock()
	defer mq.lock.RUnlock()
	return fmt.Sprintf("{Queue pending: %v running: %d}", mq.pending, len(mq.running))
}

func (mq *memQueue) withLock(ctx context.Context, f func(ctx context.Context) error) error {
	return acquire(ctx, mq.lock.Lock, mq.lock.Unlock, f)
}

func (mq *memQueue) withRLock(ctx context.Context, f func(ctx context.Context) error) error {
	return acquire(ctx, mq.lock.RLock, mq.lock.RUnlock, f)
}

// acquire calls f holding the lock, unless ctx is done
// before the lock is obtained.
func acquire(ctx context.Context, lock, unlock func(), f func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	gotLock := make(chan struct{})
	go func() {
		lock()
		select {
		case <-ctx.Done():
			unlock()
		case gotLock <- struct{}{}:
		}
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-gotLock:
		defer unlock()
	}
	return f(ctx)
}
