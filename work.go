package pfpgrowth

import (
	"context"
	"fmt"
	"time"

	"github.com/pbanos/pfpgrowth/miner"
	"github.com/pbanos/pfpgrowth/queue"
	"github.com/pbanos/pfpgrowth/store"
	"github.com/pbanos/pfpgrowth/tree"
	"go.uber.org/zap"
)

// Work takes a context, a queue, a store, a logger
// and an emptyQueueSleep duration and enters a loop in which
// it:
//   * pulls a task from the queue,
//   * builds the prefix tree of the task's partition,
//   * mines the ranks the partition owns,
//   * puts the resulting patterns on the store,
//   * marks the task as completed on the queue.
//
// If at some point no task can be pulled from the queue and
// the sum of tasks running and pending on the queue is 0, the
// worker ends returning nil. If no task can be pulled but the
// sum is not 0, the worker sleeps for the given emptyQueueSleep
// duration and retries, so that it can pick up tasks dropped
// by other workers.
//
// Work returns a non-nil error if the given context
// is done, if mining a task fails or if an operation with
// the given queue or store fails.
func Work(ctx context.Context, q queue.Queue, s store.Store, logger *zap.Logger, emptyQueueSleep time.Duration) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	for {
		task, tctx, tcf, err := q.Pull(ctx)
		if err != nil {
			return fmt.Errorf("pulling task: %v", err)
		}
		if task == nil {
			p, r, err := q.Count(ctx)
			if err != nil {
				return fmt.Errorf("counting tasks: %v", err)
			}
			if p+r == 0 {
				return nil
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(emptyQueueSleep):
			}
			continue
		}
		tlogger := logger.With(zap.Int("partition", task.Partition))
		tlogger.Debug("pulled task", zap.Int("transactions", len(task.Transactions)))
		mctx, cancel := mergeCtxCancel(tctx, ctx)
		err = workTask(mctx, task, q, s, tlogger)
		cancel()
		tcf()
		if err != nil {
			return fmt.Errorf("mining partition %d: %v", task.Partition, err)
		}
		if err = ctx.Err(); err != nil {
			return err
		}
	}
}

func workTask(ctx context.Context, task *queue.Task, q queue.Queue, s store.Store, logger *zap.Logger) error {
	defer func() {
		q.Drop(ctx, task.ID())
	}()
	t := tree.Build(task.Transactions)
	logger.Debug("built tree", zap.Int("nodes", t.Len()))
	patterns, err := miner.Collect(ctx, t, task.Partition, task.Partitions, task.MinCount)
	if err != nil {
		return err
	}
	if err = s.Put(ctx, task.Partition, patterns); err != nil {
		return fmt.Errorf("storing patterns: %v", err)
	}
	if err = q.Complete(ctx, task.ID()); err != nil {
		return err
	}
	logger.Debug("completed task", zap.Int("patterns", len(patterns)))
	return nil
}

func mergeCtxCancel(ctx1, ctx2 context.Context) (context.Context, context.CancelFunc) {
	mctx, cancel := context.WithCancel(ctx1)
	go func() {
		select {
		case <-mctx.Done():
		case <-ctx2.Done():
			cancel()
		}
	}()
	return mctx, cancel
}
