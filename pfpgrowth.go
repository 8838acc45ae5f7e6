/*
Package pfpgrowth mines the frequent itemsets of a transactional dataset
with a partition-parallel FP-Growth.

A run ranks the frequent items of the dataset (RankItems), projects every
transaction onto the partitions owning its items and pushes one task per
partition to a queue (Seed), has workers build each partition's prefix tree
and mine the items it owns into a store (Work), and finally merges the
stored patterns into a Result (Assemble). Mine runs all of it in process;
the steps are exported so that workers of other processes can join a run
through a shared queue and store.
*/
package pfpgrowth

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/pbanos/pfpgrowth/itemset"
	"github.com/pbanos/pfpgrowth/queue"
	"github.com/pbanos/pfpgrowth/store"
	"github.com/pbanos/pfpgrowth/support"
	"github.com/pbanos/pfpgrowth/transaction"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultEmptyQueueSleep is the time workers wait before polling
// again a queue with no pending tasks but some running ones.
const DefaultEmptyQueueSleep = 100 * time.Millisecond

/*
Options configures a mining run.
*/
type Options struct {
	// The minimum support of frequent itemsets
	MinSupport support.MinSupport
	// The number of partitions the mining is split into
	Partitions int
	// The number of in-process workers. Zero runs no
	// worker and waits for workers of other processes
	// to process the tasks, which requires a Queue and
	// a Store shared with them.
	Workers int
	// Logger for the run, zap.NewNop() if nil
	Logger *zap.Logger
	// Queue for the partition tasks, an in-memory
	// queue if nil
	Queue queue.Queue
	// Store for the mined patterns, an in-memory
	// store if nil
	Store store.Store
	// Time workers sleep when the queue has
	// no pending tasks, DefaultEmptyQueueSleep if zero
	EmptyQueueSleep time.Duration
	// Identifier of the run, NewRunID() if empty
	RunID string
}

// DefaultOptions returns options mining with the given minimum
// support and a partition and worker per available CPU.
func DefaultOptions(ms support.MinSupport) Options {
	n := runtime.GOMAXPROCS(0)
	return Options{MinSupport: ms, Partitions: n, Workers: n}
}

/*
Validate returns an error matching support.ErrInvalidConfiguration if the
options cannot drive a run.
*/
func (o *Options) Validate() error {
	if err := o.MinSupport.Validate(); err != nil {
		return err
	}
	if err := support.ValidatePartitions(o.Partitions); err != nil {
		return err
	}
	if o.Workers < 0 {
		return support.NewConfigurationError("workers", fmt.Sprintf("%d", o.Workers), "must not be negative")
	}
	if o.Workers == 0 && (o.Queue == nil || o.Store == nil) {
		return support.NewConfigurationError("workers", "0", "a run without in-process workers needs a shared queue and store")
	}
	if o.EmptyQueueSleep < 0 {
		return support.NewConfigurationError("emptyQueueSleep", o.EmptyQueueSleep.String(), "must not be negative")
	}
	return nil
}

// NewRunID returns a new unique identifier for a mining run.
func NewRunID() string {
	return uuid.NewString()
}

/*
RankItems takes a context, a dataset and a minimum support, counts the
transactions containing each item in a single pass over the dataset and
returns the RankTable of the frequent items.

It returns an error matching support.ErrInvalidConfiguration if the
minimum support is not valid, or the error reading the dataset.
*/
func RankItems(ctx context.Context, ds transaction.Dataset, ms support.MinSupport) (*itemset.RankTable, error) {
	if err := ms.Validate(); err != nil {
		return nil, err
	}
	c := itemset.NewCounter()
	err := transaction.Each(ctx, ds, func(t []itemset.Item) error {
		c.Add(t)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ranking items: %v", err)
	}
	return c.RankTable(ms)
}

/*
Seed takes a context, a dataset, its RankTable, a number of partitions and
a queue, projects every transaction of the dataset onto the partitions
owning its frequent items, and pushes to the queue a task with the
projections of each partition that got any. It returns the number of tasks
pushed.

All projections are grouped before the first task is pushed, so workers
never see a partial partition.
*/
func Seed(ctx context.Context, ds transaction.Dataset, rt *itemset.RankTable, partitions int, q queue.Queue) (int, error) {
	if err := support.ValidatePartitions(partitions); err != nil {
		return 0, err
	}
	byPartition := make([][]itemset.Transaction, partitions)
	err := transaction.Each(ctx, ds, func(t []itemset.Item) error {
		for _, p := range rt.Project(t, partitions) {
			byPartition[p.Partition] = append(byPartition[p.Partition], p.Transaction)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("projecting transactions: %v", err)
	}
	var pushed int
	for p, transactions := range byPartition {
		if len(transactions) == 0 {
			continue
		}
		task := &queue.Task{
			Partition:    p,
			Partitions:   partitions,
			MinCount:     rt.MinCount(),
			Transactions: transactions,
		}
		if err = q.Push(ctx, task); err != nil {
			return pushed, fmt.Errorf("seeding task for partition %d: %v", p, err)
		}
		pushed++
	}
	return pushed, nil
}

/*
Mine takes a context, a dataset and options and runs the whole mining of
the dataset, returning its Result.

The options are validated before anything is read. The first error of any
worker cancels the rest of the run and is returned.
*/
func Mine(ctx context.Context, ds transaction.Dataset, opts Options) (*Result, error) {
	start := time.Now()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.RunID == "" {
		opts.RunID = NewRunID()
	}
	if opts.EmptyQueueSleep == 0 {
		opts.EmptyQueueSleep = DefaultEmptyQueueSleep
	}
	q := opts.Queue
	if q == nil {
		q = queue.New()
		defer q.Stop(ctx)
	}
	s := opts.Store
	if s == nil {
		s = store.NewMemoryStore()
		defer s.Close(ctx)
	}
	logger = logger.With(zap.String("run", opts.RunID))

	rt, err := RankItems(ctx, ds, opts.MinSupport)
	if err != nil {
		return nil, err
	}
	logger.Info("ranked items",
		zap.Int("transactions", rt.Transactions()),
		zap.Int("frequent", rt.Len()),
		zap.Int("minCount", rt.MinCount()),
	)

	tasks, err := Seed(ctx, ds, rt, opts.Partitions, q)
	if err != nil {
		return nil, err
	}
	logger.Info("seeded tasks", zap.Int("tasks", tasks), zap.Int("partitions", opts.Partitions))

	if err = RunWorkers(ctx, q, s, opts.Workers, logger, opts.EmptyQueueSleep); err != nil {
		return nil, err
	}

	patterns, err := s.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("collecting patterns: %v", err)
	}
	result, err := Assemble(rt, patterns)
	if err != nil {
		return nil, err
	}
	result.runID = opts.RunID
	result.partitions = opts.Partitions
	result.duration = time.Since(start)
	logger.Info("assembled result", zap.Int("patterns", result.Len()), zap.Duration("duration", result.duration))
	return result, nil
}

/*
RunWorkers takes a context, a queue, a store, a number of workers, a logger
and an emptyQueueSleep duration and runs that many workers concurrently
until the queue is empty, returning the first error of any of them, which
also stops the others. With no workers it waits for the queue to be emptied
by workers elsewhere.
*/
func RunWorkers(ctx context.Context, q queue.Queue, s store.Store, workers int, logger *zap.Logger, emptyQueueSleep time.Duration) error {
	if workers == 0 {
		if err := queue.WaitFor(ctx, q, emptyQueueSleep); err != nil {
			return fmt.Errorf("waiting for workers: %v", err)
		}
		return nil
	}
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < workers; i++ {
		wlogger := logger.With(zap.Int("worker", i))
		g.Go(func() error {
			return Work(gctx, q, s, wlogger, emptyQueueSleep)
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("mining partitions: %v", err)
	}
	return nil
}
