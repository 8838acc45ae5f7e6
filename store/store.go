/*
Package store defines where the workers of a mining run leave the
patterns they mine, keyed by partition, and provides an in-memory
implementation.
*/
package store

import (
	"context"
	"sync"

	"github.com/pbanos/pfpgrowth/itemset"
)

/*
Store is an interface to a store of mined patterns
grouped by the partition that mined them.

All its methods take a context that may allow
cancelling the operation (thus forcing the return
of an error) if the implementation allows it.
*/
type Store interface {
	// Put takes a partition and the patterns mined for
	// it and stores them, replacing any patterns
	// previously stored for the partition, so that
	// a re-run task does not duplicate results.
	Put(ctx context.Context, partition int, patterns []itemset.RankPattern) error
	// All returns the patterns of every partition
	// stored so far.
	All(ctx context.Context) (map[int][]itemset.RankPattern, error)
	// Close frees any resources in use by the store.
	Close(ctx context.Context) error
}

type memoryStore struct {
	patterns map[int][]itemset.RankPattern
	lock     *sync.RWMutex
}

// NewMemoryStore returns an implementation
// of Store with the process memory space
// as underlying backend
func NewMemoryStore() Store {
	return &memoryStore{
		patterns: make(map[int][]itemset.RankPattern),
		lock:     &sync.RWMutex{},
	}
}

func (ms *memoryStore) Put(ctx context.Context, partition int, patterns []itemset.RankPattern) error {
	patterns = append([]itemset.RankPattern(nil), patterns...)
	return ms.withLock(ctx, func(ctx context.Context) error {
		ms.patterns[partition] = patterns
		return nil
	})
}

func (ms *memoryStore) All(ctx context.Context) (map[int][]itemset.RankPattern, error) {
	var result map[int][]itemset.RankPattern
	err := ms.withRLock(ctx, func(ctx context.Context) error {
		result = make(map[int][]itemset.RankPattern, len(ms.patterns))
		for p, patterns := range ms.patterns {
			result[p] = patterns
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (ms *memoryStore) Close(ctx context.Context) error {
	return nil
}

func (ms *memoryStore) withLock(ctx context.Context, f func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ms.lock.Lock()
	defer ms.lock.Unlock()
	return f(ctx)
}

func (ms *memoryStore) withRLock(ctx context.Context, f func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ms.lock.RLock()
	defer ms.lock.RUnlock()
	return f(ctx)
}
