/*
Package transaction defines the Dataset interface through which mining runs
read transactions, and provides an in-memory implementation.

Implementations backed by files, SQL databases and MongoDB live in the
subpackages.
*/
package transaction

import (
	"context"

	"github.com/pbanos/pfpgrowth/itemset"
)

/*
Dataset represents a collection of transactions that can be read as many
times as needed.

Its Read method streams the transactions on the first channel. Once all
transactions have been sent or reading fails, the error channel receives
the error (if any) and both channels are closed. Implementations must stop
reading when the given context is done.

Its Count method returns the number of transactions.
*/
type Dataset interface {
	Read(context.Context) (<-chan []itemset.Item, <-chan error)
	Count(context.Context) (int, error)
}

type memoryDataset struct {
	transactions [][]itemset.Item
}

// New takes a slice of transactions and returns a Dataset holding them.
func New(transactions [][]itemset.Item) Dataset {
	return &memoryDataset{transactions}
}

// FromStrings returns a Dataset with a transaction per given slice of
// labels.
func FromStrings(transactions ...[]string) Dataset {
	result := make([][]itemset.Item, len(transactions))
	for i, t := range transactions {
		items := make([]itemset.Item, len(t))
		for j, label := range t {
			items[j] = itemset.Item(label)
		}
		result[i] = items
	}
	return New(result)
}

func (md *memoryDataset) Read(ctx context.Context) (<-chan []itemset.Item, <-chan error) {
	transactions := make(chan []itemset.Item)
	errs := make(chan error, 1)
	go func() {
		defer close(transactions)
		defer close(errs)
		for _, t := range md.transactions {
			if err := ctx.Err(); err != nil {
				errs <- err
				return
			}
			select {
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			case transactions <- t:
			}
		}
	}()
	return transactions, errs
}

func (md *memoryDataset) Count(context.Context) (int, error) {
	return len(md.transactions), nil
}

/*
Each takes a context, a dataset and a function and calls the function with
every transaction of the dataset, in order. It stops at the first error
returned by the function or by the dataset, and returns it.
*/
func Each(ctx context.Context, ds Dataset, f func([]itemset.Item) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	transactions, errs := ds.Read(ctx)
	var err error
	for t := range transactions {
		if err != nil {
			continue
		}
		err = f(t)
		if err != nil {
			cancel()
		}
	}
	readErr := <-errs
	if err != nil {
		return err
	}
	return readErr
}

// ReadAll returns all transactions of the dataset.
func ReadAll(ctx context.Context, ds Dataset) ([][]itemset.Item, error) {
	var result [][]itemset.Item
	err := Each(ctx, ds, func(t []itemset.Item) error {
		result = append(result, t)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
