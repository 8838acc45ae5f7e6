package sqlset

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pbanos/pfpgrowth/itemset"
	"github.com/pbanos/pfpgrowth/transaction"
)

/*
Dataset is a transaction.Dataset to which transactions can be added.
*/
type Dataset interface {
	transaction.Dataset
	Write(context.Context, [][]itemset.Item) (int, error)
}

type sqlDataset struct {
	db Adapter
}

/*
PatternWriter writes patterns to the patterns table of a database.
*/
type PatternWriter struct {
	db    Adapter
	sep   string
	count int
}

/*
OpenDataset takes an Adapter to a db backend and returns a Dataset backed
by the given adapter. It expects the transactions table to exist already.
*/
func OpenDataset(ctx context.Context, dbAdapter Adapter) (Dataset, error) {
	sd := &sqlDataset{dbAdapter}
	_, err := sd.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("opening SQL dataset: %v", err)
	}
	return sd, nil
}

/*
CreateDataset takes an Adapter and returns a Dataset backed by the given
adapter, ensuring the transactions table exists.
*/
func CreateDataset(ctx context.Context, dbAdapter Adapter) (Dataset, error) {
	err := dbAdapter.CreateTransactionTable(ctx)
	if err != nil {
		return nil, err
	}
	return &sqlDataset{dbAdapter}, nil
}

func (sd *sqlDataset) Count(ctx context.Context) (int, error) {
	return sd.db.CountTransactions(ctx)
}

func (sd *sqlDataset) Read(ctx context.Context) (<-chan []itemset.Item, <-chan error) {
	transactions := make(chan []itemset.Item)
	errs := make(chan error, 1)
	go func() {
		defer close(transactions)
		defer close(errs)
		var current []itemset.Item
		currentID := int64(-1)
		send := func() bool {
			select {
			case <-ctx.Done():
				return false
			case transactions <- current:
				return true
			}
		}
		err := sd.db.IterateOnTransactionItems(ctx, func(id int64, item sql.NullString) (bool, error) {
			if id != currentID {
				if currentID >= 0 && !send() {
					return false, ctx.Err()
				}
				currentID = id
				current = []itemset.Item{}
			}
			if item.Valid {
				current = append(current, itemset.Item(item.String))
			}
			return true, nil
		})
		if err == nil && currentID >= 0 && !send() {
			err = ctx.Err()
		}
		if err != nil {
			errs <- err
		}
	}()
	return transactions, errs
}

func (sd *sqlDataset) Write(ctx context.Context, transactions [][]itemset.Item) (int, error) {
	maxID, err := sd.db.MaxTransactionID(ctx)
	if err != nil {
		return 0, err
	}
	rows := make([][]string, len(transactions))
	for i, t := range transactions {
		rows[i] = make([]string, len(t))
		for j, item := range t {
			rows[i][j] = string(item)
		}
	}
	return sd.db.AddTransactions(ctx, maxID+1, rows)
}

/*
CreatePatternWriter takes a context, an Adapter and a separator and returns
a PatternWriter storing patterns with their items joined by the separator.
It ensures the patterns table exists.
*/
func CreatePatternWriter(ctx context.Context, dbAdapter Adapter, sep string) (*PatternWriter, error) {
	err := dbAdapter.CreatePatternTable(ctx)
	if err != nil {
		return nil, err
	}
	return &PatternWriter{db: dbAdapter, sep: sep}, nil
}

// Write stores the given patterns and returns how many were stored.
func (pw *PatternWriter) Write(ctx context.Context, patterns []itemset.Pattern) (int, error) {
	items := make([]string, len(patterns))
	lengths := make([]int, len(patterns))
	supports := make([]int, len(patterns))
	for i, p := range patterns {
		items[i] = p.Key(pw.sep)
		lengths[i] = len(p.Items)
		supports[i] = p.Support
	}
	n, err := pw.db.AddPatterns(ctx, items, lengths, supports)
	pw.count += n
	return n, err
}

// Count returns the number of patterns written so far.
func (pw *PatternWriter) Count() int {
	return pw.count
}

// Flush is a no-op: patterns are committed as they are written.
func (pw *PatternWriter) Flush() error {
	return nil
}
