package sqlite3adapter

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/pbanos/pfpgrowth/itemset"
	"github.com/pbanos/pfpgrowth/transaction"
	"github.com/pbanos/pfpgrowth/transaction/sqlset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAdapter(t *testing.T) sqlset.Adapter {
	t.Helper()
	a, err := New(filepath.Join(t.TempDir(), "transactions.db"), 1)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func TestDatasetRoundTrip(t *testing.T) {
	ctx := context.Background()
	a := newAdapter(t)

	ds, err := sqlset.CreateDataset(ctx, a)
	require.NoError(t, err)
	n, err := ds.Write(ctx, [][]itemset.Item{{"a", "b", "c"}, {}, {"b"}})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	n, err = ds.Write(ctx, [][]itemset.Item{{"c", "a"}})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	opened, err := sqlset.OpenDataset(ctx, a)
	require.NoError(t, err)
	count, err := opened.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	all, err := transaction.ReadAll(ctx, opened)
	require.NoError(t, err)
	assert.Equal(t, [][]itemset.Item{{"a", "b", "c"}, {}, {"b"}, {"c", "a"}}, all)
}

func TestOpenDatasetWithoutTable(t *testing.T) {
	_, err := sqlset.OpenDataset(context.Background(), newAdapter(t))
	assert.Error(t, err)
}

func TestPatternWriter(t *testing.T) {
	ctx := context.Background()
	a := newAdapter(t)
	pw, err := sqlset.CreatePatternWriter(ctx, a, "\t")
	require.NoError(t, err)
	n, err := pw.Write(ctx, []itemset.Pattern{
		{Items: []itemset.Item{"a"}, Support: 4},
		{Items: []itemset.Item{"c", "a"}, Support: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, pw.Count())
	require.NoError(t, pw.Flush())

	rows, err := a.(*adapter).DB().QueryContext(ctx, "SELECT items, length, support FROM patterns ORDER BY id")
	require.NoError(t, err)
	defer rows.Close()
	type row struct {
		items   string
		length  int
		support int
	}
	var got []row
	for rows.Next() {
		var r row
		require.NoError(t, rows.Scan(&r.items, &r.length, &r.support))
		got = append(got, r)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []row{{"a", 1, 4}, {"c\ta", 2, 2}}, got)
}
