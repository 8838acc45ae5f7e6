package sqlset

import (
	"context"
	"database/sql"
	"fmt"
)

/*
Adapter is an interface providing the methods
needed to implement a Dataset and a pattern writer
with a database backend.
*/
type Adapter interface {
	CreateTransactionTable(context.Context) error
	CreatePatternTable(context.Context) error

	MaxTransactionID(context.Context) (int64, error)
	AddTransactions(ctx context.Context, firstID int64, transactions [][]string) (int, error)
	IterateOnTransactionItems(ctx context.Context, lambda func(id int64, item sql.NullString) (bool, error)) error
	CountTransactions(context.Context) (int, error)

	AddPatterns(ctx context.Context, items []string, lengths []int, supports []int) (int, error)

	Close() error
}

/*
Dialect holds the SQL that differs between database engines.
*/
type Dialect struct {
	// Statement creating the transactions table if it does not exist
	TransactionTableCreateStmt string
	// Statement creating the patterns table if it does not exist
	PatternTableCreateStmt string
	// Placeholder returns the bind parameter for the nth (1-based)
	// argument of a statement
	Placeholder func(n int) string
}

/*
Base is an Adapter over a database/sql handle that issues
standard SQL, using the Dialect for engine-specific parts.
Adapters for concrete engines embed it.
*/
type Base struct {
	db      *sql.DB
	dialect Dialect
}

// NewBase takes an open database handle and a dialect and returns
// a Base adapter over them.
func NewBase(db *sql.DB, dialect Dialect) *Base {
	return &Base{db, dialect}
}

// DB returns the underlying database handle.
func (b *Base) DB() *sql.DB {
	return b.db
}

func (b *Base) CreateTransactionTable(ctx context.Context) error {
	return b.exec(ctx, "transactions", b.dialect.TransactionTableCreateStmt)
}

func (b *Base) CreatePatternTable(ctx context.Context) error {
	return b.exec(ctx, "patterns", b.dialect.PatternTableCreateStmt)
}

func (b *Base) exec(ctx context.Context, table, stmt string) error {
	createStmt, err := b.db.PrepareContext(ctx, stmt)
	if err != nil {
		return fmt.Errorf("preparing %s creation statement: %v", table, err)
	}
	defer createStmt.Close()
	_, err = createStmt.ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("ensuring %s table exists: %v", table, err)
	}
	return nil
}

func (b *Base) MaxTransactionID(ctx context.Context) (int64, error) {
	var maxID sql.NullInt64
	err := b.db.QueryRowContext(ctx, "SELECT MAX(tid) FROM transactions").Scan(&maxID)
	if err != nil {
		return 0, fmt.Errorf("querying maximum transaction id: %v", err)
	}
	if !maxID.Valid {
		return 0, nil
	}
	return maxID.Int64, nil
}

func (b *Base) AddTransactions(ctx context.Context, firstID int64, transactions [][]string) (int, error) {
	if len(transactions) == 0 {
		return 0, nil
	}
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("starting transaction insertion: %v", err)
	}
	insertStmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		"INSERT INTO transactions (tid, position, item) VALUES (%s, %s, %s)",
		b.dialect.Placeholder(1), b.dialect.Placeholder(2), b.dialect.Placeholder(3),
	))
	if err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("preparing transaction insertion statement: %v", err)
	}
	defer insertStmt.Close()
	for i, t := range transactions {
		id := firstID + int64(i)
		if len(t) == 0 {
			_, err = insertStmt.ExecContext(ctx, id, 0, nil)
		}
		for p, item := range t {
			_, err = insertStmt.ExecContext(ctx, id, p, item)
			if err != nil {
				break
			}
		}
		if err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("inserting transaction %d: %v", id, err)
		}
	}
	err = tx.Commit()
	if err != nil {
		return 0, fmt.Errorf("committing %d transactions: %v", len(transactions), err)
	}
	return len(transactions), nil
}

func (b *Base) IterateOnTransactionItems(ctx context.Context, lambda func(int64, sql.NullString) (bool, error)) error {
	rows, err := b.db.QueryContext(ctx, "SELECT tid, item FROM transactions ORDER BY tid, position")
	if err != nil {
		return fmt.Errorf("querying transactions: %v", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		var item sql.NullString
		err = rows.Scan(&id, &item)
		if err != nil {
			return fmt.Errorf("scanning transaction item: %v", err)
		}
		ok, err := lambda(id, item)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}
	if err = rows.Err(); err != nil {
		return fmt.Errorf("iterating over transactions: %v", err)
	}
	return nil
}

func (b *Base) CountTransactions(ctx context.Context) (int, error) {
	var count int
	err := b.db.QueryRowContext(ctx, "SELECT COUNT(DISTINCT tid) FROM transactions").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting transactions: %v", err)
	}
	return count, nil
}

func (b *Base) AddPatterns(ctx context.Context, items []string, lengths []int, supports []int) (int, error) {
	if len(items) != len(supports) || len(items) != len(lengths) {
		return 0, fmt.Errorf("adding patterns: got %d item lists, %d lengths and %d supports", len(items), len(lengths), len(supports))
	}
	if len(items) == 0 {
		return 0, nil
	}
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("starting pattern insertion: %v", err)
	}
	insertStmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		"INSERT INTO patterns (items, length, support) VALUES (%s, %s, %s)",
		b.dialect.Placeholder(1), b.dialect.Placeholder(2), b.dialect.Placeholder(3),
	))
	if err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("preparing pattern insertion statement: %v", err)
	}
	defer insertStmt.Close()
	for i := range items {
		_, err = insertStmt.ExecContext(ctx, items[i], lengths[i], supports[i])
		if err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("inserting pattern %q: %v", items[i], err)
		}
	}
	err = tx.Commit()
	if err != nil {
		return 0, fmt.Errorf("committing %d patterns: %v", len(items), err)
	}
	return len(items), nil
}

func (b *Base) Close() error {
	return b.db.Close()
}
