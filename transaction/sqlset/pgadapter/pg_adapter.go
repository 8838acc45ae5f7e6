/*
Package pgadapter provides an implementation of the
Adapter interface in the sqlset package that works
over a PostgreSQL database.
*/
package pgadapter

import (
	"database/sql"
	"fmt"

	"github.com/pbanos/pfpgrowth/transaction/sqlset"

	// Import of PostgreSQL driver
	_ "github.com/lib/pq"
)

const (
	transactionTableCreateStmt = `CREATE TABLE IF NOT EXISTS transactions (
		tid BIGINT NOT NULL,
		position INTEGER NOT NULL,
		item TEXT NULL,
		PRIMARY KEY (tid, position))`
	patternTableCreateStmt = `CREATE TABLE IF NOT EXISTS patterns (
		id SERIAL PRIMARY KEY,
		items TEXT NOT NULL,
		length INTEGER NOT NULL,
		support INTEGER NOT NULL)`
)

// Dialect is the SQL dialect of PostgreSQL.
var Dialect = sqlset.Dialect{
	TransactionTableCreateStmt: transactionTableCreateStmt,
	PatternTableCreateStmt:     patternTableCreateStmt,
	Placeholder:                func(n int) string { return fmt.Sprintf("$%d", n) },
}

type adapter struct {
	*sqlset.Base
}

/*
New takes a PostgreSQL database connection URL and returns
an Adapter that works on the database or an error if it fails to connect to it.
*/
func New(url string) (sqlset.Adapter, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, err
	}
	err = db.Ping()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to PostgreSQL: %v", err)
	}
	return &adapter{sqlset.NewBase(db, Dialect)}, nil
}
