/*
Package sqlite3adapter provides an implementation of the
Adapter interface in the sqlset package that works
over an SQLite3 database file.
*/
package sqlite3adapter

import (
	"database/sql"

	// Import of sqlite3 driver
	_ "github.com/mattn/go-sqlite3"
	"github.com/pbanos/pfpgrowth/transaction/sqlset"
)

const (
	transactionTableCreateStmt = `CREATE TABLE IF NOT EXISTS transactions (
		tid INTEGER NOT NULL,
		position INTEGER NOT NULL,
		item TEXT NULL,
		PRIMARY KEY (tid, position))`
	patternTableCreateStmt = `CREATE TABLE IF NOT EXISTS patterns (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		items TEXT NOT NULL,
		length INTEGER NOT NULL,
		support INTEGER NOT NULL)`
)

// Dialect is the SQL dialect of SQLite3.
var Dialect = sqlset.Dialect{
	TransactionTableCreateStmt: transactionTableCreateStmt,
	PatternTableCreateStmt:     patternTableCreateStmt,
	Placeholder:                func(int) string { return "?" },
}

type adapter struct {
	*sqlset.Base
}

/*
New takes a path to an SQLite3 database file and a maximum number of open
connections (0 meaning no limit) and returns an Adapter that works on the
file's database or an error if it fails to open as an sqlite3 database.
*/
func New(path string, maxConns int) (sqlset.Adapter, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(maxConns)
	return &adapter{sqlset.NewBase(db, Dialect)}, nil
}
