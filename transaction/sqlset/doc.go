/*
Package sqlset provides an implementation of transaction.Dataset
that uses an SQL database as backend, and a writer to store mined
patterns on the same kind of database.

The package uses 2 database tables:
  * transactions, with a row per item of every transaction holding
    the transaction id, the position of the item in the transaction
    and the item itself. Transactions without items are stored as a
    single row with a NULL item so they are still counted.
  * patterns, with a row per frequent pattern holding its items
    joined by a separator, its length and its support.

The SQL for every database engine is provided by an Adapter; see the
sqlite3adapter and pgadapter subpackages.
*/
package sqlset
