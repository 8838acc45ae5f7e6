/*
Package mongoset provides an implementation of transaction.Dataset
that uses a MongoDB database as backend.

Transactions are stored as documents of the transactions collection
holding their items in an array field, and are read in insertion order.
*/
package mongoset

import (
	"context"
	"fmt"

	"github.com/pbanos/pfpgrowth/itemset"
	"github.com/pbanos/pfpgrowth/transaction"
	mgo "gopkg.in/mgo.v2"
	"gopkg.in/mgo.v2/bson"
)

/*
Dataset is a transaction.Dataset to which transactions can be added.
*/
type Dataset interface {
	transaction.Dataset
	Write(context.Context, [][]itemset.Item) (int, error)
}

type mongoset struct {
	session *mgo.Session
}

type document struct {
	ID    bson.ObjectId `bson:"_id"`
	Items []string      `bson:"items"`
}

const (
	transactionsCollectionName = "transactions"
)

/*
Open takes a MongoDB database session and returns a Dataset that works on
the default database for that session.
*/
func Open(ctx context.Context, session *mgo.Session) (Dataset, error) {
	if err := session.Ping(); err != nil {
		return nil, fmt.Errorf("connecting to MongoDB: %v", err)
	}
	return &mongoset{session}, nil
}

func (ms *mongoset) Count(context.Context) (int, error) {
	n, err := ms.collection().Count()
	if err != nil {
		return 0, fmt.Errorf("counting transactions: %v", err)
	}
	return n, nil
}

func (ms *mongoset) Read(ctx context.Context) (<-chan []itemset.Item, <-chan error) {
	transactions := make(chan []itemset.Item)
	errs := make(chan error, 1)
	go func() {
		defer close(transactions)
		defer close(errs)
		iter := ms.collection().Find(nil).Sort("_id").Iter()
		var doc document
		for iter.Next(&doc) {
			t := doc.transaction()
			doc = document{}
			select {
			case <-ctx.Done():
				iter.Close()
				errs <- ctx.Err()
				return
			case transactions <- t:
			}
		}
		if err := iter.Close(); err != nil {
			errs <- fmt.Errorf("reading transactions: %v", err)
		}
	}()
	return transactions, errs
}

func (ms *mongoset) Write(ctx context.Context, transactions [][]itemset.Item) (int, error) {
	if len(transactions) == 0 {
		return 0, nil
	}
	docs := documents(transactions)
	err := ms.collection().Insert(docs...)
	if err != nil {
		return 0, fmt.Errorf("inserting %d transactions: %v", len(docs), err)
	}
	return len(docs), nil
}

// documents returns the documents to insert for the transactions, with
// ascending IDs so that they are read back in the same order.
func documents(transactions [][]itemset.Item) []interface{} {
	docs := make([]interface{}, 0, len(transactions))
	for _, t := range transactions {
		items := make([]string, len(t))
		for i, item := range t {
			items[i] = string(item)
		}
		docs = append(docs, &document{ID: bson.NewObjectId(), Items: items})
	}
	return docs
}

func (doc *document) transaction() []itemset.Item {
	t := make([]itemset.Item, len(doc.Items))
	for i, item := range doc.Items {
		t[i] = itemset.Item(item)
	}
	return t
}

func (ms *mongoset) collection() *mgo.Collection {
	return ms.session.DB("").C(transactionsCollectionName)
}
