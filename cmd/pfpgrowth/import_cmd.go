package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/pbanos/pfpgrowth/itemset"
	"github.com/pbanos/pfpgrowth/transaction"
	"github.com/pbanos/pfpgrowth/transaction/mongoset"
	"github.com/pbanos/pfpgrowth/transaction/sqlset"
	"github.com/pbanos/pfpgrowth/transaction/sqlset/pgadapter"
	"github.com/pbanos/pfpgrowth/transaction/sqlset/sqlite3adapter"
	"github.com/pbanos/pfpgrowth/transaction/text"
	"github.com/spf13/cobra"
	mgo "gopkg.in/mgo.v2"
)

const defaultImportBatch = 500

type importCmdConfig struct {
	*rootCmdConfig
	input      string
	output     string
	separator  string
	batch      int
	maxDBConns int
}

type transactionWriter interface {
	Write(context.Context, [][]itemset.Item) (int, error)
}

func importCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &importCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load transactions into a database",
		Long:  `Load the transactions of a text file into a SQLite3, PostgreSQL or MongoDB database that mine can read them from.`,
		Run: func(cmd *cobra.Command, args []string) {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()
			if code := config.run(ctx); code != 0 {
				stop()
				os.Exit(code)
			}
		},
	}
	cmd.PersistentFlags().StringVarP(&(config.input), "input", "i", "", "path to an input text file with one transaction per line (defaults to STDIN)")
	cmd.PersistentFlags().StringVarP(&(config.output), "output", "o", "", "path to a SQLite3 (.db) file, a PostgreSQL DB connection URL or a MongoDB URL to load the transactions into (required)")
	cmd.PersistentFlags().StringVar(&(config.separator), "sep", "", "single character separating the items of a transaction, `\\t` or tab for a tab (defaults to tab)")
	cmd.PersistentFlags().IntVar(&(config.batch), "batch", defaultImportBatch, "number of transactions written at a time")
	cmd.PersistentFlags().IntVar(&(config.maxDBConns), "max-db-conns", 0, "limit to DB connections opened at a time (defaults to 0: no limit)")
	return cmd
}

func (icc *importCmdConfig) Validate() error {
	if icc.output == "" {
		return fmt.Errorf("required output flag was not set")
	}
	if icc.batch < 1 {
		return fmt.Errorf("invalid batch %d: must be positive", icc.batch)
	}
	return nil
}

func (icc *importCmdConfig) run(ctx context.Context) int {
	sep, err := text.ParseSeparator(icc.separator)
	if err == nil {
		err = icc.Validate()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	var ds transaction.Dataset
	if icc.input == "" {
		icc.Logf("Reading transactions from STDIN...")
		ds, err = text.Read(os.Stdin, sep)
	} else {
		icc.Logf("Opening %s to read transactions...", icc.input)
		ds, err = text.Open(icc.input, sep)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	w, closeOutput, err := icc.outputWriter(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 3
	}
	defer closeOutput()

	var total int
	batch := make([][]itemset.Item, 0, icc.batch)
	flush := func() error {
		n, err := w.Write(ctx, batch)
		total += n
		batch = batch[:0]
		return err
	}
	err = transaction.Each(ctx, ds, func(t []itemset.Item) error {
		batch = append(batch, t)
		if len(batch) < icc.batch {
			return nil
		}
		return flush()
	})
	if err == nil && len(batch) > 0 {
		err = flush()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "importing transactions: %v\n", err)
		return 4
	}
	icc.Logf("Imported %d transactions", total)
	return 0
}

func (icc *importCmdConfig) outputWriter(ctx context.Context) (transactionWriter, func(), error) {
	output := icc.output
	switch {
	case strings.HasPrefix(output, "mongodb://"):
		icc.Logf("Connecting to MongoDB at %s to write transactions...", output)
		session, err := mgo.Dial(output)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to MongoDB: %v", err)
		}
		ds, err := mongoset.Open(ctx, session)
		if err != nil {
			session.Close()
			return nil, nil, err
		}
		return ds, session.Close, nil
	case strings.HasPrefix(output, "postgresql://") || strings.HasPrefix(output, "postgres://"):
		icc.Logf("Creating PostgreSQL adapter for url %s to write transactions...", output)
		adapter, err := pgadapter.New(output)
		if err != nil {
			return nil, nil, err
		}
		ds, err := sqlset.CreateDataset(ctx, adapter)
		if err != nil {
			adapter.Close()
			return nil, nil, err
		}
		return ds, func() { adapter.Close() }, nil
	case strings.HasSuffix(output, ".db"):
		icc.Logf("Creating SQLite3 adapter for file %s to write transactions...", output)
		adapter, err := sqlite3adapter.New(output, icc.maxDBConns)
		if err != nil {
			return nil, nil, err
		}
		ds, err := sqlset.CreateDataset(ctx, adapter)
		if err != nil {
			adapter.Close()
			return nil, nil, err
		}
		return ds, func() { adapter.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unsupported output %q: expected a .db file, a PostgreSQL URL or a MongoDB URL", output)
}
