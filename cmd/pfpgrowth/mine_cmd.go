package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/pbanos/pfpgrowth"
	"github.com/pbanos/pfpgrowth/config"
	"github.com/pbanos/pfpgrowth/transaction"
	"github.com/pbanos/pfpgrowth/transaction/mongoset"
	"github.com/pbanos/pfpgrowth/transaction/sqlset"
	"github.com/pbanos/pfpgrowth/transaction/sqlset/pgadapter"
	"github.com/pbanos/pfpgrowth/transaction/sqlset/sqlite3adapter"
	"github.com/pbanos/pfpgrowth/transaction/text"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	mgo "gopkg.in/mgo.v2"
)

type mineCmdConfig struct {
	*rootCmdConfig
	runFlags
	input      string
	output     string
	digest     bool
	maxDBConns int
}

func mineCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &mineCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "mine",
		Short: "Mine the frequent itemsets of a set of transactions",
		Long:  `Mine the itemsets that appear in at least a minimum number of transactions, with the number of transactions containing each.`,
		Run: func(cmd *cobra.Command, args []string) {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()
			if code := config.run(ctx, cmd); code != 0 {
				stop()
				os.Exit(code)
			}
		},
	}
	config.runFlags.register(cmd)
	cmd.PersistentFlags().StringVarP(&(config.input), "input", "i", "", "path to an input text (one transaction per line) or SQLite3 (.db) file, a PostgreSQL DB connection URL or a MongoDB URL with the transactions to mine (defaults to STDIN, interpreted as text)")
	cmd.PersistentFlags().StringVarP(&(config.output), "output", "o", "", "path to a text or SQLite3 (.db) file, or a PostgreSQL DB connection URL, to which the frequent itemsets will be written (defaults to STDOUT, as text)")
	cmd.PersistentFlags().BoolVar(&(config.digest), "digest", false, "print a fingerprint of the result to STDERR")
	cmd.PersistentFlags().IntVar(&(config.maxDBConns), "max-db-conns", 0, "limit to DB connections opened at a time (defaults to 0: no limit)")
	return cmd
}

func (mcc *mineCmdConfig) run(ctx context.Context, cmd *cobra.Command) int {
	cfg, err := mcc.load(cmd)
	if err == nil {
		if cmd.Flags().Changed("input") {
			cfg.Input = mcc.input
		}
		if cmd.Flags().Changed("output") {
			cfg.Output = mcc.output
		}
		if cfg.RunID == "" {
			cfg.RunID = pfpgrowth.NewRunID()
		}
		err = cfg.Validate()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	sep, _ := text.ParseSeparator(cfg.Separator)
	logger := mcc.Logger().With(zap.String("run", cfg.RunID))
	q, s, err := backends(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer q.Stop(ctx)
	defer s.Close(ctx)
	if cfg.IsDistributed() {
		fmt.Fprintf(os.Stderr, "run ID: %s\n", cfg.RunID)
	}

	ds, err := mcc.dataset(ctx, cfg, sep)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	mcc.Logf("Ranking items with minimum support %v...", cfg.MinSupport.MinSupport)
	rt, err := pfpgrowth.RankItems(ctx, ds, cfg.MinSupport.MinSupport)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	mcc.Logf("Found %d frequent items in %d transactions (minimum count %d)", rt.Len(), rt.Transactions(), rt.MinCount())

	tasks, err := pfpgrowth.Seed(ctx, ds, rt, cfg.Partitions, q)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 3
	}
	mcc.Logf("Seeded %d tasks over %d partitions", tasks, cfg.Partitions)

	err = pfpgrowth.RunWorkers(ctx, q, s, cfg.Workers, logger, pfpgrowth.DefaultEmptyQueueSleep)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 4
	}

	patterns, err := s.All(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "collecting patterns: %v\n", err)
		return 5
	}
	result, err := pfpgrowth.Assemble(rt, patterns)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 5
	}
	mcc.Logf("Done: %d frequent itemsets", result.Len())
	if mcc.digest {
		fmt.Fprintf(os.Stderr, "digest: %016x\n", result.Digest())
	}

	err = mcc.writeResult(ctx, cfg, sep, result)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 6
	}
	return 0
}

func (mcc *mineCmdConfig) dataset(ctx context.Context, cfg *config.Config, sep string) (transaction.Dataset, error) {
	input := cfg.Input
	switch {
	case input == "":
		mcc.Logf("Reading transactions from STDIN...")
		ds, err := text.Read(os.Stdin, sep)
		if err != nil {
			return nil, fmt.Errorf("reading transactions: %v", err)
		}
		return ds, nil
	case strings.HasPrefix(input, "postgresql://") || strings.HasPrefix(input, "postgres://"):
		mcc.Logf("Creating PostgreSQL adapter for url %s to read transactions...", input)
		adapter, err := pgadapter.New(input)
		if err != nil {
			return nil, err
		}
		return sqlset.OpenDataset(ctx, adapter)
	case strings.HasPrefix(input, "mongodb://"):
		mcc.Logf("Connecting to MongoDB at %s to read transactions...", input)
		session, err := mgo.Dial(input)
		if err != nil {
			return nil, fmt.Errorf("connecting to MongoDB: %v", err)
		}
		return mongoset.Open(ctx, session)
	case strings.HasSuffix(input, ".db"):
		mcc.Logf("Creating SQLite3 adapter for file %s to read transactions...", input)
		adapter, err := sqlite3adapter.New(input, mcc.maxDBConns)
		if err != nil {
			return nil, err
		}
		return sqlset.OpenDataset(ctx, adapter)
	}
	mcc.Logf("Opening %s to read transactions...", input)
	return text.Open(input, sep)
}

func (mcc *mineCmdConfig) writeResult(ctx context.Context, cfg *config.Config, sep string, result *pfpgrowth.Result) error {
	output := cfg.Output
	var w text.Writer
	switch {
	case output == "":
		w = text.NewWriter(os.Stdout, sep)
	case strings.HasPrefix(output, "postgresql://") || strings.HasPrefix(output, "postgres://"):
		adapter, err := pgadapter.New(output)
		if err != nil {
			return err
		}
		defer adapter.Close()
		w, err = sqlset.CreatePatternWriter(ctx, adapter, sep)
		if err != nil {
			return err
		}
	case strings.HasSuffix(output, ".db"):
		adapter, err := sqlite3adapter.New(output, mcc.maxDBConns)
		if err != nil {
			return err
		}
		defer adapter.Close()
		w, err = sqlset.CreatePatternWriter(ctx, adapter, sep)
		if err != nil {
			return err
		}
	default:
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("creating output file %s: %v", output, err)
		}
		defer f.Close()
		w = text.NewWriter(f, sep)
	}
	_, err := w.Write(ctx, result.Sorted())
	if err != nil {
		return fmt.Errorf("writing frequent itemsets: %v", err)
	}
	if err = w.Flush(); err != nil {
		return fmt.Errorf("writing frequent itemsets: %v", err)
	}
	mcc.Logf("Wrote %d frequent itemsets", w.Count())
	return nil
}
