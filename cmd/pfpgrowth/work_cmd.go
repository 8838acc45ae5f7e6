package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/pbanos/pfpgrowth"
	"github.com/pbanos/pfpgrowth/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type workCmdConfig struct {
	*rootCmdConfig
	runFlags
}

func workCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &workCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "work",
		Short: "Join a run shared on redis as an additional worker",
		Long: `Mine partitions of a run started by the mine command with a redis queue.
Workers stop once every task of the run has been processed, so they should
be started after the mine command has seeded the run.`,
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
	return cmd
}

func (wcc *workCmdConfig) run(ctx context.Context, cmd *cobra.Command) int {
	cfg, err := wcc.load(cmd)
	if err == nil {
		err = validateWorkConfig(cfg)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	q, s, err := backends(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer q.Stop(ctx)
	defer s.Close(ctx)
	wcc.Logf("Joining run %s with %d workers...", cfg.RunID, cfg.Workers)
	logger := wcc.Logger().With(zap.String("run", cfg.RunID))
	err = pfpgrowth.RunWorkers(ctx, q, s, cfg.Workers, logger, pfpgrowth.DefaultEmptyQueueSleep)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 4
	}
	wcc.Logf("Done")
	return 0
}

func validateWorkConfig(cfg *config.Config) error {
	if !cfg.IsDistributed() {
		return fmt.Errorf("required queue flag was not set to a redis:// URL")
	}
	if cfg.RunID == "" {
		return fmt.Errorf("required run-id flag was not set")
	}
	if cfg.Workers < 1 {
		return fmt.Errorf("workers flag must be at least 1")
	}
	return nil
}
