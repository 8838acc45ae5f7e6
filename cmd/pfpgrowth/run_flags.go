package main

import (
	"fmt"
	"time"

	"github.com/pbanos/pfpgrowth/config"
	"github.com/pbanos/pfpgrowth/queue"
	"github.com/pbanos/pfpgrowth/queue/json"
	"github.com/pbanos/pfpgrowth/queue/redisq"
	"github.com/pbanos/pfpgrowth/store"
	"github.com/pbanos/pfpgrowth/store/redisstore"
	"github.com/pbanos/pfpgrowth/support"
	"github.com/spf13/cobra"
	redis "gopkg.in/redis.v5"
)

// runFlags are the flags shared by the commands taking part in a run.
// Flags set on the command line override the values of the config file.
type runFlags struct {
	configFile string
	minSupport string
	partitions int
	separator  string
	workers    int
	queue      string
	runID      string
	taskMaxRun time.Duration
	lockTTL    time.Duration
}

func (rf *runFlags) register(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringVarP(&(rf.configFile), "config", "c", "", "path to a YML file with the settings of the run, overridden by flags")
	flags.StringVarP(&(rf.minSupport), "min-support", "s", "", "minimum support of frequent itemsets: an integer count such as 10 or a fraction of the transactions such as 0.05 (required)")
	flags.IntVarP(&(rf.partitions), "partitions", "p", 0, "number of partitions the mining is split into (defaults to the number of CPUs)")
	flags.StringVar(&(rf.separator), "sep", "", "single character separating the items of a transaction, `\\t` or tab for a tab (defaults to tab)")
	flags.IntVar(&(rf.workers), "workers", 0, "number of workers mining partitions in this process (defaults to the number of CPUs)")
	flags.StringVar(&(rf.queue), "queue", "", "memory or a redis:// URL to share the run with workers of other processes (defaults to memory)")
	flags.StringVar(&(rf.runID), "run-id", "", "identifier of the run, used to prefix its keys on redis (defaults to a new UUID)")
	flags.DurationVar(&(rf.taskMaxRun), "task-max-run", 0, "time after which a task running on a redis queue is considered abandoned and made pending again (defaults to 0: never)")
	flags.DurationVar(&(rf.lockTTL), "lock-ttl", time.Second, "expiration of the locks on tasks of a redis queue")
}

func (rf *runFlags) load(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()
	if rf.configFile != "" {
		var err error
		cfg, err = config.ReadFile(rf.configFile)
		if err != nil {
			return nil, err
		}
	}
	flags := cmd.Flags()
	if flags.Changed("min-support") {
		ms, err := support.Parse(rf.minSupport)
		if err != nil {
			return nil, err
		}
		cfg.MinSupport.MinSupport = ms
	}
	if flags.Changed("partitions") {
		cfg.Partitions = rf.partitions
	}
	if flags.Changed("sep") {
		cfg.Separator = rf.separator
	}
	if flags.Changed("workers") {
		cfg.Workers = rf.workers
	}
	if flags.Changed("queue") {
		cfg.Queue = rf.queue
	}
	if flags.Changed("run-id") {
		cfg.RunID = rf.runID
	}
	if flags.Changed("task-max-run") {
		cfg.TaskMaxRun = rf.taskMaxRun
	}
	if flags.Changed("lock-ttl") {
		cfg.LockTTL = rf.lockTTL
	}
	return cfg, nil
}

// backends returns the queue and store of the run described by cfg,
// sharing them on redis for distributed runs.
func backends(cfg *config.Config) (queue.Queue, store.Store, error) {
	if !cfg.IsDistributed() {
		return queue.New(), store.NewMemoryStore(), nil
	}
	if cfg.RunID == "" {
		return nil, nil, fmt.Errorf("a run on a redis queue needs a run ID")
	}
	opts, err := cfg.RedisOptions()
	if err != nil {
		return nil, nil, err
	}
	rc := redis.NewClient(opts)
	if err = rc.Ping().Err(); err != nil {
		rc.Close()
		return nil, nil, fmt.Errorf("connecting to redis at %s: %v", opts.Addr, err)
	}
	q := redisq.New(cfg.RunID, rc, cfg.TaskMaxRun, cfg.LockTTL, json.New())
	s := redisstore.New(rc, fmt.Sprintf("%s:patterns", cfg.RunID))
	return q, s, nil
}
