package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := cliParser().Execute(); err != nil {
		os.Exit(1)
	}
}

func cliParser() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pfpgrowth",
		Short: "pfpgrowth is a tool to mine frequent itemsets",
		Long:  `A tool to mine the frequent itemsets of transactional data with a partition-parallel FP-Growth`,
	}
	config := &rootCmdConfig{}
	rootCmd.PersistentFlags().BoolVarP(&(config.verbose), "verbose", "v", false, "log the progress of the run")
	rootCmd.AddCommand(versionCmd(), mineCmd(config), workCmd(config), importCmd(config))
	return rootCmd
}
