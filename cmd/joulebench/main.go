package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teranos/joulebench/cmd/joulebench/commands"
	"github.com/teranos/joulebench/logger"
)

var rootCmd = &cobra.Command{
	Use:   "joulebench",
	Short: "joulebench - energy benchmark importer and aggregator",
	Long: `joulebench - import energy benchmark result files and compare algorithms.

Result files (energy_benchmark_*.json) written by the measurement tool are
imported into a relational store, one row per algorithm/type/size entry.
Stored rows can then be summarized, ranked by energy, and browsed per algorithm.

Available commands:
  import    - Import a result file (default: the most recent one)
  summary   - Averages grouped by algorithm, type and size
  compare   - Rank algorithms at one input size by mean energy
  list      - List result files, newest first
  algorithm - Recent rows of one algorithm
  serve     - Start the HTTP API
  watch     - Import result files as they appear
  db        - Manage the database
  am        - Manage configuration ("I am")

Examples:
  joulebench import                      # Import the latest result file
  joulebench import energy_benchmark_20250314.json --json
  joulebench compare --size 1000         # Who used the least energy?
  joulebench serve                       # Start the HTTP API`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Config commands print to stdout and stay quiet
		if cmd.Parent() != nil && cmd.Parent().Name() == "am" {
			return nil
		}
		verbosity, _ := cmd.Flags().GetCount("verbose")
		if err := logger.Initialize(commands.LogJSON(), verbosity); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Cleanup()
	},
}

func init() {
	// Add global flags
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv, -vvv)")

	// Add commands
	rootCmd.AddCommand(commands.ImportCmd)
	rootCmd.AddCommand(commands.SummaryCmd)
	rootCmd.AddCommand(commands.CompareCmd)
	rootCmd.AddCommand(commands.ListCmd)
	rootCmd.AddCommand(commands.AlgorithmCmd)
	rootCmd.AddCommand(commands.ServeCmd)
	rootCmd.AddCommand(commands.WatchCmd)
	rootCmd.AddCommand(commands.DbCmd)
	rootCmd.AddCommand(commands.AmCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
