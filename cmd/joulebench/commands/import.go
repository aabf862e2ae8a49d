package commands

import (
	"github.com/spf13/cobra"

	"github.com/teranos/joulebench/ix"
)

// ImportCmd imports one result file into the database
var ImportCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import a result file (default: the most recent one)",
	Long: `Import one energy benchmark result file from the results directory.

Each benchmark entry becomes one row. Without a file argument the most recently
modified file matching results.pattern is imported. By default rows written
before a failing entry are kept; --atomic (or import.atomic) writes all or nothing.

Examples:
  joulebench import                                   # Latest result file
  joulebench import energy_benchmark_20250314.json    # A specific file
  joulebench import --json                            # Progress as JSON lines
  joulebench import --atomic --policy mean`,
	Args: cobra.MaximumNArgs(1),
	RunE: runImport,
}

var (
	importJSONFlag   bool
	importAtomicFlag bool
	importPolicyFlag string
)

func init() {
	ImportCmd.Flags().BoolVar(&importJSONFlag, "json", false, "Emit progress as JSON lines")
	ImportCmd.Flags().BoolVar(&importAtomicFlag, "atomic", false, "Write all entries in one transaction (overrides import.atomic)")
	ImportCmd.Flags().StringVar(&importPolicyFlag, "policy", "", "Counter selection policy: last or mean (overrides import.metrics_policy)")
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("atomic") {
		cfg.Import.Atomic = importAtomicFlag
	}
	if importPolicyFlag != "" {
		cfg.Import.MetricsPolicy = importPolicyFlag
	}

	var emitter ix.ProgressEmitter
	if importJSONFlag {
		emitter = ix.NewJSONEmitter(cmd.OutOrStdout())
	} else {
		verbosity, _ := cmd.Flags().GetCount("verbose")
		emitter = ix.NewCLIEmitter(verbosity)
	}

	handle, dialect, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer handle.Close()

	svc, err := newService(cfg, handle, dialect, serviceOptions{emitter: emitter})
	if err != nil {
		return err
	}

	var file string
	if len(args) == 1 {
		file = args[0]
	}

	// The emitter has already reported stages, rows and the outcome
	res := svc.ImportFile(cmd.Context(), file)
	return res.Err()
}
