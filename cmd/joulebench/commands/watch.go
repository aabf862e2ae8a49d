package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/joulebench/am"
	"github.com/teranos/joulebench/errors"
	"github.com/teranos/joulebench/ix"
	"github.com/teranos/joulebench/logger"
)

// WatchCmd imports result files as the measurement tool writes them
var WatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Import result files as they appear",
	Long: `Watch the results directory and import each matching file once it has
stopped changing for import.watch_debounce_ms. The directory is created if missing.

Examples:
  joulebench watch             # Import new files until interrupted
  joulebench watch --initial   # Import the latest existing file first`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

var watchInitialFlag bool

func init() {
	WatchCmd.Flags().BoolVar(&watchInitialFlag, "initial", false, "Import the latest existing file before watching")
}

func runWatch(cmd *cobra.Command, args []string) error {
	verbosity, _ := cmd.Flags().GetCount("verbose")
	if verbosity == 0 {
		if err := logger.Initialize(LogJSON(), 1); err != nil {
			return err
		}
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.GetResultsDir(), am.DefaultDirPermissions); err != nil {
		return errors.Wrapf(err, "failed to create %s", cfg.GetResultsDir())
	}

	handle, dialect, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer handle.Close()

	svc, err := newService(cfg, handle, dialect, serviceOptions{emitter: ix.NewCLIEmitter(verbosity)})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if watchInitialFlag {
		res := svc.ImportFile(ctx, "")
		if !res.Success && res.Kind() != errors.KindNotFound {
			return res.Err()
		}
	}

	watcher, err := ix.NewWatcher(svc.Reader(), func(ctx context.Context, name string) ix.Result {
		return svc.ImportFile(ctx, name)
	}, cfg.GetWatchDebounce(), logger.ComponentLogger("watch"))
	if err != nil {
		return err
	}

	pterm.Info.Printf("Watching %s for %s (Ctrl+C to stop)\n", cfg.GetResultsDir(), cfg.GetResultsPattern())
	return watcher.Run(ctx)
}
