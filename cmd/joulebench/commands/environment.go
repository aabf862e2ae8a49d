package commands

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/joulebench/actions"
	"github.com/teranos/joulebench/am"
	"github.com/teranos/joulebench/ax"
	"github.com/teranos/joulebench/db"
	"github.com/teranos/joulebench/errors"
	"github.com/teranos/joulebench/internal/metrics"
	"github.com/teranos/joulebench/ix"
	"github.com/teranos/joulebench/logger"
	"github.com/teranos/joulebench/results"
	"github.com/teranos/joulebench/storage"
)

// LogJSON reports whether log.json is set; unreadable config means console logs
func LogJSON() bool {
	cfg, err := am.Load()
	if err != nil {
		return false
	}
	return cfg.Log.JSON
}

func loadConfig() (*am.Config, error) {
	cfg, err := am.Load()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load configuration")
	}
	return cfg, nil
}

// dataSource resolves the DSN for cfg's driver. DB_PATH overrides the SQLite path.
func dataSource(cfg *am.Config) (string, error) {
	if cfg.GetDriver() != am.DriverSQLite {
		return cfg.GetDataSource(), nil
	}
	return am.GetDatabasePath()
}

// openDatabase opens and migrates the configured database
func openDatabase(cfg *am.Config) (*sql.DB, db.Dialect, error) {
	dialect, err := db.DialectFor(cfg.GetDriver())
	if err != nil {
		return nil, "", err
	}
	dsn, err := dataSource(cfg)
	if err != nil {
		return nil, "", errors.Wrap(err, "failed to get database path")
	}

	handle, err := db.OpenWithMigrations(cfg.GetDriver(), dsn, logger.Logger)
	if err != nil {
		return nil, "", errors.Wrap(err, "failed to open database")
	}
	return handle, dialect, nil
}

func readerFor(cfg *am.Config) *results.Reader {
	return results.NewReader(cfg.GetResultsDir(), cfg.GetResultsPattern())
}

// serviceOptions tune newService for one command
type serviceOptions struct {
	emitter ix.ProgressEmitter
	metrics *metrics.Metrics
}

// newService wires reader, importer and aggregator over handle
func newService(cfg *am.Config, handle *sql.DB, dialect db.Dialect, opts serviceOptions) (*actions.Service, error) {
	policy, err := ix.PolicyByName(cfg.GetMetricsPolicy())
	if err != nil {
		return nil, err
	}

	store := storage.NewSQLStore(handle, dialect, logger.ComponentLogger("storage"))
	importer := ix.NewImporter(store, ix.Options{
		Atomic:  cfg.Import.Atomic,
		Policy:  policy,
		Emitter: opts.emitter,
		Logger:  logger.ComponentLogger("ix"),
	})

	return actions.NewService(actions.Deps{
		Reader:     readerFor(cfg),
		Importer:   importer,
		Aggregator: ax.NewAggregator(store, logger.ComponentLogger("ax")),
		Metrics:    opts.metrics,
		Logger:     logger.ComponentLogger("actions"),
	}), nil
}

// openService is loadConfig, openDatabase and newService in one step.
// The returned close func releases the database.
func openService(opts serviceOptions) (*actions.Service, *am.Config, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	handle, dialect, err := openDatabase(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	svc, err := newService(cfg, handle, dialect, opts)
	if err != nil {
		handle.Close()
		return nil, nil, nil, err
	}
	return svc, cfg, func() { handle.Close() }, nil
}

// renderEnvelope prints env as indented JSON, or hands the payload to render.
// A failed envelope becomes the command's error.
func renderEnvelope(cmd *cobra.Command, env actions.Envelope, asJSON bool, render func() error) error {
	if asJSON {
		data, err := json.MarshalIndent(env, "", "  ")
		if err != nil {
			return errors.Wrap(err, "failed to marshal result")
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return env.Err()
	}

	if !env.Success {
		for _, hint := range env.Hints {
			pterm.Info.Println(hint)
		}
		return env.Err()
	}
	return render()
}
