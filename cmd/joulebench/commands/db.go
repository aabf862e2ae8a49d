package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/joulebench/am"
	"github.com/teranos/joulebench/db"
	"github.com/teranos/joulebench/logger"
	"github.com/teranos/joulebench/storage"
)

// DbCmd represents the db (database) command
var DbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the joulebench database",
	Long: `db - Manage the joulebench database

Examples:
  joulebench db migrate     # Apply pending schema migrations
  joulebench db stats       # Show row counts and schema version`,
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	Args:  cobra.NoArgs,
	RunE:  runDbMigrate,
}

var dbStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show database statistics",
	Long:  "Display the configured database, applied migrations, and stored benchmark row counts",
	Args:  cobra.NoArgs,
	RunE:  runDbStats,
}

func init() {
	DbCmd.AddCommand(dbMigrateCmd)
	DbCmd.AddCommand(dbStatsCmd)
}

func runDbMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// openDatabase migrates on open
	handle, dialect, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer handle.Close()

	versions, err := db.AppliedVersions(handle, dialect)
	if err != nil {
		return err
	}
	pterm.Success.Printf("Schema up to date (%s): migrations %s\n", dialect, strings.Join(versions, ", "))
	return nil
}

func runDbStats(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	handle, dialect, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer handle.Close()

	store := storage.NewSQLStore(handle, dialect, logger.ComponentLogger("storage"))
	total, err := store.Count(cmd.Context())
	if err != nil {
		return err
	}
	groups, err := store.Summary(cmd.Context())
	if err != nil {
		return err
	}
	versions, err := db.AppliedVersions(handle, dialect)
	if err != nil {
		return err
	}

	algorithms := make(map[string]struct{})
	for _, g := range groups {
		algorithms[g.AlgorithmName] = struct{}{}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Database Statistics\n")
	fmt.Fprintf(out, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")
	fmt.Fprintf(out, "Driver:             %s\n", dialect)
	if cfg.GetDriver() == am.DriverSQLite {
		path, _ := dataSource(cfg)
		fmt.Fprintf(out, "Database Path:      %s\n", path)
		if info, err := os.Stat(path); err == nil {
			fmt.Fprintf(out, "File Size:          %d bytes\n", info.Size())
		}
	}
	fmt.Fprintf(out, "Migrations:         %s\n", strings.Join(versions, ", "))
	fmt.Fprintf(out, "Benchmark Rows:     %d\n", total)
	fmt.Fprintf(out, "Groups:             %d\n", len(groups))
	fmt.Fprintf(out, "Algorithms:         %d\n", len(algorithms))
	return nil
}
