package am

import (
	"path/filepath"

	"github.com/teranos/joulebench/errors"
)

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "", DriverSQLite:
		// Empty path falls back to joulebench.db
	case DriverPostgres:
		if c.Database.DSN == "" {
			return errors.WithHint(
				errors.New("database.dsn cannot be empty for the postgres driver"),
				"set JOULEBENCH_DATABASE_DSN or DATABASE_URL")
		}
	default:
		return errors.Newf("database.driver must be %q or %q, got %q", DriverSQLite, DriverPostgres, c.Database.Driver)
	}

	if c.Results.Pattern != "" {
		if _, err := filepath.Match(c.Results.Pattern, ""); err != nil {
			return errors.Wrapf(err, "results.pattern %q is not a valid glob", c.Results.Pattern)
		}
	}

	switch c.Import.MetricsPolicy {
	case "", MetricsPolicyLast, MetricsPolicyMean:
	default:
		return errors.Newf("import.metrics_policy must be %q or %q, got %q", MetricsPolicyLast, MetricsPolicyMean, c.Import.MetricsPolicy)
	}
	if c.Import.WatchDebounceMS < 0 {
		return errors.Newf("import.watch_debounce_ms must be >= 0, got %d", c.Import.WatchDebounceMS)
	}

	// Server port: 0 = default, negative or out of range is invalid
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return errors.Newf("server.port must be within 1-65535, got %d", c.Server.Port)
	}
	if c.Server.RequestTimeoutSeconds < 0 {
		return errors.Newf("server.request_timeout_seconds must be >= 0, got %d", c.Server.RequestTimeoutSeconds)
	}
	if c.Server.ImportRatePerMinute < 0 {
		return errors.Newf("server.import_rate_per_minute must be >= 0, got %d", c.Server.ImportRatePerMinute)
	}

	return nil
}
