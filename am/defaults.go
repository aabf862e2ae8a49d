package am

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Database defaults
	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("database.path", DefaultDatabasePath)
	v.SetDefault("database.dsn", "")

	// Result files as written by the measurement tool
	v.SetDefault("results.dir", DefaultResultsDir)
	v.SetDefault("results.pattern", DefaultResultsPattern)

	// Import defaults: best-effort, most recent run's counters
	v.SetDefault("import.atomic", false)
	v.SetDefault("import.metrics_policy", MetricsPolicyLast)
	v.SetDefault("import.watch_debounce_ms", 500)

	// Server configuration defaults
	v.SetDefault("server.port", DefaultServerPort)
	v.SetDefault("server.allowed_origins", []string{
		"http://localhost",
		"http://127.0.0.1",
	})
	v.SetDefault("server.request_timeout_seconds", 30)
	v.SetDefault("server.import_rate_per_minute", 30)

	v.SetDefault("log.json", false)
}

// envBindings are the variables read for each key besides JOULEBENCH_<KEY>
var envBindings = map[string][]string{
	"database.driver": {"JOULEBENCH_DATABASE_DRIVER"},
	"database.path":   {"JOULEBENCH_DATABASE_PATH"},
	"database.dsn":    {"JOULEBENCH_DATABASE_DSN", "DATABASE_URL"},
	"results.dir":     {"JOULEBENCH_RESULTS_DIR"},
	"server.port":     {"JOULEBENCH_SERVER_PORT", "PORT"},
}

// BindEnvVars explicitly binds configuration that is commonly injected by deployments
func BindEnvVars(v *viper.Viper) {
	for key, names := range envBindings {
		v.BindEnv(append([]string{key}, names...)...)
	}
}

// Default returns a Config populated with defaults only
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Driver: DriverSQLite, Path: DefaultDatabasePath},
		Results:  ResultsConfig{Dir: DefaultResultsDir, Pattern: DefaultResultsPattern},
		Import:   ImportConfig{MetricsPolicy: MetricsPolicyLast, WatchDebounceMS: 500},
		Server: ServerConfig{
			Port:                  DefaultServerPort,
			AllowedOrigins:        []string{"http://localhost", "http://127.0.0.1"},
			RequestTimeoutSeconds: 30,
			ImportRatePerMinute:   30,
		},
	}
}

// GetDatabasePath returns the configured database path
func (c *Config) GetDatabasePath() string {
	if c.Database.Path == "" {
		return DefaultDatabasePath
	}
	return c.Database.Path
}

// GetDriver returns the database driver (default: sqlite3)
func (c *Config) GetDriver() string {
	if c.Database.Driver == "" {
		return DriverSQLite
	}
	return c.Database.Driver
}

// GetDataSource returns what to hand to sql.Open for the configured driver
func (c *Config) GetDataSource() string {
	if c.GetDriver() == DriverPostgres {
		return c.Database.DSN
	}
	return c.GetDatabasePath()
}

// GetResultsDir returns the results directory (default: results)
func (c *Config) GetResultsDir() string {
	if c.Results.Dir == "" {
		return DefaultResultsDir
	}
	return c.Results.Dir
}

// GetResultsPattern returns the result file glob (default: energy_benchmark_*.json)
func (c *Config) GetResultsPattern() string {
	if c.Results.Pattern == "" {
		return DefaultResultsPattern
	}
	return c.Results.Pattern
}

// GetMetricsPolicy returns the metrics selection policy (default: last)
func (c *Config) GetMetricsPolicy() string {
	if c.Import.MetricsPolicy == "" {
		return MetricsPolicyLast
	}
	return c.Import.MetricsPolicy
}

// GetWatchDebounce returns the watcher quiet period
func (c *Config) GetWatchDebounce() time.Duration {
	if c.Import.WatchDebounceMS <= 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(c.Import.WatchDebounceMS) * time.Millisecond
}

// GetServerPort returns the HTTP port (default: 8877)
func (c *Config) GetServerPort() int {
	if c.Server.Port == 0 {
		return DefaultServerPort
	}
	return c.Server.Port
}

// GetRequestTimeout returns the per-request timeout, 0 meaning none
func (c *Config) GetRequestTimeout() time.Duration {
	return time.Duration(c.Server.RequestTimeoutSeconds) * time.Second
}

// String returns a string representation of the config
func (c *Config) String() string {
	return fmt.Sprintf("Config{Database: {Driver: %s, Path: %s}, Results: %s/%s, Import: {Atomic: %t, Metrics: %s}, Server: {Port: %d}}",
		c.GetDriver(), c.GetDatabasePath(), c.GetResultsDir(), c.GetResultsPattern(),
		c.Import.Atomic, c.GetMetricsPolicy(), c.GetServerPort())
}
