package am

// Config represents the joulebench configuration
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Results  ResultsConfig  `mapstructure:"results"`
	Import   ImportConfig   `mapstructure:"import"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
}

// DatabaseConfig configures the relational store
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"` // "sqlite3" (default) or "postgres"
	Path   string `mapstructure:"path"`   // SQLite file path
	DSN    string `mapstructure:"dsn"`    // Postgres connection string
}

// ResultsConfig locates the result files written by the measurement tool
type ResultsConfig struct {
	Dir     string `mapstructure:"dir"`     // Directory scanned for result files
	Pattern string `mapstructure:"pattern"` // Glob matched against file names
}

// ImportConfig controls how documents are persisted
type ImportConfig struct {
	Atomic          bool   `mapstructure:"atomic"`            // All-or-nothing imports in one transaction (default: false)
	MetricsPolicy   string `mapstructure:"metrics_policy"`    // "last" (default) or "mean"
	WatchDebounceMS int    `mapstructure:"watch_debounce_ms"` // Quiet period before the watcher imports a changed file
}

// ServerConfig configures the HTTP dispatcher
type ServerConfig struct {
	Port                  int      `mapstructure:"port"`
	AllowedOrigins        []string `mapstructure:"allowed_origins"`
	RequestTimeoutSeconds int      `mapstructure:"request_timeout_seconds"` // 0 = no timeout
	ImportRatePerMinute   int      `mapstructure:"import_rate_per_minute"`  // 0 = unlimited
}

// LogConfig configures structured logging
type LogConfig struct {
	JSON bool `mapstructure:"json"`
}

// Supported database drivers
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Metrics selection policies
const (
	MetricsPolicyLast = "last"
	MetricsPolicyMean = "mean"
)

// Defaults
const (
	DefaultServerPort     = 8877
	DefaultResultsDir     = "results"
	DefaultResultsPattern = "energy_benchmark_*.json"
	DefaultDatabasePath   = "joulebench.db"
)

// File system constants
const (
	DefaultDirPermissions  = 0755 // Standard directory permissions (rwxr-xr-x)
	DefaultFilePermissions = 0644 // Standard file permissions (rw-r--r--)
)
