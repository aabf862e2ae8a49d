package am

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/teranos/joulebench/errors"
)

// Settings returns the config as nested maps keyed like the TOML file
func (c *Config) Settings() map[string]interface{} {
	return map[string]interface{}{
		"database": map[string]interface{}{
			"driver": c.GetDriver(),
			"path":   c.GetDatabasePath(),
			"dsn":    c.Database.DSN,
		},
		"results": map[string]interface{}{
			"dir":     c.GetResultsDir(),
			"pattern": c.GetResultsPattern(),
		},
		"import": map[string]interface{}{
			"atomic":            c.Import.Atomic,
			"metrics_policy":    c.GetMetricsPolicy(),
			"watch_debounce_ms": c.Import.WatchDebounceMS,
		},
		"server": map[string]interface{}{
			"port":                    c.GetServerPort(),
			"allowed_origins":         c.Server.AllowedOrigins,
			"request_timeout_seconds": c.Server.RequestTimeoutSeconds,
			"import_rate_per_minute":  c.Server.ImportRatePerMinute,
		},
		"log": map[string]interface{}{
			"json": c.Log.JSON,
		},
	}
}

// MarshalTOML renders the config as an am.toml document
func (c *Config) MarshalTOML() ([]byte, error) {
	data, err := toml.Marshal(c.Settings())
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal config")
	}
	return data, nil
}

// WriteFile writes the config to configPath. An existing file is kept as
// configPath.back1 before being replaced; without overwrite it is left alone.
func (c *Config) WriteFile(configPath string, overwrite bool) error {
	if _, err := os.Stat(configPath); err == nil {
		if !overwrite {
			return errors.WithHint(
				errors.Newf("config file %s already exists", configPath),
				"pass --force to replace it")
		}
		if err := createBackup(configPath); err != nil {
			return err
		}
	}

	data, err := c.MarshalTOML()
	if err != nil {
		return err
	}

	if dir := filepath.Dir(configPath); dir != "." {
		if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
			return errors.Wrapf(err, "failed to create %s", dir)
		}
	}

	if err := os.WriteFile(configPath, data, DefaultFilePermissions); err != nil {
		return errors.Wrapf(err, "failed to write %s", configPath)
	}
	return nil
}

// createBackup copies the current file to .back1, replacing any older backup
func createBackup(configPath string) error {
	content, err := os.ReadFile(configPath)
	if err != nil {
		return errors.Wrap(err, "failed to read config for backup")
	}

	if err := os.WriteFile(configPath+".back1", content, DefaultFilePermissions); err != nil {
		return errors.Wrap(err, "failed to create .back1")
	}
	return nil
}
