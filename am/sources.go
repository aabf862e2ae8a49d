package am

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/viper"

	"github.com/teranos/joulebench/errors"
)

// ConfigSource represents where a configuration value came from
type ConfigSource string

const (
	SourceDefault     ConfigSource = "default"
	SourceSystem      ConfigSource = "system"      // /etc/joulebench/am.toml
	SourceUser        ConfigSource = "user"        // ~/.joulebench/am.toml
	SourceProject     ConfigSource = "project"     // am.toml found walking up from the working directory
	SourceEnvironment ConfigSource = "environment" // JOULEBENCH_* and bound variables
)

// SettingInfo is one effective setting and where it came from
type SettingInfo struct {
	Key        string       `json:"key"`
	Value      interface{}  `json:"value"`
	Source     ConfigSource `json:"source"`
	SourcePath string       `json:"source_path,omitempty"` // File path or env var name
}

// sourceFor classifies a config file path
func sourceFor(path string) ConfigSource {
	if strings.HasPrefix(path, "/etc/") {
		return SourceSystem
	}
	if homeDir, err := os.UserHomeDir(); err == nil &&
		filepath.Dir(path) == filepath.Join(homeDir, ".joulebench") {
		return SourceUser
	}
	return SourceProject
}

// Introspect lists every effective setting with the source that set it,
// sorted by key. Later files and the environment win as in Load.
func Introspect() ([]SettingInfo, error) {
	origin := make(map[string]SettingInfo)
	for _, path := range ConfigPaths() {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		fv := viper.New()
		fv.SetConfigFile(path)
		fv.SetConfigType("toml")
		if err := fv.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read %s", path)
		}
		for _, key := range fv.AllKeys() {
			origin[key] = SettingInfo{Source: sourceFor(path), SourcePath: path}
		}
	}
	return introspect(GetViper(), origin, os.LookupEnv), nil
}

func introspect(v *viper.Viper, origin map[string]SettingInfo, lookupEnv func(string) (string, bool)) []SettingInfo {
	keys := v.AllKeys()
	sort.Strings(keys)

	settings := make([]SettingInfo, 0, len(keys))
	for _, key := range keys {
		info, ok := origin[key]
		if !ok {
			info = SettingInfo{Source: SourceDefault, SourcePath: "built-in default"}
		}
		if name, ok := envSourceFor(key, lookupEnv); ok {
			info = SettingInfo{Source: SourceEnvironment, SourcePath: name}
		}
		info.Key = key
		info.Value = v.Get(key)
		settings = append(settings, info)
	}
	return settings
}

// envSourceFor returns the environment variable that sets key, if any
func envSourceFor(key string, lookupEnv func(string) (string, bool)) (string, bool) {
	names := append([]string{"JOULEBENCH_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}, envBindings[key]...)
	for _, name := range names {
		if value, ok := lookupEnv(name); ok && value != "" {
			return name, true
		}
	}
	return "", false
}
