package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/teranos/joulebench/am"
)

// AmCmd represents the am (configuration) command
var AmCmd = &cobra.Command{
	Use:   "am",
	Short: "Manage joulebench configuration",
	Long: `am - Manage joulebench configuration ("I am")

Configuration sources (in order of precedence):
1. Environment variables (JOULEBENCH_* prefix, DATABASE_URL, PORT)
2. Project config (am.toml, searched up from the working directory)
3. User config (~/.joulebench/am.toml)
4. System config (/etc/joulebench/am.toml)
5. Default values

Examples:
  joulebench am show                    # Show current configuration
  joulebench am show --format json      # Show configuration in JSON format
  joulebench am get results.dir         # Get specific config value
  joulebench am where                   # Show where each value comes from
  joulebench am init                    # Write ./am.toml with defaults`,
}

var amShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  "Display the current joulebench configuration from all sources",
	Args:  cobra.NoArgs,
	RunE:  runAmShow,
}

var amGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a specific configuration value",
	Long:  "Get a specific configuration value using dot notation (e.g., database.path, import.metrics_policy)",
	Args:  cobra.ExactArgs(1),
	RunE:  runAmGet,
}

var amValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate current configuration",
	Args:  cobra.NoArgs,
	RunE:  runAmValidate,
}

var amWhereCmd = &cobra.Command{
	Use:   "where",
	Short: "Show where configuration is loaded from",
	Long: `Show the configuration cascade, which files exist, and the source
of every effective setting.`,
	Args: cobra.NoArgs,
	RunE: runAmWhere,
}

var amInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a configuration file with the current settings",
	Long: `Write the effective configuration to path (default: ./am.toml).
An existing file is only replaced with --force and is kept as <path>.back1.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAmInit,
}

var (
	configFormat string
	amInitForce  bool
)

func init() {
	// Add flags
	amShowCmd.Flags().StringVar(&configFormat, "format", "toml", "Output format: toml, json, yaml")
	amInitCmd.Flags().BoolVarP(&amInitForce, "force", "f", false, "Replace an existing file")

	// Add subcommands
	AmCmd.AddCommand(amShowCmd)
	AmCmd.AddCommand(amGetCmd)
	AmCmd.AddCommand(amValidateCmd)
	AmCmd.AddCommand(amWhereCmd)
	AmCmd.AddCommand(amInitCmd)
}

func runAmShow(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	out := cmd.OutOrStdout()

	switch configFormat {
	case "json":
		data, err := json.MarshalIndent(cfg.Settings(), "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal config to JSON: %w", err)
		}
		fmt.Fprintln(out, string(data))

	case "yaml":
		data, err := yaml.Marshal(cfg.Settings())
		if err != nil {
			return fmt.Errorf("failed to marshal config to YAML: %w", err)
		}
		fmt.Fprintf(out, "# joulebench configuration\n%s", string(data))

	case "toml":
		data, err := toml.Marshal(cfg.Settings())
		if err != nil {
			return fmt.Errorf("failed to marshal config to TOML: %w", err)
		}
		fmt.Fprintf(out, "# joulebench configuration\n%s", string(data))

	default:
		return fmt.Errorf("unsupported format: %s (supported: toml, json, yaml)", configFormat)
	}

	return nil
}

func runAmGet(cmd *cobra.Command, args []string) error {
	key := args[0]

	v := am.GetViper()
	if !v.IsSet(key) {
		return fmt.Errorf("configuration key %q not found", key)
	}
	fmt.Fprintln(cmd.OutOrStdout(), v.Get(key))
	return nil
}

func runAmValidate(cmd *cobra.Command, args []string) error {
	// Load validates
	if _, err := am.Load(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "✓ Configuration is valid")
	return nil
}

func runAmWhere(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "Configuration cascade (later overrides earlier):")
	for _, path := range am.ConfigPaths() {
		status := "missing"
		if _, err := os.Stat(path); err == nil {
			status = "found"
		}
		fmt.Fprintf(out, "  %-8s %s\n", status, path)
	}
	fmt.Fprintln(out)

	settings, err := am.Introspect()
	if err != nil {
		return fmt.Errorf("failed to inspect config: %w", err)
	}

	data := pterm.TableData{{"Key", "Value", "Source", "From"}}
	for _, s := range settings {
		data = append(data, []string{s.Key, fmt.Sprint(s.Value), string(s.Source), s.SourcePath})
	}
	return pterm.DefaultTable.WithHasHeader().WithWriter(out).WithData(data).Render()
}

func runAmInit(cmd *cobra.Command, args []string) error {
	path := "am.toml"
	if len(args) == 1 {
		path = args[0]
	}

	cfg, err := am.Load()
	if err != nil {
		// A broken cascade should not stop writing a fresh file
		cfg = am.Default()
	}
	if err := cfg.WriteFile(path, amInitForce); err != nil {
		return err
	}
	pterm.Success.Printf("Wrote %s\n", path)
	return nil
}
