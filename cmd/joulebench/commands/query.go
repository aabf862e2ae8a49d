package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/joulebench/actions"
	"github.com/teranos/joulebench/ax"
	"github.com/teranos/joulebench/storage"
)

// SummaryCmd prints averages grouped by algorithm, type and size
var SummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Averages grouped by algorithm, type and size",
	Long: `Show the mean execution time, energy and power of every stored
(algorithm, type, size) group, with the number of rows behind each mean.`,
	Args: cobra.NoArgs,
	RunE: runSummary,
}

// CompareCmd ranks algorithms at one size by mean energy
var CompareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Rank algorithms at one input size by mean energy",
	Long: `Rank every algorithm measured at --size by mean energy, lowest first.
The ratio column is each algorithm's energy relative to the winner.

Examples:
  joulebench compare              # Size 1000
  joulebench compare --size 5000`,
	Args: cobra.NoArgs,
	RunE: runCompare,
}

// ListCmd lists result files
var ListCmd = &cobra.Command{
	Use:   "list",
	Short: "List result files, newest first",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

// AlgorithmCmd shows the recent rows of one algorithm
var AlgorithmCmd = &cobra.Command{
	Use:   "algorithm <name>",
	Short: "Recent rows of one algorithm",
	Long: fmt.Sprintf(`Show the %d most recently imported rows of one algorithm,
optionally restricted to one input size.`, ax.HistoryLimit),
	Args: cobra.ExactArgs(1),
	RunE: runAlgorithm,
}

var (
	queryJSONFlag    bool
	compareSizeFlag  int
	listDetailsFlag  bool
	algorithmSizeArg int
)

func init() {
	for _, cmd := range []*cobra.Command{SummaryCmd, CompareCmd, ListCmd, AlgorithmCmd} {
		cmd.Flags().BoolVar(&queryJSONFlag, "json", false, "Output the result envelope as JSON")
	}
	CompareCmd.Flags().IntVar(&compareSizeFlag, "size", ax.DefaultCompareSize, "Input size to compare at")
	ListCmd.Flags().BoolVar(&listDetailsFlag, "details", false, "Parse each file and summarize its contents")
	AlgorithmCmd.Flags().IntVar(&algorithmSizeArg, "size", 0, "Only rows at this input size")
}

func runSummary(cmd *cobra.Command, args []string) error {
	svc, _, closeDB, err := openService(serviceOptions{})
	if err != nil {
		return err
	}
	defer closeDB()

	env := svc.Summary(cmd.Context())
	return renderEnvelope(cmd, env, queryJSONFlag, func() error {
		rows := env.Data.([]storage.SummaryRow)
		if len(rows) == 0 {
			pterm.Info.Println("No benchmark rows stored yet; run joulebench import")
			return nil
		}

		data := pterm.TableData{{"Algorithm", "Type", "Size", "Time (ms)", "Energy (J)", "Power (W)", "Rows"}}
		for _, r := range rows {
			data = append(data, []string{
				r.AlgorithmName, r.AlgorithmType, strconv.Itoa(r.DataSize),
				formatFloat(r.AvgTimeMS), formatFloat(r.AvgEnergyJoules), formatFloat(r.AvgPowerWatts),
				strconv.FormatInt(r.Count, 10),
			})
		}
		return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	})
}

func runCompare(cmd *cobra.Command, args []string) error {
	svc, _, closeDB, err := openService(serviceOptions{})
	if err != nil {
		return err
	}
	defer closeDB()

	env := svc.Compare(cmd.Context(), compareSizeFlag)
	return renderEnvelope(cmd, env, queryJSONFlag, func() error {
		payload := env.Data.(actions.CompareData)
		if len(payload.Rows) == 0 {
			pterm.Info.Printf("No algorithms measured at size %d\n", payload.Size)
			return nil
		}

		pterm.DefaultSection.Printf("Energy ranking at size %d", payload.Size)
		data := pterm.TableData{{"#", "Algorithm", "Type", "Energy (J)", "Ratio", "Time (ms)", "Power (W)", "Comparisons", "Swaps"}}
		for _, r := range payload.Rows {
			data = append(data, []string{
				strconv.Itoa(r.Rank), r.AlgorithmName, r.AlgorithmType,
				formatFloat(r.AvgEnergyJoules), fmt.Sprintf("%.2fx", r.EnergyRatio),
				formatFloat(r.AvgTimeMS), formatFloat(r.AvgPowerWatts),
				fmt.Sprintf("%.0f", r.AvgComparisons), fmt.Sprintf("%.0f", r.AvgSwaps),
			})
		}
		return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	})
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	// Listing reads the results directory only
	svc := actions.NewService(actions.Deps{Reader: readerFor(cfg)})

	env := svc.ListFiles()
	if listDetailsFlag {
		env = svc.ListDetails()
	}
	return renderEnvelope(cmd, env, queryJSONFlag, func() error {
		payload := env.Data.(actions.FilesData)
		if len(payload.Files) == 0 {
			pterm.Info.Printf("No result files in %s\n", cfg.GetResultsDir())
			return nil
		}
		if !listDetailsFlag {
			for _, name := range payload.Files {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		}

		data := pterm.TableData{{"File", "Modified", "Timestamp", "Method", "Algorithms", "Sizes", "Entries"}}
		for _, d := range payload.Details {
			sizes := make([]string, len(d.Sizes))
			for i, size := range d.Sizes {
				sizes[i] = strconv.Itoa(size)
			}
			modified := ""
			if !d.ModTime.IsZero() {
				modified = d.ModTime.Format("2006-01-02 15:04")
			}
			data = append(data, []string{
				d.Name, modified, d.Timestamp, d.MeasurementMethod,
				strings.Join(d.Algorithms, ", "), strings.Join(sizes, ", "), strconv.Itoa(d.Entries),
			})
		}
		return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	})
}

func runAlgorithm(cmd *cobra.Command, args []string) error {
	svc, _, closeDB, err := openService(serviceOptions{})
	if err != nil {
		return err
	}
	defer closeDB()

	var size *int
	if cmd.Flags().Changed("size") {
		size = &algorithmSizeArg
	}

	env := svc.Algorithm(cmd.Context(), args[0], size)
	return renderEnvelope(cmd, env, queryJSONFlag, func() error {
		payload := env.Data.(actions.AlgorithmData)
		if len(payload.Rows) == 0 {
			pterm.Info.Printf("No rows for %s\n", payload.Name)
			return nil
		}

		data := pterm.TableData{{"ID", "Type", "Size", "Time (ms)", "Energy (J)", "Power (W)", "Comparisons", "Swaps", "Iterations", "Memory", "Measured", "Method"}}
		for _, r := range payload.Rows {
			data = append(data, []string{
				strconv.FormatInt(r.ID, 10), r.AlgorithmType, strconv.Itoa(r.DataSize),
				formatFloat(r.ExecutionTimeMS), formatFloat(r.EnergyJoules), formatFloat(r.PowerWatts),
				strconv.FormatInt(r.Comparisons, 10), strconv.FormatInt(r.Swaps, 10),
				strconv.FormatInt(r.Iterations, 10), strconv.FormatInt(r.MemoryAccesses, 10),
				r.BenchmarkTimestamp, r.MeasurementMethod,
			})
		}
		return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	})
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}
