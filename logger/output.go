package logger

// Output controls what categories of information are shown at each verbosity level.
//
// Unlike log levels (which filter by severity), output categories control
// WHAT types of information are displayed regardless of severity.
//
// Verbosity Levels:
//
//	0 (default) - Results, errors with hints, final import status
//	1 (-v)      - + Import stages, persisted rows, startup info
//	2 (-vv)     - + Batch ids, timing, config loaded, HTTP requests
//	3 (-vvv)    - + SQL statements, raw entry dumps

// OutputCategory defines a category of output that can be enabled/disabled
type OutputCategory int

const (
	// Level 0 (default) - Always shown
	OutputResults    OutputCategory = iota // Tables, listings, command output
	OutputErrors                           // Errors with hints
	OutputUserStatus                       // Final success/failure status

	// Level 1 (-v) - Informational
	OutputProgress // Import stages
	OutputRows     // One line per persisted row
	OutputStartup  // Startup banners, watched directory

	// Level 2 (-vv) - Detailed
	OutputTiming    // Batch ids and durations
	OutputConfig    // Config values loaded/applied
	OutputHTTPCalls // Served HTTP requests

	// Level 3 (-vvv) - Trace
	OutputSQLQueries // Individual SQL statements
	OutputDataDump   // Raw entry contents
)

// categoryLevels maps each output category to its minimum verbosity level
var categoryLevels = map[OutputCategory]int{
	OutputResults:    VerbosityUser,
	OutputErrors:     VerbosityUser,
	OutputUserStatus: VerbosityUser,

	OutputProgress: VerbosityInfo,
	OutputRows:     VerbosityInfo,
	OutputStartup:  VerbosityInfo,

	OutputTiming:    VerbosityDebug,
	OutputConfig:    VerbosityDebug,
	OutputHTTPCalls: VerbosityDebug,

	OutputSQLQueries: VerbosityTrace,
	OutputDataDump:   VerbosityTrace,
}

// ShouldOutput returns true if the given category should be shown at the given verbosity
func ShouldOutput(verbosity int, category OutputCategory) bool {
	minLevel, ok := categoryLevels[category]
	if !ok {
		// Unknown category, default to highest verbosity required
		return verbosity >= VerbosityTrace
	}
	return verbosity >= minLevel
}

// categoryNames provides human-readable names for output categories
var categoryNames = map[OutputCategory]string{
	OutputResults:    "results",
	OutputErrors:     "errors",
	OutputUserStatus: "status",
	OutputProgress:   "progress",
	OutputRows:       "rows",
	OutputStartup:    "startup",
	OutputTiming:     "timing",
	OutputConfig:     "config",
	OutputHTTPCalls:  "http",
	OutputSQLQueries: "sql",
	OutputDataDump:   "data-dump",
}

// CategoryName returns the human-readable name for an output category
func CategoryName(category OutputCategory) string {
	if name, ok := categoryNames[category]; ok {
		return name
	}
	return "unknown"
}

// VerbosityDescription returns a description of what's shown at each level
func VerbosityDescription(verbosity int) string {
	switch verbosity {
	case VerbosityUser:
		return "results and errors only"
	case VerbosityInfo:
		return "results, errors, import progress and rows"
	case VerbosityDebug:
		return "above + timing, config, HTTP requests"
	case VerbosityTrace:
		return "above + SQL and raw entries"
	default:
		if verbosity > VerbosityTrace {
			return "maximum verbosity"
		}
		return "unknown verbosity level"
	}
}
