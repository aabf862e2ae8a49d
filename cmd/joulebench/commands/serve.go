package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/joulebench/internal/metrics"
	"github.com/teranos/joulebench/logger"
	"github.com/teranos/joulebench/server"
)

// ServeCmd starts the HTTP API
var ServeCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"server"},
	Short:   "Start the HTTP API",
	Long: `Serve the joulebench operations over HTTP until interrupted.

Routes:
  GET  /api?action=import|summary|compare|list|algorithm
  POST /api/import[?file=]          POST /api/import/upload
  GET  /api/summary                 GET  /api/compare?size=
  GET  /api/files[?details=true]    GET  /api/algorithms/{name}[?size=]
  GET  /health                      GET  /metrics`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var servePortFlag int

func init() {
	ServeCmd.Flags().IntVar(&servePortFlag, "port", 0, "Port to listen on (overrides server.port)")
}

func runServe(cmd *cobra.Command, args []string) error {
	// Get verbosity flag - default to 1 (Info) for server
	verbosity, _ := cmd.Flags().GetCount("verbose")
	if verbosity == 0 {
		if err := logger.Initialize(LogJSON(), 1); err != nil {
			return err
		}
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	handle, dialect, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer handle.Close()

	m := metrics.NewMetrics()
	svc, err := newService(cfg, handle, dialect, serviceOptions{metrics: m})
	if err != nil {
		return err
	}

	srv := server.New(svc, server.Options{
		AllowedOrigins:      cfg.Server.AllowedOrigins,
		RequestTimeout:      cfg.GetRequestTimeout(),
		ImportRatePerMinute: cfg.Server.ImportRatePerMinute,
		Ping:                handle.PingContext,
		Metrics:             m,
		Logger:              logger.ComponentLogger("server"),
	})

	port := cfg.GetServerPort()
	if servePortFlag != 0 {
		port = servePortFlag
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pterm.Info.Printf("joulebench API on http://localhost:%d (results: %s, driver: %s)\n",
		port, cfg.GetResultsDir(), cfg.GetDriver())
	return srv.Start(ctx, port)
}
