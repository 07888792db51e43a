package cmd

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/huangsam/fragmeter/internal/server"
	"github.com/spf13/cobra"
)

// serveCmd runs the HTTP API.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the fragmeter HTTP API",
	Long: `Serve the scoring engine over HTTP with JSON request and response bodies.

Routes:
  GET  /health                      - liveness check
  GET  /metrics                     - Prometheus metrics
  POST /api/v1/score                - score a posted activity list
  POST /api/v1/anomaly              - detect an anomaly in a posted series
  GET  /api/v1/users                - list users found in --data-dir
  GET  /api/v1/users/:user/trend    - daily trend, with ?start= and ?end=

API routes are rate limited per client address. Request logs are JSON on stdout.

Examples:
  # Serve on the default address
  fragmeter serve --data-dir ./activity

  # Custom address, limits and allowed origins
  fragmeter serve --addr :9090 --api-rate-limit 5 --api-burst 10 --cors-origins https://dash.example.com`,
	PreRunE: sharedSetupNoUsers,
	RunE: func(_ *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(rootCtx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
		return server.New(cfg, cacheManager, logger).Run(ctx)
	},
}
