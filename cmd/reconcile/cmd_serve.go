package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ilc-alumni/reconcile/internal/web"
)

// createServeCmd serves the run history as JSON
func createServeCmd(a *app) *cobra.Command {
	var host, apiKey string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the run history over HTTP",
		Long:  `Start a read-only JSON API over the run history: /api/health, /api/runs and /api/runs/{id}.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := &a.cfg.Server
			flags := cmd.Flags()
			if flags.Changed("host") {
				cfg.Host = host
			}
			if flags.Changed("port") {
				cfg.Port = port
			}
			if flags.Changed("api-key") {
				cfg.APIKey = apiKey
			}

			if err := a.openHistory(cmd.Context(), true); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a.printf("Starting history server on http://%s:%d\n", cfg.Host, cfg.Port)
			return web.NewServer(*cfg, a.tracker, a.log).ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "Address to listen on")
	cmd.Flags().IntVar(&port, "port", 8080, "Port to listen on")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "Require this X-API-Key header on /api/runs")

	return cmd
}
