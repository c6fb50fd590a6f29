package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vango-dev/lifecycle/internal/config"
	"github.com/vango-dev/lifecycle/pkg/server"
)

func serveCmd(dir *string) *cobra.Command {
	var (
		addr  string
		quiet bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the demo over HTTP",
		Long: `Serve the demo app. Every browser shares the same counter; clicks
are sent over a WebSocket and every change is pushed to all clients.
Lifecycle lines are logged and echoed to the browser console.

Examples:
  lifecycle serve
  lifecycle serve --addr 127.0.0.1:9000
  LIFECYCLE_ADDR=:3000 lifecycle serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOptional(*dir)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srvCfg := server.Config{
				Addr:            cfg.Server.Addr,
				Title:           cfg.Server.Title,
				ShutdownTimeout: cfg.Server.ShutdownTimeout,
				Logger:          cfg.Logger(os.Stderr),
			}
			if !quiet {
				srvCfg.Lifecycle = cmd.OutOrStdout()
			}

			srv, err := server.New(ctx, srvCfg)
			if err != nil {
				return err
			}
			return srv.Run(ctx)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from lifecycle.yaml)")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Do not echo lifecycle lines to stdout")

	return cmd
}
