package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/smallnest/agentflow/internal/ui"
	"github.com/smallnest/agentflow/server"
)

func serveCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the editor API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			logger, err := a.logger()
			if err != nil {
				return err
			}
			reg, err := a.registry()
			if err != nil {
				return err
			}

			srv := server.New(reg,
				server.WithLogger(logger),
				server.WithAllowedOrigins(a.cfg.Server.AllowedOrigins...),
				server.WithLayoutOptions(a.cfg.LayoutOptions()),
				server.WithWorkflowOptions(a.cfg.WorkflowOptions()...),
			)

			ui.Banner(cmd.OutOrStdout(), "editor API")
			ui.Info.Fprintf(cmd.OutOrStdout(), "  listening on %s (%d node types)\n", addr, len(reg.All()))

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.ListenAndServe(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}
