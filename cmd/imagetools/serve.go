package main

import (
	"os/signal"
	"syscall"

	"github.com/dunamismax/imagetools/internal/app"
	"github.com/spf13/cobra"
)

func newServeCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return app.Serve(ctx, opts.cfg, opts.logger)
		},
	}

	cmd.Flags().String("addr", "", "listen address (overrides IMAGETOOLS_API_ADDR)")
	_ = opts.viper.BindPFlag("api.addr", cmd.Flags().Lookup("addr"))
	return cmd
}
