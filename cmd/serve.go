package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/naka-gawa/repo-trends/internal/server"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the interactive web UI",
		Long:  `Starts the web UI. Each submitted search triggers one GitHub API call followed by the analysis; results are never stored.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())
			cfg, pipeline, err := setup(cmd)
			if err != nil {
				return err
			}

			srv, err := server.New(pipeline, cfg.DefaultQuery(), logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return srv.ListenAndServe(ctx, cfg.Addr)
		},
	}
	cmd.Flags().String("addr", "", "Listen address (default :8501)")
	return cmd
}
