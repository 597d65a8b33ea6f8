package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/torosent/vudrive/internal/logging"
	"github.com/torosent/vudrive/internal/targetserver"
)

func newServeCmd(stderr io.Writer) *cobra.Command {
	var (
		addr      string
		root      string
		logLevel  string
		logFormat string
	)
	cmd := &cobra.Command{
		Use:   "serve [flags]",
		Short: "Serve static files as a local load target",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logging.New(logLevel, logFormat, stderr)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			srv, err := targetserver.New(addr, root, logger)
			if err != nil {
				return err
			}
			return srv.ListenAndServe(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", targetserver.DefaultAddr, "Address to listen on")
	cmd.Flags().StringVar(&root, "root", "./web/dist", "Directory of static files to serve")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn or error")
	cmd.Flags().StringVar(&logFormat, "log-format", "console", "Log encoding: console or json")
	return cmd
}
