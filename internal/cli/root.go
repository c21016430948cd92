// Package cli implements the memhook command line tool.
package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/fengyoulin/memhook"
	"github.com/fengyoulin/memhook/internal/logging"
)

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	var (
		logLevel string
		pretty   bool
	)

	cmd := &cobra.Command{
		Use:           "memhook",
		Short:         "Locate code and data by content",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cfg := logging.DefaultConfig()
			cfg.Level = logLevel
			cfg.Pretty = pretty
			cfg.Output = cmd.ErrOrStderr()
			logger := logging.NewWithComponent(cfg, "memhook")
			memhook.SetLogger(logger)
			cmd.SetContext(logger.WithContext(cmd.Context()))
		},
	}

	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
	cmd.PersistentFlags().BoolVar(&pretty, "pretty", true, "human-readable log output")

	cmd.AddCommand(
		NewScanCmd(),
		NewHashCmd(),
		NewSymbolsCmd(),
		NewPsCmd(),
	)
	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

func loggerFrom(cmd *cobra.Command) *zerolog.Logger {
	return zerolog.Ctx(cmd.Context())
}
