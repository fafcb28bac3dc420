package main

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/odataplan/odataplan/internal/logging"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "odataplan",
		Short:         "Inspect OData query plans",
		Long:          "Parses $select/$expand requests against an entity schema and shows the resulting fetch plan and SQL",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			raw, err := cmd.Flags().GetString("log-level")
			if err != nil {
				return err
			}
			level, err := zerolog.ParseLevel(raw)
			if err != nil {
				return fmt.Errorf("invalid log level %q: %w", raw, err)
			}
			logging.SetGlobalLogger(logging.NewConsoleLogger(level, cmd.ErrOrStderr()))
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().String("log-level", "warn", `verbosity of logging ("trace", "debug", "info", "warn", "error")`)
	return rootCmd
}
