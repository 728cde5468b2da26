package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag string

	ctx := newCommandContext(&configFlag)

	rootCmd := &cobra.Command{
		Use:           "fabworks",
		Short:         "Fabrication work-order tracker and lead-time scheduler",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")

	rootCmd.AddCommand(newOrdersCommand(ctx))
	rootCmd.AddCommand(newStepCommand(ctx))
	rootCmd.AddCommand(newScheduleCommand(ctx))
	rootCmd.AddCommand(newSettingsCommand(ctx))
	rootCmd.AddCommand(newQuoteCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}
