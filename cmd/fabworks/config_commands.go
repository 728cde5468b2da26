package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"fabworks/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}
	cmd.AddCommand(newConfigInitCommand(ctx))
	cmd.AddCommand(newConfigShowCommand(ctx))
	return cmd
}

func newConfigInitCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a sample configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if ctx.configFlag != nil {
				path = strings.TrimSpace(*ctx.configFlag)
			}
			if path == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return err
				}
				path = defaultPath
			}
			if err := config.WriteSample(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "data_dir: %s\n", cfg.Paths.DataDir)
			fmt.Fprintf(out, "log_dir: %s\n", cfg.Paths.LogDir)
			fmt.Fprintf(out, "log_format: %s\n", cfg.Logging.Format)
			fmt.Fprintf(out, "log_level: %s\n", cfg.Logging.Level)
			fmt.Fprintf(out, "database: %s\n", cfg.DatabasePath())
			return nil
		},
	}
}
