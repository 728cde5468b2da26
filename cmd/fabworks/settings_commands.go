package main

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"fabworks/internal/config"
	"fabworks/internal/settings"
	"fabworks/internal/store"
)

func newSettingsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Inspect and edit scheduler settings",
	}
	cmd.AddCommand(newSettingsListCommand(ctx))
	cmd.AddCommand(newSettingsSetCommand(ctx))
	return cmd
}

func newSettingsListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List scheduler settings, seeding defaults for missing keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store, logger *slog.Logger) error {
				if _, err := settings.NewStore(st).Load(cmd.Context()); err != nil {
					return err
				}
				rows, err := st.ListSettings(cmd.Context())
				if err != nil {
					return err
				}
				out := make([][]string, 0, len(rows))
				for _, row := range rows {
					out = append(out, []string{
						row.Key,
						row.Label,
						strconv.FormatFloat(row.Value, 'f', -1, 64),
						row.Unit,
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Key", "Label", "Value", "Unit"}, out))
				return nil
			})
		},
	}
}

func newSettingsSetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Update a scheduler setting",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := strings.TrimSpace(args[0])
			value, err := strconv.ParseFloat(strings.TrimSpace(args[1]), 64)
			if err != nil {
				return fmt.Errorf("invalid value %q", args[1])
			}
			return ctx.withStore(func(cfg *config.Config, st *store.Store, logger *slog.Logger) error {
				if err := st.SeedMissingSettings(cmd.Context(), settings.Defaults()); err != nil {
					return err
				}
				if err := st.SetSetting(cmd.Context(), key, value); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", key, strconv.FormatFloat(value, 'f', -1, 64))
				fmt.Fprintln(cmd.OutOrStdout(), "Run 'fabworks schedule' to apply the new capacity")
				return nil
			})
		},
	}
}
