package main

import (
	"fmt"
	"log/slog"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"fabworks/internal/config"
	"fabworks/internal/leadtime"
	"fabworks/internal/settings"
	"fabworks/internal/store"
)

func newScheduleCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Recompute lead times and deadlines for all open work orders",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store, logger *slog.Logger) error {
				// Serialize recomputes across processes; overlapping runs
				// would interleave lane writes.
				lock := flock.New(cfg.LockPath())
				locked, err := lock.TryLock()
				if err != nil {
					return fmt.Errorf("acquire schedule lock: %w", err)
				}
				if !locked {
					return fmt.Errorf("another schedule recompute is running")
				}
				defer func() { _ = lock.Unlock() }()

				scheduler := leadtime.New(st, settings.NewStore(st), logger)
				if err := scheduler.Recompute(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Lead times recomputed")
				return nil
			})
		},
	}
}
