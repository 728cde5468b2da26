package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"fabworks/internal/config"
	"fabworks/internal/stepstatus"
	"fabworks/internal/store"
	"fabworks/internal/workorder"
)

func newStepCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "step",
		Short: "Transition service step statuses",
	}
	cmd.AddCommand(newStepTransitionCommand(ctx, "start", "Mark a step in progress", workorder.StepInProgress))
	cmd.AddCommand(newStepTransitionCommand(ctx, "pause", "Put a step on hold", workorder.StepWaiting))
	cmd.AddCommand(newStepTransitionCommand(ctx, "complete", "Mark a step completed", workorder.StepCompleted))
	cmd.AddCommand(newStepTransitionCommand(ctx, "reset", "Return a step to not started", workorder.StepNotStarted))
	return cmd
}

func newStepTransitionCommand(ctx *commandContext, use, short string, target workorder.StepStatus) *cobra.Command {
	var note string

	cmd := &cobra.Command{
		Use:   use + " <step-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return ctx.withStore(func(cfg *config.Config, st *store.Store, logger *slog.Logger) error {
				controller := stepstatus.New(st, logger)
				orderStatus, err := controller.Transition(cmd.Context(), id, target, note)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Step %d -> %s (order now %s)\n",
					id, displayLabel(string(target)), displayLabel(string(orderStatus)))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&note, "note", "", "Note to append to the step's running notes")
	return cmd
}
