package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"fabworks/internal/config"
	"fabworks/internal/store"
	"fabworks/internal/workorder"
)

func newOrdersCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "Manage fabrication work orders",
	}
	cmd.AddCommand(newOrdersAddCommand(ctx))
	cmd.AddCommand(newOrdersListCommand(ctx))
	cmd.AddCommand(newOrdersShowCommand(ctx))
	return cmd
}

func newOrdersAddCommand(ctx *commandContext) *cobra.Command {
	var customer string
	var project string
	var services string
	var quoteID int64

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a work order with one step per requested service",
		RunE: func(cmd *cobra.Command, args []string) error {
			kinds, err := parseKinds(services)
			if err != nil {
				return err
			}
			return ctx.withStore(func(cfg *config.Config, st *store.Store, logger *slog.Logger) error {
				var quote *int64
				if quoteID > 0 {
					quote = &quoteID
				}
				order, err := st.CreateWorkOrder(cmd.Context(), customer, project, kinds, quote)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created work order %d (%s)\n", order.ID, order.Reference)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&customer, "customer", "", "Customer label")
	cmd.Flags().StringVar(&project, "project", "", "Project description")
	cmd.Flags().StringVar(&services, "services", "", "Comma-separated services (scanning,design,print,testing)")
	cmd.Flags().Int64Var(&quoteID, "quote", 0, "Linked quote id")
	_ = cmd.MarkFlagRequired("customer")
	_ = cmd.MarkFlagRequired("services")
	return cmd
}

func newOrdersListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List work orders oldest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store, logger *slog.Logger) error {
				orders, err := st.ListWorkOrders(cmd.Context())
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(orders))
				for _, order := range orders {
					rows = append(rows, []string{
						fmt.Sprintf("%d", order.ID),
						order.Customer,
						displayLabel(string(order.Status)),
						formatTime(order.JobDeadline),
						order.CreatedAt.Local().Format("2006-01-02"),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Customer", "Status", "Deadline", "Created"}, rows))
				return nil
			})
		},
	}
}

func newOrdersShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <order-id>",
		Short: "Show a work order and its steps",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return ctx.withStore(func(cfg *config.Config, st *store.Store, logger *slog.Logger) error {
				order, err := st.GetWorkOrder(cmd.Context(), id)
				if err != nil {
					return err
				}
				if order == nil {
					return fmt.Errorf("work order %d not found", id)
				}
				steps, err := st.ListStepsForWorkOrder(cmd.Context(), id)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Work order %d  %s\n", order.ID, order.Reference)
				fmt.Fprintf(out, "Customer: %s\n", order.Customer)
				if order.Description != "" {
					fmt.Fprintf(out, "Project: %s\n", order.Description)
				}
				fmt.Fprintf(out, "Status: %s  Deadline: %s\n\n", displayLabel(string(order.Status)), formatTime(order.JobDeadline))

				rows := make([][]string, 0, len(steps))
				for _, step := range steps {
					rows = append(rows, []string{
						fmt.Sprintf("%d", step.ID),
						displayLabel(string(step.Kind)),
						displayLabel(string(step.Status)),
						formatTime(step.StartedAt),
						formatTime(step.CompletedAt),
						dueLabel(cmd, st, step),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Step", "Service", "Status", "Started", "Completed", "Due"}, rows))
				return nil
			})
		},
	}
}

func dueLabel(cmd *cobra.Command, st *store.Store, step *workorder.Step) string {
	actual, err := st.GetStepActual(cmd.Context(), step.ID)
	if err != nil || actual == nil || actual.Payload.LeadTime == nil {
		return "-"
	}
	due := actual.Payload.LeadTime.DueAt
	return formatTime(&due)
}
