package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"fabworks/internal/config"
	"fabworks/internal/store"
	"fabworks/internal/workorder"
)

func newQuoteCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Manage quotes supplying the scheduler's quoted hours",
	}
	cmd.AddCommand(newQuoteAddCommand(ctx))
	return cmd
}

func newQuoteAddCommand(ctx *commandContext) *cobra.Command {
	var customer string
	var scanHours, designHours, testHours float64
	var printHours, supportHours, setupHours, adminHours float64

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a quote with per-service hour estimates",
		RunE: func(cmd *cobra.Command, args []string) error {
			var items []*workorder.QuoteItem
			if scanHours > 0 {
				items = append(items, &workorder.QuoteItem{Kind: workorder.KindScanning, LaborHours: scanHours})
			}
			if designHours > 0 {
				items = append(items, &workorder.QuoteItem{Kind: workorder.KindDesign, LaborHours: designHours})
			}
			if testHours > 0 {
				items = append(items, &workorder.QuoteItem{Kind: workorder.KindTesting, LaborHours: testHours})
			}
			if printHours > 0 || supportHours > 0 || setupHours > 0 || adminHours > 0 {
				items = append(items, &workorder.QuoteItem{
					Kind:                workorder.KindPrint,
					PrintHours:          printHours,
					SupportRemovalHours: supportHours,
					SetupHours:          setupHours,
					AdminHours:          adminHours,
				})
			}
			if len(items) == 0 {
				return fmt.Errorf("quote needs at least one hours flag")
			}
			return ctx.withStore(func(cfg *config.Config, st *store.Store, logger *slog.Logger) error {
				id, err := st.CreateQuote(cmd.Context(), customer, items)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created quote %d with %d line item(s)\n", id, len(items))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&customer, "customer", "", "Customer label")
	cmd.Flags().Float64Var(&scanHours, "scan-hours", 0, "Quoted scanning labor hours")
	cmd.Flags().Float64Var(&designHours, "design-hours", 0, "Quoted design labor hours")
	cmd.Flags().Float64Var(&testHours, "test-hours", 0, "Quoted testing labor hours")
	cmd.Flags().Float64Var(&printHours, "print-hours", 0, "Quoted print machine hours")
	cmd.Flags().Float64Var(&supportHours, "support-hours", 0, "Quoted support-removal hours")
	cmd.Flags().Float64Var(&setupHours, "setup-hours", 0, "Quoted setup hours")
	cmd.Flags().Float64Var(&adminHours, "admin-hours", 0, "Quoted admin hours")
	return cmd
}
