package store_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"fabworks/internal/store"
	"fabworks/internal/testsupport"
	"fabworks/internal/workorder"
)

func TestCreateWorkOrderCreatesSteps(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	order := testsupport.NewWorkOrder(t, st, "Acme Dental",
		[]workorder.StepKind{workorder.KindPrint, workorder.KindScanning, workorder.KindDesign}, nil)

	if order.Reference == "" {
		t.Fatal("reference not assigned")
	}
	if order.Status != workorder.OrderNew {
		t.Fatalf("status = %q, want new", order.Status)
	}
	if order.JobDeadline != nil {
		t.Fatal("fresh order should have no deadline")
	}

	steps, err := st.ListStepsForWorkOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("ListStepsForWorkOrder: %v", err)
	}
	if len(steps) != 3 {
		t.Fatalf("step count = %d, want 3", len(steps))
	}
	// Steps come back in pipeline order regardless of the kinds given.
	wantKinds := []workorder.StepKind{workorder.KindScanning, workorder.KindDesign, workorder.KindPrint}
	for i, step := range steps {
		if step.Kind != wantKinds[i] {
			t.Fatalf("step %d kind = %q, want %q", i, step.Kind, wantKinds[i])
		}
		if step.Status != workorder.StepNotStarted {
			t.Fatalf("step %d status = %q, want not_started", i, step.Status)
		}
		if step.StartedAt != nil || step.PausedAt != nil || step.CompletedAt != nil {
			t.Fatalf("step %d has timestamps before any work", i)
		}
	}
}

func TestCreateWorkOrderValidation(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	cases := []struct {
		name  string
		kinds []workorder.StepKind
	}{
		{"no services", nil},
		{"unknown service", []workorder.StepKind{"milling"}},
		{"duplicate service", []workorder.StepKind{workorder.KindPrint, workorder.KindPrint}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := st.CreateWorkOrder(ctx, "Acme Dental", "", tc.kinds, nil); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestUpdateStepRoundTrip(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	order := testsupport.NewWorkOrder(t, st, "Acme Dental",
		[]workorder.StepKind{workorder.KindDesign}, nil)
	steps, _ := st.ListStepsForWorkOrder(ctx, order.ID)
	step := steps[0]

	started := time.Date(2026, 4, 2, 10, 15, 30, 123456789, time.UTC)
	step.Status = workorder.StepInProgress
	step.StartedAt = &started
	step.Notes = "[2026-04-02 10:15] model received"
	if err := st.UpdateStep(ctx, step); err != nil {
		t.Fatalf("UpdateStep: %v", err)
	}

	got, err := st.GetStep(ctx, step.ID)
	if err != nil {
		t.Fatalf("GetStep: %v", err)
	}
	if got.Status != workorder.StepInProgress {
		t.Fatalf("status = %q, want in_progress", got.Status)
	}
	if got.StartedAt == nil || !got.StartedAt.Equal(started) {
		t.Fatalf("started_at = %v, want %v", got.StartedAt, started)
	}
	if got.Notes != step.Notes {
		t.Fatalf("notes = %q, want %q", got.Notes, step.Notes)
	}
}

func TestGetMissingRowsReturnNil(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	if order, err := st.GetWorkOrder(ctx, 42); err != nil || order != nil {
		t.Fatalf("GetWorkOrder(42) = %v, %v; want nil, nil", order, err)
	}
	if step, err := st.GetStep(ctx, 42); err != nil || step != nil {
		t.Fatalf("GetStep(42) = %v, %v; want nil, nil", step, err)
	}
	if actual, err := st.GetStepActual(ctx, 42); err != nil || actual != nil {
		t.Fatalf("GetStepActual(42) = %v, %v; want nil, nil", actual, err)
	}
}

func TestListOpenWorkOrdersIsFIFOAndSkipsCompleted(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	first := testsupport.NewWorkOrder(t, st, "First", []workorder.StepKind{workorder.KindScanning}, nil)
	second := testsupport.NewWorkOrder(t, st, "Second", []workorder.StepKind{workorder.KindScanning}, nil)
	done := testsupport.NewWorkOrder(t, st, "Done", []workorder.StepKind{workorder.KindScanning}, nil)
	if err := st.UpdateWorkOrderStatus(ctx, done.ID, workorder.OrderCompleted); err != nil {
		t.Fatalf("UpdateWorkOrderStatus: %v", err)
	}

	open, err := st.ListOpenWorkOrders(ctx)
	if err != nil {
		t.Fatalf("ListOpenWorkOrders: %v", err)
	}
	if len(open) != 2 {
		t.Fatalf("open count = %d, want 2", len(open))
	}
	if open[0].ID != first.ID || open[1].ID != second.ID {
		t.Fatalf("order = [%d %d], want [%d %d]", open[0].ID, open[1].ID, first.ID, second.ID)
	}
}

func TestListPendingSteps(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	order := testsupport.NewWorkOrder(t, st, "Acme Dental",
		[]workorder.StepKind{workorder.KindScanning, workorder.KindPrint}, nil)
	steps, _ := st.ListStepsForWorkOrder(ctx, order.ID)
	steps[0].Status = workorder.StepCompleted
	if err := st.UpdateStep(ctx, steps[0]); err != nil {
		t.Fatalf("UpdateStep: %v", err)
	}

	pending, err := st.ListPendingSteps(ctx, []int64{order.ID})
	if err != nil {
		t.Fatalf("ListPendingSteps: %v", err)
	}
	if len(pending) != 1 || pending[0].Kind != workorder.KindPrint {
		t.Fatalf("pending = %+v, want single print step", pending)
	}

	if pending, err := st.ListPendingSteps(ctx, nil); err != nil || len(pending) != 0 {
		t.Fatalf("ListPendingSteps(nil) = %v, %v; want empty", pending, err)
	}
}

func TestUpsertStepActualsRejectsInvalidPayload(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	order := testsupport.NewWorkOrder(t, st, "Acme Dental",
		[]workorder.StepKind{workorder.KindScanning, workorder.KindDesign}, nil)
	steps, _ := st.ListStepsForWorkOrder(ctx, order.ID)

	batch := []*workorder.StepActual{
		{
			StepID:  steps[0].ID,
			Payload: workorder.ActualPayload{Kind: workorder.KindScanning, Simple: &workorder.SimpleActual{ActualHours: 2}},
		},
		{
			// Print-only actuals on a design step must reject the whole batch.
			StepID:  steps[1].ID,
			Payload: workorder.ActualPayload{Kind: workorder.KindDesign, Print: &workorder.PrintActual{Restarted: true}},
		},
	}
	err := st.UpsertStepActuals(ctx, batch)
	if err == nil || !strings.Contains(err.Error(), "design") {
		t.Fatalf("expected payload rejection naming the kind, got %v", err)
	}

	// The valid record must not have been written either.
	if actual, _ := st.GetStepActual(ctx, steps[0].ID); actual != nil {
		t.Fatalf("partial batch write: %+v", actual)
	}
}

func TestUpsertLeadTimePreservesWorkActuals(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	order := testsupport.NewWorkOrder(t, st, "Acme Dental",
		[]workorder.StepKind{workorder.KindTesting}, nil)
	steps, _ := st.ListStepsForWorkOrder(ctx, order.ID)
	stepID := steps[0].ID

	hours := 1.5
	err := st.UpsertStepActuals(ctx, []*workorder.StepActual{{
		StepID:      stepID,
		ActualHours: &hours,
		Payload: workorder.ActualPayload{
			Kind:   workorder.KindTesting,
			Simple: &workorder.SimpleActual{ActualHours: hours},
		},
	}})
	if err != nil {
		t.Fatalf("UpsertStepActuals: %v", err)
	}

	record := workorder.LeadTimeRecord{
		LeadDays:   5,
		LaneCount:  1,
		Multiplier: 1,
		StartsAt:   time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		DueAt:      time.Date(2026, 4, 6, 0, 0, 0, 0, time.UTC),
		Version:    workorder.LeadTimeFormulaVersion,
	}
	if err := st.UpsertLeadTime(ctx, stepID, workorder.KindTesting, record); err != nil {
		t.Fatalf("UpsertLeadTime: %v", err)
	}

	got, err := st.GetStepActual(ctx, stepID)
	if err != nil {
		t.Fatalf("GetStepActual: %v", err)
	}
	if got.Payload.Simple == nil || got.Payload.Simple.ActualHours != hours {
		t.Fatalf("work actuals lost: %+v", got.Payload)
	}
	if got.Payload.LeadTime == nil || got.Payload.LeadTime.LeadDays != 5 {
		t.Fatalf("lead record missing: %+v", got.Payload)
	}
	if got.ActualHours == nil || *got.ActualHours != hours {
		t.Fatalf("actual hours column lost: %v", got.ActualHours)
	}
}

func TestQuoteRoundTrip(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	quoteID := testsupport.NewQuote(t, st, []*workorder.QuoteItem{
		{Kind: workorder.KindDesign, LaborHours: 6},
		{Kind: workorder.KindPrint, PrintHours: 12, SupportRemovalHours: 1, SetupHours: 0.5, AdminHours: 0.25},
	})

	items, err := st.ListQuoteItems(ctx, []int64{quoteID})
	if err != nil {
		t.Fatalf("ListQuoteItems: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("item count = %d, want 2", len(items))
	}
	if got := workorder.QuotedHours(workorder.KindPrint, items); got != 13.75 {
		t.Fatalf("quoted print hours = %v, want 13.75", got)
	}
}

func TestWithTxRollsBackOnError(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	order := testsupport.NewWorkOrder(t, st, "Acme Dental",
		[]workorder.StepKind{workorder.KindScanning}, nil)

	sentinel := errors.New("boom")
	err := st.WithTx(ctx, func(tx *store.Tx) error {
		if err := tx.UpdateWorkOrderStatus(ctx, order.ID, workorder.OrderInProgress); err != nil {
			return err
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("WithTx error = %v, want sentinel", err)
	}

	got, _ := st.GetWorkOrder(ctx, order.ID)
	if got.Status != workorder.OrderNew {
		t.Fatalf("status = %q after rollback, want new", got.Status)
	}
}

func TestReopenKeepsData(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	order := testsupport.NewWorkOrder(t, st, "Acme Dental",
		[]workorder.StepKind{workorder.KindScanning}, nil)
	if err := st.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened := testsupport.MustOpenStore(t, cfg)
	got, err := reopened.GetWorkOrder(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("GetWorkOrder after reopen: %v", err)
	}
	if got == nil || got.Reference != order.Reference {
		t.Fatalf("order lost across reopen: %+v", got)
	}
}
