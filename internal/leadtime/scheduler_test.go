package leadtime_test

import (
	"context"
	"testing"
	"time"

	"fabworks/internal/leadtime"
	"fabworks/internal/settings"
	"fabworks/internal/store"
	"fabworks/internal/testsupport"
	"fabworks/internal/workorder"
)

func newScheduler(t *testing.T) (*leadtime.Scheduler, *store.Store) {
	t.Helper()
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	return leadtime.New(st, settings.NewStore(st), nil), st
}

func stepByKind(t *testing.T, st *store.Store, workOrderID int64, kind workorder.StepKind) *workorder.Step {
	t.Helper()
	steps, err := st.ListStepsForWorkOrder(context.Background(), workOrderID)
	if err != nil {
		t.Fatalf("ListStepsForWorkOrder: %v", err)
	}
	for _, step := range steps {
		if step.Kind == kind {
			return step
		}
	}
	t.Fatalf("work order %d has no %s step", workOrderID, kind)
	return nil
}

func leadRecord(t *testing.T, st *store.Store, stepID int64) *workorder.LeadTimeRecord {
	t.Helper()
	actual, err := st.GetStepActual(context.Background(), stepID)
	if err != nil {
		t.Fatalf("GetStepActual: %v", err)
	}
	if actual == nil || actual.Payload.LeadTime == nil {
		t.Fatalf("step %d has no lead payload", stepID)
	}
	return actual.Payload.LeadTime
}

func days(n int) time.Duration {
	return time.Duration(n) * 24 * time.Hour
}

func TestRecomputeIsIdempotent(t *testing.T) {
	sched, st := newScheduler(t)
	ctx := context.Background()

	quoteID := testsupport.NewQuote(t, st, []*workorder.QuoteItem{
		{Kind: workorder.KindPrint, PrintHours: 38, SetupHours: 2},
		{Kind: workorder.KindScanning, LaborHours: 4},
	})
	order := testsupport.NewWorkOrder(t, st, "Acme Dental",
		[]workorder.StepKind{workorder.KindScanning, workorder.KindPrint}, &quoteID)

	if err := sched.Recompute(ctx); err != nil {
		t.Fatalf("first recompute: %v", err)
	}
	printStep := stepByKind(t, st, order.ID, workorder.KindPrint)
	first := leadRecord(t, st, printStep.ID)

	if err := sched.Recompute(ctx); err != nil {
		t.Fatalf("second recompute: %v", err)
	}
	second := leadRecord(t, st, printStep.ID)

	if !first.StartsAt.Equal(second.StartsAt) || !first.DueAt.Equal(second.DueAt) {
		t.Fatalf("window drifted between runs: %v-%v vs %v-%v",
			first.StartsAt, first.DueAt, second.StartsAt, second.DueAt)
	}
	if first.LeadDays != second.LeadDays {
		t.Fatalf("lead days drifted: %d vs %d", first.LeadDays, second.LeadDays)
	}
}

func TestPrintLanesRunInParallel(t *testing.T) {
	sched, st := newScheduler(t)
	ctx := context.Background()

	// Three print-only orders against the default two print lanes.
	var orders []*workorder.WorkOrder
	for i := 0; i < 3; i++ {
		orders = append(orders, testsupport.NewWorkOrder(t, st, "Acme Dental",
			[]workorder.StepKind{workorder.KindPrint}, nil))
	}
	if err := sched.Recompute(ctx); err != nil {
		t.Fatalf("recompute: %v", err)
	}

	records := make([]*workorder.LeadTimeRecord, 3)
	for i, order := range orders {
		records[i] = leadRecord(t, st, stepByKind(t, st, order.ID, workorder.KindPrint).ID)
	}

	// The first two orders start as soon as they were created.
	for i := 0; i < 2; i++ {
		if !records[i].StartsAt.Equal(orders[i].CreatedAt.UTC()) {
			t.Fatalf("order %d should start at creation: starts=%v created=%v",
				i, records[i].StartsAt, orders[i].CreatedAt.UTC())
		}
	}
	// The third waits for the earliest lane: first due date plus headroom.
	wantStart := records[0].DueAt.Add(days(1))
	if !records[2].StartsAt.Equal(wantStart) {
		t.Fatalf("third order starts %v, want %v", records[2].StartsAt, wantStart)
	}
	if records[2].LaneCount != 2 {
		t.Fatalf("lane count = %d, want 2", records[2].LaneCount)
	}
}

func TestSingleLaneIsFIFO(t *testing.T) {
	sched, st := newScheduler(t)
	ctx := context.Background()

	first := testsupport.NewWorkOrder(t, st, "Acme Dental",
		[]workorder.StepKind{workorder.KindScanning}, nil)
	second := testsupport.NewWorkOrder(t, st, "Borealis Labs",
		[]workorder.StepKind{workorder.KindScanning}, nil)

	if err := sched.Recompute(ctx); err != nil {
		t.Fatalf("recompute: %v", err)
	}
	rec1 := leadRecord(t, st, stepByKind(t, st, first.ID, workorder.KindScanning).ID)
	rec2 := leadRecord(t, st, stepByKind(t, st, second.ID, workorder.KindScanning).ID)

	if !rec1.StartsAt.Equal(first.CreatedAt.UTC()) {
		t.Fatalf("older order delayed: starts=%v created=%v", rec1.StartsAt, first.CreatedAt.UTC())
	}
	// No quote means zero hours: five lead days plus one headroom day.
	if !rec2.StartsAt.Equal(rec1.DueAt.Add(days(1))) {
		t.Fatalf("newer order starts %v, want %v", rec2.StartsAt, rec1.DueAt.Add(days(1)))
	}
}

func TestDeadlineIsLatestDueDate(t *testing.T) {
	sched, st := newScheduler(t)
	ctx := context.Background()

	quoteID := testsupport.NewQuote(t, st, []*workorder.QuoteItem{
		{Kind: workorder.KindScanning, LaborHours: 1},
		{Kind: workorder.KindPrint, PrintHours: 240},
	})
	order := testsupport.NewWorkOrder(t, st, "Acme Dental",
		[]workorder.StepKind{workorder.KindScanning, workorder.KindPrint}, &quoteID)

	if err := sched.Recompute(ctx); err != nil {
		t.Fatalf("recompute: %v", err)
	}
	printRec := leadRecord(t, st, stepByKind(t, st, order.ID, workorder.KindPrint).ID)
	scanRec := leadRecord(t, st, stepByKind(t, st, order.ID, workorder.KindScanning).ID)
	if !printRec.DueAt.After(scanRec.DueAt) {
		t.Fatalf("print should dominate: print due %v, scan due %v", printRec.DueAt, scanRec.DueAt)
	}

	got, err := st.GetWorkOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("GetWorkOrder: %v", err)
	}
	if got.JobDeadline == nil || !got.JobDeadline.Equal(printRec.DueAt) {
		t.Fatalf("deadline = %v, want %v", got.JobDeadline, printRec.DueAt)
	}
}

func TestDeadlineClearsWhenNothingPending(t *testing.T) {
	sched, st := newScheduler(t)
	ctx := context.Background()

	order := testsupport.NewWorkOrder(t, st, "Acme Dental",
		[]workorder.StepKind{workorder.KindScanning}, nil)
	if err := sched.Recompute(ctx); err != nil {
		t.Fatalf("recompute: %v", err)
	}
	got, _ := st.GetWorkOrder(ctx, order.ID)
	if got.JobDeadline == nil {
		t.Fatal("expected a deadline after the first run")
	}

	step := stepByKind(t, st, order.ID, workorder.KindScanning)
	step.Status = workorder.StepCompleted
	if err := st.UpdateStep(ctx, step); err != nil {
		t.Fatalf("UpdateStep: %v", err)
	}

	if err := sched.Recompute(ctx); err != nil {
		t.Fatalf("recompute: %v", err)
	}
	got, _ = st.GetWorkOrder(ctx, order.ID)
	if got.JobDeadline != nil {
		t.Fatalf("deadline should clear with nothing pending, got %v", got.JobDeadline)
	}
}

func TestRecomputeReadsFreshSettings(t *testing.T) {
	sched, st := newScheduler(t)
	ctx := context.Background()

	order := testsupport.NewWorkOrder(t, st, "Acme Dental",
		[]workorder.StepKind{workorder.KindPrint}, nil)
	if err := sched.Recompute(ctx); err != nil {
		t.Fatalf("first recompute: %v", err)
	}
	step := stepByKind(t, st, order.ID, workorder.KindPrint)
	if got := leadRecord(t, st, step.ID); got.LeadDays != 5 {
		t.Fatalf("baseline lead days = %d, want 5", got.LeadDays)
	}

	if err := st.SetSetting(ctx, settings.MultiplierKey(workorder.KindPrint), 2); err != nil {
		t.Fatalf("SetSetting: %v", err)
	}
	if err := sched.Recompute(ctx); err != nil {
		t.Fatalf("second recompute: %v", err)
	}
	got := leadRecord(t, st, step.ID)
	if got.LeadDays != 10 {
		t.Fatalf("doubled lead days = %d, want 10", got.LeadDays)
	}
	if !got.DueAt.Equal(got.StartsAt.Add(days(10))) {
		t.Fatalf("due %v not 10 days after start %v", got.DueAt, got.StartsAt)
	}
}

func TestRecomputePreservesWorkActuals(t *testing.T) {
	sched, st := newScheduler(t)
	ctx := context.Background()

	order := testsupport.NewWorkOrder(t, st, "Acme Dental",
		[]workorder.StepKind{workorder.KindDesign}, nil)
	if err := sched.Recompute(ctx); err != nil {
		t.Fatalf("first recompute: %v", err)
	}

	step := stepByKind(t, st, order.ID, workorder.KindDesign)
	hours := 3.5
	err := st.UpsertStepActuals(ctx, []*workorder.StepActual{{
		StepID:      step.ID,
		ActualHours: &hours,
		Payload: workorder.ActualPayload{
			Kind:   workorder.KindDesign,
			Simple: &workorder.SimpleActual{ActualHours: hours},
		},
	}})
	if err != nil {
		t.Fatalf("UpsertStepActuals: %v", err)
	}

	if err := sched.Recompute(ctx); err != nil {
		t.Fatalf("second recompute: %v", err)
	}
	actual, err := st.GetStepActual(ctx, step.ID)
	if err != nil {
		t.Fatalf("GetStepActual: %v", err)
	}
	if actual.Payload.Simple == nil || actual.Payload.Simple.ActualHours != hours {
		t.Fatalf("recorded actuals lost on recompute: %+v", actual.Payload)
	}
	if actual.Payload.LeadTime == nil {
		t.Fatal("lead payload missing after recompute")
	}
}
