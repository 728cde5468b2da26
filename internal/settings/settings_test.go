package settings_test

import (
	"context"
	"testing"

	"fabworks/internal/settings"
	"fabworks/internal/testsupport"
	"fabworks/internal/workorder"
)

func TestLoadSeedsDefaults(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	sst := settings.NewStore(st)
	ctx := context.Background()

	snapshot, err := sst.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if snapshot.HoursThreshold != 36 {
		t.Fatalf("hours threshold = %v, want 36", snapshot.HoursThreshold)
	}
	if snapshot.MinDaysUnderThreshold != 5 {
		t.Fatalf("min days = %v, want 5", snapshot.MinDaysUnderThreshold)
	}
	if got := snapshot.LaneCount(workorder.KindPrint); got != 2 {
		t.Fatalf("print lanes = %d, want 2", got)
	}
	if got := snapshot.LaneCount(workorder.KindScanning); got != 1 {
		t.Fatalf("scanning lanes = %d, want 1", got)
	}
	for _, kind := range workorder.AllKinds() {
		if got := snapshot.Multiplier(kind); got != 1 {
			t.Fatalf("%s multiplier = %v, want 1", kind, got)
		}
	}

	rows, err := st.ListSettings(ctx)
	if err != nil {
		t.Fatalf("ListSettings: %v", err)
	}
	if len(rows) == 0 {
		t.Fatal("defaults not persisted")
	}
}

func TestLoadClampsOperatorValues(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	sst := settings.NewStore(st)
	ctx := context.Background()

	if _, err := sst.Load(ctx); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := st.SetSetting(ctx, settings.MultiplierKey(workorder.KindDesign), 0); err != nil {
		t.Fatalf("SetSetting: %v", err)
	}
	if err := st.SetSetting(ctx, settings.LanesKey(workorder.KindPrint), 0); err != nil {
		t.Fatalf("SetSetting: %v", err)
	}

	snapshot, err := sst.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := snapshot.Multiplier(workorder.KindDesign); got != 0.1 {
		t.Fatalf("zero multiplier clamped to %v, want 0.1", got)
	}
	if got := snapshot.LaneCount(workorder.KindPrint); got != 1 {
		t.Fatalf("zero lanes clamped to %d, want 1", got)
	}
}

func TestLoadDoesNotOverwriteOperatorValues(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	sst := settings.NewStore(st)
	ctx := context.Background()

	if _, err := sst.Load(ctx); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := st.SetSetting(ctx, settings.KeyHoursThreshold, 48); err != nil {
		t.Fatalf("SetSetting: %v", err)
	}

	// Re-seeding must leave the operator's value alone.
	snapshot, err := sst.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if snapshot.HoursThreshold != 48 {
		t.Fatalf("hours threshold = %v, want operator value 48", snapshot.HoursThreshold)
	}
}

func TestSetSettingRejectsUnknownKey(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	if _, err := settings.NewStore(st).Load(ctx); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := st.SetSetting(ctx, "lead.no_such_knob", 1); err == nil {
		t.Fatal("expected unknown key error")
	}
}
