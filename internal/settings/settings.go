package settings

import (
	"context"

	"fabworks/internal/store"
	"fabworks/internal/workorder"
)

// Setting keys for the lead-time scheduler. Values live in the settings
// table so operator edits take effect on the next recompute without a
// restart.
const (
	KeyHoursThreshold        = "lead.hours_threshold"
	KeyMinDaysUnderThreshold = "lead.min_days_under_threshold"
	KeyBucketBaseDays        = "lead.bucket_base_days"
	KeyBucketStepDays        = "lead.bucket_step_days"
	KeyLinearBaseDays        = "lead.linear_base_days"
	KeyQueueHeadroomDays     = "lead.queue_headroom_days"
)

// MultiplierKey returns the per-kind lead-day multiplier setting key.
func MultiplierKey(kind workorder.StepKind) string {
	return "lead.multiplier." + string(kind)
}

// LanesKey returns the per-kind capacity lane count setting key.
func LanesKey(kind workorder.StepKind) string {
	return "lead.lanes." + string(kind)
}

const (
	// minMultiplier floors per-kind multipliers so a misconfigured zero
	// cannot collapse every lead time.
	minMultiplier = 0.1
	// minLanes keeps at least one lane per kind so scheduling always makes progress.
	minLanes = 1
)

// Defaults returns the seed rows for every scheduler setting.
func Defaults() []store.SettingRow {
	rows := []store.SettingRow{
		{Key: KeyHoursThreshold, Label: "Small-job hours threshold", Unit: "hours", Value: 36},
		{Key: KeyMinDaysUnderThreshold, Label: "Minimum lead days under threshold", Unit: "days", Value: 5},
		{Key: KeyBucketBaseDays, Label: "Bucketed formula base", Unit: "days", Value: 3},
		{Key: KeyBucketStepDays, Label: "Bucketed formula step per 24h", Unit: "days", Value: 2},
		{Key: KeyLinearBaseDays, Label: "Linear formula base", Unit: "days", Value: 10},
		{Key: KeyQueueHeadroomDays, Label: "Lane headroom after due date", Unit: "days", Value: 1},
	}
	laneDefaults := map[workorder.StepKind]float64{
		workorder.KindScanning: 1,
		workorder.KindDesign:   1,
		workorder.KindPrint:    2,
		workorder.KindTesting:  1,
	}
	for _, kind := range workorder.AllKinds() {
		rows = append(rows,
			store.SettingRow{Key: MultiplierKey(kind), Label: "Lead-day multiplier: " + string(kind), Value: 1},
			store.SettingRow{Key: LanesKey(kind), Label: "Capacity lanes: " + string(kind), Unit: "lanes", Value: laneDefaults[kind]},
		)
	}
	return rows
}

// Snapshot is an immutable view of the scheduler parameters at one instant.
// Callers must load a fresh snapshot per run; caching one across calls would
// reintroduce the stale-capacity bug the settings table exists to avoid.
type Snapshot struct {
	HoursThreshold        float64
	MinDaysUnderThreshold float64
	BucketBaseDays        float64
	BucketStepDays        float64
	LinearBaseDays        float64
	QueueHeadroomDays     float64
	Multipliers           map[workorder.StepKind]float64
	Lanes                 map[workorder.StepKind]int
}

// Multiplier returns the clamped lead-day multiplier for a kind.
func (s Snapshot) Multiplier(kind workorder.StepKind) float64 {
	if v, ok := s.Multipliers[kind]; ok {
		return v
	}
	return 1
}

// LaneCount returns the clamped lane count for a kind.
func (s Snapshot) LaneCount(kind workorder.StepKind) int {
	if v, ok := s.Lanes[kind]; ok {
		return v
	}
	return minLanes
}

// Store reads scheduler parameters from the settings table, seeding defaults
// for any missing key.
type Store struct {
	db *store.Store
}

// NewStore wraps the persistence layer.
func NewStore(db *store.Store) *Store {
	return &Store{db: db}
}

// Load seeds missing defaults and returns a fresh snapshot.
func (s *Store) Load(ctx context.Context) (Snapshot, error) {
	defaults := Defaults()
	if err := s.db.SeedMissingSettings(ctx, defaults); err != nil {
		return Snapshot{}, err
	}

	keys := make([]string, len(defaults))
	fallback := make(map[string]float64, len(defaults))
	for i, row := range defaults {
		keys[i] = row.Key
		fallback[row.Key] = row.Value
	}

	values, err := s.db.GetSettings(ctx, keys)
	if err != nil {
		return Snapshot{}, err
	}
	get := func(key string) float64 {
		if v, ok := values[key]; ok {
			return v
		}
		return fallback[key]
	}

	snapshot := Snapshot{
		HoursThreshold:        get(KeyHoursThreshold),
		MinDaysUnderThreshold: get(KeyMinDaysUnderThreshold),
		BucketBaseDays:        get(KeyBucketBaseDays),
		BucketStepDays:        get(KeyBucketStepDays),
		LinearBaseDays:        get(KeyLinearBaseDays),
		QueueHeadroomDays:     get(KeyQueueHeadroomDays),
		Multipliers:           make(map[workorder.StepKind]float64, len(workorder.AllKinds())),
		Lanes:                 make(map[workorder.StepKind]int, len(workorder.AllKinds())),
	}
	for _, kind := range workorder.AllKinds() {
		multiplier := get(MultiplierKey(kind))
		if multiplier < minMultiplier {
			multiplier = minMultiplier
		}
		snapshot.Multipliers[kind] = multiplier

		lanes := int(get(LanesKey(kind)))
		if lanes < minLanes {
			lanes = minLanes
		}
		snapshot.Lanes[kind] = lanes
	}
	return snapshot, nil
}
