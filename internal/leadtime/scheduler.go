package leadtime

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"fabworks/internal/logging"
	"fabworks/internal/services"
	"fabworks/internal/settings"
	"fabworks/internal/store"
	"fabworks/internal/workorder"
)

// Option customizes scheduler construction.
type Option func(*Scheduler)

// WithClock overrides the time source, used by tests.
func WithClock(clock func() time.Time) Option {
	return func(s *Scheduler) { s.clock = clock }
}

// Scheduler assigns every pending step of every open work order a start and
// due time against the configured capacity lanes, then writes the results
// back per step and per work order. Each run is a full recompute from
// scratch: the simulation is a pure function of the open orders, their
// quoted hours, and the current settings snapshot.
type Scheduler struct {
	store    *store.Store
	settings *settings.Store
	logger   *slog.Logger
	clock    func() time.Time
}

// New constructs a scheduler. A nil logger disables logging.
func New(st *store.Store, sst *settings.Store, logger *slog.Logger, opts ...Option) *Scheduler {
	s := &Scheduler{
		store:    st,
		settings: sst,
		logger:   logging.NewComponentLogger(logger, "leadtime"),
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// lanes tracks, per step kind, when each parallel capacity lane next frees
// up. Lane free-at instants start at the zero time so the first job on an
// idle lane starts at its work order's creation time.
type lanes struct {
	snapshot settings.Snapshot
	freeAt   map[workorder.StepKind][]time.Time
}

func newLanes(snapshot settings.Snapshot) *lanes {
	return &lanes{snapshot: snapshot, freeAt: make(map[workorder.StepKind][]time.Time)}
}

// next returns the index and free-at instant of the earliest-available lane
// for a kind. Ties go to the lowest lane index.
func (l *lanes) next(kind workorder.StepKind) (int, time.Time) {
	slots, ok := l.freeAt[kind]
	if !ok {
		slots = make([]time.Time, l.snapshot.LaneCount(kind))
		l.freeAt[kind] = slots
	}
	best := 0
	for i := 1; i < len(slots); i++ {
		if slots[i].Before(slots[best]) {
			best = i
		}
	}
	return best, slots[best]
}

func (l *lanes) occupy(kind workorder.StepKind, index int, until time.Time) {
	l.freeAt[kind][index] = until
}

// Recompute runs the full lane simulation and persists lead payloads and
// work-order deadlines. Results are flushed per work order; a failure aborts
// the remaining orders but already-written orders keep their fresh values,
// and the next trigger recomputes everything anyway.
func (s *Scheduler) Recompute(ctx context.Context) error {
	ctx = services.WithRequestID(ctx, uuid.NewString())
	logger := logging.WithContext(ctx, s.logger)
	started := s.clock()

	if err := s.recompute(ctx, logger); err != nil {
		if errors.Is(err, services.ErrDataStore) || errors.Is(err, services.ErrConfiguration) {
			return err
		}
		return services.Wrap(services.ErrDataStore, "leadtime", "recompute", "", err)
	}

	logger.Info("lead times recomputed", logging.Duration("elapsed", time.Since(started)))
	return nil
}

func (s *Scheduler) recompute(ctx context.Context, logger *slog.Logger) error {
	snapshot, err := s.settings.Load(ctx)
	if err != nil {
		return err
	}
	params := Params{
		HoursThreshold:        snapshot.HoursThreshold,
		MinDaysUnderThreshold: snapshot.MinDaysUnderThreshold,
		BucketBaseDays:        snapshot.BucketBaseDays,
		BucketStepDays:        snapshot.BucketStepDays,
		LinearBaseDays:        snapshot.LinearBaseDays,
	}

	orders, err := s.store.ListOpenWorkOrders(ctx)
	if err != nil {
		return err
	}
	if len(orders) == 0 {
		return nil
	}

	orderIDs := make([]int64, len(orders))
	for i, order := range orders {
		orderIDs[i] = order.ID
	}
	pending, err := s.store.ListPendingSteps(ctx, orderIDs)
	if err != nil {
		return err
	}
	stepsByOrder := make(map[int64][]*workorder.Step, len(orders))
	for _, step := range pending {
		stepsByOrder[step.WorkOrderID] = append(stepsByOrder[step.WorkOrderID], step)
	}

	itemsByQuote, err := s.loadQuoteItems(ctx, orders)
	if err != nil {
		return err
	}

	capacity := newLanes(snapshot)
	computedAt := s.clock().UTC()
	placed := 0

	for _, order := range orders {
		steps := stepsByOrder[order.ID]
		workorder.SortSteps(steps)

		var items []*workorder.QuoteItem
		if order.QuoteID != nil {
			items = itemsByQuote[*order.QuoteID]
		}

		var deadline *time.Time
		batch := make([]*workorder.StepActual, 0, len(steps))
		for _, step := range steps {
			hours := workorder.QuotedHours(step.Kind, items)
			multiplier := snapshot.Multiplier(step.Kind)
			days := LeadDays(hours, multiplier, params)

			laneIndex, freeAt := capacity.next(step.Kind)
			startsAt := order.CreatedAt.UTC()
			if freeAt.After(startsAt) {
				startsAt = freeAt
			}
			dueAt := startsAt.Add(time.Duration(days) * 24 * time.Hour)
			capacity.occupy(step.Kind, laneIndex, dueAt.Add(daysToDuration(snapshot.QueueHeadroomDays)))

			if deadline == nil || dueAt.After(*deadline) {
				due := dueAt
				deadline = &due
			}

			record := workorder.LeadTimeRecord{
				QuotedHours:  hours,
				LeadDays:     days,
				LaneCount:    snapshot.LaneCount(step.Kind),
				LaneIndex:    laneIndex,
				HeadroomDays: snapshot.QueueHeadroomDays,
				Multiplier:   multiplier,
				StartsAt:     startsAt,
				DueAt:        dueAt,
				Version:      workorder.LeadTimeFormulaVersion,
				ComputedAt:   computedAt,
			}
			actual, err := s.mergedActual(ctx, step, record)
			if err != nil {
				return err
			}
			batch = append(batch, actual)
		}

		if err := s.store.UpsertStepActuals(ctx, batch); err != nil {
			return err
		}
		if err := s.store.UpdateWorkOrderDeadline(ctx, order.ID, deadline); err != nil {
			return err
		}
		placed += len(batch)
	}

	logger.Info("lane simulation complete",
		logging.Int("work_orders", len(orders)),
		logging.Int("steps_placed", placed))
	return nil
}

// mergedActual folds the new lead-time record into any existing actuals
// payload for the step so recorded work actuals survive recomputes.
func (s *Scheduler) mergedActual(ctx context.Context, step *workorder.Step, record workorder.LeadTimeRecord) (*workorder.StepActual, error) {
	existing, err := s.store.GetStepActual(ctx, step.ID)
	if err != nil {
		return nil, err
	}
	actual := existing
	if actual == nil {
		actual = &workorder.StepActual{StepID: step.ID, Payload: workorder.ActualPayload{Kind: step.Kind}}
	}
	actual.Payload.Kind = step.Kind
	actual.Payload.LeadTime = &record
	return actual, nil
}

func (s *Scheduler) loadQuoteItems(ctx context.Context, orders []*workorder.WorkOrder) (map[int64][]*workorder.QuoteItem, error) {
	seen := make(map[int64]struct{})
	var quoteIDs []int64
	for _, order := range orders {
		if order.QuoteID == nil {
			continue
		}
		if _, ok := seen[*order.QuoteID]; ok {
			continue
		}
		seen[*order.QuoteID] = struct{}{}
		quoteIDs = append(quoteIDs, *order.QuoteID)
	}
	items, err := s.store.ListQuoteItems(ctx, quoteIDs)
	if err != nil {
		return nil, err
	}
	byQuote := make(map[int64][]*workorder.QuoteItem, len(quoteIDs))
	for _, item := range items {
		byQuote[item.QuoteID] = append(byQuote[item.QuoteID], item)
	}
	return byQuote, nil
}

func daysToDuration(days float64) time.Duration {
	return time.Duration(days * 24 * float64(time.Hour))
}
