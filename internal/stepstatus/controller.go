package stepstatus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"fabworks/internal/logging"
	"fabworks/internal/services"
	"fabworks/internal/store"
	"fabworks/internal/workorder"
)

// Invalidator is notified after a committed transition so collaborators can
// drop cached views of the affected work order and its list pages.
type Invalidator interface {
	WorkOrderChanged(ctx context.Context, workOrderID int64)
}

type noopInvalidator struct{}

func (noopInvalidator) WorkOrderChanged(context.Context, int64) {}

// Option customizes controller construction.
type Option func(*Controller)

// WithClock overrides the time source, used by tests.
func WithClock(clock func() time.Time) Option {
	return func(c *Controller) { c.clock = clock }
}

// WithInvalidator installs the cache invalidation hook.
func WithInvalidator(inv Invalidator) Option {
	return func(c *Controller) {
		if inv != nil {
			c.invalidator = inv
		}
	}
}

// Controller applies service step status transitions while enforcing the
// single-active-step invariant per work order.
type Controller struct {
	store       *store.Store
	logger      *slog.Logger
	clock       func() time.Time
	invalidator Invalidator
}

// New constructs a controller. A nil logger disables logging.
func New(st *store.Store, logger *slog.Logger, opts ...Option) *Controller {
	c := &Controller{
		store:       st,
		logger:      logging.NewComponentLogger(logger, "stepstatus"),
		clock:       time.Now,
		invalidator: noopInvalidator{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Transition moves a step to the target status, repairs any illegal
// concurrent-active state first, appends the optional note, applies the
// timestamp policy, and recomputes the owning work order's aggregate status.
// The whole sequence runs in one transaction: on error nothing is persisted.
func (c *Controller) Transition(ctx context.Context, stepID int64, target workorder.StepStatus, note string) (workorder.OrderStatus, error) {
	if _, ok := workorder.ParseStepStatus(string(target)); !ok {
		return "", services.Wrap(services.ErrValidation, "stepstatus", "transition",
			fmt.Sprintf("unknown target status %q", target), nil)
	}

	ctx = services.WithStepID(ctx, stepID)
	ctx = services.WithRequestID(ctx, uuid.NewString())
	logger := logging.WithContext(ctx, c.logger)

	now := c.clock().UTC()
	var workOrderID int64
	var result workorder.OrderStatus

	err := c.store.WithTx(ctx, func(tx *store.Tx) error {
		step, err := tx.GetStep(ctx, stepID)
		if err != nil {
			return err
		}
		if step == nil {
			return services.Wrap(services.ErrValidation, "stepstatus", "transition",
				fmt.Sprintf("step %d not found", stepID), nil)
		}
		order, err := tx.GetWorkOrder(ctx, step.WorkOrderID)
		if err != nil {
			return err
		}
		if order == nil {
			return services.Wrap(services.ErrValidation, "stepstatus", "transition",
				fmt.Sprintf("step %d has no work order", stepID), nil)
		}
		workOrderID = order.ID

		repaired, err := c.repairConcurrentActive(ctx, tx, order.ID, now, logger)
		if err != nil {
			return err
		}
		if repaired {
			// The step may have been demoted; work from fresh state.
			step, err = tx.GetStep(ctx, stepID)
			if err != nil {
				return err
			}
		}

		if target == workorder.StepInProgress {
			active, err := tx.ListStepsInProgress(ctx, order.ID)
			if err != nil {
				return err
			}
			for _, other := range active {
				if other.ID != step.ID {
					return services.Wrap(services.ErrConflict, "stepstatus", "transition",
						fmt.Sprintf("step %d (%s) is already in progress; pause or complete it first", other.ID, other.Kind), nil)
				}
			}
		}

		step.Notes = workorder.AppendNote(step.Notes, note, now)
		applyTimestampPolicy(step, target, now)
		step.Status = target
		if err := tx.UpdateStep(ctx, step); err != nil {
			return err
		}

		steps, err := tx.ListStepsForWorkOrder(ctx, order.ID)
		if err != nil {
			return err
		}
		result = order.Status
		if derived, ok := workorder.DeriveOrderStatus(steps); ok {
			result = derived
			if derived != order.Status {
				if err := tx.UpdateWorkOrderStatus(ctx, order.ID, derived); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, services.ErrValidation) || errors.Is(err, services.ErrConflict) {
			return "", err
		}
		return "", services.Wrap(services.ErrDataStore, "stepstatus", "transition", "", err)
	}

	c.invalidator.WorkOrderChanged(ctx, workOrderID)
	logger.Info("step transitioned",
		logging.String("target", string(target)),
		logging.Int64(logging.FieldWorkOrderID, workOrderID),
		logging.String("order_status", string(result)))
	return result, nil
}

// repairConcurrentActive demotes all but one of any concurrently in-progress
// steps to waiting. The keeper is the step with the earliest non-null
// started_at; steps without a start time lose, and remaining ties go to the
// lowest sort order.
func (c *Controller) repairConcurrentActive(ctx context.Context, tx *store.Tx, workOrderID int64, now time.Time, logger *slog.Logger) (bool, error) {
	active, err := tx.ListStepsInProgress(ctx, workOrderID)
	if err != nil {
		return false, err
	}
	if len(active) <= 1 {
		return false, nil
	}

	// active is ordered by sort_order, so on ties the first candidate wins.
	keeper := active[0]
	for _, candidate := range active[1:] {
		if startsEarlier(candidate, keeper) {
			keeper = candidate
		}
	}

	for _, step := range active {
		if step.ID == keeper.ID {
			continue
		}
		paused := now
		step.Status = workorder.StepWaiting
		step.PausedAt = &paused
		if err := tx.UpdateStep(ctx, step); err != nil {
			return false, err
		}
		logger.Warn("demoted concurrently active step",
			logging.Int64("demoted_step_id", step.ID),
			logging.Int64("kept_step_id", keeper.ID))
	}
	return true, nil
}

func startsEarlier(a, b *workorder.Step) bool {
	switch {
	case a.StartedAt == nil:
		return false
	case b.StartedAt == nil:
		return true
	default:
		return a.StartedAt.Before(*b.StartedAt)
	}
}

// applyTimestampPolicy mutates the step's timestamps for the target status.
// started_at is written once and survives pause/resume cycles; paused_at is
// only non-null while waiting; completed_at only while completed.
func applyTimestampPolicy(step *workorder.Step, target workorder.StepStatus, now time.Time) {
	switch target {
	case workorder.StepInProgress:
		if step.StartedAt == nil {
			started := now
			step.StartedAt = &started
		}
		step.PausedAt = nil
		step.CompletedAt = nil
	case workorder.StepWaiting:
		paused := now
		step.PausedAt = &paused
		step.CompletedAt = nil
	case workorder.StepCompleted:
		completed := now
		step.CompletedAt = &completed
		step.PausedAt = nil
	case workorder.StepNotStarted:
		// Status write only.
	}
}
