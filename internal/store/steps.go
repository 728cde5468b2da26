package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fabworks/internal/workorder"
)

const stepColumns = "id, work_order_id, kind, status, sort_order, started_at, paused_at, completed_at, notes, updated_at"

// GetStep fetches a service step by identifier. Missing steps return nil.
func (s *Store) GetStep(ctx context.Context, id int64) (*workorder.Step, error) {
	return getStep(ctx, s.db, id)
}

// GetStep fetches a service step inside the transaction.
func (t *Tx) GetStep(ctx context.Context, id int64) (*workorder.Step, error) {
	return getStep(ctx, t.tx, id)
}

func getStep(ctx context.Context, q querier, id int64) (*workorder.Step, error) {
	row := q.QueryRowContext(ctx, `SELECT `+stepColumns+` FROM service_steps WHERE id = ?`, id)
	step, err := scanStep(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get step: %w", err)
	}
	return step, nil
}

// ListStepsForWorkOrder returns all steps of a work order in precedence order.
func (s *Store) ListStepsForWorkOrder(ctx context.Context, workOrderID int64) ([]*workorder.Step, error) {
	return listSteps(ctx, s.db,
		`SELECT `+stepColumns+` FROM service_steps WHERE work_order_id = ? ORDER BY sort_order, id`,
		workOrderID)
}

// ListStepsForWorkOrder returns all steps of a work order inside the transaction.
func (t *Tx) ListStepsForWorkOrder(ctx context.Context, workOrderID int64) ([]*workorder.Step, error) {
	return listSteps(ctx, t.tx,
		`SELECT `+stepColumns+` FROM service_steps WHERE work_order_id = ? ORDER BY sort_order, id`,
		workOrderID)
}

// ListStepsInProgress returns the in-progress steps of a work order.
func (s *Store) ListStepsInProgress(ctx context.Context, workOrderID int64) ([]*workorder.Step, error) {
	return listSteps(ctx, s.db,
		`SELECT `+stepColumns+` FROM service_steps WHERE work_order_id = ? AND status = ? ORDER BY sort_order, id`,
		workOrderID, workorder.StepInProgress)
}

// ListStepsInProgress returns the in-progress steps inside the transaction.
func (t *Tx) ListStepsInProgress(ctx context.Context, workOrderID int64) ([]*workorder.Step, error) {
	return listSteps(ctx, t.tx,
		`SELECT `+stepColumns+` FROM service_steps WHERE work_order_id = ? AND status = ? ORDER BY sort_order, id`,
		workOrderID, workorder.StepInProgress)
}

// ListPendingSteps returns the non-completed steps of the given work orders
// ordered by precedence, the set the scheduler places into lanes.
func (s *Store) ListPendingSteps(ctx context.Context, workOrderIDs []int64) ([]*workorder.Step, error) {
	if len(workOrderIDs) == 0 {
		return nil, nil
	}
	args := make([]any, 0, len(workOrderIDs)+1)
	for _, id := range workOrderIDs {
		args = append(args, id)
	}
	args = append(args, workorder.StepCompleted)
	query := `SELECT ` + stepColumns + ` FROM service_steps
        WHERE work_order_id IN (` + makePlaceholders(len(workOrderIDs)) + `) AND status != ?
        ORDER BY work_order_id, sort_order, id`
	return listSteps(ctx, s.db, query, args...)
}

func listSteps(ctx context.Context, q querier, query string, args ...any) ([]*workorder.Step, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list steps: %w", err)
	}
	defer rows.Close()

	var steps []*workorder.Step
	for rows.Next() {
		step, err := scanStep(rows)
		if err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}
	return steps, rows.Err()
}

// UpdateStep persists changes to an existing service step.
func (s *Store) UpdateStep(ctx context.Context, step *workorder.Step) error {
	return updateStep(ctx, s.db, step)
}

// UpdateStep persists changes to a service step inside the transaction.
func (t *Tx) UpdateStep(ctx context.Context, step *workorder.Step) error {
	return updateStep(ctx, t.tx, step)
}

func updateStep(ctx context.Context, q querier, step *workorder.Step) error {
	if step == nil {
		return errors.New("step is nil")
	}
	step.UpdatedAt = time.Now().UTC()
	_, err := q.ExecContext(
		ctx,
		`UPDATE service_steps
         SET status = ?, started_at = ?, paused_at = ?, completed_at = ?, notes = ?, updated_at = ?
         WHERE id = ?`,
		step.Status,
		nullableTime(step.StartedAt),
		nullableTime(step.PausedAt),
		nullableTime(step.CompletedAt),
		nullableString(step.Notes),
		step.UpdatedAt.Format(time.RFC3339Nano),
		step.ID,
	)
	if err != nil {
		return fmt.Errorf("update step: %w", err)
	}
	return nil
}

func scanStep(scanner interface{ Scan(dest ...any) error }) (*workorder.Step, error) {
	var (
		id           int64
		workOrderID  int64
		kindStr      string
		statusStr    string
		sortOrder    int
		startedRaw   sql.NullString
		pausedRaw    sql.NullString
		completedRaw sql.NullString
		notes        sql.NullString
		updatedRaw   sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&workOrderID,
		&kindStr,
		&statusStr,
		&sortOrder,
		&startedRaw,
		&pausedRaw,
		&completedRaw,
		&notes,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	step := &workorder.Step{
		ID:          id,
		WorkOrderID: workOrderID,
		Kind:        workorder.StepKind(kindStr),
		Status:      workorder.StepStatus(statusStr),
		SortOrder:   sortOrder,
		StartedAt:   timePtr(startedRaw),
		PausedAt:    timePtr(pausedRaw),
		CompletedAt: timePtr(completedRaw),
		Notes:       notes.String,
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		step.UpdatedAt = updated
	}
	return step, nil
}
