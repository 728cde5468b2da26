package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"fabworks/internal/workorder"
)

const workOrderColumns = "id, reference, customer, description, status, quote_id, job_deadline, created_at, updated_at"

// CreateWorkOrder inserts a work order together with one not-started step per
// requested service kind. The order and its steps are created atomically.
func (s *Store) CreateWorkOrder(ctx context.Context, customer, description string, kinds []workorder.StepKind, quoteID *int64) (*workorder.WorkOrder, error) {
	if len(kinds) == 0 {
		return nil, errors.New("work order needs at least one service")
	}
	seen := make(map[workorder.StepKind]struct{}, len(kinds))
	for _, kind := range kinds {
		if _, ok := workorder.ParseStepKind(string(kind)); !ok {
			return nil, fmt.Errorf("unknown service kind %q", kind)
		}
		if _, dup := seen[kind]; dup {
			return nil, fmt.Errorf("duplicate service kind %q", kind)
		}
		seen[kind] = struct{}{}
	}

	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)
	reference := uuid.NewString()

	var id int64
	err := s.WithTx(ctx, func(tx *Tx) error {
		var quoteArg any
		if quoteID != nil {
			quoteArg = *quoteID
		}
		res, err := tx.tx.ExecContext(
			ctx,
			`INSERT INTO work_orders (reference, customer, description, status, quote_id, created_at, updated_at)
             VALUES (?, ?, ?, ?, ?, ?, ?)`,
			reference,
			customer,
			nullableString(description),
			workorder.OrderNew,
			quoteArg,
			timestamp,
			timestamp,
		)
		if err != nil {
			return fmt.Errorf("insert work order: %w", err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}

		for _, kind := range kinds {
			if _, err := tx.tx.ExecContext(
				ctx,
				`INSERT INTO service_steps (work_order_id, kind, status, sort_order, updated_at)
                 VALUES (?, ?, ?, ?, ?)`,
				id,
				kind,
				workorder.StepNotStarted,
				kind.SortOrder(),
				timestamp,
			); err != nil {
				return fmt.Errorf("insert %s step: %w", kind, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetWorkOrder(ctx, id)
}

// GetWorkOrder fetches a work order by identifier. Missing orders return nil.
func (s *Store) GetWorkOrder(ctx context.Context, id int64) (*workorder.WorkOrder, error) {
	return getWorkOrder(ctx, s.db, id)
}

// GetWorkOrder fetches a work order inside the transaction.
func (t *Tx) GetWorkOrder(ctx context.Context, id int64) (*workorder.WorkOrder, error) {
	return getWorkOrder(ctx, t.tx, id)
}

func getWorkOrder(ctx context.Context, q querier, id int64) (*workorder.WorkOrder, error) {
	row := q.QueryRowContext(ctx, `SELECT `+workOrderColumns+` FROM work_orders WHERE id = ?`, id)
	order, err := scanWorkOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get work order: %w", err)
	}
	return order, nil
}

// ListWorkOrders returns every work order ordered by creation time.
func (s *Store) ListWorkOrders(ctx context.Context) ([]*workorder.WorkOrder, error) {
	return listWorkOrders(ctx, s.db, `SELECT `+workOrderColumns+` FROM work_orders ORDER BY created_at, id`)
}

// ListOpenWorkOrders returns non-completed work orders oldest first, the
// FIFO order the scheduler walks.
func (s *Store) ListOpenWorkOrders(ctx context.Context) ([]*workorder.WorkOrder, error) {
	return listWorkOrders(ctx, s.db,
		`SELECT `+workOrderColumns+` FROM work_orders WHERE status != ? ORDER BY created_at, id`,
		workorder.OrderCompleted)
}

func listWorkOrders(ctx context.Context, q querier, query string, args ...any) ([]*workorder.WorkOrder, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list work orders: %w", err)
	}
	defer rows.Close()

	var orders []*workorder.WorkOrder
	for rows.Next() {
		order, err := scanWorkOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

// UpdateWorkOrderStatus persists a new aggregate status.
func (s *Store) UpdateWorkOrderStatus(ctx context.Context, id int64, status workorder.OrderStatus) error {
	return updateWorkOrderStatus(ctx, s.db, id, status)
}

// UpdateWorkOrderStatus persists a new aggregate status inside the transaction.
func (t *Tx) UpdateWorkOrderStatus(ctx context.Context, id int64, status workorder.OrderStatus) error {
	return updateWorkOrderStatus(ctx, t.tx, id, status)
}

func updateWorkOrderStatus(ctx context.Context, q querier, id int64, status workorder.OrderStatus) error {
	_, err := q.ExecContext(
		ctx,
		`UPDATE work_orders SET status = ?, updated_at = ? WHERE id = ?`,
		status,
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return fmt.Errorf("update work order status: %w", err)
	}
	return nil
}

// UpdateWorkOrderDeadline writes the job deadline, or clears it when nil.
func (s *Store) UpdateWorkOrderDeadline(ctx context.Context, id int64, deadline *time.Time) error {
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE work_orders SET job_deadline = ?, updated_at = ? WHERE id = ?`,
		nullableTime(deadline),
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return fmt.Errorf("update work order deadline: %w", err)
	}
	return nil
}

func scanWorkOrder(scanner interface{ Scan(dest ...any) error }) (*workorder.WorkOrder, error) {
	var (
		id          int64
		reference   string
		customer    string
		description sql.NullString
		statusStr   string
		quoteID     sql.NullInt64
		deadlineRaw sql.NullString
		createdRaw  sql.NullString
		updatedRaw  sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&reference,
		&customer,
		&description,
		&statusStr,
		&quoteID,
		&deadlineRaw,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	order := &workorder.WorkOrder{
		ID:          id,
		Reference:   reference,
		Customer:    customer,
		Description: description.String,
		Status:      workorder.OrderStatus(statusStr),
		JobDeadline: timePtr(deadlineRaw),
	}
	if quoteID.Valid {
		v := quoteID.Int64
		order.QuoteID = &v
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		order.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		order.UpdatedAt = updated
	}
	return order, nil
}
