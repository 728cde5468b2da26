package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fabworks/internal/workorder"
)

// CreateQuote inserts a quote with its line items and returns the quote id.
func (s *Store) CreateQuote(ctx context.Context, customer string, items []*workorder.QuoteItem) (int64, error) {
	if len(items) == 0 {
		return 0, errors.New("quote needs at least one line item")
	}
	for _, item := range items {
		if item == nil {
			return 0, errors.New("quote item is nil")
		}
		if _, ok := workorder.ParseStepKind(string(item.Kind)); !ok {
			return 0, fmt.Errorf("unknown quote item kind %q", item.Kind)
		}
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	var id int64
	err := s.WithTx(ctx, func(tx *Tx) error {
		res, err := tx.tx.ExecContext(
			ctx,
			`INSERT INTO quotes (customer, created_at) VALUES (?, ?)`,
			nullableString(customer),
			now,
		)
		if err != nil {
			return fmt.Errorf("insert quote: %w", err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}

		for _, item := range items {
			if _, err := tx.tx.ExecContext(
				ctx,
				`INSERT INTO quote_items (quote_id, kind, labor_hours, print_hours, support_removal_hours, setup_hours, admin_hours)
                 VALUES (?, ?, ?, ?, ?, ?, ?)`,
				id,
				item.Kind,
				item.LaborHours,
				item.PrintHours,
				item.SupportRemovalHours,
				item.SetupHours,
				item.AdminHours,
			); err != nil {
				return fmt.Errorf("insert %s quote item: %w", item.Kind, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// ListQuoteItems returns the line items of the given quotes.
func (s *Store) ListQuoteItems(ctx context.Context, quoteIDs []int64) ([]*workorder.QuoteItem, error) {
	if len(quoteIDs) == 0 {
		return nil, nil
	}
	args := make([]any, len(quoteIDs))
	for i, id := range quoteIDs {
		args[i] = id
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, quote_id, kind, labor_hours, print_hours, support_removal_hours, setup_hours, admin_hours
         FROM quote_items WHERE quote_id IN (`+makePlaceholders(len(quoteIDs))+`) ORDER BY quote_id, id`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("list quote items: %w", err)
	}
	defer rows.Close()

	var items []*workorder.QuoteItem
	for rows.Next() {
		item := &workorder.QuoteItem{}
		var kindStr string
		if err := rows.Scan(
			&item.ID,
			&item.QuoteID,
			&kindStr,
			&item.LaborHours,
			&item.PrintHours,
			&item.SupportRemovalHours,
			&item.SetupHours,
			&item.AdminHours,
		); err != nil {
			return nil, err
		}
		item.Kind = workorder.StepKind(kindStr)
		items = append(items, item)
	}
	return items, rows.Err()
}
