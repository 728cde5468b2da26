package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fabworks/internal/workorder"
)

// UpsertStepActuals writes the given per-step actual records in one batch.
// Each payload is validated against its declared step kind at this boundary;
// a single invalid record rejects the whole batch before any write.
func (s *Store) UpsertStepActuals(ctx context.Context, actuals []*workorder.StepActual) error {
	if len(actuals) == 0 {
		return nil
	}
	for _, actual := range actuals {
		if actual == nil {
			return errors.New("step actual is nil")
		}
		if err := actual.Payload.Validate(); err != nil {
			return fmt.Errorf("step %d: %w", actual.StepID, err)
		}
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	return s.WithTx(ctx, func(tx *Tx) error {
		for _, actual := range actuals {
			payload, err := json.Marshal(actual.Payload)
			if err != nil {
				return fmt.Errorf("marshal payload for step %d: %w", actual.StepID, err)
			}
			var hours any
			if actual.ActualHours != nil {
				hours = *actual.ActualHours
			}
			if _, err := tx.tx.ExecContext(
				ctx,
				`INSERT INTO step_actuals (step_id, actual_hours, payload_json, updated_at)
                 VALUES (?, ?, ?, ?)
                 ON CONFLICT(step_id) DO UPDATE SET
                     actual_hours = excluded.actual_hours,
                     payload_json = excluded.payload_json,
                     updated_at = excluded.updated_at`,
				actual.StepID,
				hours,
				string(payload),
				now,
			); err != nil {
				return fmt.Errorf("upsert actual for step %d: %w", actual.StepID, err)
			}
		}
		return nil
	})
}

// UpsertLeadTime merges a scheduler placement into a step's actual record,
// preserving any recorded work actuals already present.
func (s *Store) UpsertLeadTime(ctx context.Context, stepID int64, kind workorder.StepKind, record workorder.LeadTimeRecord) error {
	existing, err := s.GetStepActual(ctx, stepID)
	if err != nil {
		return err
	}
	actual := &workorder.StepActual{StepID: stepID, Payload: workorder.ActualPayload{Kind: kind}}
	if existing != nil {
		actual = existing
	}
	actual.Payload.Kind = kind
	actual.Payload.LeadTime = &record
	return s.UpsertStepActuals(ctx, []*workorder.StepActual{actual})
}

// GetStepActual fetches the actual record for a step. Missing rows return nil.
func (s *Store) GetStepActual(ctx context.Context, stepID int64) (*workorder.StepActual, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT step_id, actual_hours, payload_json, updated_at FROM step_actuals WHERE step_id = ?`,
		stepID,
	)

	var (
		id         int64
		hours      sql.NullFloat64
		payloadRaw string
		updatedRaw sql.NullString
	)
	err := row.Scan(&id, &hours, &payloadRaw, &updatedRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get step actual: %w", err)
	}

	actual := &workorder.StepActual{StepID: id}
	if hours.Valid {
		v := hours.Float64
		actual.ActualHours = &v
	}
	if err := json.Unmarshal([]byte(payloadRaw), &actual.Payload); err != nil {
		return nil, fmt.Errorf("decode payload for step %d: %w", id, err)
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		actual.UpdatedAt = updated
	}
	return actual, nil
}
