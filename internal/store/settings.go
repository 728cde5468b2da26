package store

import (
	"context"
	"fmt"
	"time"
)

// SettingRow is one scheduler parameter persisted in the settings table.
type SettingRow struct {
	Key       string
	Label     string
	Unit      string
	Value     float64
	UpdatedAt time.Time
}

// GetSettings returns the values for the requested keys. Missing keys are
// simply absent from the result.
func (s *Store) GetSettings(ctx context.Context, keys []string) (map[string]float64, error) {
	if len(keys) == 0 {
		return map[string]float64{}, nil
	}
	args := make([]any, len(keys))
	for i, key := range keys {
		args[i] = key
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT key, value FROM settings WHERE key IN (`+makePlaceholders(len(keys))+`)`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}
	defer rows.Close()

	values := make(map[string]float64, len(keys))
	for rows.Next() {
		var key string
		var value float64
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		values[key] = value
	}
	return values, rows.Err()
}

// SeedMissingSettings inserts any of the given rows whose key is not yet
// present. Existing values are never touched.
func (s *Store) SeedMissingSettings(ctx context.Context, defaults []SettingRow) error {
	if len(defaults) == 0 {
		return nil
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	return s.WithTx(ctx, func(tx *Tx) error {
		for _, row := range defaults {
			if _, err := tx.tx.ExecContext(
				ctx,
				`INSERT INTO settings (key, label, unit, value, updated_at)
                 VALUES (?, ?, ?, ?, ?)
                 ON CONFLICT(key) DO NOTHING`,
				row.Key,
				row.Label,
				nullableString(row.Unit),
				row.Value,
				now,
			); err != nil {
				return fmt.Errorf("seed setting %s: %w", row.Key, err)
			}
		}
		return nil
	})
}

// SetSetting updates an existing setting value.
func (s *Store) SetSetting(ctx context.Context, key string, value float64) error {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE settings SET value = ?, updated_at = ? WHERE key = ?`,
		value,
		time.Now().UTC().Format(time.RFC3339Nano),
		key,
	)
	if err != nil {
		return fmt.Errorf("set setting %s: %w", key, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("unknown setting %q", key)
	}
	return nil
}

// ListSettings returns all settings ordered by key.
func (s *Store) ListSettings(ctx context.Context) ([]SettingRow, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, label, unit, value, updated_at FROM settings ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	var settings []SettingRow
	for rows.Next() {
		var row SettingRow
		var unit, updatedRaw *string
		if err := rows.Scan(&row.Key, &row.Label, &unit, &row.Value, &updatedRaw); err != nil {
			return nil, err
		}
		if unit != nil {
			row.Unit = *unit
		}
		if updatedRaw != nil {
			if updated, err := parseTimeString(*updatedRaw); err == nil {
				row.UpdatedAt = updated
			}
		}
		settings = append(settings, row)
	}
	return settings, rows.Err()
}
