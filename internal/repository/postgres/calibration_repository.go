package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/storelab/replenish/internal/domain"
)

type calibrationRepository struct {
	db *DB
}

func NewCalibrationRepository(db *DB) *calibrationRepository {
	return &calibrationRepository{db: db}
}

func (r *calibrationRepository) Seed(ctx context.Context, params []domain.CalibrationParameter) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO calibration_parameters (
				name, current_value, min_value, max_value, last_reason, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (name) DO NOTHING
		`

		for _, p := range params {
			if _, err := tx.ExecContext(ctx, query,
				p.Name, p.CurrentValue, p.MinValue, p.MaxValue, p.LastReason, p.UpdatedAt,
			); err != nil {
				return fmt.Errorf("failed to seed parameter %s: %w", p.Name, err)
			}
		}
		return nil
	})
}

func (r *calibrationRepository) Parameters(ctx context.Context) ([]domain.CalibrationParameter, error) {
	query := `
		SELECT name, current_value, min_value, max_value, last_reason, updated_at
		FROM calibration_parameters
		ORDER BY name
	`

	var params []domain.CalibrationParameter
	if err := sqlx.SelectContext(ctx, r.db, &params, query); err != nil {
		return nil, fmt.Errorf("failed to load calibration parameters: %w", err)
	}
	return params, nil
}

func (r *calibrationRepository) SaveParameters(ctx context.Context, params []domain.CalibrationParameter) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		query := `
			UPDATE calibration_parameters
			SET current_value = $2, last_reason = $3, updated_at = $4
			WHERE name = $1
		`

		for _, p := range params {
			if _, err := tx.ExecContext(ctx, query,
				p.Name, p.CurrentValue, p.LastReason, p.UpdatedAt,
			); err != nil {
				return fmt.Errorf("failed to save parameter %s: %w", p.Name, err)
			}
		}
		return nil
	})
}

func (r *calibrationRepository) AppendAdjustments(ctx context.Context, adjustments []domain.CalibrationAdjustment) error {
	if len(adjustments) == 0 {
		return nil
	}

	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO calibration_history (
				parameter, old_value, new_value, reason, accuracy_before, adjusted_at
			) VALUES ($1, $2, $3, $4, $5, $6)
		`

		for _, a := range adjustments {
			if _, err := tx.ExecContext(ctx, query,
				a.Parameter, a.OldValue, a.NewValue, a.Reason, a.AccuracyBefore, a.AdjustedAt,
			); err != nil {
				return fmt.Errorf("failed to append adjustment for %s: %w", a.Parameter, err)
			}
		}
		return nil
	})
}

func (r *calibrationRepository) History(ctx context.Context, parameter string, limit int) ([]domain.CalibrationAdjustment, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT parameter, old_value, new_value, reason, accuracy_before, adjusted_at
		FROM calibration_history
		WHERE parameter = $1
		ORDER BY adjusted_at DESC
		LIMIT $2
	`

	var history []domain.CalibrationAdjustment
	if err := sqlx.SelectContext(ctx, r.db, &history, query, parameter, limit); err != nil {
		return nil, fmt.Errorf("failed to load calibration history for %s: %w", parameter, err)
	}
	return history, nil
}
