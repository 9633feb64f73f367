package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/storelab/replenish/internal/domain"
)

type outcomeRepository struct {
	db *DB
}

func NewOutcomeRepository(db *DB) *outcomeRepository {
	return &outcomeRepository{db: db}
}

func (r *outcomeRepository) Save(ctx context.Context, outcomes []domain.EvalOutcome) error {
	if len(outcomes) == 0 {
		return nil
	}

	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		// Outcomes are append-only; a re-run of the same evaluation day
		// must not rewrite history.
		query := `
			INSERT INTO eval_outcomes (
				date, item_id, decision, predicted_qty, actual_sold_qty,
				was_stockout, outcome_class
			) VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (date, item_id) DO NOTHING
		`

		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, o := range outcomes {
			_, err := stmt.ExecContext(
				ctx,
				o.Date,
				o.ItemID,
				o.Decision,
				o.PredictedQty,
				o.ActualSoldQty,
				o.WasStockout,
				o.OutcomeClass,
			)
			if err != nil {
				return fmt.Errorf("failed to save outcome for %s: %w", o.ItemID, err)
			}
		}

		return nil
	})
}

func (r *outcomeRepository) ByDate(ctx context.Context, date time.Time) ([]domain.EvalOutcome, error) {
	query := `
		SELECT date, item_id, decision, predicted_qty, actual_sold_qty,
		       was_stockout, outcome_class
		FROM eval_outcomes
		WHERE date = $1
		ORDER BY item_id
	`

	var outcomes []domain.EvalOutcome
	if err := sqlx.SelectContext(ctx, r.db, &outcomes, query, date); err != nil {
		return nil, fmt.Errorf("failed to load outcomes for %s: %w", date.Format("2006-01-02"), err)
	}
	return outcomes, nil
}

func (r *outcomeRepository) CountsByClass(ctx context.Context, from, to time.Time) ([]domain.OutcomeCount, error) {
	query := `
		SELECT outcome_class, COUNT(*) AS count
		FROM eval_outcomes
		WHERE date >= $1 AND date <= $2
		GROUP BY outcome_class
		ORDER BY outcome_class
	`

	var counts []domain.OutcomeCount
	if err := sqlx.SelectContext(ctx, r.db, &counts, query, from, to); err != nil {
		return nil, fmt.Errorf("failed to load outcome counts: %w", err)
	}
	return counts, nil
}
