package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/storelab/replenish/internal/domain"
)

type predictionRepository struct {
	db *DB
}

func NewPredictionRepository(db *DB) *predictionRepository {
	return &predictionRepository{db: db}
}

// Save writes a single prediction log in its own transaction so that one
// bad row cannot take the rest of the run's logs down with it.
func (r *predictionRepository) Save(ctx context.Context, res domain.PredictionResult) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO prediction_logs (
				run_date, item_id, baseline_qty, adjusted_qty, safety_stock,
				final_order_qty, decision, confidence_tier, stock_qty,
				pending_qty, stock_source, pending_source, is_stock_stale
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			ON CONFLICT (run_date, item_id)
			DO UPDATE SET
				baseline_qty = EXCLUDED.baseline_qty,
				adjusted_qty = EXCLUDED.adjusted_qty,
				safety_stock = EXCLUDED.safety_stock,
				final_order_qty = EXCLUDED.final_order_qty,
				decision = EXCLUDED.decision,
				confidence_tier = EXCLUDED.confidence_tier,
				stock_qty = EXCLUDED.stock_qty,
				pending_qty = EXCLUDED.pending_qty,
				stock_source = EXCLUDED.stock_source,
				pending_source = EXCLUDED.pending_source,
				is_stock_stale = EXCLUDED.is_stock_stale
		`

		_, err := tx.ExecContext(
			ctx,
			query,
			res.RunDate,
			res.ItemID,
			res.BaselineQty,
			res.AdjustedQty,
			res.SafetyStock,
			res.FinalOrderQty,
			res.Decision,
			res.ConfidenceTier,
			res.StockQty,
			res.PendingQty,
			res.StockSource,
			res.PendingSource,
			res.IsStockStale,
		)
		if err != nil {
			return fmt.Errorf("failed to save prediction for %s: %w", res.ItemID, err)
		}
		return nil
	})
}

func (r *predictionRepository) ByRunDate(ctx context.Context, runDate time.Time) ([]domain.PredictionResult, error) {
	query := `
		SELECT run_date, item_id, baseline_qty, adjusted_qty, safety_stock,
		       final_order_qty, decision, confidence_tier, stock_qty,
		       pending_qty, stock_source, pending_source, is_stock_stale
		FROM prediction_logs
		WHERE run_date = $1
		ORDER BY item_id
	`

	var results []domain.PredictionResult
	if err := sqlx.SelectContext(ctx, r.db, &results, query, runDate); err != nil {
		return nil, fmt.Errorf("failed to load predictions for %s: %w", runDate.Format("2006-01-02"), err)
	}
	return results, nil
}

func (r *predictionRepository) LatestRunDate(ctx context.Context) (time.Time, error) {
	var latest sql.NullTime
	err := sqlx.GetContext(ctx, r.db, &latest, `SELECT MAX(run_date) FROM prediction_logs`)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("failed to find latest run date: %w", err)
	}
	if !latest.Valid {
		return time.Time{}, nil
	}
	return latest.Time, nil
}

func (r *predictionRepository) DecisionCounts(ctx context.Context, runDate time.Time) ([]domain.DecisionCount, error) {
	query := `
		SELECT i.category_code, p.decision, COUNT(*) AS count
		FROM prediction_logs p
		JOIN items i ON i.item_id = p.item_id
		WHERE p.run_date = $1
		GROUP BY i.category_code, p.decision
		ORDER BY i.category_code, p.decision
	`

	var counts []domain.DecisionCount
	if err := sqlx.SelectContext(ctx, r.db, &counts, query, runDate); err != nil {
		return nil, fmt.Errorf("failed to load decision counts: %w", err)
	}
	return counts, nil
}
