package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/storelab/replenish/internal/domain"
)

type salesRepository struct {
	db *DB
}

func NewSalesRepository(db *DB) *salesRepository {
	return &salesRepository{db: db}
}

func (r *salesRepository) UpsertRecords(ctx context.Context, records []domain.SalesRecord) error {
	if len(records) == 0 {
		return nil
	}

	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO sales_records (
				date, item_id, sale_qty, order_qty, receive_qty, disuse_qty, stock_qty
			) VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (date, item_id)
			DO UPDATE SET
				sale_qty = EXCLUDED.sale_qty,
				order_qty = EXCLUDED.order_qty,
				receive_qty = EXCLUDED.receive_qty,
				disuse_qty = EXCLUDED.disuse_qty,
				stock_qty = EXCLUDED.stock_qty
		`

		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, rec := range records {
			_, err := stmt.ExecContext(
				ctx,
				rec.Date,
				rec.ItemID,
				rec.SaleQty,
				rec.OrderQty,
				rec.ReceiveQty,
				rec.DisuseQty,
				rec.StockQty,
			)
			if err != nil {
				return fmt.Errorf("failed to insert sales record for %s: %w", rec.ItemID, err)
			}
		}

		return nil
	})
}

func (r *salesRepository) HistorySince(ctx context.Context, from time.Time) (map[string][]domain.SalesRecord, error) {
	query := `
		SELECT date, item_id, sale_qty, order_qty, receive_qty, disuse_qty, stock_qty
		FROM sales_records
		WHERE date >= $1
		ORDER BY item_id, date
	`

	var rows []domain.SalesRecord
	if err := sqlx.SelectContext(ctx, r.db, &rows, query, from); err != nil {
		return nil, fmt.Errorf("failed to load sales history: %w", err)
	}

	history := make(map[string][]domain.SalesRecord)
	for _, rec := range rows {
		history[rec.ItemID] = append(history[rec.ItemID], rec)
	}
	return history, nil
}

func (r *salesRepository) ItemHistory(ctx context.Context, itemID string, from time.Time) ([]domain.SalesRecord, error) {
	query := `
		SELECT date, item_id, sale_qty, order_qty, receive_qty, disuse_qty, stock_qty
		FROM sales_records
		WHERE item_id = $1 AND date >= $2
		ORDER BY date
	`

	var rows []domain.SalesRecord
	if err := sqlx.SelectContext(ctx, r.db, &rows, query, itemID, from); err != nil {
		return nil, fmt.Errorf("failed to load history for item %s: %w", itemID, err)
	}
	return rows, nil
}

func (r *salesRepository) LatestStocks(ctx context.Context) (map[string]domain.InventorySnapshot, error) {
	query := `
		SELECT DISTINCT ON (item_id)
			item_id, stock_qty, date
		FROM sales_records
		ORDER BY item_id, date DESC
	`

	var rows []struct {
		ItemID   string    `db:"item_id"`
		StockQty int       `db:"stock_qty"`
		Date     time.Time `db:"date"`
	}
	if err := sqlx.SelectContext(ctx, r.db, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to load latest stocks: %w", err)
	}

	snapshots := make(map[string]domain.InventorySnapshot, len(rows))
	for _, row := range rows {
		snapshots[row.ItemID] = domain.InventorySnapshot{
			ItemID:      row.ItemID,
			StockQty:    row.StockQty,
			Source:      domain.SourceLive,
			CollectedAt: row.Date,
		}
	}
	return snapshots, nil
}

func (r *salesRepository) DailyOrderedCounts(ctx context.Context, categoryCodes []string, from time.Time) ([]domain.DailyOrderCount, error) {
	query := `
		SELECT s.date, COUNT(DISTINCT s.item_id) AS count
		FROM sales_records s
		JOIN items i ON i.item_id = s.item_id
		WHERE s.order_qty > 0
		  AND s.date >= $1
		  AND i.category_code = ANY($2)
		GROUP BY s.date
		ORDER BY s.date
	`

	var counts []domain.DailyOrderCount
	if err := sqlx.SelectContext(ctx, r.db, &counts, query, from, pq.Array(categoryCodes)); err != nil {
		return nil, fmt.Errorf("failed to load daily ordered counts: %w", err)
	}
	return counts, nil
}

func (r *salesRepository) CategoryDisuseRates(ctx context.Context, from time.Time) (map[string]float64, error) {
	query := `
		SELECT i.category_code,
		       COALESCE(SUM(s.disuse_qty)::float / NULLIF(SUM(s.receive_qty), 0), 0) AS rate
		FROM sales_records s
		JOIN items i ON i.item_id = s.item_id
		WHERE s.date >= $1
		GROUP BY i.category_code
	`

	var rows []struct {
		CategoryCode string  `db:"category_code"`
		Rate         float64 `db:"rate"`
	}
	if err := sqlx.SelectContext(ctx, r.db, &rows, query, from); err != nil {
		return nil, fmt.Errorf("failed to load category disuse rates: %w", err)
	}

	rates := make(map[string]float64, len(rows))
	for _, row := range rows {
		rate := row.Rate
		if rate > 1 {
			rate = 1
		}
		rates[row.CategoryCode] = rate
	}
	return rates, nil
}
