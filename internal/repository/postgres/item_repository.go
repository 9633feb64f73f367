package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/storelab/replenish/internal/domain"
)

type itemRepository struct {
	db *DB
}

func NewItemRepository(db *DB) *itemRepository {
	return &itemRepository{db: db}
}

func (r *itemRepository) Upsert(ctx context.Context, items []domain.Item) error {
	if len(items) == 0 {
		return nil
	}

	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO items (
				item_id, name, category_code, shelf_life_days, order_unit,
				max_multiplier, margin_rate, status, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
			ON CONFLICT (item_id)
			DO UPDATE SET
				name = EXCLUDED.name,
				category_code = EXCLUDED.category_code,
				shelf_life_days = EXCLUDED.shelf_life_days,
				order_unit = EXCLUDED.order_unit,
				max_multiplier = EXCLUDED.max_multiplier,
				margin_rate = EXCLUDED.margin_rate,
				status = EXCLUDED.status,
				updated_at = NOW()
		`

		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, item := range items {
			_, err := stmt.ExecContext(
				ctx,
				item.ItemID,
				item.Name,
				item.CategoryCode,
				item.ShelfLifeDays,
				item.OrderUnit,
				item.MaxMultiplier,
				item.MarginRate,
				item.Status,
			)
			if err != nil {
				return fmt.Errorf("failed to upsert item %s: %w", item.ItemID, err)
			}
		}

		return nil
	})
}

func (r *itemRepository) List(ctx context.Context) ([]domain.Item, error) {
	query := `
		SELECT item_id, name, category_code, shelf_life_days, order_unit,
		       max_multiplier, margin_rate, status
		FROM items
		ORDER BY item_id
	`

	var items []domain.Item
	if err := sqlx.SelectContext(ctx, r.db, &items, query); err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	return items, nil
}

func (r *itemRepository) Get(ctx context.Context, itemID string) (*domain.Item, error) {
	query := `
		SELECT item_id, name, category_code, shelf_life_days, order_unit,
		       max_multiplier, margin_rate, status
		FROM items
		WHERE item_id = $1
	`

	var item domain.Item
	if err := sqlx.GetContext(ctx, r.db, &item, query, itemID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get item %s: %w", itemID, err)
	}
	return &item, nil
}
