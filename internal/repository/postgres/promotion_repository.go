package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/storelab/replenish/internal/domain"
)

type promotionRepository struct {
	db *DB
}

func NewPromotionRepository(db *DB) *promotionRepository {
	return &promotionRepository{db: db}
}

func (r *promotionRepository) Upsert(ctx context.Context, promos []domain.Promotion) error {
	if len(promos) == 0 {
		return nil
	}

	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO promotions (
				item_id, promo_type, buy_qty, get_qty, starts_on, ends_on
			) VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (item_id, starts_on)
			DO UPDATE SET
				promo_type = EXCLUDED.promo_type,
				buy_qty = EXCLUDED.buy_qty,
				get_qty = EXCLUDED.get_qty,
				ends_on = EXCLUDED.ends_on
		`

		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, promo := range promos {
			_, err := stmt.ExecContext(
				ctx,
				promo.ItemID,
				promo.PromoType,
				promo.BuyQty,
				promo.GetQty,
				promo.StartsOn,
				promo.EndsOn,
			)
			if err != nil {
				return fmt.Errorf("failed to upsert promotion for %s: %w", promo.ItemID, err)
			}
		}

		return nil
	})
}

func (r *promotionRepository) ActiveOn(ctx context.Context, date time.Time) ([]domain.Promotion, error) {
	query := `
		SELECT item_id, promo_type, buy_qty, get_qty, starts_on, ends_on
		FROM promotions
		WHERE starts_on <= $1 AND ends_on >= $1
		ORDER BY item_id
	`

	var promos []domain.Promotion
	if err := sqlx.SelectContext(ctx, r.db, &promos, query, date); err != nil {
		return nil, fmt.Errorf("failed to load active promotions: %w", err)
	}
	return promos, nil
}

func (r *promotionRepository) Overlapping(ctx context.Context, from, to time.Time) ([]domain.Promotion, error) {
	query := `
		SELECT item_id, promo_type, buy_qty, get_qty, starts_on, ends_on
		FROM promotions
		WHERE starts_on <= $2 AND ends_on >= $1
		ORDER BY item_id, starts_on
	`

	var promos []domain.Promotion
	if err := sqlx.SelectContext(ctx, r.db, &promos, query, from, to); err != nil {
		return nil, fmt.Errorf("failed to load promotion windows: %w", err)
	}
	return promos, nil
}
