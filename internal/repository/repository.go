package repository

import (
	"context"
	"time"

	"github.com/storelab/replenish/internal/domain"
)

// SalesRepository owns the append-only daily sales ledger.
type SalesRepository interface {
	UpsertRecords(ctx context.Context, records []domain.SalesRecord) error

	// HistorySince returns every item's records from the given date on,
	// keyed by item id, each slice sorted by date ascending.
	HistorySince(ctx context.Context, from time.Time) (map[string][]domain.SalesRecord, error)

	ItemHistory(ctx context.Context, itemID string, from time.Time) ([]domain.SalesRecord, error)

	// LatestStocks returns the most recent stock figure per item together
	// with the date it was recorded on.
	LatestStocks(ctx context.Context) (map[string]domain.InventorySnapshot, error)

	// DailyOrderedCounts counts distinct items with a positive order per
	// day within the given category codes.
	DailyOrderedCounts(ctx context.Context, categoryCodes []string, from time.Time) ([]domain.DailyOrderCount, error)

	// CategoryDisuseRates returns disused/received per category code over
	// the window starting at from.
	CategoryDisuseRates(ctx context.Context, from time.Time) (map[string]float64, error)
}

type ItemRepository interface {
	Upsert(ctx context.Context, items []domain.Item) error
	List(ctx context.Context) ([]domain.Item, error)
	Get(ctx context.Context, itemID string) (*domain.Item, error)
}

type PromotionRepository interface {
	Upsert(ctx context.Context, promos []domain.Promotion) error
	ActiveOn(ctx context.Context, date time.Time) ([]domain.Promotion, error)
	Overlapping(ctx context.Context, from, to time.Time) ([]domain.Promotion, error)
}

type PredictionRepository interface {
	// Save persists one prediction log in its own transaction.
	Save(ctx context.Context, result domain.PredictionResult) error
	ByRunDate(ctx context.Context, runDate time.Time) ([]domain.PredictionResult, error)
	LatestRunDate(ctx context.Context) (time.Time, error)
	DecisionCounts(ctx context.Context, runDate time.Time) ([]domain.DecisionCount, error)
}

type OutcomeRepository interface {
	Save(ctx context.Context, outcomes []domain.EvalOutcome) error
	ByDate(ctx context.Context, date time.Time) ([]domain.EvalOutcome, error)
	CountsByClass(ctx context.Context, from, to time.Time) ([]domain.OutcomeCount, error)
}

type CalibrationRepository interface {
	// Seed inserts the given parameters, leaving existing rows untouched.
	Seed(ctx context.Context, params []domain.CalibrationParameter) error
	Parameters(ctx context.Context) ([]domain.CalibrationParameter, error)
	SaveParameters(ctx context.Context, params []domain.CalibrationParameter) error
	AppendAdjustments(ctx context.Context, adjustments []domain.CalibrationAdjustment) error
	History(ctx context.Context, parameter string, limit int) ([]domain.CalibrationAdjustment, error)
}
