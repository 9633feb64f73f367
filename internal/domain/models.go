package domain

import "time"

// SalesRecord is one day's sales/stock/order/receipt snapshot for one item,
// appended daily by the collector and immutable once written.
type SalesRecord struct {
	Date       time.Time `json:"date" db:"date"`
	ItemID     string    `json:"item_id" db:"item_id"`
	SaleQty    int       `json:"sale_qty" db:"sale_qty"`
	OrderQty   int       `json:"order_qty" db:"order_qty"`
	ReceiveQty int       `json:"receive_qty" db:"receive_qty"`
	DisuseQty  int       `json:"disuse_qty" db:"disuse_qty"`
	StockQty   int       `json:"stock_qty" db:"stock_qty"`
}

// ItemStatus carries the lifecycle state the collector reports for a product.
type ItemStatus string

const (
	ItemActive       ItemStatus = "active"
	ItemDiscontinued ItemStatus = "discontinued"
	ItemOnHold       ItemStatus = "on_hold"
	ItemExcluded     ItemStatus = "excluded"
)

// Item is the product metadata the engine needs to size an order.
type Item struct {
	ItemID        string     `json:"item_id" db:"item_id"`
	Name          string     `json:"name" db:"name"`
	CategoryCode  string     `json:"category_code" db:"category_code"`
	ShelfLifeDays int        `json:"shelf_life_days" db:"shelf_life_days"`
	OrderUnit     int        `json:"order_unit" db:"order_unit"`
	MaxMultiplier int        `json:"max_multiplier" db:"max_multiplier"`
	MarginRate    float64    `json:"margin_rate" db:"margin_rate"`
	Status        ItemStatus `json:"status" db:"status"`
}

// Promotion describes an active buy-N-get-M promotion window for an item.
type Promotion struct {
	ItemID    string    `json:"item_id" db:"item_id"`
	PromoType string    `json:"promo_type" db:"promo_type"`
	BuyQty    int       `json:"buy_qty" db:"buy_qty"`
	GetQty    int       `json:"get_qty" db:"get_qty"`
	StartsOn  time.Time `json:"starts_on" db:"starts_on"`
	EndsOn    time.Time `json:"ends_on" db:"ends_on"`
}

// PurchaseMultiple is the unit count a customer must buy for the promotion to
// apply; buy-1-get-1 implies 2, buy-2-get-1 implies 3.
func (p Promotion) PurchaseMultiple() int {
	return p.BuyQty + p.GetQty
}

// ActiveOn reports whether the promotion window covers the given date.
func (p Promotion) ActiveOn(date time.Time) bool {
	return !date.Before(p.StartsOn) && !date.After(p.EndsOn)
}

// SnapshotSource records where an inventory figure came from.
type SnapshotSource string

const (
	SourceCache    SnapshotSource = "cache"
	SourceLive     SnapshotSource = "live"
	SourceFallback SnapshotSource = "fallback"
)

// InventorySnapshot is a point-in-time view of stock and pending quantity.
// One is taken at prediction time and another at order-execution time; the
// delta between the two drives discrepancy diagnosis.
type InventorySnapshot struct {
	ItemID      string         `json:"item_id"`
	StockQty    int            `json:"stock_qty"`
	PendingQty  int            `json:"pending_qty"`
	Source      SnapshotSource `json:"source"`
	IsStale     bool           `json:"is_stale"`
	CollectedAt time.Time      `json:"collected_at"`
}

// ConfidenceTier labels how much history backed a forecast.
type ConfidenceTier string

const (
	TierHigh   ConfidenceTier = "high"
	TierMedium ConfidenceTier = "medium"
	TierLow    ConfidenceTier = "low"
)

// PredictionResult is the forecast and reconciliation output for one item on
// one run. Persisted once per item per run.
type PredictionResult struct {
	RunDate        time.Time      `json:"run_date" db:"run_date"`
	ItemID         string         `json:"item_id" db:"item_id"`
	BaselineQty    float64        `json:"baseline_qty" db:"baseline_qty"`
	AdjustedQty    float64        `json:"adjusted_qty" db:"adjusted_qty"`
	SafetyStock    float64        `json:"safety_stock" db:"safety_stock"`
	FinalOrderQty  int            `json:"final_order_qty" db:"final_order_qty"`
	Decision       Decision       `json:"decision" db:"decision"`
	ConfidenceTier ConfidenceTier `json:"confidence_tier" db:"confidence_tier"`
	StockQty       int            `json:"stock_qty" db:"stock_qty"`
	PendingQty     int            `json:"pending_qty" db:"pending_qty"`
	StockSource    SnapshotSource `json:"stock_source" db:"stock_source"`
	PendingSource  SnapshotSource `json:"pending_source" db:"pending_source"`
	IsStockStale   bool           `json:"is_stock_stale" db:"is_stock_stale"`
}

// OrderLine is one entry of the order list handed to the external executor.
type OrderLine struct {
	ItemID   string   `json:"item_id"`
	Quantity int      `json:"quantity"`
	Decision Decision `json:"decision"`
}

// EvalOutcome compares one decision to reality the day after the order date.
// Rows are append-only, unique on (date, item_id).
type EvalOutcome struct {
	Date          time.Time    `json:"date" db:"date"`
	ItemID        string       `json:"item_id" db:"item_id"`
	Decision      Decision     `json:"decision" db:"decision"`
	PredictedQty  int          `json:"predicted_qty" db:"predicted_qty"`
	ActualSoldQty int          `json:"actual_sold_qty" db:"actual_sold_qty"`
	WasStockout   bool         `json:"was_stockout" db:"was_stockout"`
	OutcomeClass  OutcomeClass `json:"outcome_class" db:"outcome_class"`
}

// CalibrationParameter is a tunable coefficient with safe bounds. Only the
// calibrator mutates it, and every mutation appends a history row.
type CalibrationParameter struct {
	Name         string    `json:"name" db:"name"`
	CurrentValue float64   `json:"current_value" db:"current_value"`
	MinValue     float64   `json:"min_value" db:"min_value"`
	MaxValue     float64   `json:"max_value" db:"max_value"`
	LastReason   string    `json:"last_reason" db:"last_reason"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// CalibrationAdjustment is one appended history row for a parameter mutation.
type CalibrationAdjustment struct {
	Parameter      string    `json:"parameter" db:"parameter"`
	OldValue       float64   `json:"old_value" db:"old_value"`
	NewValue       float64   `json:"new_value" db:"new_value"`
	Reason         string    `json:"reason" db:"reason"`
	AccuracyBefore float64   `json:"accuracy_before" db:"accuracy_before"`
	AdjustedAt     time.Time `json:"adjusted_at" db:"adjusted_at"`
}

// RunSummary aggregates one forecast batch for reporting. DataErrors counts
// items skipped because of bad input, distinct from legitimate SKIP decisions.
type RunSummary struct {
	RunDate      time.Time        `json:"run_date"`
	TotalItems   int              `json:"total_items"`
	OrderedItems int              `json:"ordered_items"`
	OrderedUnits int              `json:"ordered_units"`
	DataErrors   int              `json:"data_errors"`
	ByDecision   map[Decision]int `json:"by_decision"`
	StartedAt    time.Time        `json:"started_at"`
	FinishedAt   time.Time        `json:"finished_at"`
}

// DecisionCount is a reporting aggregate keyed by category and decision class.
type DecisionCount struct {
	CategoryCode string   `json:"category_code" db:"category_code"`
	Decision     Decision `json:"decision" db:"decision"`
	Count        int      `json:"count" db:"count"`
}

// DailyOrderCount is the number of distinct items ordered on one day within
// a category group; the series feeds the daily item cap.
type DailyOrderCount struct {
	Date  time.Time `json:"date" db:"date"`
	Count int       `json:"count" db:"count"`
}

// OutcomeCount is a reporting aggregate keyed by outcome class.
type OutcomeCount struct {
	OutcomeClass OutcomeClass `json:"outcome_class" db:"outcome_class"`
	Count        int          `json:"count" db:"count"`
}
