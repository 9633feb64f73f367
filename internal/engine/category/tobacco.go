package category

import "github.com/storelab/replenish/internal/domain"

// Tobacco demand is nearly flat across the week.
var tobaccoWeekdayDefaults = [7]float64{1.0, 1.0, 1.0, 1.0, 1.0, 1.1, 1.1}

type tobaccoStrategy struct{}

func (s *tobaccoStrategy) Group() domain.CategoryGroup {
	return domain.GroupTobacco
}

func (s *tobaccoStrategy) Apply(baseline float64, ctx Context) float64 {
	return baseline * weekdayCoefficient(ctx, tobaccoWeekdayDefaults)
}

// Suppress stops tobacco ordering once stock plus pending reaches the
// configured unit ceiling; cartons tie up shelf space and never expire, so
// exposure is counted in absolute units rather than demand days.
func (s *tobaccoStrategy) Suppress(ctx Context) bool {
	return ctx.StockQty+ctx.PendingQty >= ctx.TobaccoStopUnits
}
