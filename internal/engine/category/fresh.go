package category

import "github.com/storelab/replenish/internal/domain"

// Fresh food sells a little harder at the start of the week (lunch traffic)
// and dips on Sundays.
var freshWeekdayDefaults = [7]float64{0.8, 1.1, 1.1, 1.0, 1.0, 1.0, 0.9}

type freshStrategy struct{}

func (s *freshStrategy) Group() domain.CategoryGroup {
	return domain.GroupFresh
}

func (s *freshStrategy) Apply(baseline float64, ctx Context) float64 {
	return baseline * weekdayCoefficient(ctx, freshWeekdayDefaults)
}

// Fresh items are bounded by the daily category cap and the shelf-life-driven
// safety stock, not by a stock-level suppression rule.
func (s *freshStrategy) Suppress(ctx Context) bool {
	return false
}
