package category

import "github.com/storelab/replenish/internal/domain"

// beerWeekdayDefaults reflects the pronounced weekend demand for beer;
// Friday and Saturday run at roughly 2.5x a flat weekday.
// Indexed by time.Weekday (Sunday first).
var beerWeekdayDefaults = [7]float64{1.3, 0.8, 0.8, 0.9, 1.0, 2.5, 2.5}

type beerStrategy struct{}

func (s *beerStrategy) Group() domain.CategoryGroup {
	return domain.GroupBeer
}

func (s *beerStrategy) Apply(baseline float64, ctx Context) float64 {
	return baseline * weekdayCoefficient(ctx, beerWeekdayDefaults)
}

func (s *beerStrategy) Suppress(ctx Context) bool {
	return alcoholSuppressed(ctx)
}
