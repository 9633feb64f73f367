package category

import "github.com/storelab/replenish/internal/domain"

// sojuWeekdayDefaults carries a much milder weekend lift than beer.
var sojuWeekdayDefaults = [7]float64{1.1, 0.9, 0.9, 1.0, 1.0, 1.2, 1.2}

type sojuStrategy struct{}

func (s *sojuStrategy) Group() domain.CategoryGroup {
	return domain.GroupSoju
}

func (s *sojuStrategy) Apply(baseline float64, ctx Context) float64 {
	return baseline * weekdayCoefficient(ctx, sojuWeekdayDefaults)
}

func (s *sojuStrategy) Suppress(ctx Context) bool {
	return alcoholSuppressed(ctx)
}
