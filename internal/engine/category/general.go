package category

import "github.com/storelab/replenish/internal/domain"

var generalWeekdayDefaults = [7]float64{1.0, 1.0, 1.0, 1.0, 1.0, 1.0, 1.0}

type generalStrategy struct{}

func (s *generalStrategy) Group() domain.CategoryGroup {
	return domain.GroupGeneral
}

func (s *generalStrategy) Apply(baseline float64, ctx Context) float64 {
	return baseline * weekdayCoefficient(ctx, generalWeekdayDefaults)
}

func (s *generalStrategy) Suppress(ctx Context) bool {
	return false
}
