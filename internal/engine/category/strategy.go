// Package category holds the per-category ordering strategies. Each category
// group is one interchangeable strategy object selected through a lookup
// table; adding a category means adding a strategy and a registry entry, not
// editing a dispatcher.
package category

import (
	"time"

	"github.com/storelab/replenish/internal/domain"
)

// Weekday-coefficient learning gates.
const (
	learnMinDays    = 14 // total history days before learned coefficients apply
	learnMinSamples = 2  // same-weekday samples needed for that weekday
	coefFloor       = 0.2
	coefCeiling     = 4.0
)

// Context carries the per-item signals a strategy needs. It is assembled by
// the engine from the feature set and the inventory snapshot.
type Context struct {
	TargetDate time.Time
	DayCount   int
	DailyAvg   float64

	// Per-weekday sales averages and sample counts, indexed by time.Weekday.
	WeekdayAvgs    [7]float64
	WeekdaySamples [7]int

	StockQty   int
	PendingQty int

	// Category caps, loaded from the run parameters.
	TobaccoStopUnits int
	AlcoholStopDays  float64
}

// Strategy is the contract every category group implements.
type Strategy interface {
	// Group identifies the category family the strategy serves.
	Group() domain.CategoryGroup

	// Apply scales the baseline by the weekday coefficient for the target
	// date and returns the adjusted quantity.
	Apply(baseline float64, ctx Context) float64

	// Suppress reports whether current stock exposure forbids any order
	// today regardless of the forecast.
	Suppress(ctx Context) bool
}

var registry = map[domain.CategoryGroup]Strategy{
	domain.GroupBeer:    &beerStrategy{},
	domain.GroupSoju:    &sojuStrategy{},
	domain.GroupTobacco: &tobaccoStrategy{},
	domain.GroupFresh:   &freshStrategy{},
	domain.GroupGeneral: &generalStrategy{},
}

// ForCategory resolves the strategy for a collector category code. Unknown
// codes get the general strategy.
func ForCategory(code string) Strategy {
	if s, ok := registry[domain.GroupForCategory(code)]; ok {
		return s
	}
	return registry[domain.GroupGeneral]
}

// weekdayCoefficient prefers a coefficient learned from same-weekday history
// and falls back to the strategy's documented default vector. Learned values
// are clamped so one promo spike cannot produce an absurd multiplier.
func weekdayCoefficient(ctx Context, defaults [7]float64) float64 {
	wd := int(ctx.TargetDate.Weekday())

	if ctx.DayCount >= learnMinDays && ctx.WeekdaySamples[wd] >= learnMinSamples && ctx.DailyAvg > 0 {
		coef := ctx.WeekdayAvgs[wd] / ctx.DailyAvg
		if coef < coefFloor {
			coef = coefFloor
		}
		if coef > coefCeiling {
			coef = coefCeiling
		}
		return coef
	}

	return defaults[wd]
}

// alcoholSuppressed implements the shared beer/soju rule: stop ordering once
// stock plus pending covers the configured number of average-demand days.
func alcoholSuppressed(ctx Context) bool {
	if ctx.DailyAvg <= 0 {
		return false
	}
	return float64(ctx.StockQty+ctx.PendingQty) >= ctx.AlcoholStopDays*ctx.DailyAvg
}
