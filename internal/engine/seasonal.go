package engine

import (
	"time"

	"github.com/storelab/replenish/internal/domain"
)

// Month-indexed seasonal coefficients per category family (January first).
// Families without an entry run flat at 1.0.
var seasonalCoefficients = map[domain.CategoryGroup][12]float64{
	domain.GroupBeer: {0.78, 0.78, 0.90, 1.00, 1.10, 1.35, 1.35, 1.35, 1.10, 0.95, 0.85, 0.78},
	domain.GroupSoju: {1.05, 1.00, 1.00, 0.95, 0.95, 1.00, 1.00, 1.00, 1.00, 1.05, 1.10, 1.15},
	domain.GroupFresh: {0.95, 0.95, 1.00, 1.05, 1.10, 1.15, 1.15, 1.15, 1.05, 1.00, 0.95, 0.95},
}

// SeasonalCoefficient returns the month multiplier for a category family.
func SeasonalCoefficient(group domain.CategoryGroup, month time.Month) float64 {
	coefs, ok := seasonalCoefficients[group]
	if !ok {
		return 1.0
	}
	return coefs[int(month)-1]
}

// TrendCoefficient compares the short-window average against the long-window
// average and returns a bounded multiplier: strong swings clamp to +/-15%,
// moderate ones to +/-8%, a flat trend passes through at 1.0.
func TrendCoefficient(fs FeatureSet) float64 {
	long := fs.RollingMean(28)
	if long <= 0 {
		return 1.0
	}
	ratio := fs.RollingMean(7) / long

	switch {
	case ratio >= 1.3:
		return 1.15
	case ratio >= 1.1:
		return 1.08
	case ratio <= 0.7:
		return 0.85
	case ratio <= 0.9:
		return 0.92
	default:
		return 1.0
	}
}

// AdjustSeasonalTrend applies the seasonal and trend multipliers on top of a
// weekday-adjusted quantity, in that order, both strictly multiplicative.
func AdjustSeasonalTrend(qty float64, group domain.CategoryGroup, fs FeatureSet) float64 {
	return qty * SeasonalCoefficient(group, fs.TargetDate.Month()) * TrendCoefficient(fs)
}
