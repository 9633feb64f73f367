package engine

import "github.com/storelab/replenish/internal/domain"

// Data-quality tier boundaries, in days of history.
const (
	highTierDays   = 14
	mediumTierDays = 7
)

// Baseline is the blended daily-demand estimate plus the tier that produced it.
type Baseline struct {
	Qty  float64
	Tier domain.ConfidenceTier
}

// Forecast blends the weighted moving average with the exponential and
// same-weekday signals. The blend is tiered by history depth: short histories
// lean on the moving average so a noisy exponential signal cannot dominate,
// longer ones exploit the weekday shape.
func Forecast(fs FeatureSet, params *Params) Baseline {
	if fs.DayCount == 0 {
		return Baseline{Qty: params.ColdStartBaseline, Tier: domain.TierLow}
	}

	switch {
	case fs.DayCount >= highTierDays:
		weekday := fs.DailyAvg
		if fs.SameWeekdayAvg != nil {
			weekday = *fs.SameWeekdayAvg
		}
		return Baseline{
			Qty:  0.40*fs.EWMA + 0.40*weekday + 0.20*fs.WMA,
			Tier: domain.TierHigh,
		}
	case fs.DayCount >= mediumTierDays:
		return Baseline{
			Qty:  0.35*fs.EWMA + 0.65*fs.WMA,
			Tier: domain.TierMedium,
		}
	default:
		return Baseline{
			Qty:  0.50*fs.DailyAvg + 0.50*fs.WMA,
			Tier: domain.TierLow,
		}
	}
}
