package engine

import (
	"time"

	"github.com/storelab/replenish/internal/domain"
	"github.com/storelab/replenish/pkg/stats"
)

// maxExposureDays stands in for "effectively unlimited" when an item has no
// demand signal to divide by.
const maxExposureDays = 999

// stockoutWindowDays bounds the stockout-frequency lookback.
const stockoutWindowDays = 28

// EvalInput is the risk profile of one candidate order.
type EvalInput struct {
	ItemID       string
	Status       domain.ItemStatus
	ExposureDays float64 // projected days of cover from stock+pending
	Popularity   float64 // recent daily sales velocity
	StockoutFreq float64 // share of recent days that ended stocked out
}

// Thresholds are derived from the current batch's distribution rather than
// fixed, so a slow store and a busy store classify against their own norms.
type Thresholds struct {
	ExposureForce  float64 // at or below: imminent stockout
	ExposureUrgent float64
	ExposureAmple  float64 // above: enough cover to consider passing
	PopularityPass float64 // at or below: low-popularity candidate for PASS
}

// DeriveThresholds computes the adaptive cut points over the batch. Items
// without a demand signal are excluded so a long tail of dead SKUs cannot
// drag the exposure quantiles to zero.
func DeriveThresholds(inputs []EvalInput) Thresholds {
	var exposures, popularity []float64
	for _, in := range inputs {
		if in.ExposureDays < maxExposureDays {
			exposures = append(exposures, in.ExposureDays)
		}
		popularity = append(popularity, in.Popularity)
	}

	return Thresholds{
		ExposureForce:  stats.Quantile(0.10, exposures),
		ExposureUrgent: stats.Quantile(0.25, exposures),
		ExposureAmple:  stats.Quantile(0.50, exposures),
		PopularityPass: stats.Quantile(0.20, popularity),
	}
}

// Classify assigns the terminal decision class for one candidate.
func Classify(in EvalInput, th Thresholds) domain.Decision {
	if in.Status != domain.ItemActive {
		return domain.DecisionSkip
	}

	switch {
	case in.ExposureDays <= th.ExposureForce,
		in.StockoutFreq >= 0.25 && in.ExposureDays < 1:
		return domain.DecisionForce
	case in.ExposureDays <= th.ExposureUrgent:
		return domain.DecisionUrgent
	case in.Popularity <= th.PopularityPass && in.ExposureDays > th.ExposureAmple:
		return domain.DecisionPass
	default:
		return domain.DecisionNormal
	}
}

// ExposureDays projects how many days of average demand the current stock
// plus pending quantity covers.
func ExposureDays(snapshot domain.InventorySnapshot, dailyAvg float64) float64 {
	if dailyAvg <= 0 {
		return maxExposureDays
	}
	days := float64(snapshot.StockQty+snapshot.PendingQty) / dailyAvg
	if days > maxExposureDays {
		return maxExposureDays
	}
	return days
}

// StockoutFrequency is the share of recent history days that closed with
// zero stock.
func StockoutFrequency(history []domain.SalesRecord, target time.Time) float64 {
	from := truncateDay(target).AddDate(0, 0, -stockoutWindowDays)

	var days, stockouts int
	for _, rec := range history {
		d := truncateDay(rec.Date)
		if d.Before(from) || !d.Before(truncateDay(target)) {
			continue
		}
		days++
		if rec.StockQty == 0 {
			stockouts++
		}
	}
	if days == 0 {
		return 0
	}
	return float64(stockouts) / float64(days)
}
