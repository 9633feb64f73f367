package engine

import (
	"time"

	"github.com/storelab/replenish/internal/domain"
)

// shelfLifeBaseDays maps a shelf-life group to its buffer target in days of
// average demand.
var shelfLifeBaseDays = map[domain.ShelfLifeGroup]float64{
	domain.ShelfUltraShort: 0.5,
	domain.ShelfShort:      0.7,
	domain.ShelfMedium:     1.0,
	domain.ShelfLong:       1.5,
	domain.ShelfVeryLong:   2.0,
}

// SafetyStock is the computed buffer for one item.
type SafetyStock struct {
	Days       float64
	Units      float64
	DisuseCoef float64
}

// DisuseStats feeds the perishable discount. ItemBatches counts receiving
// batches, not calendar days, so a single large delivery does not fake a
// trustworthy sample.
type DisuseStats struct {
	ItemRate     float64
	ItemBatches  int
	CategoryRate float64
}

// ComputeDisuseStats derives the item-level disuse rate from waste/receiving
// history within the bounded lookback window ending before target.
func ComputeDisuseStats(history []domain.SalesRecord, target time.Time, lookbackDays int) (rate float64, batches int) {
	from := truncateDay(target).AddDate(0, 0, -lookbackDays)

	var received, disused int
	for _, rec := range history {
		d := truncateDay(rec.Date)
		if d.Before(from) || !d.Before(truncateDay(target)) {
			continue
		}
		received += rec.ReceiveQty
		disused += rec.DisuseQty
		if rec.ReceiveQty > 0 {
			batches++
		}
	}

	if received == 0 {
		return 0, batches
	}
	rate = float64(disused) / float64(received)
	if rate > 1 {
		rate = 1
	}
	return rate, batches
}

// ComputeSafetyStock sizes the buffer from shelf-life group, turnover tier,
// and sales volatility, then applies the perishable disuse discount. The
// discount never drops below the calibrated floor, and the floor itself never
// drops below the absolute one, so stale discard statistics cannot starve an
// item indefinitely.
func ComputeSafetyStock(item domain.Item, fs FeatureSet, disuse DisuseStats, params *Params) SafetyStock {
	group := domain.ShelfLifeGroupFor(item.ShelfLifeDays)
	days := shelfLifeBaseDays[group]

	days *= turnoverMultiplier(fs.DailyAvg)
	days *= volatilityMultiplier(fs.CV)
	days *= params.SafetyStockScale

	coef := 1.0
	if domain.GroupForCategory(item.CategoryCode).Perishable() {
		rate := disuse.ItemRate
		if disuse.ItemBatches < params.DisuseMinBatches {
			// Too few receiving batches to trust the item-level figure.
			rate = 0.8*disuse.CategoryRate + 0.2*disuse.ItemRate
		}

		floor := params.DisuseFloor
		if floor < DisuseAbsoluteFloor {
			floor = DisuseAbsoluteFloor
		}
		coef = 1.0 - rate*params.DisuseMultiplier
		if coef < floor {
			coef = floor
		}
		days *= coef
	}

	return SafetyStock{
		Days:       days,
		Units:      days * fs.DailyAvg,
		DisuseCoef: coef,
	}
}

func turnoverMultiplier(dailyAvg float64) float64 {
	switch {
	case dailyAvg >= 5:
		return 1.5
	case dailyAvg >= 2:
		return 1.2
	default:
		return 0.8
	}
}

func volatilityMultiplier(cv float64) float64 {
	switch {
	case cv < 0.3:
		return 1.0
	case cv < 0.5:
		return 1.2
	case cv < 0.8:
		return 1.5
	default:
		return 2.0
	}
}
