package engine

import (
	"math"
	"sort"

	"github.com/storelab/replenish/pkg/stats"
)

// CapCandidate is one item competing for a slot under the category's daily
// ordered-item cap.
type CapCandidate struct {
	ItemID      string
	Forecast    float64
	HistoryDays int
}

// DailyCap computes how many distinct items a short-shelf-life category may
// order today: the rolling same-weekday average item count plus an absolute
// waste buffer. Fewer than two same-weekday samples fall back to the overall
// average, and no history at all falls back to the configured default.
func DailyCap(sameWeekdayCounts, overallCounts []float64, params *Params) int {
	var base float64
	switch {
	case len(sameWeekdayCounts) >= 2:
		base = stats.Mean(sameWeekdayCounts)
	case len(overallCounts) > 0:
		base = stats.Mean(overallCounts)
	default:
		base = float64(params.DefaultDailyCap)
	}

	return int(math.Round(base)) + params.WasteBuffer
}

// AllocateCapSlots selects at most cap candidates, splitting slots between
// proven items (enough sales history to trust their forecast) and
// exploratory ones (new or thin-history items that need ordering opportunity
// to accumulate a history). A shortfall in either pool is backfilled from the
// other, and the total never exceeds the cap.
func AllocateCapSlots(candidates []CapCandidate, cap int, params *Params) []CapCandidate {
	if cap <= 0 {
		return nil
	}
	if len(candidates) <= cap {
		return candidates
	}

	var proven, exploratory []CapCandidate
	for _, c := range candidates {
		if c.HistoryDays >= params.ProvenMinDays {
			proven = append(proven, c)
		} else {
			exploratory = append(exploratory, c)
		}
	}

	byForecast := func(pool []CapCandidate) {
		sort.Slice(pool, func(i, j int) bool { return pool[i].Forecast > pool[j].Forecast })
	}
	byForecast(proven)
	byForecast(exploratory)

	provenSlots := int(math.Round(float64(cap) * params.ProvenSlotRatio))
	exploratorySlots := cap - provenSlots

	// Backfill: hand unused slots to the other pool.
	if len(proven) < provenSlots {
		exploratorySlots += provenSlots - len(proven)
		provenSlots = len(proven)
	}
	if len(exploratory) < exploratorySlots {
		spare := exploratorySlots - len(exploratory)
		exploratorySlots = len(exploratory)
		provenSlots = minInt(len(proven), provenSlots+spare)
	}

	selected := make([]CapCandidate, 0, cap)
	selected = append(selected, proven[:provenSlots]...)
	selected = append(selected, exploratory[:exploratorySlots]...)
	return selected
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
