package engine

import (
	"math"
	"sort"
	"time"

	"github.com/storelab/replenish/internal/domain"
	"github.com/storelab/replenish/pkg/stats"
)

// ewmaSpan is the span of the exponentially weighted average feature.
const ewmaSpan = 7

var lagOffsets = []int{7, 14, 28, 365}

var rollingWindows = []int{7, 14, 28, 90}

// Window holds the rolling aggregates for one lookback window.
type Window struct {
	Mean  float64
	Std   float64
	Min   float64
	Max   float64
	Count int
}

// FeatureSet is everything the forecasting stages derive from one item's
// sales history for one target date. Nil pointer fields mean the offset or
// window had no usable history; consumers fall back to a lower tier instead
// of erroring.
type FeatureSet struct {
	TargetDate time.Time
	DayCount   int

	DailyAvg       float64
	CV             float64
	EWMA           float64
	WMA            float64
	SameWeekdayAvg *float64

	Lags    map[int]*float64
	Rolling map[int]*Window
}

// ComputeFeatures derives the feature set for an item from its daily history
// (any order; records after the target date are ignored). Pure function: no
// side effects, identical input yields identical output.
func ComputeFeatures(history []domain.SalesRecord, target time.Time) FeatureSet {
	target = truncateDay(target)

	byDate := make(map[time.Time]float64, len(history))
	var dates []time.Time
	for _, rec := range history {
		d := truncateDay(rec.Date)
		if !d.Before(target) {
			continue
		}
		if _, seen := byDate[d]; !seen {
			dates = append(dates, d)
		}
		byDate[d] = float64(rec.SaleQty)
	}
	sortDates(dates)

	fs := FeatureSet{
		TargetDate: target,
		DayCount:   len(dates),
		Lags:       make(map[int]*float64, len(lagOffsets)),
		Rolling:    make(map[int]*Window, len(rollingWindows)),
	}
	if len(dates) == 0 {
		return fs
	}

	ordered := make([]float64, len(dates))
	for i, d := range dates {
		ordered[i] = byDate[d]
	}

	fs.DailyAvg = stats.Mean(ordered)
	fs.EWMA = stats.EWMA(ordered, ewmaSpan)
	fs.WMA = stats.WeightedMovingAverage(tail(ordered, 7))
	fs.CV = stats.CV(tail(ordered, 28))

	for _, offset := range lagOffsets {
		if v, ok := byDate[target.AddDate(0, 0, -offset)]; ok {
			lag := v
			fs.Lags[offset] = &lag
		} else {
			fs.Lags[offset] = nil
		}
	}

	for _, window := range rollingWindows {
		from := target.AddDate(0, 0, -window)
		var values []float64
		for _, d := range dates {
			if !d.Before(from) {
				values = append(values, byDate[d])
			}
		}
		if len(values) == 0 {
			fs.Rolling[window] = nil
			continue
		}
		fs.Rolling[window] = &Window{
			Mean:  stats.Mean(values),
			Std:   stats.StdDev(values),
			Min:   stats.Min(values),
			Max:   stats.Max(values),
			Count: len(values),
		}
	}

	var weekday []float64
	for _, d := range dates {
		if d.Weekday() == target.Weekday() {
			weekday = append(weekday, byDate[d])
		}
	}
	if len(weekday) > 0 {
		avg := stats.Mean(weekday)
		fs.SameWeekdayAvg = &avg
	}

	return fs
}

// RollingMean returns the mean for a window, falling back to the overall
// daily average when the window had no data.
func (fs FeatureSet) RollingMean(window int) float64 {
	if w := fs.Rolling[window]; w != nil {
		return w.Mean
	}
	return fs.DailyAvg
}

// LagOr returns the lag value at offset, or fallback when history is missing.
func (fs FeatureSet) LagOr(offset int, fallback float64) float64 {
	if v := fs.Lags[offset]; v != nil {
		return *v
	}
	return fallback
}

// Vector builds the model feature vector. Training and inference both go
// through here so the definitions can never drift apart; the trailing 1 is
// the bias term.
func (fs FeatureSet) Vector(promoActive bool) []float64 {
	promo := 0.0
	if promoActive {
		promo = 1.0
	}

	wd := float64(fs.TargetDate.Weekday())
	month := float64(fs.TargetDate.Month() - 1)

	var roll7Std float64
	if w := fs.Rolling[7]; w != nil {
		roll7Std = w.Std
	}

	return []float64{
		fs.LagOr(7, fs.DailyAvg),
		fs.LagOr(14, fs.DailyAvg),
		fs.LagOr(28, fs.DailyAvg),
		fs.RollingMean(7),
		fs.RollingMean(14),
		fs.RollingMean(28),
		roll7Std,
		math.Sin(2 * math.Pi * wd / 7),
		math.Cos(2 * math.Pi * wd / 7),
		math.Sin(2 * math.Pi * month / 12),
		math.Cos(2 * math.Pi * month / 12),
		promo,
		1,
	}
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func sortDates(dates []time.Time) {
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
}

func tail(values []float64, n int) []float64 {
	if len(values) <= n {
		return values
	}
	return values[len(values)-n:]
}
