package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/storelab/replenish/internal/domain"
)

var runDate = time.Date(2025, 6, 6, 0, 0, 0, 0, time.UTC) // a Friday

// flatHistory builds `days` consecutive daily records ending the day before
// target, all selling qty units.
func flatHistory(target time.Time, days, qty int) []domain.SalesRecord {
	recs := make([]domain.SalesRecord, 0, days)
	for i := days; i >= 1; i-- {
		recs = append(recs, domain.SalesRecord{
			Date:    target.AddDate(0, 0, -i),
			ItemID:  "A001",
			SaleQty: qty,
		})
	}
	return recs
}

func TestComputeFeaturesFlatSeries(t *testing.T) {
	fs := ComputeFeatures(flatHistory(runDate, 14, 10), runDate)

	assert.Equal(t, 14, fs.DayCount)
	assert.InDelta(t, 10.0, fs.DailyAvg, 1e-9)
	assert.InDelta(t, 10.0, fs.EWMA, 1e-9)
	assert.InDelta(t, 10.0, fs.WMA, 1e-9)
	assert.InDelta(t, 0.0, fs.CV, 1e-9)

	if assert.NotNil(t, fs.SameWeekdayAvg) {
		assert.InDelta(t, 10.0, *fs.SameWeekdayAvg, 1e-9)
	}

	if assert.NotNil(t, fs.Lags[7]) {
		assert.InDelta(t, 10.0, *fs.Lags[7], 1e-9)
	}
	assert.Nil(t, fs.Lags[365])

	if assert.NotNil(t, fs.Rolling[7]) {
		assert.Equal(t, 7, fs.Rolling[7].Count)
		assert.InDelta(t, 10.0, fs.Rolling[7].Mean, 1e-9)
	}
	if assert.NotNil(t, fs.Rolling[90]) {
		assert.Equal(t, 14, fs.Rolling[90].Count)
	}
}

func TestComputeFeaturesIgnoresTargetAndLater(t *testing.T) {
	history := flatHistory(runDate, 5, 10)
	history = append(history,
		domain.SalesRecord{Date: runDate, ItemID: "A001", SaleQty: 999},
		domain.SalesRecord{Date: runDate.AddDate(0, 0, 1), ItemID: "A001", SaleQty: 999},
	)

	fs := ComputeFeatures(history, runDate)
	assert.Equal(t, 5, fs.DayCount)
	assert.InDelta(t, 10.0, fs.DailyAvg, 1e-9)
}

func TestComputeFeaturesIsPure(t *testing.T) {
	history := flatHistory(runDate, 30, 7)
	history[3].SaleQty = 21
	history[17].SaleQty = 0

	first := ComputeFeatures(history, runDate)
	second := ComputeFeatures(history, runDate)
	assert.Equal(t, first, second)
}

func TestComputeFeaturesEmptyHistory(t *testing.T) {
	fs := ComputeFeatures(nil, runDate)

	assert.Equal(t, 0, fs.DayCount)
	assert.Zero(t, fs.DailyAvg)
	assert.Nil(t, fs.SameWeekdayAvg)
	assert.InDelta(t, 0.0, fs.RollingMean(7), 1e-9)
}

func TestRollingMeanFallsBackToDailyAvg(t *testing.T) {
	fs := FeatureSet{DailyAvg: 4.5}
	assert.InDelta(t, 4.5, fs.RollingMean(7), 1e-9)
}

func TestVectorShapeAndPromoFlag(t *testing.T) {
	fs := ComputeFeatures(flatHistory(runDate, 14, 10), runDate)

	off := fs.Vector(false)
	on := fs.Vector(true)

	assert.Len(t, off, 13)
	assert.Equal(t, 0.0, off[11])
	assert.Equal(t, 1.0, on[11])
	assert.Equal(t, 1.0, off[12]) // bias term
}
