package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/storelab/replenish/internal/domain"
)

func TestDeriveThresholdsExcludesDeadStock(t *testing.T) {
	inputs := []EvalInput{
		{ItemID: "A", ExposureDays: 0.5, Popularity: 10},
		{ItemID: "B", ExposureDays: 2, Popularity: 8},
		{ItemID: "C", ExposureDays: 5, Popularity: 3},
		{ItemID: "D", ExposureDays: maxExposureDays, Popularity: 0}, // no demand signal
	}

	th := DeriveThresholds(inputs)

	// The dead SKU must not appear in the exposure quantiles.
	assert.LessOrEqual(t, th.ExposureAmple, 5.0)
	assert.LessOrEqual(t, th.ExposureForce, th.ExposureUrgent)
	assert.LessOrEqual(t, th.ExposureUrgent, th.ExposureAmple)
}

func TestClassify(t *testing.T) {
	th := Thresholds{ExposureForce: 0.5, ExposureUrgent: 1.5, ExposureAmple: 4, PopularityPass: 2}

	tests := []struct {
		name string
		in   EvalInput
		want domain.Decision
	}{
		{
			name: "inactive item is skipped",
			in:   EvalInput{Status: domain.ItemDiscontinued, ExposureDays: 0.1, Popularity: 10},
			want: domain.DecisionSkip,
		},
		{
			name: "imminent stockout forces an order",
			in:   EvalInput{Status: domain.ItemActive, ExposureDays: 0.3, Popularity: 10},
			want: domain.DecisionForce,
		},
		{
			name: "chronic stockouts force at under a day of cover",
			in:   EvalInput{Status: domain.ItemActive, ExposureDays: 0.9, StockoutFreq: 0.4, Popularity: 10},
			want: domain.DecisionForce,
		},
		{
			name: "low cover is urgent",
			in:   EvalInput{Status: domain.ItemActive, ExposureDays: 1.2, Popularity: 10},
			want: domain.DecisionUrgent,
		},
		{
			name: "unpopular with ample cover passes",
			in:   EvalInput{Status: domain.ItemActive, ExposureDays: 6, Popularity: 1},
			want: domain.DecisionPass,
		},
		{
			name: "unpopular without ample cover still orders",
			in:   EvalInput{Status: domain.ItemActive, ExposureDays: 3, Popularity: 1},
			want: domain.DecisionNormal,
		},
		{
			name: "ordinary item orders normally",
			in:   EvalInput{Status: domain.ItemActive, ExposureDays: 2.5, Popularity: 10},
			want: domain.DecisionNormal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.in, th))
		})
	}
}

func TestExposureDays(t *testing.T) {
	snap := domain.InventorySnapshot{StockQty: 10, PendingQty: 5}

	assert.InDelta(t, 3.0, ExposureDays(snap, 5), 1e-9)
	assert.InDelta(t, float64(maxExposureDays), ExposureDays(snap, 0), 1e-9)
	assert.InDelta(t, float64(maxExposureDays), ExposureDays(domain.InventorySnapshot{StockQty: 1 << 20}, 0.001), 1e-9)
}

func TestStockoutFrequency(t *testing.T) {
	history := []domain.SalesRecord{
		{Date: runDate.AddDate(0, 0, -4), StockQty: 0},
		{Date: runDate.AddDate(0, 0, -3), StockQty: 5},
		{Date: runDate.AddDate(0, 0, -2), StockQty: 0},
		{Date: runDate.AddDate(0, 0, -1), StockQty: 2},
		{Date: runDate.AddDate(0, 0, -60), StockQty: 0}, // outside the window
		{Date: runDate, StockQty: 0},                    // target day excluded
	}

	assert.InDelta(t, 0.5, StockoutFrequency(history, runDate), 1e-9)
	assert.Zero(t, StockoutFrequency(nil, runDate))
}
