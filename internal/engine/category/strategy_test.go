package category

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/storelab/replenish/internal/domain"
)

// Friday 2025-06-06, Saturday 2025-06-07.
var (
	friday = time.Date(2025, 6, 6, 0, 0, 0, 0, time.UTC)
	monday = time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
)

func TestForCategory(t *testing.T) {
	tests := []struct {
		code string
		want domain.CategoryGroup
	}{
		{code: "BR01", want: domain.GroupBeer},
		{code: "SJ01", want: domain.GroupSoju},
		{code: "TB01", want: domain.GroupTobacco},
		{code: "FF01", want: domain.GroupFresh},
		{code: "ZZ99", want: domain.GroupGeneral},
		{code: "", want: domain.GroupGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, ForCategory(tt.code).Group())
		})
	}
}

func TestBeerDefaultWeekdayCoefficients(t *testing.T) {
	s := ForCategory("BR01")

	// No learned history: Friday uses the documented 2.5x default.
	ctx := Context{TargetDate: friday, DayCount: 5, DailyAvg: 10}
	assert.InDelta(t, 25.0, s.Apply(10, ctx), 1e-9)

	ctx.TargetDate = monday
	assert.InDelta(t, 8.0, s.Apply(10, ctx), 1e-9)
}

func TestLearnedWeekdayCoefficientReplacesDefault(t *testing.T) {
	s := ForCategory("BR01")

	ctx := Context{
		TargetDate: friday,
		DayCount:   21,
		DailyAvg:   10,
	}
	ctx.WeekdayAvgs[time.Friday] = 18
	ctx.WeekdaySamples[time.Friday] = 3

	// Learned coefficient 18/10 = 1.8 wins over the 2.5 default.
	assert.InDelta(t, 18.0, s.Apply(10, ctx), 1e-9)
}

func TestLearnedCoefficientIsClamped(t *testing.T) {
	s := ForCategory("SJ01")

	ctx := Context{TargetDate: friday, DayCount: 30, DailyAvg: 1}
	ctx.WeekdayAvgs[time.Friday] = 100 // promo spike
	ctx.WeekdaySamples[time.Friday] = 4

	assert.InDelta(t, coefCeiling*10, s.Apply(10, ctx), 1e-9)
}

func TestLearnedCoefficientNeedsEnoughSamples(t *testing.T) {
	s := ForCategory("BR01")

	ctx := Context{TargetDate: friday, DayCount: 21, DailyAvg: 10}
	ctx.WeekdayAvgs[time.Friday] = 18
	ctx.WeekdaySamples[time.Friday] = 1 // single sample: keep the default

	assert.InDelta(t, 25.0, s.Apply(10, ctx), 1e-9)
}

func TestTobaccoSuppression(t *testing.T) {
	s := ForCategory("TB01")

	tests := []struct {
		name    string
		stock   int
		pending int
		want    bool
	}{
		{name: "below ceiling", stock: 20, pending: 5, want: false},
		{name: "at ceiling", stock: 20, pending: 10, want: true},
		{name: "above ceiling", stock: 40, pending: 0, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := Context{StockQty: tt.stock, PendingQty: tt.pending, TobaccoStopUnits: 30}
			assert.Equal(t, tt.want, s.Suppress(ctx))
		})
	}
}

func TestAlcoholSuppression(t *testing.T) {
	beer := ForCategory("BR01")

	ctx := Context{DailyAvg: 4, StockQty: 20, PendingQty: 8, AlcoholStopDays: 7}
	assert.True(t, beer.Suppress(ctx), "28 units covers 7 days at 4/day")

	ctx.PendingQty = 0
	assert.False(t, beer.Suppress(ctx))

	// No demand signal: never suppress on exposure alone.
	ctx.DailyAvg = 0
	assert.False(t, beer.Suppress(ctx))
}

func TestFreshAndGeneralNeverSuppress(t *testing.T) {
	ctx := Context{StockQty: 1000, PendingQty: 1000, DailyAvg: 1, AlcoholStopDays: 7, TobaccoStopUnits: 30}

	assert.False(t, ForCategory("FF01").Suppress(ctx))
	assert.False(t, ForCategory("ZZ99").Suppress(ctx))
}
