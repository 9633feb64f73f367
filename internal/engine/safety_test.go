package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/storelab/replenish/internal/domain"
)

func TestComputeSafetyStockNonPerishable(t *testing.T) {
	params := DefaultParams()
	item := domain.Item{ItemID: "G001", CategoryCode: "ZZ99", ShelfLifeDays: 5, Status: domain.ItemActive}
	fs := FeatureSet{DailyAvg: 10, CV: 0.25}

	got := ComputeSafetyStock(item, fs, DisuseStats{}, params)

	// shelf-life short (0.7) x high turnover (1.5) x low volatility (1.0)
	assert.InDelta(t, 1.05, got.Days, 1e-9)
	assert.InDelta(t, 10.5, got.Units, 1e-9)
	assert.InDelta(t, 1.0, got.DisuseCoef, 1e-9)
}

func TestComputeSafetyStockScaleApplies(t *testing.T) {
	params := DefaultParams()
	params.SafetyStockScale = 1.4
	item := domain.Item{ItemID: "G001", CategoryCode: "ZZ99", ShelfLifeDays: 5}
	fs := FeatureSet{DailyAvg: 10, CV: 0.25}

	got := ComputeSafetyStock(item, fs, DisuseStats{}, params)
	assert.InDelta(t, 1.05*1.4, got.Days, 1e-9)
}

func TestComputeSafetyStockDisuseDiscount(t *testing.T) {
	params := DefaultParams()
	fresh := domain.Item{ItemID: "F001", CategoryCode: "FF01", ShelfLifeDays: 2}
	fs := FeatureSet{DailyAvg: 10, CV: 0.25}

	t.Run("moderate waste discounts the buffer", func(t *testing.T) {
		got := ComputeSafetyStock(fresh, fs, DisuseStats{ItemRate: 0.1, ItemBatches: 5}, params)
		// coef = 1 - 0.1*2.0
		assert.InDelta(t, 0.8, got.DisuseCoef, 1e-9)
	})

	t.Run("extreme waste bottoms out at the floor", func(t *testing.T) {
		got := ComputeSafetyStock(fresh, fs, DisuseStats{ItemRate: 0.9, ItemBatches: 5}, params)
		assert.InDelta(t, params.DisuseFloor, got.DisuseCoef, 1e-9)
	})

	t.Run("floor never goes below the absolute floor", func(t *testing.T) {
		loose := DefaultParams()
		loose.DisuseFloor = 0.05
		got := ComputeSafetyStock(fresh, fs, DisuseStats{ItemRate: 0.9, ItemBatches: 5}, loose)
		assert.InDelta(t, DisuseAbsoluteFloor, got.DisuseCoef, 1e-9)
	})

	t.Run("thin batch history leans on the category rate", func(t *testing.T) {
		got := ComputeSafetyStock(fresh, fs, DisuseStats{ItemRate: 0.5, ItemBatches: 1, CategoryRate: 0.1}, params)
		// blended rate 0.8*0.1 + 0.2*0.5 = 0.18, coef = 1 - 0.18*2.0
		assert.InDelta(t, 0.64, got.DisuseCoef, 1e-9)
	})

	t.Run("non-perishable ignores disuse entirely", func(t *testing.T) {
		general := domain.Item{ItemID: "G001", CategoryCode: "ZZ99", ShelfLifeDays: 2}
		got := ComputeSafetyStock(general, fs, DisuseStats{ItemRate: 0.9, ItemBatches: 5}, params)
		assert.InDelta(t, 1.0, got.DisuseCoef, 1e-9)
	})
}

func TestComputeDisuseStats(t *testing.T) {
	history := []domain.SalesRecord{
		{Date: runDate.AddDate(0, 0, -10), ReceiveQty: 10, DisuseQty: 2},
		{Date: runDate.AddDate(0, 0, -5), ReceiveQty: 10, DisuseQty: 1},
		{Date: runDate.AddDate(0, 0, -3), DisuseQty: 1}, // waste without a delivery
		{Date: runDate.AddDate(0, 0, -40), ReceiveQty: 100, DisuseQty: 100}, // outside lookback
		{Date: runDate, ReceiveQty: 10, DisuseQty: 10},                      // target day excluded
	}

	rate, batches := ComputeDisuseStats(history, runDate, 30)
	assert.Equal(t, 2, batches)
	assert.InDelta(t, 0.2, rate, 1e-9) // 4 disused / 20 received

	t.Run("no receipts means zero rate", func(t *testing.T) {
		rate, batches := ComputeDisuseStats(nil, runDate, 30)
		assert.Zero(t, rate)
		assert.Zero(t, batches)
	})

	t.Run("rate is capped at one", func(t *testing.T) {
		rate, _ := ComputeDisuseStats([]domain.SalesRecord{
			{Date: runDate.AddDate(0, 0, -2), ReceiveQty: 5, DisuseQty: 50},
		}, runDate, 30)
		assert.InDelta(t, 1.0, rate, 1e-9)
	})
}

func TestTurnoverAndVolatilityMultipliers(t *testing.T) {
	assert.InDelta(t, 1.5, turnoverMultiplier(5), 1e-9)
	assert.InDelta(t, 1.2, turnoverMultiplier(2), 1e-9)
	assert.InDelta(t, 0.8, turnoverMultiplier(0.5), 1e-9)

	assert.InDelta(t, 1.0, volatilityMultiplier(0.2), 1e-9)
	assert.InDelta(t, 1.2, volatilityMultiplier(0.4), 1e-9)
	assert.InDelta(t, 1.5, volatilityMultiplier(0.6), 1e-9)
	assert.InDelta(t, 2.0, volatilityMultiplier(1.2), 1e-9)
}
