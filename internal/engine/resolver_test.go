package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/storelab/replenish/internal/domain"
)

func TestResolveOrderQty(t *testing.T) {
	item := domain.Item{ItemID: "A001", CategoryCode: "ZZ99", ShelfLifeDays: 30, OrderUnit: 6, MaxMultiplier: 3}

	tests := []struct {
		name             string
		forecast, safety float64
		stock, pending   int
		want             int
	}{
		{name: "need rounds up to the order unit", forecast: 10, safety: 3, stock: 5, pending: 0, want: 12},
		{name: "covered demand orders nothing", forecast: 10, safety: 3, stock: 10, pending: 5, want: 0},
		{name: "exact boundary orders nothing", forecast: 10, safety: 3, stock: 13, pending: 0, want: 0},
		{name: "clamped at the max multiplier", forecast: 100, safety: 20, stock: 0, pending: 0, want: 18},
		{name: "tiny need still gets one unit", forecast: 1, safety: 0.2, stock: 1, pending: 0, want: 6},
		{name: "pending counts as cover", forecast: 10, safety: 3, stock: 0, pending: 13, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := domain.InventorySnapshot{ItemID: item.ItemID, StockQty: tt.stock, PendingQty: tt.pending}
			assert.Equal(t, tt.want, ResolveOrderQty(tt.forecast, tt.safety, snap, item, nil))
		})
	}
}

func TestResolveOrderQtyDefaultsUnitToOne(t *testing.T) {
	item := domain.Item{ItemID: "A001", CategoryCode: "ZZ99", ShelfLifeDays: 30}
	snap := domain.InventorySnapshot{ItemID: item.ItemID}

	assert.Equal(t, 3, ResolveOrderQty(2.1, 0.5, snap, item, nil))
}

func TestResolveOrderQtyReductionGuard(t *testing.T) {
	prior := &PriorOrder{Quantity: 12, PendingQty: 0}

	t.Run("short shelf life keeps the original order", func(t *testing.T) {
		fresh := domain.Item{ItemID: "F001", CategoryCode: "FF01", ShelfLifeDays: 3, OrderUnit: 6, MaxMultiplier: 5}
		snap := domain.InventorySnapshot{ItemID: fresh.ItemID, StockQty: 0, PendingQty: 10}

		got := ResolveOrderQty(10, 3, snap, fresh, prior)
		assert.Equal(t, 12, got)
	})

	t.Run("long shelf life accepts the reduction", func(t *testing.T) {
		durable := domain.Item{ItemID: "G001", CategoryCode: "ZZ99", ShelfLifeDays: 60, OrderUnit: 6, MaxMultiplier: 5}
		snap := domain.InventorySnapshot{ItemID: durable.ItemID, StockQty: 0, PendingQty: 10}

		got := ResolveOrderQty(10, 3, snap, durable, prior)
		assert.Equal(t, 6, got)
	})

	t.Run("guard needs a growing pending figure", func(t *testing.T) {
		fresh := domain.Item{ItemID: "F001", CategoryCode: "FF01", ShelfLifeDays: 3, OrderUnit: 6, MaxMultiplier: 5}
		snap := domain.InventorySnapshot{ItemID: fresh.ItemID, StockQty: 10, PendingQty: 0}

		got := ResolveOrderQty(10, 3, snap, fresh, prior)
		assert.Equal(t, 6, got)
	})
}
