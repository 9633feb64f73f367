package engine

import (
	"math"

	"github.com/rs/zerolog/log"

	"github.com/storelab/replenish/internal/domain"
)

// PriorOrder is the previously computed order for the same item and run,
// carried in when a run is re-executed after an inventory refresh.
type PriorOrder struct {
	Quantity   int
	PendingQty int
}

// ResolveOrderQty turns the adjusted forecast into a final, unit-rounded,
// clamped order quantity:
//
//	need = forecast + safety - stock - pending
//
// Negative need means no order. Positive need is rounded up to the item's
// order unit and clamped to at most MaxMultiplier units.
//
// Reduction guard: when a prior order exists for this item/run and the only
// input that moved since is a larger pending figure, a short-shelf-life item
// keeps its original quantity. Food that cannot be re-ordered same-day must
// not be cut back by a late pending correction.
func ResolveOrderQty(forecast, safety float64, snapshot domain.InventorySnapshot, item domain.Item, prior *PriorOrder) int {
	need := forecast + safety - float64(snapshot.StockQty) - float64(snapshot.PendingQty)
	qty := 0
	if need > 0 {
		qty = roundUpToUnit(need, item.OrderUnit)

		maxQty := item.MaxMultiplier * orderUnitOf(item)
		if item.MaxMultiplier > 0 && qty > maxQty {
			qty = maxQty
		}
		if qty < orderUnitOf(item) {
			qty = orderUnitOf(item)
		}
	}

	if prior != nil && qty < prior.Quantity &&
		snapshot.PendingQty > prior.PendingQty &&
		domain.ShelfLifeGroupFor(item.ShelfLifeDays).ShortShelfLife() {
		log.Info().
			Str("item_id", item.ItemID).
			Int("computed_qty", qty).
			Int("kept_qty", prior.Quantity).
			Int("pending_before", prior.PendingQty).
			Int("pending_now", snapshot.PendingQty).
			Msg("pending correction would shrink a placed short-shelf-life order, keeping original")
		return prior.Quantity
	}

	return qty
}

func orderUnitOf(item domain.Item) int {
	if item.OrderUnit > 0 {
		return item.OrderUnit
	}
	return 1
}

func roundUpToUnit(need float64, unit int) int {
	if unit < 1 {
		unit = 1
	}
	units := int(math.Ceil(need / float64(unit)))
	if units < 1 {
		units = 1
	}
	return units * unit
}
