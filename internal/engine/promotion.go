package engine

import "github.com/storelab/replenish/internal/domain"

// ApplyPromotionMinimum raises a positive order quantity to the purchase
// multiple an active promotion requires (buy-1-get-1 needs 2 units on the
// shelf, buy-2-get-1 needs 3). A zero quantity stays zero: a promotion never
// forces an order out of a no-demand decision.
//
// Runs strictly after order-unit rounding, so when the promotion multiple and
// the packaging unit disagree the result is lifted to the next quantity that
// satisfies both.
func ApplyPromotionMinimum(qty int, promo *domain.Promotion, orderUnit int) int {
	if qty <= 0 || promo == nil {
		return qty
	}

	multiple := promo.PurchaseMultiple()
	if multiple <= 1 || qty >= multiple {
		return qty
	}

	corrected := multiple
	if orderUnit > 1 && corrected%orderUnit != 0 {
		corrected = ((corrected / orderUnit) + 1) * orderUnit
	}
	return corrected
}
