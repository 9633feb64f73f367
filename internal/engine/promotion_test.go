package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/storelab/replenish/internal/domain"
)

func TestApplyPromotionMinimum(t *testing.T) {
	bogo := &domain.Promotion{ItemID: "A001", PromoType: "1+1", BuyQty: 1, GetQty: 1}
	twoPlusOne := &domain.Promotion{ItemID: "A001", PromoType: "2+1", BuyQty: 2, GetQty: 1}

	tests := []struct {
		name      string
		qty       int
		promo     *domain.Promotion
		orderUnit int
		want      int
	}{
		{name: "one unit under a 1+1 is lifted to two", qty: 1, promo: bogo, orderUnit: 1, want: 2},
		{name: "zero stays zero", qty: 0, promo: bogo, orderUnit: 1, want: 0},
		{name: "already at the multiple", qty: 2, promo: bogo, orderUnit: 1, want: 2},
		{name: "above the multiple is untouched", qty: 5, promo: twoPlusOne, orderUnit: 1, want: 5},
		{name: "no promotion is a no-op", qty: 1, promo: nil, orderUnit: 1, want: 1},
		{name: "multiple lifted to the next order-unit boundary", qty: 2, promo: twoPlusOne, orderUnit: 2, want: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ApplyPromotionMinimum(tt.qty, tt.promo, tt.orderUnit))
		})
	}
}
