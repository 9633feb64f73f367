package engine

import (
	"time"

	"github.com/storelab/replenish/internal/domain"
)

// ReconcilePending resolves the in-transit quantity for an item from its
// order/receipt history using the aggregate correction: history is split into
// a past bucket and a today bucket, and each bucket nets total ordered
// against total received before clamping at zero.
//
// Netting per bucket (instead of per row) is what makes cross-date patterns
// come out right: an order placed on day D and received on day D+1 cancels
// inside the past bucket, where a naive per-row sum would report the day-D
// order as still outstanding forever.
func ReconcilePending(history []domain.SalesRecord, today time.Time) int {
	day := truncateDay(today)

	var pastOrdered, pastReceived, todayOrdered, todayReceived int
	for _, rec := range history {
		d := truncateDay(rec.Date)
		switch {
		case d.Before(day):
			pastOrdered += rec.OrderQty
			pastReceived += rec.ReceiveQty
		case d.Equal(day):
			todayOrdered += rec.OrderQty
			todayReceived += rec.ReceiveQty
		}
	}

	pending := maxInt(0, pastOrdered-pastReceived) + maxInt(0, todayOrdered-todayReceived)
	return pending
}

// ReconcilePendingSimplified is the bounded-lookback alternative: it finds
// the most recent order within lookbackDays and nets only the receipts that
// followed it. Cheaper but blind to older cross-date patterns; kept as a
// togglable algorithm for A/B comparison and never mixed with the aggregate
// correction for the same item in one run.
func ReconcilePendingSimplified(history []domain.SalesRecord, today time.Time, lookbackDays int) int {
	day := truncateDay(today)
	from := day.AddDate(0, 0, -lookbackDays)

	var lastOrderDate time.Time
	var lastOrderQty int
	for _, rec := range history {
		d := truncateDay(rec.Date)
		if d.Before(from) || d.After(day) {
			continue
		}
		if rec.OrderQty > 0 && !d.Before(lastOrderDate) {
			lastOrderDate = d
			lastOrderQty = rec.OrderQty
		}
	}
	if lastOrderQty == 0 {
		return 0
	}

	var received int
	for _, rec := range history {
		d := truncateDay(rec.Date)
		if d.Before(lastOrderDate) || d.After(day) {
			continue
		}
		received += rec.ReceiveQty
	}

	return maxInt(0, lastOrderQty-received)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
