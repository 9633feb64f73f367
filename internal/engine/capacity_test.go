package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDailyCap(t *testing.T) {
	params := DefaultParams()

	t.Run("same-weekday average plus buffer", func(t *testing.T) {
		got := DailyCap([]float64{17, 17, 17}, []float64{5, 5}, params)
		assert.Equal(t, 20, got)
	})

	t.Run("single same-weekday sample falls back to overall", func(t *testing.T) {
		got := DailyCap([]float64{17}, []float64{10, 10, 10}, params)
		assert.Equal(t, 13, got)
	})

	t.Run("no history falls back to the default", func(t *testing.T) {
		got := DailyCap(nil, nil, params)
		assert.Equal(t, params.DefaultDailyCap+params.WasteBuffer, got)
	})
}

func capPool(proven, exploratory int) []CapCandidate {
	var pool []CapCandidate
	for i := 0; i < proven; i++ {
		pool = append(pool, CapCandidate{
			ItemID:      fmt.Sprintf("P%02d", i),
			Forecast:    float64(100 - i),
			HistoryDays: 30,
		})
	}
	for i := 0; i < exploratory; i++ {
		pool = append(pool, CapCandidate{
			ItemID:      fmt.Sprintf("E%02d", i),
			Forecast:    float64(50 - i),
			HistoryDays: 5,
		})
	}
	return pool
}

func TestAllocateCapSlots(t *testing.T) {
	params := DefaultParams()

	t.Run("under the cap everything passes", func(t *testing.T) {
		pool := capPool(5, 5)
		got := AllocateCapSlots(pool, 20, params)
		assert.Len(t, got, 10)
	})

	t.Run("proven and exploratory split at the configured ratio", func(t *testing.T) {
		got := AllocateCapSlots(capPool(20, 17), 20, params)
		assert.Len(t, got, 20)

		var proven, exploratory int
		for _, c := range got {
			if c.HistoryDays >= params.ProvenMinDays {
				proven++
			} else {
				exploratory++
			}
		}
		assert.Equal(t, 15, proven)
		assert.Equal(t, 5, exploratory)
	})

	t.Run("slots each pool cannot fill go to the other", func(t *testing.T) {
		got := AllocateCapSlots(capPool(2, 30), 20, params)
		assert.Len(t, got, 20)

		var proven int
		for _, c := range got {
			if c.HistoryDays >= params.ProvenMinDays {
				proven++
			}
		}
		assert.Equal(t, 2, proven)
	})

	t.Run("higher forecasts win within a pool", func(t *testing.T) {
		got := AllocateCapSlots(capPool(20, 0), 10, params)
		assert.Len(t, got, 10)
		for _, c := range got {
			assert.GreaterOrEqual(t, c.Forecast, float64(91))
		}
	})

	t.Run("zero cap selects nothing", func(t *testing.T) {
		assert.Empty(t, AllocateCapSlots(capPool(5, 5), 0, params))
	})
}
