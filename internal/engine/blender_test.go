package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/storelab/replenish/internal/domain"
)

// biasOnlyModel predicts a constant regardless of features.
func biasOnlyModel(value float64) *Model {
	coeffs := make([]float64, 13)
	coeffs[12] = value
	return &Model{coeffs: coeffs}
}

func TestBlendForecastGates(t *testing.T) {
	params := DefaultParams()
	fs := FeatureSet{DayCount: 70, DailyAvg: 10}

	t.Run("nil model returns the rule forecast", func(t *testing.T) {
		assert.InDelta(t, 8.0, BlendForecast(8.0, fs, nil, false, params), 1e-9)
	})

	t.Run("thin history returns the rule forecast", func(t *testing.T) {
		thin := FeatureSet{DayCount: 30, DailyAvg: 10}
		assert.InDelta(t, 8.0, BlendForecast(8.0, thin, biasOnlyModel(20), false, params), 1e-9)
	})

	t.Run("low weight blend", func(t *testing.T) {
		got := BlendForecast(8.0, fs, biasOnlyModel(20), false, params)
		assert.InDelta(t, 0.70*8.0+0.30*20.0, got, 1e-9)
	})

	t.Run("high weight blend", func(t *testing.T) {
		deep := FeatureSet{DayCount: 150, DailyAvg: 10}
		got := BlendForecast(8.0, deep, biasOnlyModel(20), false, params)
		assert.InDelta(t, 0.50*8.0+0.50*20.0, got, 1e-9)
	})

	t.Run("coefficient mismatch falls back to the rule forecast", func(t *testing.T) {
		broken := &Model{coeffs: []float64{1, 2}}
		assert.InDelta(t, 8.0, BlendForecast(8.0, fs, broken, false, params), 1e-9)
	})
}

func TestPredictClampsNegative(t *testing.T) {
	got, err := biasOnlyModel(-5).Predict(make([]float64, 13))
	assert.NoError(t, err)
	assert.Zero(t, got)
}

func TestPredictVectorMismatch(t *testing.T) {
	_, err := biasOnlyModel(5).Predict([]float64{1, 2, 3})
	assert.ErrorIs(t, err, errVectorMismatch)
}

func TestTrainModelTooThin(t *testing.T) {
	noPromo := func(time.Time) bool { return false }

	assert.Nil(t, TrainModel(nil, noPromo))
	assert.Nil(t, TrainModel(flatHistory(runDate, 40, 10), noPromo))
}

func TestTrainModelPredictsFlatSeries(t *testing.T) {
	noPromo := func(time.Time) bool { return false }
	history := flatHistory(runDate, 90, 10)

	model := TrainModel(history, noPromo)
	if !assert.NotNil(t, model) {
		return
	}

	fs := ComputeFeatures(history, runDate)
	pred, err := model.Predict(fs.Vector(false))
	assert.NoError(t, err)
	assert.InDelta(t, 10.0, pred, 0.5)
}

func TestTrainModelLearnsWeekendLift(t *testing.T) {
	// Weekdays sell 10, weekends sell 30.
	var history []domain.SalesRecord
	for i := 120; i >= 1; i-- {
		d := runDate.AddDate(0, 0, -i)
		qty := 10
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			qty = 30
		}
		history = append(history, domain.SalesRecord{Date: d, ItemID: "A001", SaleQty: qty})
	}

	model := TrainModel(history, func(time.Time) bool { return false })
	if !assert.NotNil(t, model) {
		return
	}

	saturday := runDate.AddDate(0, 0, 1)
	wednesday := runDate.AddDate(0, 0, -2)

	weekend, err := model.Predict(ComputeFeatures(history, saturday).Vector(false))
	assert.NoError(t, err)
	weekday, err := model.Predict(ComputeFeatures(history, wednesday).Vector(false))
	assert.NoError(t, err)

	assert.Greater(t, weekend, weekday)
}
