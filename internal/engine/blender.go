package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"

	"github.com/storelab/replenish/internal/domain"
)

// minTrainRows guards the least-squares fit; with fewer target rows than
// this the normal equations are too thin to mean anything.
const minTrainRows = 30

// trainWarmupDays are skipped at the head of the history so every training
// row has real lag/rolling features behind it.
const trainWarmupDays = 14

// ridgeLambda is the L2 regularization strength of the fit.
const ridgeLambda = 1.0

var errVectorMismatch = errors.New("feature vector length does not match trained coefficients")

// Model is a linear demand model fit per item on its own history. The
// feature vector is built by FeatureSet.Vector at both training and inference
// time, so the definitions cannot drift between the two.
type Model struct {
	coeffs []float64
}

// TrainModel fits a least-squares model predicting next-day sales from the
// feature vector. promoOn reports whether a promotion was active on a date.
// Returns nil (not an error) when history is too thin to fit.
func TrainModel(history []domain.SalesRecord, promoOn func(time.Time) bool) *Model {
	byDate := make(map[time.Time]float64, len(history))
	var dates []time.Time
	for _, rec := range history {
		d := truncateDay(rec.Date)
		if _, seen := byDate[d]; !seen {
			dates = append(dates, d)
		}
		byDate[d] = float64(rec.SaleQty)
	}
	sortDates(dates)

	if len(dates) <= trainWarmupDays+minTrainRows {
		return nil
	}

	var rows [][]float64
	var targets []float64
	for _, d := range dates[trainWarmupDays:] {
		fs := ComputeFeatures(history, d)
		rows = append(rows, fs.Vector(promoOn(d)))
		targets = append(targets, byDate[d])
	}

	cols := len(rows[0])
	a := mat.NewDense(len(rows), cols, nil)
	for i, row := range rows {
		a.SetRow(i, row)
	}
	b := mat.NewVecDense(len(targets), targets)

	// Ridge-regularized normal equations. The L2 term keeps the system
	// nonsingular even when a feature column is constant, which is the
	// normal case for items that never ran a promotion.
	var ata mat.Dense
	ata.Mul(a.T(), a)
	for i := 0; i < cols; i++ {
		ata.Set(i, i, ata.At(i, i)+ridgeLambda)
	}
	var atb mat.VecDense
	atb.MulVec(a.T(), b)

	var sol mat.VecDense
	if err := sol.SolveVec(&ata, &atb); err != nil {
		log.Warn().Err(err).Msg("ridge fit failed, model disabled for item")
		return nil
	}

	coeffs := make([]float64, cols)
	for i := range coeffs {
		coeffs[i] = sol.AtVec(i)
	}
	return &Model{coeffs: coeffs}
}

// Predict returns the model's demand estimate for the feature vector,
// clamped at zero. A length mismatch is a hard error so the caller can fall
// back to the rule-based forecast instead of producing garbage.
func (m *Model) Predict(vector []float64) (float64, error) {
	if len(vector) != len(m.coeffs) {
		return 0, fmt.Errorf("%w: got %d features, trained on %d",
			errVectorMismatch, len(vector), len(m.coeffs))
	}

	var sum float64
	for i, v := range vector {
		sum += v * m.coeffs[i]
	}
	if sum < 0 {
		sum = 0
	}
	return sum, nil
}

// BlendForecast mixes the learned-model estimate into the rule-based
// forecast, gated by history depth. Any model problem degrades to the
// rule-based value with a warning; blending never fails an item.
func BlendForecast(ruleQty float64, fs FeatureSet, model *Model, promoActive bool, params *Params) float64 {
	if model == nil || fs.DayCount < params.ModelMinDays {
		return ruleQty
	}

	pred, err := model.Predict(fs.Vector(promoActive))
	if err != nil {
		log.Warn().Err(err).Msg("model prediction unavailable, using rule-based forecast")
		return ruleQty
	}

	weight := params.ModelWeightLow
	if fs.DayCount >= params.ModelHighDays {
		weight = params.ModelWeightHigh
	}
	return (1-weight)*ruleQty + weight*pred
}
