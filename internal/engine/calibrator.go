package engine

import (
	"fmt"
	"time"

	"github.com/storelab/replenish/internal/domain"
)

// ClassifyOutcome grades one decision against what the next day showed.
// MISS is reserved for declined orders that ended in a stockout: the engine
// had the chance to order and said no.
func ClassifyOutcome(predicted, actualSold int, wasStockout bool, params *Params) domain.OutcomeClass {
	switch {
	case wasStockout && predicted == 0:
		return domain.OutcomeMiss
	case wasStockout,
		float64(actualSold) > float64(predicted)*params.OverSellRatio:
		return domain.OutcomeUnderOrder
	case predicted > 0 && float64(actualSold) < float64(predicted)*params.UnderSellRatio:
		return domain.OutcomeOverOrder
	default:
		return domain.OutcomeCorrect
	}
}

// CalibrationInput is the evidence one calibration cycle works from.
// PerishableOutcomes is the subset of Outcomes belonging to perishable items;
// it governs the disuse parameters, while the full set governs the global
// safety-stock scale.
type CalibrationInput struct {
	Outcomes           []domain.EvalOutcome
	PerishableOutcomes []domain.EvalOutcome
}

// CalibrationResult carries the next run's parameters and the audit trail of
// every mutation. Parameters are returned whole (not patched in place) so the
// cycle stays a pure function of its inputs.
type CalibrationResult struct {
	Parameters  []domain.CalibrationParameter
	Adjustments []domain.CalibrationAdjustment
}

// Calibrate runs one feedback cycle: clamp any parameter found outside its
// configured range (stale values inherited from a looser configuration must
// not persist), then nudge parameters whose governed scope fell below the
// accuracy threshold. Every nudge is bounded by the parameter's valid range
// and recorded with its reason and the pre-adjustment accuracy.
func Calibrate(input CalibrationInput, current []domain.CalibrationParameter, params *Params, now time.Time) CalibrationResult {
	result := CalibrationResult{
		Parameters: make([]domain.CalibrationParameter, len(current)),
	}
	copy(result.Parameters, current)

	// Startup safeguard: out-of-range values snap to the nearest bound
	// before any calibration logic sees them.
	for i := range result.Parameters {
		p := &result.Parameters[i]
		clamped := clamp(p.CurrentValue, p.MinValue, p.MaxValue)
		if clamped != p.CurrentValue {
			result.Adjustments = append(result.Adjustments, domain.CalibrationAdjustment{
				Parameter:      p.Name,
				OldValue:       p.CurrentValue,
				NewValue:       clamped,
				Reason:         "stored value outside configured range",
				AccuracyBefore: 0,
				AdjustedAt:     now,
			})
			p.CurrentValue = clamped
			p.LastReason = "out-of-range clamp"
			p.UpdatedAt = now
		}
	}

	if len(input.Outcomes) == 0 {
		return result
	}

	nudge := func(name string, direction int, accuracy float64, reason string) {
		for i := range result.Parameters {
			p := &result.Parameters[i]
			if p.Name != name {
				continue
			}
			step := params.CalibrationStep * (p.MaxValue - p.MinValue)
			next := clamp(p.CurrentValue+float64(direction)*step, p.MinValue, p.MaxValue)
			if next == p.CurrentValue {
				return
			}
			result.Adjustments = append(result.Adjustments, domain.CalibrationAdjustment{
				Parameter:      p.Name,
				OldValue:       p.CurrentValue,
				NewValue:       next,
				Reason:         reason,
				AccuracyBefore: accuracy,
				AdjustedAt:     now,
			})
			p.CurrentValue = next
			p.LastReason = reason
			p.UpdatedAt = now
			return
		}
	}

	accuracy, under, over := scoreOutcomes(input.Outcomes)
	if accuracy < params.AccuracyThreshold {
		switch {
		case under != over:
			direction := 1
			trend := "under-ordering"
			if over > under {
				direction = -1
				trend = "over-ordering"
			}
			nudge(ParamSafetyStockScale, direction, accuracy,
				fmt.Sprintf("accuracy %.2f below %.2f, %s dominant (%d under / %d over)",
					accuracy, params.AccuracyThreshold, trend, under, over))
		default:
			// Errors in both directions in equal measure point at a noisy
			// model, not a biased one. Lean the blend toward the recent
			// average until accuracy recovers.
			reason := fmt.Sprintf("accuracy %.2f below %.2f with mixed errors (%d under / %d over)",
				accuracy, params.AccuracyThreshold, under, over)
			nudge(ParamModelWeightLow, -1, accuracy, reason)
			nudge(ParamModelWeightHigh, -1, accuracy, reason)
		}
	}

	if len(input.PerishableOutcomes) > 0 {
		pAccuracy, pUnder, pOver := scoreOutcomes(input.PerishableOutcomes)
		if pAccuracy < params.AccuracyThreshold && pUnder != pOver {
			// Over-ordering perishables means too much waste: discount
			// harder and let the floor drop so the discount can bite.
			// Under-ordering means the discount bites too deep.
			direction := -1
			trend := "under-ordering"
			if pOver > pUnder {
				direction = 1
				trend = "over-ordering"
			}
			reason := fmt.Sprintf("perishable accuracy %.2f below %.2f, %s dominant",
				pAccuracy, params.AccuracyThreshold, trend)
			nudge(ParamDisuseMultiplier, direction, pAccuracy, reason)
			nudge(ParamDisuseFloor, -direction, pAccuracy, reason)
		}
	}

	return result
}

// scoreOutcomes returns the share of CORRECT outcomes plus the raw
// under-order (including MISS) and over-order counts.
func scoreOutcomes(outcomes []domain.EvalOutcome) (accuracy float64, under, over int) {
	var correct int
	for _, o := range outcomes {
		switch o.OutcomeClass {
		case domain.OutcomeCorrect:
			correct++
		case domain.OutcomeUnderOrder, domain.OutcomeMiss:
			under++
		case domain.OutcomeOverOrder:
			over++
		}
	}
	return float64(correct) / float64(len(outcomes)), under, over
}
