package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/storelab/replenish/internal/domain"
	"github.com/storelab/replenish/internal/engine"
	"github.com/storelab/replenish/internal/repository"
)

// CalibrationService closes the feedback loop: it grades yesterday's
// decisions against today's sales and nudges the calibratable parameters.
type CalibrationService struct {
	items       repository.ItemRepository
	sales       repository.SalesRepository
	predictions repository.PredictionRepository
	outcomes    repository.OutcomeRepository
	calibration repository.CalibrationRepository
	params      *engine.Params
}

func NewCalibrationService(
	items repository.ItemRepository,
	sales repository.SalesRepository,
	predictions repository.PredictionRepository,
	outcomes repository.OutcomeRepository,
	calibration repository.CalibrationRepository,
	params *engine.Params,
) *CalibrationService {
	return &CalibrationService{
		items:       items,
		sales:       sales,
		predictions: predictions,
		outcomes:    outcomes,
		calibration: calibration,
		params:      params,
	}
}

// CalibrationRunResult summarizes one calibration cycle.
type CalibrationRunResult struct {
	EvaluatedDate time.Time                      `json:"evaluated_date"`
	Outcomes      int                            `json:"outcomes"`
	Adjustments   []domain.CalibrationAdjustment `json:"adjustments"`
}

// RunCalibration evaluates the run of evalDate against that day's actual
// sales and applies any parameter nudges the evidence supports. It is meant
// to run the following day, after the collector has ingested evalDate's
// sales export.
func (s *CalibrationService) RunCalibration(ctx context.Context, evalDate time.Time) (*CalibrationRunResult, error) {
	predictions, err := s.predictions.ByRunDate(ctx, evalDate)
	if err != nil {
		return nil, fmt.Errorf("failed to load predictions for %s: %w", evalDate.Format("2006-01-02"), err)
	}
	if len(predictions) == 0 {
		return &CalibrationRunResult{EvaluatedDate: evalDate}, nil
	}

	actuals, err := s.actualsOn(ctx, evalDate)
	if err != nil {
		return nil, err
	}

	outcomes := s.gradeOutcomes(evalDate, predictions, actuals)
	if err := s.outcomes.Save(ctx, outcomes); err != nil {
		return nil, fmt.Errorf("failed to save outcomes: %w", err)
	}

	adjustments, err := s.applyCalibration(ctx, outcomes)
	if err != nil {
		return nil, err
	}

	log.Info().
		Time("evaluated_date", evalDate).
		Int("outcomes", len(outcomes)).
		Int("adjustments", len(adjustments)).
		Msg("calibration cycle completed")

	return &CalibrationRunResult{
		EvaluatedDate: evalDate,
		Outcomes:      len(outcomes),
		Adjustments:   adjustments,
	}, nil
}

func (s *CalibrationService) actualsOn(ctx context.Context, date time.Time) (map[string]domain.SalesRecord, error) {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())

	history, err := s.sales.HistorySince(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("failed to load actual sales: %w", err)
	}

	actuals := make(map[string]domain.SalesRecord)
	for itemID, records := range history {
		for _, rec := range records {
			if rec.Date.Year() == day.Year() && rec.Date.YearDay() == day.YearDay() {
				actuals[itemID] = rec
				break
			}
		}
	}
	return actuals, nil
}

// gradeOutcomes classifies every decision that has an actual to compare
// against. Items missing from the day's export are left ungraded rather than
// guessed.
func (s *CalibrationService) gradeOutcomes(evalDate time.Time, predictions []domain.PredictionResult, actuals map[string]domain.SalesRecord) []domain.EvalOutcome {
	var outcomes []domain.EvalOutcome
	for _, p := range predictions {
		if p.Decision == domain.DecisionSkip {
			continue
		}
		actual, ok := actuals[p.ItemID]
		if !ok {
			continue
		}

		wasStockout := actual.StockQty == 0
		outcomes = append(outcomes, domain.EvalOutcome{
			Date:          evalDate,
			ItemID:        p.ItemID,
			Decision:      p.Decision,
			PredictedQty:  p.FinalOrderQty,
			ActualSoldQty: actual.SaleQty,
			WasStockout:   wasStockout,
			OutcomeClass:  engine.ClassifyOutcome(p.FinalOrderQty, actual.SaleQty, wasStockout, s.params),
		})
	}
	return outcomes
}

func (s *CalibrationService) applyCalibration(ctx context.Context, outcomes []domain.EvalOutcome) ([]domain.CalibrationAdjustment, error) {
	current, err := s.calibration.Parameters(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load calibration parameters: %w", err)
	}
	if len(current) == 0 {
		current = engine.DefaultCalibrationParameters(time.Now())
		if err := s.calibration.Seed(ctx, current); err != nil {
			return nil, fmt.Errorf("failed to seed calibration parameters: %w", err)
		}
	}

	perishable, err := s.perishableSubset(ctx, outcomes)
	if err != nil {
		return nil, err
	}

	result := engine.Calibrate(engine.CalibrationInput{
		Outcomes:           outcomes,
		PerishableOutcomes: perishable,
	}, current, s.params, time.Now())

	if len(result.Adjustments) == 0 {
		return nil, nil
	}

	if err := s.calibration.SaveParameters(ctx, result.Parameters); err != nil {
		return nil, fmt.Errorf("failed to save calibrated parameters: %w", err)
	}
	if err := s.calibration.AppendAdjustments(ctx, result.Adjustments); err != nil {
		return nil, fmt.Errorf("failed to append calibration history: %w", err)
	}

	return result.Adjustments, nil
}

func (s *CalibrationService) perishableSubset(ctx context.Context, outcomes []domain.EvalOutcome) ([]domain.EvalOutcome, error) {
	items, err := s.items.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}

	perishableIDs := make(map[string]bool)
	for _, item := range items {
		if domain.GroupForCategory(item.CategoryCode).Perishable() {
			perishableIDs[item.ItemID] = true
		}
	}

	var subset []domain.EvalOutcome
	for _, o := range outcomes {
		if perishableIDs[o.ItemID] {
			subset = append(subset, o)
		}
	}
	return subset, nil
}
