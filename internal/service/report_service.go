package service

import (
	"context"
	"fmt"
	"time"

	"github.com/storelab/replenish/internal/domain"
	"github.com/storelab/replenish/internal/repository"
)

// ReportService serves the read-only reporting surface.
type ReportService struct {
	predictions repository.PredictionRepository
	outcomes    repository.OutcomeRepository
	calibration repository.CalibrationRepository
}

func NewReportService(
	predictions repository.PredictionRepository,
	outcomes repository.OutcomeRepository,
	calibration repository.CalibrationRepository,
) *ReportService {
	return &ReportService{
		predictions: predictions,
		outcomes:    outcomes,
		calibration: calibration,
	}
}

// RunReport is one run's predictions plus its per-category decision mix.
type RunReport struct {
	RunDate     time.Time                 `json:"run_date"`
	Predictions []domain.PredictionResult `json:"predictions"`
	Decisions   []domain.DecisionCount    `json:"decisions"`
}

func (s *ReportService) Run(ctx context.Context, runDate time.Time) (*RunReport, error) {
	if runDate.IsZero() {
		latest, err := s.predictions.LatestRunDate(ctx)
		if err != nil {
			return nil, err
		}
		if latest.IsZero() {
			return nil, fmt.Errorf("no forecast runs recorded yet")
		}
		runDate = latest
	}

	predictions, err := s.predictions.ByRunDate(ctx, runDate)
	if err != nil {
		return nil, err
	}

	decisions, err := s.predictions.DecisionCounts(ctx, runDate)
	if err != nil {
		return nil, err
	}

	return &RunReport{
		RunDate:     runDate,
		Predictions: predictions,
		Decisions:   decisions,
	}, nil
}

func (s *ReportService) OrderList(ctx context.Context, runDate time.Time) ([]domain.OrderLine, error) {
	report, err := s.Run(ctx, runDate)
	if err != nil {
		return nil, err
	}

	var lines []domain.OrderLine
	for _, p := range report.Predictions {
		if p.Decision.Orderable() && p.FinalOrderQty > 0 {
			lines = append(lines, domain.OrderLine{
				ItemID:   p.ItemID,
				Quantity: p.FinalOrderQty,
				Decision: p.Decision,
			})
		}
	}
	return lines, nil
}

// AccuracyReport aggregates outcome classes over a date window.
type AccuracyReport struct {
	From     time.Time             `json:"from"`
	To       time.Time             `json:"to"`
	Counts   []domain.OutcomeCount `json:"counts"`
	Accuracy float64               `json:"accuracy"`
}

func (s *ReportService) Accuracy(ctx context.Context, from, to time.Time) (*AccuracyReport, error) {
	counts, err := s.outcomes.CountsByClass(ctx, from, to)
	if err != nil {
		return nil, err
	}

	var total, correct int
	for _, c := range counts {
		total += c.Count
		if c.OutcomeClass == domain.OutcomeCorrect {
			correct += c.Count
		}
	}

	report := &AccuracyReport{From: from, To: to, Counts: counts}
	if total > 0 {
		report.Accuracy = float64(correct) / float64(total)
	}
	return report, nil
}

func (s *ReportService) Parameters(ctx context.Context) ([]domain.CalibrationParameter, error) {
	return s.calibration.Parameters(ctx)
}

func (s *ReportService) ParameterHistory(ctx context.Context, name string, limit int) ([]domain.CalibrationAdjustment, error) {
	return s.calibration.History(ctx, name, limit)
}
