package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/storelab/replenish/internal/cache"
	"github.com/storelab/replenish/internal/domain"
	"github.com/storelab/replenish/internal/engine"
)

// In-memory repository fakes. Only the methods the services under test hit
// carry behavior; the rest return empty results.

type fakeItemRepo struct {
	items []domain.Item
}

func (f *fakeItemRepo) Upsert(ctx context.Context, items []domain.Item) error { return nil }
func (f *fakeItemRepo) List(ctx context.Context) ([]domain.Item, error)       { return f.items, nil }
func (f *fakeItemRepo) Get(ctx context.Context, itemID string) (*domain.Item, error) {
	for i := range f.items {
		if f.items[i].ItemID == itemID {
			return &f.items[i], nil
		}
	}
	return nil, nil
}

type fakeSalesRepo struct {
	history map[string][]domain.SalesRecord
}

func (f *fakeSalesRepo) UpsertRecords(ctx context.Context, records []domain.SalesRecord) error {
	return nil
}

func (f *fakeSalesRepo) HistorySince(ctx context.Context, from time.Time) (map[string][]domain.SalesRecord, error) {
	out := make(map[string][]domain.SalesRecord)
	for id, records := range f.history {
		for _, rec := range records {
			if !rec.Date.Before(from) {
				out[id] = append(out[id], rec)
			}
		}
	}
	return out, nil
}

func (f *fakeSalesRepo) ItemHistory(ctx context.Context, itemID string, from time.Time) ([]domain.SalesRecord, error) {
	return f.history[itemID], nil
}

func (f *fakeSalesRepo) LatestStocks(ctx context.Context) (map[string]domain.InventorySnapshot, error) {
	return nil, nil
}

func (f *fakeSalesRepo) DailyOrderedCounts(ctx context.Context, categoryCodes []string, from time.Time) ([]domain.DailyOrderCount, error) {
	return nil, nil
}

func (f *fakeSalesRepo) CategoryDisuseRates(ctx context.Context, from time.Time) (map[string]float64, error) {
	return nil, nil
}

type fakePromotionRepo struct {
	windows []domain.Promotion
}

func (f *fakePromotionRepo) Upsert(ctx context.Context, promos []domain.Promotion) error {
	return nil
}

func (f *fakePromotionRepo) ActiveOn(ctx context.Context, date time.Time) ([]domain.Promotion, error) {
	var out []domain.Promotion
	for _, w := range f.windows {
		if w.ActiveOn(date) {
			out = append(out, w)
		}
	}
	return out, nil
}

func (f *fakePromotionRepo) Overlapping(ctx context.Context, from, to time.Time) ([]domain.Promotion, error) {
	var out []domain.Promotion
	for _, w := range f.windows {
		if !w.StartsOn.After(to) && !w.EndsOn.Before(from) {
			out = append(out, w)
		}
	}
	return out, nil
}

type fakePredictionRepo struct {
	byRunDate map[string][]domain.PredictionResult
	saved     []domain.PredictionResult
	failFor   map[string]bool
}

func (f *fakePredictionRepo) Save(ctx context.Context, result domain.PredictionResult) error {
	if f.failFor[result.ItemID] {
		return errors.New("prediction write rejected")
	}
	f.saved = append(f.saved, result)
	return nil
}

func (f *fakePredictionRepo) ByRunDate(ctx context.Context, runDate time.Time) ([]domain.PredictionResult, error) {
	return f.byRunDate[runDate.Format("2006-01-02")], nil
}

func (f *fakePredictionRepo) LatestRunDate(ctx context.Context) (time.Time, error) {
	var latest time.Time
	for key := range f.byRunDate {
		d, _ := time.Parse("2006-01-02", key)
		if d.After(latest) {
			latest = d
		}
	}
	return latest, nil
}

func (f *fakePredictionRepo) DecisionCounts(ctx context.Context, runDate time.Time) ([]domain.DecisionCount, error) {
	return nil, nil
}

type fakeOutcomeRepo struct {
	saved  []domain.EvalOutcome
	counts []domain.OutcomeCount
}

func (f *fakeOutcomeRepo) Save(ctx context.Context, outcomes []domain.EvalOutcome) error {
	f.saved = append(f.saved, outcomes...)
	return nil
}

func (f *fakeOutcomeRepo) ByDate(ctx context.Context, date time.Time) ([]domain.EvalOutcome, error) {
	return f.saved, nil
}

func (f *fakeOutcomeRepo) CountsByClass(ctx context.Context, from, to time.Time) ([]domain.OutcomeCount, error) {
	return f.counts, nil
}

type fakeCalibrationRepo struct {
	params      []domain.CalibrationParameter
	adjustments []domain.CalibrationAdjustment
}

func (f *fakeCalibrationRepo) Seed(ctx context.Context, params []domain.CalibrationParameter) error {
	if len(f.params) == 0 {
		f.params = params
	}
	return nil
}

func (f *fakeCalibrationRepo) Parameters(ctx context.Context) ([]domain.CalibrationParameter, error) {
	return f.params, nil
}

func (f *fakeCalibrationRepo) SaveParameters(ctx context.Context, params []domain.CalibrationParameter) error {
	f.params = params
	return nil
}

func (f *fakeCalibrationRepo) AppendAdjustments(ctx context.Context, adjustments []domain.CalibrationAdjustment) error {
	f.adjustments = append(f.adjustments, adjustments...)
	return nil
}

func (f *fakeCalibrationRepo) History(ctx context.Context, parameter string, limit int) ([]domain.CalibrationAdjustment, error) {
	return f.adjustments, nil
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCalibrationServiceGradesAndPersistsOutcomes(t *testing.T) {
	evalDate := day(2025, 7, 10)

	predictions := &fakePredictionRepo{byRunDate: map[string][]domain.PredictionResult{
		"2025-07-10": {
			// Sold roughly what was ordered.
			{RunDate: evalDate, ItemID: "A001", Decision: domain.DecisionNormal, FinalOrderQty: 10},
			// Ordered nothing, then stocked out.
			{RunDate: evalDate, ItemID: "A002", Decision: domain.DecisionPass, FinalOrderQty: 0},
			// SKIP decisions are never graded.
			{RunDate: evalDate, ItemID: "A003", Decision: domain.DecisionSkip, FinalOrderQty: 0},
			// No actuals row for this one; it stays ungraded.
			{RunDate: evalDate, ItemID: "A004", Decision: domain.DecisionNormal, FinalOrderQty: 5},
		},
	}}
	sales := &fakeSalesRepo{history: map[string][]domain.SalesRecord{
		"A001": {{Date: evalDate, ItemID: "A001", SaleQty: 9, StockQty: 4}},
		"A002": {{Date: evalDate, ItemID: "A002", SaleQty: 3, StockQty: 0}},
		"A003": {{Date: evalDate, ItemID: "A003", SaleQty: 1, StockQty: 2}},
	}}
	outcomes := &fakeOutcomeRepo{}
	calibrationRepo := &fakeCalibrationRepo{}
	items := &fakeItemRepo{items: []domain.Item{
		{ItemID: "A001", CategoryCode: "SN01"},
		{ItemID: "A002", CategoryCode: "FF01"},
	}}

	svc := NewCalibrationService(items, sales, predictions, outcomes, calibrationRepo, engine.DefaultParams())

	result, err := svc.RunCalibration(context.Background(), evalDate)
	assert.NoError(t, err)
	assert.Equal(t, 2, result.Outcomes)
	assert.Len(t, outcomes.saved, 2)

	byItem := make(map[string]domain.EvalOutcome)
	for _, o := range outcomes.saved {
		byItem[o.ItemID] = o
	}
	assert.Equal(t, domain.OutcomeCorrect, byItem["A001"].OutcomeClass)
	assert.Equal(t, domain.OutcomeMiss, byItem["A002"].OutcomeClass)
	assert.True(t, byItem["A002"].WasStockout)

	// Parameters were seeded on first use.
	assert.NotEmpty(t, calibrationRepo.params)
}

func TestCalibrationServiceNoPredictionsIsNoop(t *testing.T) {
	svc := NewCalibrationService(
		&fakeItemRepo{},
		&fakeSalesRepo{},
		&fakePredictionRepo{},
		&fakeOutcomeRepo{},
		&fakeCalibrationRepo{},
		engine.DefaultParams(),
	)

	result, err := svc.RunCalibration(context.Background(), day(2025, 7, 10))
	assert.NoError(t, err)
	assert.Equal(t, 0, result.Outcomes)
	assert.Empty(t, result.Adjustments)
}

func TestReportServiceOrderListFiltersNonOrders(t *testing.T) {
	runDate := day(2025, 7, 11)
	predictions := &fakePredictionRepo{byRunDate: map[string][]domain.PredictionResult{
		"2025-07-11": {
			{RunDate: runDate, ItemID: "A001", Decision: domain.DecisionNormal, FinalOrderQty: 12},
			{RunDate: runDate, ItemID: "A002", Decision: domain.DecisionPass, FinalOrderQty: 0},
			{RunDate: runDate, ItemID: "A003", Decision: domain.DecisionForce, FinalOrderQty: 1},
			{RunDate: runDate, ItemID: "A004", Decision: domain.DecisionSkip, FinalOrderQty: 0},
		},
	}}

	svc := NewReportService(predictions, &fakeOutcomeRepo{}, &fakeCalibrationRepo{})

	lines, err := svc.OrderList(context.Background(), runDate)
	assert.NoError(t, err)
	assert.Len(t, lines, 2)
	assert.Equal(t, "A001", lines[0].ItemID)
	assert.Equal(t, 12, lines[0].Quantity)
	assert.Equal(t, "A003", lines[1].ItemID)
}

func TestReportServiceRunDefaultsToLatest(t *testing.T) {
	predictions := &fakePredictionRepo{byRunDate: map[string][]domain.PredictionResult{
		"2025-07-10": {{ItemID: "A001", Decision: domain.DecisionNormal, FinalOrderQty: 3}},
		"2025-07-11": {{ItemID: "A002", Decision: domain.DecisionNormal, FinalOrderQty: 6}},
	}}

	svc := NewReportService(predictions, &fakeOutcomeRepo{}, &fakeCalibrationRepo{})

	report, err := svc.Run(context.Background(), time.Time{})
	assert.NoError(t, err)
	assert.Equal(t, day(2025, 7, 11), report.RunDate)
	assert.Len(t, report.Predictions, 1)
	assert.Equal(t, "A002", report.Predictions[0].ItemID)
}

func TestReportServiceRunErrorsWhenEmpty(t *testing.T) {
	svc := NewReportService(&fakePredictionRepo{}, &fakeOutcomeRepo{}, &fakeCalibrationRepo{})

	_, err := svc.Run(context.Background(), time.Time{})
	assert.Error(t, err)
}

func TestReportServiceAccuracy(t *testing.T) {
	outcomes := &fakeOutcomeRepo{counts: []domain.OutcomeCount{
		{OutcomeClass: domain.OutcomeCorrect, Count: 6},
		{OutcomeClass: domain.OutcomeUnderOrder, Count: 3},
		{OutcomeClass: domain.OutcomeOverOrder, Count: 1},
	}}

	svc := NewReportService(&fakePredictionRepo{}, outcomes, &fakeCalibrationRepo{})

	report, err := svc.Accuracy(context.Background(), day(2025, 7, 1), day(2025, 7, 10))
	assert.NoError(t, err)
	assert.InDelta(t, 0.6, report.Accuracy, 1e-9)
}

func saleDays(itemID string, until time.Time, days, qty int) []domain.SalesRecord {
	recs := make([]domain.SalesRecord, 0, days)
	for i := days; i >= 1; i-- {
		recs = append(recs, domain.SalesRecord{
			Date:     until.AddDate(0, 0, -i),
			ItemID:   itemID,
			SaleQty:  qty,
			StockQty: qty,
		})
	}
	return recs
}

func TestForecastServiceContinuesAfterSaveFailure(t *testing.T) {
	target := day(2025, 7, 10)

	items := &fakeItemRepo{items: []domain.Item{
		{ItemID: "A001", CategoryCode: "ZZ99", ShelfLifeDays: 90, OrderUnit: 1, Status: domain.ItemActive},
		{ItemID: "A002", CategoryCode: "ZZ99", ShelfLifeDays: 90, OrderUnit: 1, Status: domain.ItemActive},
	}}
	sales := &fakeSalesRepo{history: map[string][]domain.SalesRecord{
		"A001": saleDays("A001", target, 21, 10),
		"A002": saleDays("A002", target, 21, 8),
	}}
	predictions := &fakePredictionRepo{failFor: map[string]bool{"A002": true}}

	params := engine.DefaultParams()
	svc := NewForecastService(
		items, sales, &fakePromotionRepo{}, predictions, &fakeCalibrationRepo{},
		cache.NewNoopSnapshotCache(), nil, params, 2,
	)

	res, err := svc.RunForecast(context.Background(), target)
	assert.NoError(t, err)

	// A002's log write failed: it counts as a data error, is absent from
	// the persisted log and the order list, and A001 goes through untouched.
	assert.Equal(t, 1, res.Summary.DataErrors)
	assert.Len(t, predictions.saved, 1)
	assert.Equal(t, "A001", predictions.saved[0].ItemID)
	for _, line := range res.OrderLines {
		assert.NotEqual(t, "A002", line.ItemID)
	}
	assert.Len(t, res.OrderLines, 1)
}

func TestPromoActiveSeesPastWindows(t *testing.T) {
	windows := []domain.Promotion{
		{ItemID: "A001", StartsOn: day(2025, 3, 1), EndsOn: day(2025, 3, 7)},
		{ItemID: "A001", StartsOn: day(2025, 7, 8), EndsOn: day(2025, 7, 12)},
	}

	active := promoActive(windows)

	// A training date inside the March window flags, even though that
	// promotion ended months before the run.
	assert.True(t, active(day(2025, 3, 4)))
	assert.True(t, active(day(2025, 3, 1)))
	assert.True(t, active(day(2025, 3, 7)))

	assert.False(t, active(day(2025, 2, 28)))
	assert.False(t, active(day(2025, 3, 8)))
	assert.False(t, active(day(2025, 5, 1)))

	// The current window still flags the target date.
	assert.True(t, active(day(2025, 7, 10)))

	assert.False(t, promoActive(nil)(day(2025, 7, 10)))
}
