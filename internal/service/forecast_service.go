package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/storelab/replenish/internal/cache"
	"github.com/storelab/replenish/internal/domain"
	"github.com/storelab/replenish/internal/engine"
	"github.com/storelab/replenish/internal/repository"
	"github.com/storelab/replenish/internal/storage"
)

// historyWindowDays bounds how much ledger history one run loads: enough for
// the year-ago lag feature plus the training warmup.
const historyWindowDays = 400

// capHistoryDays bounds the ordered-item-count series behind the daily cap.
const capHistoryDays = 60

// ForecastService assembles a run's inputs, executes the engine batch, and
// persists everything the run produces.
type ForecastService struct {
	items       repository.ItemRepository
	sales       repository.SalesRepository
	promotions  repository.PromotionRepository
	predictions repository.PredictionRepository
	calibration repository.CalibrationRepository
	snapshots   cache.SnapshotCache
	archive     storage.ObjectStorage
	params      *engine.Params
	workers     int
}

func NewForecastService(
	items repository.ItemRepository,
	sales repository.SalesRepository,
	promotions repository.PromotionRepository,
	predictions repository.PredictionRepository,
	calibration repository.CalibrationRepository,
	snapshots cache.SnapshotCache,
	archive storage.ObjectStorage,
	params *engine.Params,
	workers int,
) *ForecastService {
	return &ForecastService{
		items:       items,
		sales:       sales,
		promotions:  promotions,
		predictions: predictions,
		calibration: calibration,
		snapshots:   snapshots,
		archive:     archive,
		params:      params,
		workers:     workers,
	}
}

// RunResult is what one forecast run hands back to the caller.
type RunResult struct {
	Summary    domain.RunSummary  `json:"summary"`
	OrderLines []domain.OrderLine `json:"order_lines"`
}

// RunForecast executes the full daily batch for the target date and persists
// the prediction log and the order list.
func (s *ForecastService) RunForecast(ctx context.Context, targetDate time.Time) (*RunResult, error) {
	if err := s.applyCalibratedParams(ctx); err != nil {
		return nil, err
	}

	input, err := s.assembleRunInput(ctx, targetDate)
	if err != nil {
		return nil, err
	}

	eng := engine.New(s.params, s.workers)
	out, err := eng.Run(ctx, *input)
	if err != nil {
		return nil, fmt.Errorf("forecast batch failed: %w", err)
	}

	// Each prediction log is its own transaction: a write failure skips the
	// item, not the run.
	persisted := make([]domain.PredictionResult, 0, len(out.Predictions))
	for _, p := range out.Predictions {
		if err := s.predictions.Save(ctx, p); err != nil {
			log.Error().Err(err).
				Str("item_id", p.ItemID).
				Time("run_date", p.RunDate).
				Msg("prediction log write failed, skipping item")
			out.Summary.DataErrors++
			continue
		}
		persisted = append(persisted, p)
	}

	lines := engine.OrderLines(persisted)
	if err := s.archiveOrderSheet(ctx, targetDate, lines); err != nil {
		// Archival is best effort; the order list itself is already safe
		// in the prediction log.
		log.Warn().Err(err).Msg("order sheet archival failed")
	}

	return &RunResult{Summary: out.Summary, OrderLines: lines}, nil
}

// applyCalibratedParams loads the persisted calibration values onto the run
// parameters, seeding the table on first use.
func (s *ForecastService) applyCalibratedParams(ctx context.Context) error {
	rows, err := s.calibration.Parameters(ctx)
	if err != nil {
		return fmt.Errorf("failed to load calibration parameters: %w", err)
	}

	if len(rows) == 0 {
		seed := engine.DefaultCalibrationParameters(time.Now())
		if err := s.calibration.Seed(ctx, seed); err != nil {
			return fmt.Errorf("failed to seed calibration parameters: %w", err)
		}
		rows = seed
	}

	s.params.ApplyCalibration(rows)
	return nil
}

func (s *ForecastService) assembleRunInput(ctx context.Context, targetDate time.Time) (*engine.RunInput, error) {
	items, err := s.items.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}

	from := targetDate.AddDate(0, 0, -historyWindowDays)
	history, err := s.sales.HistorySince(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("failed to load sales history: %w", err)
	}

	promos, err := s.promotions.ActiveOn(ctx, targetDate)
	if err != nil {
		return nil, fmt.Errorf("failed to load promotions: %w", err)
	}
	promoByItem := make(map[string]*domain.Promotion, len(promos))
	for i := range promos {
		promoByItem[promos[i].ItemID] = &promos[i]
	}

	// Training needs every promotion window that touches the history range,
	// not just today's, or past promo days would train as baseline days.
	windows, err := s.promotions.Overlapping(ctx, from, targetDate)
	if err != nil {
		return nil, fmt.Errorf("failed to load promotion windows: %w", err)
	}
	windowsByItem := make(map[string][]domain.Promotion)
	for _, w := range windows {
		windowsByItem[w.ItemID] = append(windowsByItem[w.ItemID], w)
	}

	disuseRates, err := s.sales.CategoryDisuseRates(ctx, targetDate.AddDate(0, 0, -s.params.DisuseLookback))
	if err != nil {
		return nil, fmt.Errorf("failed to load category disuse rates: %w", err)
	}

	liveStocks, err := s.sales.LatestStocks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load latest stocks: %w", err)
	}

	input := &engine.RunInput{
		TargetDate: targetDate,
		Items:      make([]engine.ItemContext, 0, len(items)),
	}

	for _, item := range items {
		hist := history[item.ItemID]

		input.Items = append(input.Items, engine.ItemContext{
			Item:               item,
			History:            hist,
			Snapshot:           s.resolveSnapshot(ctx, item.ItemID, liveStocks),
			Promotion:          promoByItem[item.ItemID],
			Model:              engine.TrainModel(hist, promoActive(windowsByItem[item.ItemID])),
			CategoryDisuseRate: disuseRates[item.CategoryCode],
		})
	}

	counts, err := s.capHistory(ctx, targetDate)
	if err != nil {
		return nil, err
	}
	input.OrderCounts = counts

	return input, nil
}

// promoActive reports, for any date, whether one of the item's promotion
// windows covered it. Used to flag training days the same way the target day
// is flagged at inference.
func promoActive(windows []domain.Promotion) func(time.Time) bool {
	return func(d time.Time) bool {
		for i := range windows {
			if windows[i].ActiveOn(d) {
				return true
			}
		}
		return false
	}
}

// resolveSnapshot picks the freshest inventory figure available: the cache
// first, the ledger's latest row second, and an explicit fallback marker when
// neither knows the item.
func (s *ForecastService) resolveSnapshot(ctx context.Context, itemID string, live map[string]domain.InventorySnapshot) domain.InventorySnapshot {
	cached, found, err := s.snapshots.Get(ctx, itemID)
	if err != nil {
		log.Warn().Err(err).Str("item_id", itemID).Msg("snapshot cache read failed, using ledger")
	}
	if found && !cached.IsStale {
		return *cached
	}

	if snap, ok := live[itemID]; ok {
		return snap
	}

	if found {
		// Stale cache beats nothing at all.
		return *cached
	}

	return domain.InventorySnapshot{
		ItemID: itemID,
		Source: domain.SourceFallback,
	}
}

// capHistory builds the ordered-item-count series for every perishable group.
func (s *ForecastService) capHistory(ctx context.Context, targetDate time.Time) (map[domain.CategoryGroup]engine.CapHistory, error) {
	result := make(map[domain.CategoryGroup]engine.CapHistory)

	for _, group := range []domain.CategoryGroup{domain.GroupFresh} {
		codes := domain.CategoryCodes(group)
		if len(codes) == 0 {
			continue
		}

		counts, err := s.sales.DailyOrderedCounts(ctx, codes, targetDate.AddDate(0, 0, -capHistoryDays))
		if err != nil {
			return nil, fmt.Errorf("failed to load ordered counts for %s: %w", group, err)
		}

		var hist engine.CapHistory
		for _, c := range counts {
			if c.Date.Weekday() == targetDate.Weekday() {
				hist.SameWeekdayCounts = append(hist.SameWeekdayCounts, float64(c.Count))
			}
			hist.OverallCounts = append(hist.OverallCounts, float64(c.Count))
		}
		result[group] = hist
	}

	return result, nil
}

// archiveOrderSheet uploads the run's order list as CSV to object storage.
func (s *ForecastService) archiveOrderSheet(ctx context.Context, targetDate time.Time, lines []domain.OrderLine) error {
	if s.archive == nil || len(lines) == 0 {
		return nil
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"item_id", "quantity", "decision"}); err != nil {
		return err
	}
	for _, line := range lines {
		if err := w.Write([]string{line.ItemID, strconv.Itoa(line.Quantity), string(line.Decision)}); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}

	key := fmt.Sprintf("order-sheets/%s.csv", targetDate.Format("2006-01-02"))
	return s.archive.UploadObject(ctx, key, buf.Bytes())
}
