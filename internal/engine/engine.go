// Package engine implements the forecasting and order-reconciliation core.
// Everything in it is pure computation over inputs assembled by the service
// layer; nothing here touches the database, the cache, or the network.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/storelab/replenish/internal/domain"
	"github.com/storelab/replenish/internal/engine/category"
)

// ItemContext is the fully assembled input for one item in one run. The
// service layer is responsible for loading history, resolving the inventory
// snapshot, and selecting the active promotion before the run starts.
type ItemContext struct {
	Item      domain.Item
	History   []domain.SalesRecord
	Snapshot  domain.InventorySnapshot
	Promotion *domain.Promotion
	Model     *Model
	Prior     *PriorOrder

	// CategoryDisuseRate is the category-wide waste rate, blended in when
	// the item's own receiving history is too thin to trust.
	CategoryDisuseRate float64
}

// CapHistory feeds the per-category daily item cap: counts of distinct items
// ordered per day, split into same-weekday samples and the overall series.
type CapHistory struct {
	SameWeekdayCounts []float64
	OverallCounts     []float64
}

// RunInput is one forecast batch.
type RunInput struct {
	TargetDate time.Time
	Items      []ItemContext

	// Ordered-item counts per short-shelf-life category group, used to
	// derive that group's daily cap. Groups without an entry run uncapped.
	OrderCounts map[domain.CategoryGroup]CapHistory
}

// RunOutput is the batch result: one prediction row per item plus the run
// summary. Items that failed on bad input are counted in the summary but
// produce no prediction row.
type RunOutput struct {
	Predictions []domain.PredictionResult
	Summary     domain.RunSummary
}

// Engine executes forecast batches. It is safe for concurrent use; each Run
// is independent.
type Engine struct {
	params  *Params
	workers int
}

// New builds an engine. workers below 1 is coerced to 1.
func New(params *Params, workers int) *Engine {
	if workers < 1 {
		workers = 1
	}
	return &Engine{params: params, workers: workers}
}

// candidate is the phase-one output for one item: everything computed
// per-item before the batch-wide classification and cap allocation.
type candidate struct {
	idx        int
	itemCtx    ItemContext
	features   FeatureSet
	baseline   Baseline
	adjusted   float64
	safety     SafetyStock
	snapshot   domain.InventorySnapshot
	suppressed bool
	eval       EvalInput
	err        error
}

// Run executes one batch in two phases. Phase one computes features,
// forecast, safety stock, and pending reconciliation per item, fanned out
// over a worker pool. Phase two is sequential: it derives the adaptive
// decision thresholds from the whole batch, classifies every item, allocates
// capped category slots, and resolves final quantities.
func (e *Engine) Run(ctx context.Context, input RunInput) (RunOutput, error) {
	started := time.Now()

	candidates, err := e.computeParallel(ctx, input)
	if err != nil {
		return RunOutput{}, err
	}

	out := e.resolveBatch(input, candidates)
	out.Summary.RunDate = truncateDay(input.TargetDate)
	out.Summary.StartedAt = started
	out.Summary.FinishedAt = time.Now()

	log.Info().
		Time("run_date", out.Summary.RunDate).
		Int("total_items", out.Summary.TotalItems).
		Int("ordered_items", out.Summary.OrderedItems).
		Int("ordered_units", out.Summary.OrderedUnits).
		Int("data_errors", out.Summary.DataErrors).
		Dur("elapsed", out.Summary.FinishedAt.Sub(started)).
		Msg("forecast batch completed")

	return out, nil
}

// computeParallel fans the per-item computation out over the worker pool.
// A failed item is isolated: its candidate carries the error and the rest of
// the batch proceeds. Only context cancellation aborts the whole run.
func (e *Engine) computeParallel(ctx context.Context, input RunInput) ([]candidate, error) {
	jobs := make(chan int, len(input.Items))
	results := make([]candidate, len(input.Items))
	var wg sync.WaitGroup

	for w := 0; w < e.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = e.computeItem(input.Items[idx], input.TargetDate)
			}
		}()
	}

	// jobs is buffered to the batch size, so sends never block.
	for i := range input.Items {
		if err := ctx.Err(); err != nil {
			close(jobs)
			wg.Wait()
			return nil, err
		}
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results, nil
}

// computeItem runs the per-item stages: features, baseline, category weekday
// shaping, seasonal/trend adjustment, model blend, safety stock, and pending
// reconciliation. A panic in any stage is converted to a per-item error so
// one corrupt history row cannot take the batch down.
func (e *Engine) computeItem(ic ItemContext, target time.Time) (c candidate) {
	c.itemCtx = ic
	defer func() {
		if r := recover(); r != nil {
			c.err = fmt.Errorf("item %s: computation panicked: %v", ic.Item.ItemID, r)
			log.Error().Str("item_id", ic.Item.ItemID).Interface("panic", r).
				Msg("item computation panicked, item skipped")
		}
	}()

	if ic.Item.ItemID == "" {
		c.err = fmt.Errorf("item with empty id rejected")
		return c
	}
	if ic.Item.OrderUnit < 0 || ic.Item.MaxMultiplier < 0 {
		c.err = fmt.Errorf("item %s: negative order unit or multiplier", ic.Item.ItemID)
		return c
	}

	fs := ComputeFeatures(ic.History, target)
	c.features = fs

	c.snapshot = ic.Snapshot
	if c.snapshot.Source == domain.SourceFallback {
		// No live or cached pending figure: reconstruct it from the
		// order/receipt ledger.
		if e.params.SimplifiedPending {
			c.snapshot.PendingQty = ReconcilePendingSimplified(ic.History, target, e.params.PendingLookbackDays)
		} else {
			c.snapshot.PendingQty = ReconcilePending(ic.History, target)
		}
	}

	group := domain.GroupForCategory(ic.Item.CategoryCode)
	strategy := category.ForCategory(ic.Item.CategoryCode)
	stratCtx := e.strategyContext(ic, fs, c.snapshot, target)

	c.baseline = Forecast(fs, e.params)
	shaped := strategy.Apply(c.baseline.Qty, stratCtx)
	shaped = AdjustSeasonalTrend(shaped, group, fs)

	promoActive := ic.Promotion != nil && ic.Promotion.ActiveOn(target)
	c.adjusted = BlendForecast(shaped, fs, ic.Model, promoActive, e.params)

	rate, batches := ComputeDisuseStats(ic.History, target, e.params.DisuseLookback)
	c.safety = ComputeSafetyStock(ic.Item, fs, DisuseStats{
		ItemRate:     rate,
		ItemBatches:  batches,
		CategoryRate: ic.CategoryDisuseRate,
	}, e.params)

	c.suppressed = strategy.Suppress(stratCtx)

	c.eval = EvalInput{
		ItemID:       ic.Item.ItemID,
		Status:       ic.Item.Status,
		ExposureDays: ExposureDays(c.snapshot, fs.DailyAvg),
		Popularity:   fs.RollingMean(7),
		StockoutFreq: StockoutFrequency(ic.History, target),
	}
	return c
}

// strategyContext projects the feature set and snapshot into the shape the
// category strategies consume.
func (e *Engine) strategyContext(ic ItemContext, fs FeatureSet, snap domain.InventorySnapshot, target time.Time) category.Context {
	ctx := category.Context{
		TargetDate:       truncateDay(target),
		DayCount:         fs.DayCount,
		DailyAvg:         fs.DailyAvg,
		StockQty:         snap.StockQty,
		PendingQty:       snap.PendingQty,
		TobaccoStopUnits: e.params.TobaccoStopUnits,
		AlcoholStopDays:  e.params.AlcoholStopDays,
	}

	var sums [7]float64
	for _, rec := range ic.History {
		d := truncateDay(rec.Date)
		if !d.Before(truncateDay(target)) {
			continue
		}
		wd := int(d.Weekday())
		sums[wd] += float64(rec.SaleQty)
		ctx.WeekdaySamples[wd]++
	}
	for wd := range sums {
		if ctx.WeekdaySamples[wd] > 0 {
			ctx.WeekdayAvgs[wd] = sums[wd] / float64(ctx.WeekdaySamples[wd])
		}
	}
	return ctx
}

// resolveBatch is phase two: adaptive classification, cap allocation, and
// final quantity resolution over the full candidate set.
func (e *Engine) resolveBatch(input RunInput, candidates []candidate) RunOutput {
	var evalInputs []EvalInput
	for _, c := range candidates {
		if c.err == nil {
			evalInputs = append(evalInputs, c.eval)
		}
	}
	thresholds := DeriveThresholds(evalInputs)

	out := RunOutput{
		Summary: domain.RunSummary{
			TotalItems: len(candidates),
			ByDecision: make(map[domain.Decision]int),
		},
	}

	// First pass: classify and resolve quantities per item.
	results := make([]resolved, 0, len(candidates))
	for _, c := range candidates {
		if c.err != nil {
			out.Summary.DataErrors++
			continue
		}

		decision := Classify(c.eval, thresholds)
		qty := 0

		switch {
		case !decision.Orderable():
			// PASS and SKIP place no order.
		case c.suppressed && decision != domain.DecisionForce:
			// Imminent stockout outranks a category stop rule.
			decision = domain.DecisionPass
		default:
			qty = ResolveOrderQty(c.adjusted, c.safety.Units, c.snapshot, c.itemCtx.Item, c.itemCtx.Prior)
			if qty == 0 && decision == domain.DecisionForce {
				// Imminent stockout overrides a non-positive need.
				qty = orderUnitOf(c.itemCtx.Item)
			}
			if qty > 0 && c.itemCtx.Promotion != nil && c.itemCtx.Promotion.ActiveOn(input.TargetDate) {
				qty = ApplyPromotionMinimum(qty, c.itemCtx.Promotion, c.itemCtx.Item.OrderUnit)
			}
			if qty == 0 {
				decision = domain.DecisionPass
			}
		}

		results = append(results, resolved{c: c, decision: decision, qty: qty})
	}

	// Second pass: enforce per-group daily item caps on short-shelf-life
	// categories. Items that lose their slot fall back to PASS.
	dropped := e.capDrops(input, results)

	for i := range results {
		r := &results[i]
		if dropped[r.c.itemCtx.Item.ItemID] {
			r.decision = domain.DecisionPass
			r.qty = 0
		}

		out.Summary.ByDecision[r.decision]++
		if r.qty > 0 {
			out.Summary.OrderedItems++
			out.Summary.OrderedUnits += r.qty
		}

		out.Predictions = append(out.Predictions, domain.PredictionResult{
			RunDate:        truncateDay(input.TargetDate),
			ItemID:         r.c.itemCtx.Item.ItemID,
			BaselineQty:    r.c.baseline.Qty,
			AdjustedQty:    r.c.adjusted,
			SafetyStock:    r.c.safety.Units,
			FinalOrderQty:  r.qty,
			Decision:       r.decision,
			ConfidenceTier: r.c.baseline.Tier,
			StockQty:       r.c.snapshot.StockQty,
			PendingQty:     r.c.snapshot.PendingQty,
			StockSource:    r.c.snapshot.Source,
			PendingSource:  r.c.snapshot.Source,
			IsStockStale:   r.c.snapshot.IsStale,
		})
	}

	return out
}

// resolved is one classified item awaiting the cap-allocation pass.
type resolved struct {
	c        candidate
	decision domain.Decision
	qty      int
}

// capDrops applies AllocateCapSlots per capped category group and returns
// the set of item ids that lost their slot. FORCE items never compete for
// slots; they take theirs off the top and the rest of the pool splits what
// remains.
func (e *Engine) capDrops(input RunInput, results []resolved) map[string]bool {
	dropped := make(map[string]bool)

	for group, history := range input.OrderCounts {
		var pool []CapCandidate
		forced := 0
		for _, r := range results {
			if r.qty <= 0 {
				continue
			}
			if domain.GroupForCategory(r.c.itemCtx.Item.CategoryCode) != group {
				continue
			}
			if r.decision == domain.DecisionForce {
				forced++
				continue
			}
			pool = append(pool, CapCandidate{
				ItemID:      r.c.itemCtx.Item.ItemID,
				Forecast:    r.c.adjusted,
				HistoryDays: r.c.features.DayCount,
			})
		}
		if len(pool) == 0 {
			continue
		}

		cap := DailyCap(history.SameWeekdayCounts, history.OverallCounts, e.params)
		slots := cap - forced
		if slots < 0 {
			slots = 0
		}
		kept := AllocateCapSlots(pool, slots, e.params)

		keptIDs := make(map[string]bool, len(kept))
		for _, k := range kept {
			keptIDs[k.ItemID] = true
		}
		for _, p := range pool {
			if !keptIDs[p.ItemID] {
				dropped[p.ItemID] = true
			}
		}
		if len(pool) > len(kept) {
			log.Info().
				Str("group", string(group)).
				Int("candidates", len(pool)).
				Int("cap", cap).
				Int("dropped", len(pool)-len(kept)).
				Msg("daily item cap trimmed category order list")
		}
	}
	return dropped
}

// OrderLines projects a prediction set into the order list handed to the
// executor: orderable decisions with a positive quantity only.
func OrderLines(predictions []domain.PredictionResult) []domain.OrderLine {
	var lines []domain.OrderLine
	for _, p := range predictions {
		if p.Decision.Orderable() && p.FinalOrderQty > 0 {
			lines = append(lines, domain.OrderLine{
				ItemID:   p.ItemID,
				Quantity: p.FinalOrderQty,
				Decision: p.Decision,
			})
		}
	}
	return lines
}
