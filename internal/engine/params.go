package engine

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/storelab/replenish/internal/domain"
)

// Calibratable parameter names. Values live in the calibration_parameters
// table; the calibrator is the only writer.
const (
	ParamSafetyStockScale = "safety_stock_scale"
	ParamDisuseFloor      = "disuse_floor"
	ParamDisuseMultiplier = "disuse_multiplier"
	ParamModelWeightLow   = "model_weight_low"
	ParamModelWeightHigh  = "model_weight_high"
)

// DisuseAbsoluteFloor is the hard lower bound for the disuse coefficient. No
// calibration step may push the effective coefficient below it.
const DisuseAbsoluteFloor = 0.2

// Params is the tunable configuration for one run. It is loaded once at run
// start and passed explicitly to every component; nothing mutates it while a
// batch is in flight. The calibrator produces the values for the next run.
type Params struct {
	// Forecasting
	ColdStartBaseline float64 // daily quantity assumed for items with no history

	// Safety stock
	SafetyStockScale float64 // calibratable global scale on safety-stock days
	DisuseFloor      float64 // calibratable floor for the disuse coefficient
	DisuseMultiplier float64 // calibratable weight on the disuse rate
	DisuseLookback   int     // days of waste/receipt history considered
	DisuseMinBatches int     // receiving batches needed to trust item-level stats

	// ML blend
	ModelMinDays    int     // below this, rule-only
	ModelHighDays   int     // at or above this, the high blend weight applies
	ModelWeightLow  float64 // calibratable
	ModelWeightHigh float64 // calibratable

	// Pending reconciliation
	SimplifiedPending   bool // use the bounded-lookback algorithm instead of aggregate
	PendingLookbackDays int

	// Daily cap
	WasteBuffer      int     // absolute item-count slack on top of the weekday average
	DefaultDailyCap  int     // cap when no history exists at all
	ProvenMinDays    int     // history days needed to count as a proven item
	ProvenSlotRatio  float64 // share of cap slots reserved for proven items
	TobaccoStopUnits int     // tobacco: suppress ordering at stock+pending >= this
	AlcoholStopDays  float64 // alcohol: suppress at stock+pending >= this x daily avg

	// Calibration
	AccuracyThreshold float64 // rolling accuracy below this triggers a nudge
	CalibrationStep   float64 // nudge size as a fraction of the valid range
	OverSellRatio     float64 // sold/predicted above this counts as under-order
	UnderSellRatio    float64 // sold/predicted below this counts as over-order
}

// DefaultParams returns the starting configuration. The calibratable fields
// are overwritten from persisted parameters at run start.
func DefaultParams() *Params {
	return &Params{
		ColdStartBaseline: 1.0,

		SafetyStockScale: 1.0,
		DisuseFloor:      0.3,
		DisuseMultiplier: 2.0,
		DisuseLookback:   30,
		DisuseMinBatches: 3,

		ModelMinDays:    60,
		ModelHighDays:   120,
		ModelWeightLow:  0.30,
		ModelWeightHigh: 0.50,

		SimplifiedPending:   false,
		PendingLookbackDays: 3,

		WasteBuffer:      3,
		DefaultDailyCap:  15,
		ProvenMinDays:    14,
		ProvenSlotRatio:  0.75,
		TobaccoStopUnits: 30,
		AlcoholStopDays:  7.0,

		AccuracyThreshold: 0.55,
		CalibrationStep:   0.05,
		OverSellRatio:     1.2,
		UnderSellRatio:    0.5,
	}
}

// DefaultCalibrationParameters seeds the calibration table on first run. The
// valid ranges here are the safe envelopes the calibrator may move within.
func DefaultCalibrationParameters(now time.Time) []domain.CalibrationParameter {
	return []domain.CalibrationParameter{
		{Name: ParamSafetyStockScale, CurrentValue: 1.0, MinValue: 0.5, MaxValue: 2.0, UpdatedAt: now},
		{Name: ParamDisuseFloor, CurrentValue: 0.3, MinValue: DisuseAbsoluteFloor, MaxValue: 0.6, UpdatedAt: now},
		{Name: ParamDisuseMultiplier, CurrentValue: 2.0, MinValue: 1.0, MaxValue: 3.0, UpdatedAt: now},
		{Name: ParamModelWeightLow, CurrentValue: 0.30, MinValue: 0.1, MaxValue: 0.5, UpdatedAt: now},
		{Name: ParamModelWeightHigh, CurrentValue: 0.50, MinValue: 0.3, MaxValue: 0.7, UpdatedAt: now},
	}
}

// ApplyCalibration copies persisted calibration values onto the run context,
// clamping anything outside its own stored range. Unknown names are ignored
// so an old table can carry retired parameters without breaking a run.
func (p *Params) ApplyCalibration(rows []domain.CalibrationParameter) {
	for _, row := range rows {
		v := clamp(row.CurrentValue, row.MinValue, row.MaxValue)
		if v != row.CurrentValue {
			log.Warn().
				Str("parameter", row.Name).
				Float64("stored", row.CurrentValue).
				Float64("clamped", v).
				Msg("calibration value outside its valid range")
		}

		switch row.Name {
		case ParamSafetyStockScale:
			p.SafetyStockScale = v
		case ParamDisuseFloor:
			p.DisuseFloor = v
		case ParamDisuseMultiplier:
			p.DisuseMultiplier = v
		case ParamModelWeightLow:
			p.ModelWeightLow = v
		case ParamModelWeightHigh:
			p.ModelWeightHigh = v
		}
	}

	if p.DisuseFloor < DisuseAbsoluteFloor {
		p.DisuseFloor = DisuseAbsoluteFloor
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
