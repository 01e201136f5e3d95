// Package grid enumerates policy parameter grids and evaluates every cell against one
// precomputed signal series.
package grid

import (
	"errors"
	"fmt"
	"math"

	"GridOptimizer/internal/model"
)

// ErrInvalidRange is returned for parameter ranges rejected before any computation.
var ErrInvalidRange = errors.New("invalid parameter range")

// Allowed parameter domain.
const (
	MaxThreshold = 5.0
	MinCount     = 1
	MaxCount     = 10
)

// Range is a closed [Min,Max] interval on one grid axis.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Spec describes one grid run. Base carries the parameters the task does not vary plus
// the run settings (initial position, capital, threshold mode).
type Spec struct {
	Task     model.TaskType         `json:"task"`
	Rows     Range                  `json:"rows"`
	Cols     Range                  `json:"cols"`
	Decimals int                    `json:"decimals"`
	Fine     bool                   `json:"fine"`
	Base     model.SimulationConfig `json:"base"`
}

// Plan is a validated Spec with its axes enumerated.
type Plan struct {
	Spec Spec
	Rows []float64
	Cols []float64
	// Base has StartIndex raised to the largest lookback any cell uses so every cell
	// starts at the same step.
	Base model.SimulationConfig
}

func rowsAreCounts(t model.TaskType) bool {
	return t == model.TaskSymmetric || t == model.TaskBuyRefine || t == model.TaskSellRefine
}

// Validate checks the task, both ranges and the fixed parameters against the allowed domain.
func (s Spec) Validate() error {
	switch s.Task {
	case model.TaskThreshold, model.TaskSymmetric, model.TaskBuyRefine, model.TaskSellRefine:
	default:
		return fmt.Errorf("%w: unknown task %q", ErrInvalidRange, s.Task)
	}
	if rowsAreCounts(s.Task) {
		if err := validateCounts(s.Rows); err != nil {
			return err
		}
	} else if err := validateThresholds(s.Rows); err != nil {
		return err
	}
	if err := validateThresholds(s.Cols); err != nil {
		return err
	}
	if s.Task == model.TaskSymmetric && s.Cols.Min < 0 {
		return fmt.Errorf("%w: symmetric magnitude must be non-negative", ErrInvalidRange)
	}

	b := s.Base
	if s.Task != model.TaskSymmetric && s.Task != model.TaskBuyRefine && (b.BuyLookback < MinCount || b.BuyLookback > MaxCount) {
		return fmt.Errorf("%w: buy lookback %d outside [%d,%d]", ErrInvalidRange, b.BuyLookback, MinCount, MaxCount)
	}
	if s.Task != model.TaskSymmetric && s.Task != model.TaskSellRefine && (b.SellLookback < MinCount || b.SellLookback > MaxCount) {
		return fmt.Errorf("%w: sell lookback %d outside [%d,%d]", ErrInvalidRange, b.SellLookback, MinCount, MaxCount)
	}
	if math.Abs(b.BuyThreshold) > MaxThreshold || math.Abs(b.SellThreshold) > MaxThreshold {
		return fmt.Errorf("%w: fixed thresholds must be within ±%v", ErrInvalidRange, MaxThreshold)
	}
	switch b.InitialPosition {
	case "", model.PositionCash, model.PositionCoin:
	default:
		return fmt.Errorf("%w: unknown initial position %q", ErrInvalidRange, b.InitialPosition)
	}
	switch b.Mode {
	case "", model.ModeRelative, model.ModeAbsolute:
	default:
		return fmt.Errorf("%w: unknown threshold mode %q", ErrInvalidRange, b.Mode)
	}
	return nil
}

func validateThresholds(r Range) error {
	if math.IsNaN(r.Min) || math.IsNaN(r.Max) || r.Min >= r.Max {
		return fmt.Errorf("%w: threshold min %v >= max %v", ErrInvalidRange, r.Min, r.Max)
	}
	if math.Abs(r.Min) > MaxThreshold || math.Abs(r.Max) > MaxThreshold {
		return fmt.Errorf("%w: thresholds must be within ±%v", ErrInvalidRange, MaxThreshold)
	}
	return nil
}

func validateCounts(r Range) error {
	if r.Min != math.Trunc(r.Min) || r.Max != math.Trunc(r.Max) {
		return fmt.Errorf("%w: condition counts must be integers", ErrInvalidRange)
	}
	if r.Min < MinCount || r.Max > MaxCount || r.Min > r.Max {
		return fmt.Errorf("%w: condition count range [%v,%v] outside [%d,%d]", ErrInvalidRange, r.Min, r.Max, MinCount, MaxCount)
	}
	return nil
}

// Plan validates s and enumerates both axes.
func (s Spec) Plan() (*Plan, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	threshold := func(r Range) ([]float64, error) {
		if s.Fine {
			return FineAxis(r.Min, r.Max)
		}
		d := s.Decimals
		if d == 0 {
			d = DefaultDecimals
		}
		return ThresholdAxis(r.Min, r.Max, d)
	}

	var rows []float64
	var err error
	if rowsAreCounts(s.Task) {
		rows, err = CountAxis(int(s.Rows.Min), int(s.Rows.Max))
	} else {
		rows, err = threshold(s.Rows)
	}
	if err != nil {
		return nil, err
	}
	cols, err := threshold(s.Cols)
	if err != nil {
		return nil, err
	}

	base := s.Base
	if base.InitialPosition == "" {
		base.InitialPosition = model.PositionCash
	}
	if base.Mode == "" {
		base.Mode = model.ModeRelative
	}
	if base.InitialCapital <= 0 {
		base.InitialCapital = model.DefaultInitialCapital
	}
	start := base.StartIndex
	switch s.Task {
	case model.TaskThreshold:
		start = max(start, base.BuyLookback, base.SellLookback)
	case model.TaskSymmetric:
		start = max(start, int(rows[len(rows)-1]))
	case model.TaskBuyRefine:
		start = max(start, int(rows[len(rows)-1]), base.SellLookback)
	case model.TaskSellRefine:
		start = max(start, int(rows[len(rows)-1]), base.BuyLookback)
	}
	base.StartIndex = start

	return &Plan{Spec: s, Rows: rows, Cols: cols, Base: base}, nil
}

// Config returns the policy parameters for cell (row, col).
func (p *Plan) Config(row, col int) model.SimulationConfig {
	cfg := p.Base
	r, c := p.Rows[row], p.Cols[col]
	switch p.Spec.Task {
	case model.TaskThreshold:
		cfg.BuyThreshold, cfg.SellThreshold = r, c
	case model.TaskSymmetric:
		cfg.BuyLookback, cfg.SellLookback = int(r), int(r)
		cfg.BuyThreshold, cfg.SellThreshold = c, -c
	case model.TaskBuyRefine:
		cfg.BuyLookback, cfg.BuyThreshold = int(r), c
	case model.TaskSellRefine:
		cfg.SellLookback, cfg.SellThreshold = int(r), c
	}
	return cfg
}

// CellCount returns the number of cells in the plan.
func (p *Plan) CellCount() int { return len(p.Rows) * len(p.Cols) }
