package grid

import (
	"context"

	"GridOptimizer/internal/model"
	"GridOptimizer/internal/policy"
)

// ProgressEvery is the number of cells between progress callbacks.
const ProgressEvery = 10

// ProgressFunc receives the number of completed cells out of total.
type ProgressFunc func(done, total int)

// Better reports whether a ranks above b: higher return, then fewer trades.
// Position ties are broken by the caller's scan order.
func Better(a, b model.SimulationResult) bool {
	if a.TotalReturnPercent != b.TotalReturnPercent {
		return a.TotalReturnPercent > b.TotalReturnPercent
	}
	return a.TradeCount < b.TradeCount
}

// SimulateRows evaluates rows [lo,hi) of the plan. It is the only cell loop: the
// single-context path and every pool chunk call it.
func (p *Plan) SimulateRows(ctx context.Context, candles []model.Candle, signal model.IndicatorSeries, lo, hi int, progress ProgressFunc) ([][]model.SimulationResult, error) {
	total := (hi - lo) * len(p.Cols)
	out := make([][]model.SimulationResult, 0, hi-lo)
	done := 0
	for r := lo; r < hi; r++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row := make([]model.SimulationResult, len(p.Cols))
		for c := range p.Cols {
			row[c] = policy.Evaluate(candles, signal, p.Config(r, c))
			done++
			if progress != nil && (done%ProgressEvery == 0 || done == total) {
				progress(done, total)
			}
		}
		out = append(out, row)
	}
	return out, nil
}

// Assemble builds the GridResult from rows in axis order, tracking min/max return and the
// best cell.
func (p *Plan) Assemble(rows [][]model.SimulationResult) *model.GridResult {
	g := &model.GridResult{
		Task:    p.Spec.Task,
		Rows:    p.Rows,
		Cols:    p.Cols,
		Results: rows,
	}
	first := true
	for r, row := range rows {
		for c, res := range row {
			if first {
				g.MinReturn, g.MaxReturn = res.TotalReturnPercent, res.TotalReturnPercent
				g.Best = model.Cell{Row: r, Col: c}
				first = false
				continue
			}
			if res.TotalReturnPercent < g.MinReturn {
				g.MinReturn = res.TotalReturnPercent
			}
			if res.TotalReturnPercent > g.MaxReturn {
				g.MaxReturn = res.TotalReturnPercent
			}
			if Better(res, g.At(g.Best)) {
				g.Best = model.Cell{Row: r, Col: c}
			}
		}
	}
	return g
}

// Simulate runs the whole grid in the calling goroutine.
func Simulate(ctx context.Context, candles []model.Candle, signal model.IndicatorSeries, spec Spec, progress ProgressFunc) (*model.GridResult, error) {
	plan, err := spec.Plan()
	if err != nil {
		return nil, err
	}
	rows, err := plan.SimulateRows(ctx, candles, signal, 0, len(plan.Rows), progress)
	if err != nil {
		return nil, err
	}
	return plan.Assemble(rows), nil
}
