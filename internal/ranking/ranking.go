// Package ranking builds the composite z-score signal from enabled indicators.
package ranking

import (
	"errors"

	"GridOptimizer/internal/calculator"
	"GridOptimizer/internal/model"
	"GridOptimizer/internal/stats"
)

// ErrRankingUnavailable is returned when no enabled indicator has enough data.
var ErrRankingUnavailable = errors.New("ranking unavailable: no enabled indicator has enough data")

// Options configures one composite computation.
type Options struct {
	Flags model.IndicatorFlags
	// Base and Lookback (ms) restrict the candles to (Base-Lookback, Base]. Zero values
	// keep the full slice.
	Base     int64
	Lookback int64
	// ZScoreWindow > 0 scores each step against a trailing window instead of the whole
	// aligned range.
	ZScoreWindow int
}

// Result is the aligned composite plus its per-step breakdown.
type Result struct {
	Points    []model.RankingPoint
	Composite model.IndicatorSeries
	Enabled   []string
	Skipped   []string
	// Disparities holds every period in calculator.DisparityPeriods, unaligned. Only
	// the 20-period series enters the composite.
	Disparities []model.IndicatorSeries
}

type component struct {
	name   string
	series model.IndicatorSeries
}

// Compute evaluates the enabled indicators, aligns them on their common suffix and sums
// their z-scores per step.
func Compute(candles []model.Candle, opts Options) (*Result, error) {
	if opts.Base != 0 || opts.Lookback > 0 {
		candles = calculator.SliceWindow(candles, opts.Base, opts.Lookback)
	}

	res := &Result{}
	if opts.Flags.Disparity {
		res.Disparities = calculator.DisparitySet(candles, calculator.DisparityPeriods)
	}
	var comps []component
	for _, c := range enabledComponents(candles, opts.Flags) {
		if c.series.Empty() {
			res.Skipped = append(res.Skipped, c.name)
			continue
		}
		res.Enabled = append(res.Enabled, c.name)
		comps = append(comps, c)
	}
	if len(comps) == 0 {
		return res, ErrRankingUnavailable
	}

	minLen := comps[0].series.Len()
	for _, c := range comps[1:] {
		if c.series.Len() < minLen {
			minLen = c.series.Len()
		}
	}
	for i := range comps {
		comps[i].series = comps[i].series.Tail(minLen)
	}

	composite := make([]float64, minLen)
	for _, c := range comps {
		z := zScores(c.series.Values, opts.ZScoreWindow)
		for k := range composite {
			composite[k] += z[k]
		}
	}

	n := len(candles)
	offset := n - minLen
	res.Points = make([]model.RankingPoint, minLen)
	for k := 0; k < minLen; k++ {
		p := model.RankingPoint{Timestamp: candles[offset+k].Timestamp, Composite: composite[k]}
		for _, c := range comps {
			v := c.series.Values[k]
			switch c.name {
			case model.IndicatorMACD:
				p.MACD = &v
			case model.IndicatorRSI:
				p.RSI = &v
			case model.IndicatorAO:
				p.AO = &v
			case model.IndicatorDisparity:
				p.Disparity = &v
			case model.IndicatorRTI:
				p.RTI = &v
			}
		}
		res.Points[k] = p
	}
	res.Composite = model.NewIndicatorSeries("COMPOSITE", n, composite)
	return res, nil
}

func enabledComponents(candles []model.Candle, f model.IndicatorFlags) []component {
	var out []component
	if f.MACD {
		out = append(out, component{model.IndicatorMACD,
			calculator.MACD(candles, calculator.MACDFast, calculator.MACDSlow, calculator.MACDSignal).Histogram})
	}
	if f.RSI {
		out = append(out, component{model.IndicatorRSI, calculator.RSI(candles, calculator.RSIPeriod)})
	}
	if f.AO {
		out = append(out, component{model.IndicatorAO, calculator.AO(candles, calculator.AOFast, calculator.AOSlow)})
	}
	if f.Disparity {
		out = append(out, component{model.IndicatorDisparity, calculator.Disparity(candles, calculator.DisparityDefault)})
	}
	if f.RTI {
		out = append(out, component{model.IndicatorRTI,
			calculator.RTI(candles, calculator.RTITrendWindow, calculator.RTISensitivity, calculator.RTISignalLength).RTI})
	}
	return out
}

// zScores scores values against their own population, or against a trailing window
// that includes the current value when window > 0.
func zScores(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window > 0 {
		w := stats.NewWindow(window)
		for i, v := range values {
			w.Push(v)
			out[i] = w.ZScore(v)
		}
		return out
	}
	mean, sd := stats.Population(values)
	if sd == 0 {
		return out
	}
	for i, v := range values {
		out[i] = (v - mean) / sd
	}
	return out
}
