package calculator

import "GridOptimizer/internal/model"

// MACDResult holds the three MACD series, all aligned to the signal line.
type MACDResult struct {
	MACD      model.IndicatorSeries
	Signal    model.IndicatorSeries
	Histogram model.IndicatorSeries
}

// Empty reports whether MACD could not be computed.
func (r MACDResult) Empty() bool { return r.Histogram.Empty() }

// MACDWarmup returns the minimum candle count MACD needs.
func MACDWarmup(slow, signal int) int { return slow + signal - 1 }

// MACD computes fastEMA - slowEMA. The signal line is a simple moving average of the
// MACD line, not an EMA.
func MACD(candles []model.Candle, fast, slow, signal int) MACDResult {
	n := len(candles)
	if fast <= 0 || slow <= fast || signal <= 0 || n < MACDWarmup(slow, signal) {
		return MACDResult{}
	}
	closes := model.Closes(candles)
	fastEMA := EMASeries(closes, fast)
	slowEMA := EMASeries(closes, slow)

	shift := slow - fast
	line := make([]float64, len(slowEMA))
	for k := range slowEMA {
		line[k] = fastEMA[k+shift] - slowEMA[k]
	}

	sig := SMASeries(line, signal)
	line = line[signal-1:]
	hist := make([]float64, len(sig))
	for k := range sig {
		hist[k] = line[k] - sig[k]
	}

	return MACDResult{
		MACD:      model.NewIndicatorSeries("MACD", n, line),
		Signal:    model.NewIndicatorSeries("MACD_SIGNAL", n, sig),
		Histogram: model.NewIndicatorSeries("MACD_HIST", n, hist),
	}
}
