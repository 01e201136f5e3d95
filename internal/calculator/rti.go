package calculator

import (
	"math"
	"sort"

	"GridOptimizer/internal/model"
)

// RTIResult holds the Relative Trend Index and its EMA signal, trimmed to equal length.
type RTIResult struct {
	RTI    model.IndicatorSeries
	Signal model.IndicatorSeries
}

// Empty reports whether RTI could not be computed.
func (r RTIResult) Empty() bool { return r.RTI.Empty() }

// RTIWarmup returns the minimum candle count RTI needs.
func RTIWarmup(trendWindow, signalLength int) int { return trendWindow + signalLength - 1 }

// RTI computes the Relative Trend Index. For every candle with a full trend window it
// ranks close +/- pairwise deviation, picks the sensitivity percentiles and scales the
// close between them to [0,100]. A zero-width band yields 50.
func RTI(candles []model.Candle, trendWindow int, sensitivity float64, signalLength int) RTIResult {
	n := len(candles)
	if trendWindow <= 0 || signalLength <= 0 || n < RTIWarmup(trendWindow, signalLength) {
		return RTIResult{RTI: model.IndicatorSeries{Name: model.IndicatorRTI}}
	}
	closes := model.Closes(candles)

	// population stdev of two points is half their distance
	dev := make([]float64, n)
	for k := 1; k < n; k++ {
		dev[k] = math.Abs(closes[k]-closes[k-1]) / 2
	}

	upperIdx := percentileIndex(sensitivity, trendWindow)
	lowerIdx := percentileIndex(100-sensitivity, trendWindow)

	upper := make([]float64, trendWindow)
	lower := make([]float64, trendWindow)
	values := make([]float64, 0, n-trendWindow+1)
	for i := trendWindow - 1; i < n; i++ {
		for j := 0; j < trendWindow; j++ {
			c := closes[i-j]
			upper[j] = c + dev[i-j]
			lower[j] = c - dev[i-j]
		}
		sort.Float64s(upper)
		sort.Float64s(lower)
		values = append(values, rtiValue(closes[i], upper[upperIdx], lower[lowerIdx]))
	}

	signal := EMASeries(values, signalLength)
	values = values[len(values)-len(signal):]
	return RTIResult{
		RTI:    model.NewIndicatorSeries(model.IndicatorRTI, n, values),
		Signal: model.NewIndicatorSeries("RTI_SIGNAL", n, signal),
	}
}

func percentileIndex(pct float64, size int) int {
	idx := int(math.Round(pct/100*float64(size))) - 1
	if idx < 0 {
		return 0
	}
	if idx > size-1 {
		return size - 1
	}
	return idx
}

func rtiValue(close, upper, lower float64) float64 {
	denom := upper - lower
	if denom == 0 {
		return 50
	}
	v := finite(100*(close-lower)/denom, 50)
	return clamp(v, 0, 100)
}
