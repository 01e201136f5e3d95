package calculator

import "GridOptimizer/internal/model"

// AO computes the Awesome Oscillator: SMA(fast) - SMA(slow) of the median price,
// aligned to the slow average.
func AO(candles []model.Candle, fast, slow int) model.IndicatorSeries {
	n := len(candles)
	if fast <= 0 || slow <= fast || n < slow {
		return model.IndicatorSeries{Name: model.IndicatorAO}
	}
	median := make([]float64, n)
	for i, c := range candles {
		median[i] = (c.High + c.Low) / 2
	}
	smaFast := SMASeries(median, fast)
	smaSlow := SMASeries(median, slow)

	shift := slow - fast
	out := make([]float64, len(smaSlow))
	for k := range smaSlow {
		out[k] = smaFast[k+shift] - smaSlow[k]
	}
	return model.NewIndicatorSeries(model.IndicatorAO, n, out)
}
