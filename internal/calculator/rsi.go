package calculator

import "GridOptimizer/internal/model"

// RSI computes the Wilder-smoothed RSI series. Requires at least period+1 candles;
// the first value belongs to candle[period].
func RSI(candles []model.Candle, period int) model.IndicatorSeries {
	n := len(candles)
	if period <= 0 || n < period+1 {
		return model.IndicatorSeries{Name: model.IndicatorRSI}
	}

	// Initial average gain/loss over the first `period` changes
	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := candles[i].Close - candles[i-1].Close
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	out := make([]float64, 0, n-period)
	out = append(out, rsiValue(avgGain, avgLoss))

	for i := period + 1; i < n; i++ {
		change := candles[i].Close - candles[i-1].Close
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		out = append(out, rsiValue(avgGain, avgLoss))
	}
	return model.NewIndicatorSeries(model.IndicatorRSI, n, out)
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			return 50.0 // flat
		}
		return 100.0
	}
	rs := avgGain / avgLoss
	return finite(100.0-100.0/(1.0+rs), 50.0)
}
