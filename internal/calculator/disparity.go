package calculator

import (
	"fmt"

	"GridOptimizer/internal/model"
)

// Disparity returns 100*(close-EMA)/EMA for the given period.
func Disparity(candles []model.Candle, period int) model.IndicatorSeries {
	name := fmt.Sprintf("DISPARITY%d", period)
	n := len(candles)
	if period <= 0 || n < period {
		return model.IndicatorSeries{Name: name}
	}
	closes := model.Closes(candles)
	ema := EMASeries(closes, period)
	out := make([]float64, len(ema))
	for k, e := range ema {
		if e == 0 {
			continue
		}
		out[k] = finite(100*(closes[k+period-1]-e)/e, 0)
	}
	return model.NewIndicatorSeries(name, n, out)
}

// DisparitySet computes one series per period.
func DisparitySet(candles []model.Candle, periods []int) []model.IndicatorSeries {
	out := make([]model.IndicatorSeries, 0, len(periods))
	for _, p := range periods {
		out = append(out, Disparity(candles, p))
	}
	return out
}
