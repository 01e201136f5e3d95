package calculator

import (
	"sort"

	"GridOptimizer/internal/model"
)

// WindowMin returns the minimum of values[i-n .. i-1]. The current index is excluded.
// Callers guarantee 1 <= n <= i.
func WindowMin(values []float64, i, n int) float64 {
	m := values[i-n]
	for k := i - n + 1; k < i; k++ {
		if values[k] < m {
			m = values[k]
		}
	}
	return m
}

// WindowMax returns the maximum of values[i-n .. i-1].
func WindowMax(values []float64, i, n int) float64 {
	m := values[i-n]
	for k := i - n + 1; k < i; k++ {
		if values[k] > m {
			m = values[k]
		}
	}
	return m
}

// SliceWindow keeps candles with base-lookback < timestamp <= base. A zero base means the
// last candle; a non-positive lookback keeps everything up to base. Candles must be
// sorted ascending; the result shares the input's backing array.
func SliceWindow(candles []model.Candle, base, lookback int64) []model.Candle {
	if len(candles) == 0 {
		return candles
	}
	if base == 0 {
		base = candles[len(candles)-1].Timestamp
	}
	end := sort.Search(len(candles), func(i int) bool { return candles[i].Timestamp > base })
	start := 0
	if lookback > 0 {
		from := base - lookback
		start = sort.Search(end, func(i int) bool { return candles[i].Timestamp > from })
	}
	return candles[start:end]
}
