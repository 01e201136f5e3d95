package model

// Candle represents a single OHLC price bar. Timestamp is in epoch milliseconds.
type Candle struct {
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
}

// IndicatorSeries is a dense series aligned to a suffix of the candle slice it was
// computed from: Values[i] belongs to candle[Offset+i].
type IndicatorSeries struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
	Offset int       `json:"offset"`
}

// NewIndicatorSeries builds a series whose offset is derived from the candle count.
func NewIndicatorSeries(name string, candleCount int, values []float64) IndicatorSeries {
	if len(values) == 0 || len(values) > candleCount {
		return IndicatorSeries{Name: name}
	}
	return IndicatorSeries{Name: name, Values: values, Offset: candleCount - len(values)}
}

// Len returns the number of values in the series.
func (s IndicatorSeries) Len() int { return len(s.Values) }

// Empty reports whether the series is absent (insufficient data).
func (s IndicatorSeries) Empty() bool { return len(s.Values) == 0 }

// Tail returns the last n values as a series re-aligned to the same candle count.
func (s IndicatorSeries) Tail(n int) IndicatorSeries {
	if n >= len(s.Values) {
		return s
	}
	if n <= 0 {
		return IndicatorSeries{Name: s.Name}
	}
	drop := len(s.Values) - n
	return IndicatorSeries{Name: s.Name, Values: s.Values[drop:], Offset: s.Offset + drop}
}

// Closes extracts close prices.
func Closes(candles []Candle) []float64 {
	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}
	return closes
}
