package calculator

// SMASeries returns the rolling simple moving average. out[k] covers values[k..k+period-1],
// so the result has len(values)-period+1 entries, or nil when data is insufficient.
func SMASeries(values []float64, period int) []float64 {
	if period <= 0 || len(values) < period {
		return nil
	}
	out := make([]float64, len(values)-period+1)
	sum := 0.0
	for i := 0; i < period; i++ {
		sum += values[i]
	}
	out[0] = sum / float64(period)
	for i := period; i < len(values); i++ {
		sum += values[i] - values[i-period]
		out[i-period+1] = sum / float64(period)
	}
	return out
}

// EMASeries returns an exponential moving average seeded with the SMA of the first
// period values. Alignment matches SMASeries.
func EMASeries(values []float64, period int) []float64 {
	if period <= 0 || len(values) < period {
		return nil
	}
	out := make([]float64, len(values)-period+1)
	sum := 0.0
	for i := 0; i < period; i++ {
		sum += values[i]
	}
	ema := sum / float64(period)
	out[0] = ema
	k := 2.0 / float64(period+1)
	for i := period; i < len(values); i++ {
		ema = (values[i]-ema)*k + ema
		out[i-period+1] = ema
	}
	return out
}
