package calculator

import "math"

// Default indicator parameters.
const (
	MACDFast         = 12
	MACDSlow         = 26
	MACDSignal       = 9
	RSIPeriod        = 14
	AOFast           = 5
	AOSlow           = 34
	RTITrendWindow   = 100
	RTISensitivity   = 95
	RTISignalLength  = 20
	DisparityDefault = 20
)

// DisparityPeriods are the periods the engine instantiates.
var DisparityPeriods = []int{20, 60, 120}

// finite replaces NaN and Inf with a neutral fallback.
func finite(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
