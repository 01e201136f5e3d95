package grid

import (
	"fmt"
	"math"
)

const (
	// DefaultDecimals gives a 0.01 threshold step.
	DefaultDecimals = 2
	// FineDecimals gives a 0.001 step; fine axes are capped to FineSpan.
	FineDecimals = 3
	FineSpan     = 0.2
)

// ThresholdAxis enumerates [min,max] in steps of 10^-decimals. Values are produced from
// integer steps so no drift accumulates: 0.40..0.80 at two decimals is exactly 41 values.
func ThresholdAxis(min, max float64, decimals int) ([]float64, error) {
	if decimals < 0 || decimals > 6 {
		return nil, fmt.Errorf("%w: decimals %d out of range", ErrInvalidRange, decimals)
	}
	if min >= max {
		return nil, fmt.Errorf("%w: threshold min %v >= max %v", ErrInvalidRange, min, max)
	}
	scale := math.Pow10(decimals)
	lo, hi, err := scaledBounds(min, max, scale)
	if err != nil {
		return nil, err
	}
	return scaledAxis(lo, hi, scale), nil
}

// FineAxis is ThresholdAxis at FineDecimals with the span capped at FineSpan from min.
func FineAxis(min, max float64) ([]float64, error) {
	if min >= max {
		return nil, fmt.Errorf("%w: threshold min %v >= max %v", ErrInvalidRange, min, max)
	}
	scale := math.Pow10(FineDecimals)
	lo, hi, err := scaledBounds(min, max, scale)
	if err != nil {
		return nil, err
	}
	if limit := lo + int64(math.Round(FineSpan*scale)); hi > limit {
		hi = limit
	}
	return scaledAxis(lo, hi, scale), nil
}

// CountAxis enumerates the integers in [min,max] as floats so they can share a matrix axis.
func CountAxis(min, max int) ([]float64, error) {
	if min > max {
		return nil, fmt.Errorf("%w: count min %d > max %d", ErrInvalidRange, min, max)
	}
	out := make([]float64, 0, max-min+1)
	for c := min; c <= max; c++ {
		out = append(out, float64(c))
	}
	return out, nil
}

// scaledBounds returns the first and last integer steps inside [min,max]. The 1e-9
// slack absorbs representation error such as 0.4*100 = 40.00000000000001.
func scaledBounds(min, max, scale float64) (int64, int64, error) {
	lo := int64(math.Ceil(min*scale - 1e-9))
	hi := int64(math.Floor(max*scale + 1e-9))
	if lo > hi {
		return 0, 0, fmt.Errorf("%w: no step of %v inside [%v, %v]", ErrInvalidRange, 1/scale, min, max)
	}
	return lo, hi, nil
}

func scaledAxis(lo, hi int64, scale float64) []float64 {
	out := make([]float64, 0, hi-lo+1)
	for k := lo; k <= hi; k++ {
		out = append(out, float64(k)/scale)
	}
	return out
}
