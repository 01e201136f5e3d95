// Package stats provides incremental mean/standard-deviation tracking.
package stats

import "math"

// Window tracks the population mean and standard deviation of the last Size values
// pushed into it. Push, Mean and StdDev are O(1) amortized.
//
// Sums are kept relative to shift, a value taken from the data, and are rebuilt from
// the buffer once per full cycle so the shift follows the series level.
type Window struct {
	buf    []float64
	head   int
	count  int
	pushes int
	shift  float64
	sum    float64
	sumSq  float64
	// peak is the largest sumSq since the last rebase; it scales the rounding left
	// behind by evictions.
	peak   float64
}

// NewWindow creates a window holding at most size values.
func NewWindow(size int) *Window {
	if size < 1 {
		size = 1
	}
	return &Window{buf: make([]float64, size)}
}

// Push adds v, evicting the oldest value once the window is full.
func (w *Window) Push(v float64) {
	if w.pushes == 0 {
		w.shift = v
	}
	if w.count == len(w.buf) {
		d := w.buf[w.head] - w.shift
		w.sum -= d
		w.sumSq -= d * d
	} else {
		w.count++
	}
	w.buf[w.head] = v
	w.head = (w.head + 1) % len(w.buf)
	d := v - w.shift
	w.sum += d
	w.sumSq += d * d
	w.peak = math.Max(w.peak, w.sumSq)
	w.pushes++
	if w.count == len(w.buf) && w.pushes%len(w.buf) == 0 {
		w.rebase(v)
	}
}

// rebase recomputes the sums of a full window around shift.
func (w *Window) rebase(shift float64) {
	w.shift = shift
	w.sum, w.sumSq = 0, 0
	for _, x := range w.buf[:w.count] {
		d := x - shift
		w.sum += d
		w.sumSq += d * d
	}
	w.peak = w.sumSq
}

// Len returns the number of values currently held.
func (w *Window) Len() int { return w.count }

// Full reports whether the window holds Size values.
func (w *Window) Full() bool { return w.count == len(w.buf) }

// Mean returns the mean of the held values, 0 when empty.
func (w *Window) Mean() float64 {
	if w.count == 0 {
		return 0
	}
	return w.shift + w.sum/float64(w.count)
}

// residual is the share of peak below which the squared deviations are rounding noise.
const residual = 1e-12

// StdDev returns the population standard deviation of the held values.
func (w *Window) StdDev() float64 {
	if w.count == 0 {
		return 0
	}
	n := float64(w.count)
	m2 := w.sumSq - w.sum*w.sum/n
	if m2 <= residual*w.peak {
		return 0
	}
	return math.Sqrt(m2 / n)
}

// ZScore returns (v-mean)/stdev against the held values, 0 when stdev is 0.
func (w *Window) ZScore(v float64) float64 {
	sd := w.StdDev()
	if sd == 0 {
		return 0
	}
	return (v - w.Mean()) / sd
}

// Reset empties the window so it can be reused for an independent run.
func (w *Window) Reset() {
	for i := range w.buf {
		w.buf[i] = 0
	}
	w.head, w.count, w.pushes = 0, 0, 0
	w.shift, w.sum, w.sumSq, w.peak = 0, 0, 0, 0
}

// Population returns the two-pass population mean and standard deviation of values.
func Population(values []float64) (mean, stdDev float64) {
	if len(values) == 0 {
		return 0, 0
	}
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return mean, math.Sqrt(sq / float64(len(values)))
}
