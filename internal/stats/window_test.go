package stats

import (
	"math"
	"testing"
)

func TestWindowMatchesPopulation(t *testing.T) {
	values := []float64{4, 8, 15, 16, 23, 42, 7, 1, 9, 13}
	w := NewWindow(4)
	for i, v := range values {
		w.Push(v)
		lo := i - 3
		if lo < 0 {
			lo = 0
		}
		mean, sd := Population(values[lo : i+1])
		if math.Abs(w.Mean()-mean) > 1e-9 {
			t.Errorf("step %d: mean %.6f, want %.6f", i, w.Mean(), mean)
		}
		if math.Abs(w.StdDev()-sd) > 1e-9 {
			t.Errorf("step %d: stdev %.6f, want %.6f", i, w.StdDev(), sd)
		}
	}
	if !w.Full() || w.Len() != 4 {
		t.Errorf("expected full window of 4, got len %d", w.Len())
	}
}

func TestWindowConstantAndReset(t *testing.T) {
	w := NewWindow(3)
	for i := 0; i < 5; i++ {
		w.Push(0.1)
	}
	if w.StdDev() != 0 {
		t.Errorf("constant stdev = %v, want 0", w.StdDev())
	}
	if w.ZScore(5) != 0 {
		t.Errorf("zscore with zero stdev = %v, want 0", w.ZScore(5))
	}
	w.Reset()
	if w.Len() != 0 || w.Mean() != 0 {
		t.Errorf("reset left len=%d mean=%v", w.Len(), w.Mean())
	}
	w.Push(2)
	w.Push(4)
	if w.Mean() != 3 || w.StdDev() != 1 {
		t.Errorf("after reset mean=%v sd=%v, want 3 and 1", w.Mean(), w.StdDev())
	}
}

func TestWindowHighLevelLowSpread(t *testing.T) {
	tests := [][]float64{
		{100000, 100000.1, 99999.9, 100000.05},
		{1000, 1000.001},
		{50, 50.0001},
	}
	for _, values := range tests {
		w := NewWindow(len(values))
		for _, v := range values {
			w.Push(v)
		}
		mean, sd := Population(values)
		if math.Abs(w.StdDev()-sd) > 1e-9*math.Max(1, sd) || w.StdDev() == 0 {
			t.Errorf("%v: stdev %g, want %g", values, w.StdDev(), sd)
		}
		last := values[len(values)-1]
		if want := (last - mean) / sd; math.Abs(w.ZScore(last)-want) > 1e-6 {
			t.Errorf("%v: zscore %g, want %g", values, w.ZScore(last), want)
		}
	}
}

func TestWindowSlidingAtHighLevel(t *testing.T) {
	values := make([]float64, 200)
	for i := range values {
		values[i] = 1e6 + float64(i) + 0.01*math.Sin(float64(i))
	}
	w := NewWindow(5)
	for i, v := range values {
		w.Push(v)
		lo := max(0, i-4)
		mean, sd := Population(values[lo : i+1])
		if math.Abs(w.Mean()-mean) > 1e-6 || math.Abs(w.StdDev()-sd) > 1e-6 {
			t.Fatalf("step %d: mean %v sd %v, want %v %v", i, w.Mean(), w.StdDev(), mean, sd)
		}
	}
}

func TestWindowConstantAfterVariation(t *testing.T) {
	w := NewWindow(3)
	for _, v := range []float64{1.5, 2.25, 7.1, 7.1, 7.1} {
		w.Push(v)
	}
	if w.StdDev() != 0 || w.ZScore(7.1) != 0 {
		t.Errorf("constant window: stdev %v zscore %v", w.StdDev(), w.ZScore(7.1))
	}
}

func TestPopulationEmpty(t *testing.T) {
	if m, sd := Population(nil); m != 0 || sd != 0 {
		t.Errorf("Population(nil) = %v, %v", m, sd)
	}
}
