package grid

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"

	"GridOptimizer/internal/model"
)

func generateCandles(n int) []model.Candle {
	out := make([]model.Candle, n)
	for i := 0; i < n; i++ {
		p := 100 + 20*math.Sin(float64(i)/11) + 8*math.Cos(float64(i)/3) + 0.1*float64(i)
		out[i] = model.Candle{Timestamp: int64(i+1) * 3_600_000, Open: p, High: p + 2, Low: p - 2, Close: p}
	}
	return out
}

func TestThresholdAxis_NoDrift(t *testing.T) {
	axis, err := ThresholdAxis(0.40, 0.80, 2)
	if err != nil {
		t.Fatalf("ThresholdAxis: %v", err)
	}
	if len(axis) != 41 {
		t.Fatalf("len = %d, want 41", len(axis))
	}
	if axis[0] != 0.40 || axis[40] != 0.80 {
		t.Errorf("first=%v last=%v", axis[0], axis[40])
	}
	for i, v := range axis {
		want := math.Round((0.40+0.01*float64(i))*100) / 100
		if math.Round(v*100)/100 != want || v != want {
			t.Errorf("axis[%d] = %v, want %v", i, v, want)
		}
	}
}

func TestThresholdAxis_StaysInsideRange(t *testing.T) {
	tests := []struct {
		min, max    float64
		decimals    int
		first, last float64
	}{
		{0.404, 0.796, 2, 0.41, 0.79},
		{-0.404, 0.404, 2, -0.40, 0.40},
		{-0.7, -0.2, 1, -0.7, -0.2},
		{0.3 - 0.5, 0.3 + 0.5, 1, -0.2, 0.8},
	}
	for _, tt := range tests {
		axis, err := ThresholdAxis(tt.min, tt.max, tt.decimals)
		if err != nil {
			t.Fatalf("ThresholdAxis(%v, %v): %v", tt.min, tt.max, err)
		}
		if axis[0] != tt.first || axis[len(axis)-1] != tt.last {
			t.Errorf("ThresholdAxis(%v, %v) = %v..%v, want %v..%v",
				tt.min, tt.max, axis[0], axis[len(axis)-1], tt.first, tt.last)
		}
		for _, v := range axis {
			if v < tt.min-1e-9 || v > tt.max+1e-9 {
				t.Errorf("value %v outside [%v, %v]", v, tt.min, tt.max)
			}
		}
	}

	fine, err := FineAxis(0.4004, 0.9)
	if err != nil {
		t.Fatalf("FineAxis: %v", err)
	}
	if fine[0] != 0.401 || fine[len(fine)-1] != 0.601 {
		t.Errorf("fine axis %v..%v", fine[0], fine[len(fine)-1])
	}
	if _, err := ThresholdAxis(0.401, 0.409, 2); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("range without a step: err = %v", err)
	}
}

func TestAxes(t *testing.T) {
	fine, err := FineAxis(0.5, 2.0)
	if err != nil {
		t.Fatalf("FineAxis: %v", err)
	}
	if len(fine) != 201 || fine[0] != 0.5 || fine[200] != 0.7 {
		t.Errorf("fine axis len=%d first=%v last=%v", len(fine), fine[0], fine[len(fine)-1])
	}
	neg, _ := ThresholdAxis(-0.5, 0.5, 1)
	if len(neg) != 11 || neg[5] != 0 || neg[0] != -0.5 {
		t.Errorf("negative axis %v", neg)
	}
	counts, _ := CountAxis(2, 5)
	if !reflect.DeepEqual(counts, []float64{2, 3, 4, 5}) {
		t.Errorf("count axis %v", counts)
	}
	if _, err := ThresholdAxis(0.8, 0.4, 2); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("expected ErrInvalidRange, got %v", err)
	}
	if _, err := CountAxis(5, 2); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("expected ErrInvalidRange, got %v", err)
	}
}

func TestSpecValidate(t *testing.T) {
	base := model.SimulationConfig{BuyLookback: 3, SellLookback: 3}
	tests := []struct {
		name    string
		spec    Spec
		wantErr bool
	}{
		{"threshold ok", Spec{Task: model.TaskThreshold, Rows: Range{0.4, 0.8}, Cols: Range{-0.8, -0.4}, Base: base}, false},
		{"min equals max", Spec{Task: model.TaskThreshold, Rows: Range{0.4, 0.4}, Cols: Range{0.1, 0.2}, Base: base}, true},
		{"outside domain", Spec{Task: model.TaskThreshold, Rows: Range{0.4, 5.5}, Cols: Range{0.1, 0.2}, Base: base}, true},
		{"symmetric ok", Spec{Task: model.TaskSymmetric, Rows: Range{1, 10}, Cols: Range{0.2, 2.0}}, false},
		{"count above ten", Spec{Task: model.TaskSymmetric, Rows: Range{1, 11}, Cols: Range{0.2, 2.0}}, true},
		{"fractional count", Spec{Task: model.TaskBuyRefine, Rows: Range{1.5, 4}, Cols: Range{0.2, 1}, Base: base}, true},
		{"negative magnitude", Spec{Task: model.TaskSymmetric, Rows: Range{1, 3}, Cols: Range{-1, 1}}, true},
		{"sell refine needs buy lookback", Spec{Task: model.TaskSellRefine, Rows: Range{1, 4}, Cols: Range{-1, 0}}, true},
		{"unknown task", Spec{Task: "diagonal", Rows: Range{0, 1}, Cols: Range{0, 1}, Base: base}, true},
		{"bad position", Spec{Task: model.TaskThreshold, Rows: Range{0.4, 0.8}, Cols: Range{0.1, 0.2},
			Base: model.SimulationConfig{BuyLookback: 1, SellLookback: 1, InitialPosition: "short"}}, true},
	}
	for _, tt := range tests {
		err := tt.spec.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: err=%v wantErr=%v", tt.name, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, ErrInvalidRange) {
			t.Errorf("%s: expected ErrInvalidRange, got %v", tt.name, err)
		}
	}
}

func TestPlanConfig(t *testing.T) {
	base := model.SimulationConfig{BuyLookback: 4, BuyThreshold: 0.6, SellLookback: 2, SellThreshold: -0.6}

	sym, err := Spec{Task: model.TaskSymmetric, Rows: Range{1, 5}, Cols: Range{0.2, 2.0}, Decimals: 1}.Plan()
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	cfg := sym.Config(2, 3)
	if cfg.BuyLookback != 3 || cfg.SellLookback != 3 || cfg.BuyThreshold != 0.5 || cfg.SellThreshold != -0.5 {
		t.Errorf("symmetric config %+v", cfg)
	}
	if cfg.StartIndex != 5 || cfg.InitialCapital != model.DefaultInitialCapital || cfg.Mode != model.ModeRelative {
		t.Errorf("symmetric defaults %+v", cfg)
	}

	buy, _ := Spec{Task: model.TaskBuyRefine, Rows: Range{1, 7}, Cols: Range{0.1, 1.1}, Base: base}.Plan()
	cfg = buy.Config(0, 0)
	if cfg.BuyLookback != 1 || cfg.BuyThreshold != 0.1 || cfg.SellLookback != 2 || cfg.SellThreshold != -0.6 || cfg.StartIndex != 7 {
		t.Errorf("buy refine config %+v", cfg)
	}

	sell, _ := Spec{Task: model.TaskSellRefine, Rows: Range{1, 3}, Cols: Range{-1.1, -0.1}, Base: base}.Plan()
	cfg = sell.Config(2, 0)
	if cfg.SellLookback != 3 || cfg.SellThreshold != -1.1 || cfg.BuyLookback != 4 || cfg.StartIndex != 4 {
		t.Errorf("sell refine config %+v", cfg)
	}
}

func TestSimulate_MinMaxBest(t *testing.T) {
	candles := generateCandles(400)
	signal, err := ResolveSignal(candles, DefaultSignalConfig())
	if err != nil {
		t.Fatalf("ResolveSignal: %v", err)
	}
	spec := Spec{Task: model.TaskSymmetric, Rows: Range{1, 6}, Cols: Range{0.2, 2.0}, Decimals: 1}
	calls := 0
	g, err := Simulate(context.Background(), candles, signal, spec, func(done, total int) {
		calls++
		if done > total {
			t.Errorf("progress %d > %d", done, total)
		}
	})
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	if len(g.Rows) != 6 || len(g.Cols) != 19 || len(g.Results) != 6 {
		t.Fatalf("shape rows=%d cols=%d results=%d", len(g.Rows), len(g.Cols), len(g.Results))
	}
	if calls == 0 || calls > g.CellCount()/ProgressEvery+1 {
		t.Errorf("progress calls %d not batched", calls)
	}
	best := g.At(g.Best)
	if best.TotalReturnPercent != g.MaxReturn {
		t.Errorf("best return %v != max %v", best.TotalReturnPercent, g.MaxReturn)
	}
	for _, row := range g.Results {
		for _, res := range row {
			if res.TotalReturnPercent < g.MinReturn || res.TotalReturnPercent > g.MaxReturn {
				t.Fatalf("return %v outside [%v,%v]", res.TotalReturnPercent, g.MinReturn, g.MaxReturn)
			}
		}
	}
}

func TestSimulateRows_ConcatenationMatchesWhole(t *testing.T) {
	candles := generateCandles(300)
	signal, err := ResolveSignal(candles, DefaultSignalConfig())
	if err != nil {
		t.Fatalf("ResolveSignal: %v", err)
	}
	spec := Spec{Task: model.TaskThreshold, Rows: Range{0.1, 0.3}, Cols: Range{-0.3, -0.1},
		Base: model.SimulationConfig{BuyLookback: 3, SellLookback: 5}}
	whole, err := Simulate(context.Background(), candles, signal, spec, nil)
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	plan, _ := spec.Plan()
	var rows [][]model.SimulationResult
	for _, b := range [][2]int{{0, 7}, {7, 14}, {14, 21}} {
		part, err := plan.SimulateRows(context.Background(), candles, signal, b[0], b[1], nil)
		if err != nil {
			t.Fatalf("SimulateRows: %v", err)
		}
		rows = append(rows, part...)
	}
	if !reflect.DeepEqual(plan.Assemble(rows), whole) {
		t.Error("row-split grid differs from single-context grid")
	}
}

func TestSimulate_Cancelled(t *testing.T) {
	candles := generateCandles(300)
	signal, _ := ResolveSignal(candles, DefaultSignalConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	g, err := Simulate(ctx, candles, signal, Spec{Task: model.TaskSymmetric, Rows: Range{1, 3}, Cols: Range{0.2, 0.4}}, nil)
	if !errors.Is(err, context.Canceled) || g != nil {
		t.Errorf("expected canceled with no result, got %v %v", g, err)
	}
}

func TestResolveSignal(t *testing.T) {
	if _, err := ResolveSignal(generateCandles(50), DefaultSignalConfig()); !errors.Is(err, ErrSignalUnavailable) {
		t.Errorf("expected ErrSignalUnavailable, got %v", err)
	}
	candles := generateCandles(200)
	sig, err := ResolveSignal(candles, DefaultSignalConfig())
	if err != nil {
		t.Fatalf("ResolveSignal: %v", err)
	}
	if sig.Offset+sig.Len() != len(candles) {
		t.Errorf("offset %d + len %d != %d", sig.Offset, sig.Len(), len(candles))
	}
	comp, err := ResolveSignal(candles, SignalConfig{Kind: SignalComposite, Indicators: model.IndicatorFlags{RSI: true, MACD: true}})
	if err != nil {
		t.Fatalf("composite: %v", err)
	}
	if comp.Offset+comp.Len() != len(candles) {
		t.Errorf("composite misaligned: offset %d len %d", comp.Offset, comp.Len())
	}
	if _, err := ResolveSignal(candles, SignalConfig{Kind: "bogus"}); err == nil {
		t.Error("expected error for unknown kind")
	}
}
