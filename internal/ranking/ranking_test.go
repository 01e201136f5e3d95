package ranking

import (
	"errors"
	"math"
	"testing"

	"GridOptimizer/internal/model"
)

func generateCandles(n int, price func(int) float64) []model.Candle {
	out := make([]model.Candle, n)
	for i := 0; i < n; i++ {
		p := price(i)
		out[i] = model.Candle{Timestamp: int64(i+1) * 60_000, Open: p, High: p + 1, Low: p - 1, Close: p}
	}
	return out
}

func wave(i int) float64 { return 100 + 15*math.Sin(float64(i)/9) + 0.05*float64(i) }

func TestCompute_AllIndicatorsAligned(t *testing.T) {
	candles := generateCandles(260, wave)
	flags := model.IndicatorFlags{MACD: true, RSI: true, AO: true, Disparity: true, RTI: true}
	res, err := Compute(candles, Options{Flags: flags})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if len(res.Enabled) != 5 || len(res.Skipped) != 0 {
		t.Fatalf("enabled=%v skipped=%v", res.Enabled, res.Skipped)
	}
	// RTI has the longest warm-up, so it bounds the aligned length
	wantLen := 260 - (100 + 20 - 1) + 1
	if res.Composite.Len() != wantLen || len(res.Points) != wantLen {
		t.Fatalf("composite len %d points %d, want %d", res.Composite.Len(), len(res.Points), wantLen)
	}
	if res.Composite.Offset != 260-wantLen {
		t.Errorf("offset %d, want %d", res.Composite.Offset, 260-wantLen)
	}
	last := res.Points[len(res.Points)-1]
	if last.Timestamp != candles[len(candles)-1].Timestamp {
		t.Errorf("last point ts %d, want %d", last.Timestamp, candles[len(candles)-1].Timestamp)
	}
	if last.MACD == nil || last.RSI == nil || last.AO == nil || last.Disparity == nil || last.RTI == nil {
		t.Error("expected all raw values to be set")
	}
	if len(res.Disparities) != 3 || res.Disparities[2].Len() >= res.Disparities[0].Len() {
		t.Errorf("disparity periods not computed: %d series", len(res.Disparities))
	}

	// z-scores of each indicator sum to ~0 over the range, so the composite does too
	sum := 0.0
	for _, v := range res.Composite.Values {
		sum += v
	}
	if math.Abs(sum) > 1e-6 {
		t.Errorf("composite sum = %v, want ~0", sum)
	}
}

func TestCompute_DisabledIndicatorsAreNil(t *testing.T) {
	candles := generateCandles(80, wave)
	res, err := Compute(candles, Options{Flags: model.IndicatorFlags{RSI: true}})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	p := res.Points[0]
	if p.RSI == nil || p.MACD != nil || p.RTI != nil {
		t.Errorf("unexpected raw values: %+v", p)
	}
	if res.Disparities != nil {
		t.Error("disparity series computed while disabled")
	}
}

func TestCompute_SkipsInsufficientIndicators(t *testing.T) {
	candles := generateCandles(60, wave)
	res, err := Compute(candles, Options{Flags: model.IndicatorFlags{RSI: true, RTI: true}})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if len(res.Skipped) != 1 || res.Skipped[0] != model.IndicatorRTI {
		t.Errorf("skipped = %v, want [RTI]", res.Skipped)
	}

	_, err = Compute(candles, Options{Flags: model.IndicatorFlags{RTI: true}})
	if !errors.Is(err, ErrRankingUnavailable) {
		t.Errorf("expected ErrRankingUnavailable, got %v", err)
	}
}

func TestCompute_ConstantSeriesScoresZero(t *testing.T) {
	candles := generateCandles(50, func(int) float64 { return 10 })
	res, err := Compute(candles, Options{Flags: model.IndicatorFlags{RSI: true, AO: true}})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	for i, v := range res.Composite.Values {
		if v != 0 {
			t.Fatalf("composite[%d]=%v, want 0 for zero-stdev inputs", i, v)
		}
	}
}

func TestCompute_TimeWindowAndRollingZ(t *testing.T) {
	candles := generateCandles(200, wave)
	base := candles[149].Timestamp
	res, err := Compute(candles, Options{
		Flags:        model.IndicatorFlags{RSI: true},
		Base:         base,
		Lookback:     100 * 60_000,
		ZScoreWindow: 20,
	})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if got := res.Points[len(res.Points)-1].Timestamp; got != base {
		t.Errorf("last ts %d, want base %d", got, base)
	}
	if res.Composite.Len()+res.Composite.Offset != 100 {
		t.Errorf("window length %d, want 100", res.Composite.Len()+res.Composite.Offset)
	}
}
