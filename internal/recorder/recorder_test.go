package recorder

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"GridOptimizer/internal/model"
)

var (
	_ Recorder = (*SQLiteRecorder)(nil)
	_ Recorder = (*PostgresRecorder)(nil)
	_ Recorder = (*NoopRecorder)(nil)
)

func TestSQLiteRecorder_ConfigsAndRuns(t *testing.T) {
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "optimizer.db"), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewSQLiteRecorder: %v", err)
	}
	defer r.Close()
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, sym := range []string{"BTCUSDT", "ETHUSDT", "BTCUSDT"} {
		c := model.SavedConfig{
			ID:                 uuid.NewString(),
			Name:               sym + " pick",
			Symbol:             sym,
			BuyConditionCount:  3 + i,
			BuyThreshold:       0.45,
			SellConditionCount: 4,
			SellThreshold:      -0.6,
			ExpectedReturn:     12.5 + float64(i),
			TradeCount:         7,
			Source:             model.SourcePhase2A,
			CreatedAt:          base.Add(time.Duration(i) * time.Hour),
			Memo:               "auto",
		}
		if err := r.SaveConfig(ctx, c); err != nil {
			t.Fatalf("SaveConfig: %v", err)
		}
	}

	btc, err := r.ListConfigs(ctx, "BTCUSDT", 10)
	if err != nil {
		t.Fatalf("ListConfigs: %v", err)
	}
	if len(btc) != 2 {
		t.Fatalf("got %d BTC configs, want 2", len(btc))
	}
	if btc[0].BuyConditionCount != 5 || !btc[0].CreatedAt.Equal(base.Add(2*time.Hour)) {
		t.Errorf("newest first expected, got %+v", btc[0])
	}
	if btc[0].Source != model.SourcePhase2A || btc[0].SellThreshold != -0.6 || btc[0].Memo != "auto" {
		t.Errorf("round trip mismatch %+v", btc[0])
	}
	all, _ := r.ListConfigs(ctx, "", 0)
	if len(all) != 3 {
		t.Errorf("got %d configs, want 3", len(all))
	}

	run := model.RunRecord{ID: uuid.NewString(), Symbol: "BTCUSDT", Task: model.TaskSymmetric,
		Source: model.SourcePhase1, Rows: 10, Cols: 181, BestReturn: 20, MinReturn: -5, ElapsedMs: 120, CreatedAt: base}
	if err := r.RecordRun(ctx, run); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}
	if n, err := r.CountRuns(ctx); err != nil || n != 1 {
		t.Errorf("CountRuns = %d, %v", n, err)
	}
}
