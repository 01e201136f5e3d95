package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"GridOptimizer/internal/model"
)

func TestSend_RetriesTransientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bottoken/sendMessage" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var payload map[string]string
		json.NewDecoder(r.Body).Decode(&payload)
		if payload["chat_id"] != "42" || payload["parse_mode"] != "HTML" {
			t.Errorf("unexpected payload %v", payload)
		}
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	n := NewTelegramNotifier("token", "42", "", zerolog.Nop())
	n.BaseURL = srv.URL
	n.MaxElapsed = 10 * time.Second
	if err := n.Send(context.Background(), "hello"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestSend_BadRequestNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, `{"ok":false}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	n := NewTelegramNotifier("token", "42", "", zerolog.Nop())
	n.BaseURL = srv.URL
	if err := n.Send(context.Background(), "hello"); err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestStartPolling_DispatchesCommands(t *testing.T) {
	var replies int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/getUpdates"):
			if r.URL.Query().Get("offset") == "0" {
				w.Write([]byte(`{"ok":true,"result":[` +
					`{"update_id":6,"message":{"text":"/optimize","chat":{"id":99}}},` +
					`{"update_id":7,"message":{"text":" /Status@grid_bot now","chat":{"id":42}}}]}`))
				return
			}
			<-r.Context().Done()
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			atomic.AddInt32(&replies, 1)
			w.Write([]byte(`{"ok":true}`))
		}
	}))
	defer srv.Close()

	n := NewTelegramNotifier("token", "42", "", zerolog.Nop())
	n.BaseURL = srv.URL
	ctx, cancel := context.WithCancel(context.Background())
	got := make(chan string, 1)
	done := make(chan struct{})
	go func() {
		n.StartPolling(ctx, func(_ context.Context, cmd string) string {
			got <- cmd
			return "ok"
		})
		close(done)
	}()

	select {
	case cmd := <-got:
		if cmd != "/status" {
			t.Errorf("command = %q", cmd)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no command dispatched")
	}
	deadline := time.Now().Add(5 * time.Second)
	for atomic.LoadInt32(&replies) == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	<-done
	if atomic.LoadInt32(&replies) != 1 {
		t.Errorf("replies = %d, want 1", atomic.LoadInt32(&replies))
	}
}

func TestParseCommand(t *testing.T) {
	tests := map[string]string{
		"/optimize":           "/optimize",
		"  /Configs@my_bot x ": "/configs",
		"hello":               "",
		"":                    "",
	}
	for in, want := range tests {
		if got := parseCommand(in); got != want {
			t.Errorf("parseCommand(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatters(t *testing.T) {
	baseline := model.PhaseBaseline{Source: model.SourcePhase1,
		Config: model.SimulationConfig{BuyLookback: 4, BuyThreshold: 0.7, SellLookback: 4, SellThreshold: -0.7},
		Result: model.SimulationResult{TotalReturnPercent: 10, TradeCount: 5}}
	rec := baseline
	rec.Source = model.SourcePhase2B
	rec.Result.TotalReturnPercent = 14.5
	msg := FormatRecommendation("BTCUSDT", baseline, rec, &model.SavedConfig{Name: "pick"})
	for _, want := range []string{"BTCUSDT", "phase2b", "+14.50%", "refinement gain +4.50%", `"pick"`} {
		if !strings.Contains(msg, want) {
			t.Errorf("recommendation missing %q:\n%s", want, msg)
		}
	}

	g := &model.GridResult{
		Task: model.TaskSymmetric, Rows: []float64{1, 2}, Cols: []float64{0.2, 0.3},
		Results: [][]model.SimulationResult{
			{{TotalReturnPercent: -1}, {TotalReturnPercent: 3, TradeCount: 2}},
			{{TotalReturnPercent: 0}, {TotalReturnPercent: 1}},
		},
		MinReturn: -1, MaxReturn: 3, Best: model.Cell{Row: 0, Col: 1},
	}
	summary := FormatPhaseSummary(model.SourcePhase1, g)
	if !strings.Contains(summary, "2 × 2 = 4") || !strings.Contains(summary, "+3.00% (2 trades)") {
		t.Errorf("unexpected summary:\n%s", summary)
	}
	if !strings.Contains(FormatSavedConfigs(nil), "No saved") {
		t.Error("empty list message missing")
	}
}
