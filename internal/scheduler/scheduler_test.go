package scheduler

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"GridOptimizer/internal/collector"
	"GridOptimizer/internal/grid"
	"GridOptimizer/internal/pool"
	"GridOptimizer/internal/recorder"
	"GridOptimizer/internal/search"
	"GridOptimizer/internal/session"
)

type fakeNotifier struct {
	mu   sync.Mutex
	sent []string
}

func (f *fakeNotifier) Send(_ context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, text)
	return nil
}

func newTestScheduler(t *testing.T) (*Scheduler, *fakeNotifier) {
	t.Helper()
	dir := t.TempDir()

	rec, err := recorder.NewSQLiteRecorder(filepath.Join(dir, "test.db"), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewSQLiteRecorder: %v", err)
	}
	t.Cleanup(func() { rec.Close() })
	sessions, err := session.NewStore(filepath.Join(dir, "session.json"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	p := pool.New(2, zerolog.Nop())
	t.Cleanup(p.Close)

	cfg := search.DefaultConfig()
	cfg.Decimals = 1
	cfg.AutoSave = true
	ctrl := search.NewController(cfg, grid.DefaultSignalConfig(), p, rec, sessions, zerolog.Nop())

	col := collector.NewCollector(&collector.MockFetcher{Price: 100}, "BTCUSDT", "1h", 400, zerolog.Nop())
	n := &fakeNotifier{}
	return NewScheduler(context.Background(), col, ctrl, n, rec, sessions, zerolog.Nop()), n
}

func TestRegisterAll(t *testing.T) {
	s, _ := newTestScheduler(t)
	if err := s.RegisterAll("0 0 */6 * * *"); err != nil {
		t.Fatalf("RegisterAll: %v", err)
	}
	if got := len(s.Cron.Entries()); got != 1 {
		t.Errorf("entries = %d, want 1", got)
	}
	if err := s.RegisterAll("not a cron"); err == nil {
		t.Error("expected error for invalid cron expression")
	}
}

func TestOptimizeNow(t *testing.T) {
	s, n := newTestScheduler(t)
	ctx := context.Background()

	if got := s.HandleCommand(ctx, "/status"); !strings.Contains(got, "No optimization") {
		t.Errorf("status before run: %q", got)
	}

	rep, err := s.OptimizeNow(ctx)
	if err != nil {
		t.Fatalf("OptimizeNow: %v", err)
	}
	if rep.Saved == nil {
		t.Fatal("auto-save did not store the recommendation")
	}
	// three phase summaries plus the recommendation
	if len(n.sent) != 4 {
		t.Fatalf("sent %d messages, want 4", len(n.sent))
	}
	if !strings.Contains(n.sent[3], "Recommended") {
		t.Errorf("last message %q", n.sent[3])
	}
	if s.LastReport() != rep {
		t.Error("LastReport does not return the completed run")
	}

	if got := s.HandleCommand(ctx, "/status"); !strings.Contains(got, "BTCUSDT") {
		t.Errorf("status after run: %q", got)
	}
	if got := s.HandleCommand(ctx, "/configs"); !strings.Contains(got, rep.Saved.Name) {
		t.Errorf("configs reply %q does not list %q", got, rep.Saved.Name)
	}
	if got := s.HandleCommand(ctx, "/cancel"); got != "Nothing to cancel." {
		t.Errorf("cancel while idle: %q", got)
	}
}

func TestOptimizeNow_Busy(t *testing.T) {
	s, n := newTestScheduler(t)
	s.running.Store(true)

	if _, err := s.OptimizeNow(context.Background()); !errors.Is(err, ErrBusy) {
		t.Fatalf("err = %v, want ErrBusy", err)
	}
	if got := s.HandleCommand(context.Background(), "/optimize"); !strings.Contains(got, "already running") {
		t.Errorf("optimize while busy: %q", got)
	}
	if len(n.sent) != 0 {
		t.Errorf("busy run sent %d messages", len(n.sent))
	}
}

func TestHandleCommand_Help(t *testing.T) {
	s, _ := newTestScheduler(t)
	got := s.HandleCommand(context.Background(), "hello")
	for _, cmd := range []string{"/optimize", "/cancel", "/status", "/configs"} {
		if !strings.Contains(got, cmd) {
			t.Errorf("help reply missing %s", cmd)
		}
	}
}
