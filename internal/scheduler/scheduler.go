// Package scheduler runs the optimization protocol on a cron schedule and answers chat commands.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"GridOptimizer/internal/collector"
	"GridOptimizer/internal/model"
	"GridOptimizer/internal/notifier"
	"GridOptimizer/internal/pool"
	"GridOptimizer/internal/search"
)

// ErrBusy is returned when an optimization is requested while another one is running.
var ErrBusy = errors.New("optimization already running")

// Notifier delivers a text message. *notifier.TelegramNotifier satisfies it.
type Notifier interface {
	Send(ctx context.Context, text string) error
}

// ConfigLister lists saved configurations. Every recorder satisfies it.
type ConfigLister interface {
	ListConfigs(ctx context.Context, symbol string, limit int) ([]model.SavedConfig, error)
}

// Recommendations reads the stored recommendation of a symbol. *session.Store satisfies it.
type Recommendations interface {
	Recommendation(symbol string) (model.SavedConfig, bool)
}

// Scheduler manages the periodic optimization task.
type Scheduler struct {
	Cron       *cron.Cron
	Collector  *collector.Collector
	Controller *search.Controller
	Notifier   Notifier
	Configs    ConfigLister
	Sessions   Recommendations
	// Lookback limits the collected history in milliseconds; zero keeps all of it.
	Lookback int64
	Ctx      context.Context

	running atomic.Bool
	mu      sync.Mutex
	last    *search.Report
	log     zerolog.Logger
}

// NewScheduler creates a new Scheduler. notifier, configs and sessions may be nil.
func NewScheduler(ctx context.Context, col *collector.Collector, ctrl *search.Controller, n Notifier,
	configs ConfigLister, sessions Recommendations, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		Cron:       cron.New(cron.WithSeconds()),
		Collector:  col,
		Controller: ctrl,
		Notifier:   n,
		Configs:    configs,
		Sessions:   sessions,
		Ctx:        ctx,
		log:        logger.With().Str("component", "scheduler").Logger(),
	}
}

// RegisterAll registers the optimization task.
func (s *Scheduler) RegisterAll(optimizeCron string) error {
	if _, err := s.Cron.AddFunc(optimizeCron, s.optimizeTask); err != nil {
		return fmt.Errorf("register optimize task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Info().Msg("scheduler started")
}

// Stop stops the cron scheduler and cancels a running grid job.
func (s *Scheduler) Stop() {
	done := s.Cron.Stop()
	s.Controller.Cancel()
	<-done.Done()
	s.log.Info().Msg("scheduler stopped")
}

// LastReport returns the report of the most recent successful run, or nil.
func (s *Scheduler) LastReport() *search.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func (s *Scheduler) optimizeTask() {
	if _, err := s.OptimizeNow(s.Ctx); err != nil {
		if errors.Is(err, ErrBusy) {
			s.log.Warn().Msg("skipping scheduled run, previous run still active")
			return
		}
		if errors.Is(err, context.Canceled) {
			s.log.Info().Msg("optimization cancelled")
			return
		}
		s.log.Error().Err(err).Msg("optimization failed")
		s.trySend(fmt.Sprintf("❌ Optimization failed: %v", err))
	}
}

// OptimizeNow collects fresh candles and runs the full search. Overlapping calls return
// ErrBusy.
func (s *Scheduler) OptimizeNow(ctx context.Context) (*search.Report, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer s.running.Store(false)

	s.log.Info().Str("symbol", s.Collector.Symbol).Msg("running optimization")
	candles, err := s.Collector.Collect(ctx, 0, s.Lookback)
	if err != nil {
		return nil, err
	}
	h, err := s.Controller.Prepare(s.Collector.Symbol, candles)
	if err != nil {
		return nil, err
	}

	lastPct := map[model.Source]int{}
	rep, err := s.Controller.Optimize(ctx, h, func(src model.Source, m pool.Message) {
		// log every 25%
		if pct := int(m.Percent) / 25; pct > lastPct[src] {
			lastPct[src] = pct
			s.log.Debug().Str("phase", string(src)).Float64("percent", m.Percent).Msg("progress")
		}
	})
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.last = rep
	s.mu.Unlock()

	for _, o := range []*search.Outcome{rep.Phase1, rep.Phase2A, rep.Phase2B} {
		if o != nil {
			s.trySend(notifier.FormatPhaseSummary(o.Source, o.Grid))
		}
	}
	s.trySend(notifier.FormatRecommendation(rep.Symbol, rep.Baseline, rep.Recommendation, rep.Saved))
	return rep, nil
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	switch command {
	case "/optimize":
		if s.running.Load() {
			return "⏳ An optimization is already running."
		}
		go s.optimizeTask()
		return "🚀 Optimization started for " + s.Collector.Symbol
	case "/cancel":
		if !s.running.Load() {
			return "Nothing to cancel."
		}
		s.Controller.Cancel()
		return "🛑 Cancelling the running grid job."
	case "/status":
		return s.status()
	case "/configs":
		if s.Configs == nil {
			return notifier.FormatSavedConfigs(nil)
		}
		list, err := s.Configs.ListConfigs(ctx, s.Collector.Symbol, 10)
		if err != nil {
			s.log.Error().Err(err).Msg("list configs")
			return "❌ Could not load saved configurations."
		}
		return notifier.FormatSavedConfigs(list)
	default:
		return "Available commands:\n• /optimize\n• /cancel\n• /status\n• /configs"
	}
}

func (s *Scheduler) status() string {
	if rep := s.LastReport(); rep != nil {
		return notifier.FormatRecommendation(rep.Symbol, rep.Baseline, rep.Recommendation, rep.Saved)
	}
	if s.Sessions != nil {
		if rec, ok := s.Sessions.Recommendation(s.Collector.Symbol); ok {
			return notifier.FormatSavedConfigs([]model.SavedConfig{rec})
		}
	}
	return "No optimization has completed yet for " + s.Collector.Symbol
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.Send(s.Ctx, text); err != nil {
		s.log.Error().Err(err).Msg("send notification")
	}
}
