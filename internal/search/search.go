// Package search drives the progressive optimization protocol: a symmetric baseline
// grid, buy-side and sell-side refinement around the chosen baseline, and a final
// comparison that yields the recommended configuration.
package search

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"GridOptimizer/internal/grid"
	"GridOptimizer/internal/model"
	"GridOptimizer/internal/pool"
)

// Config holds the search windows and run settings.
type Config struct {
	CountMin        int                 `yaml:"count_min"`
	CountMax        int                 `yaml:"count_max"`
	MagnitudeMin    float64             `yaml:"magnitude_min"`
	MagnitudeMax    float64             `yaml:"magnitude_max"`
	RefineCount     int                 `yaml:"refine_count"`
	RefineThreshold float64             `yaml:"refine_threshold"`
	Decimals        int                 `yaml:"decimals"`
	Fine            bool                `yaml:"fine"`
	Chunks          int                 `yaml:"chunks"`
	AutoSave        bool                `yaml:"auto_save"`
	ReuseBaseline   bool                `yaml:"reuse_baseline"`
	InitialPosition model.Position      `yaml:"initial_position"`
	InitialCapital  float64             `yaml:"initial_capital"`
	Mode            model.ThresholdMode `yaml:"threshold_mode"`
}

// DefaultConfig returns the standard protocol windows.
func DefaultConfig() Config {
	return Config{
		CountMin:        1,
		CountMax:        10,
		MagnitudeMin:    0.2,
		MagnitudeMax:    2.0,
		RefineCount:     3,
		RefineThreshold: 0.5,
		Decimals:        grid.DefaultDecimals,
		InitialPosition: model.PositionCash,
		InitialCapital:  model.DefaultInitialCapital,
		Mode:            model.ModeRelative,
	}
}

// Runner executes grid jobs and detail queries. *pool.Pool satisfies it.
type Runner interface {
	Start(ctx context.Context, req pool.Request) (*pool.Job, error)
	Detail(ctx context.Context, req pool.DetailRequest) (pool.Message, error)
}

// Store persists saved configurations and run history.
type Store interface {
	SaveConfig(ctx context.Context, cfg model.SavedConfig) error
	RecordRun(ctx context.Context, run model.RunRecord) error
}

// Sessions keeps the selected baseline and recommendation per symbol.
type Sessions interface {
	Baseline(symbol string) (model.PhaseBaseline, bool)
	SetBaseline(symbol string, b model.PhaseBaseline) error
	SetRecommendation(symbol string, cfg model.SavedConfig) error
}

// ProgressFunc receives progress of the current phase only.
type ProgressFunc func(source model.Source, m pool.Message)

// History is one fixed candle history with its signal resolved once for every phase.
type History struct {
	Symbol  string
	Candles []model.Candle
	Signal  model.IndicatorSeries
}

// Outcome is a finished phase: its grid and the plan that maps cells to configs.
type Outcome struct {
	Source model.Source
	Grid   *model.GridResult
	Plan   *grid.Plan
}

// Baseline returns the phase baseline for a chosen cell.
func (o *Outcome) Baseline(cell model.Cell) (model.PhaseBaseline, error) {
	if cell.Row < 0 || cell.Row >= len(o.Grid.Rows) || cell.Col < 0 || cell.Col >= len(o.Grid.Cols) {
		return model.PhaseBaseline{}, fmt.Errorf("cell (%d,%d) outside %dx%d grid", cell.Row, cell.Col, len(o.Grid.Rows), len(o.Grid.Cols))
	}
	return model.PhaseBaseline{
		Source: o.Source,
		Config: o.Plan.Config(cell.Row, cell.Col),
		Result: o.Grid.At(cell),
	}, nil
}

// Best returns the baseline for the automatically selected cell.
func (o *Outcome) Best() model.PhaseBaseline {
	b, _ := o.Baseline(SelectBest(o.Grid))
	return b
}

// SelectBest picks the highest-return cell; ties go to fewer trades, then the lower row,
// then the lower column.
func SelectBest(g *model.GridResult) model.Cell {
	best := model.Cell{}
	for r, row := range g.Results {
		for c, res := range row {
			if grid.Better(res, g.Results[best.Row][best.Col]) {
				best = model.Cell{Row: r, Col: c}
			}
		}
	}
	return best
}

// Compare returns the better of the two refinement baselines. A tie keeps a.
func Compare(a, b model.PhaseBaseline) model.PhaseBaseline {
	if grid.Better(b.Result, a.Result) {
		return b
	}
	return a
}

// Controller runs one phase at a time; starting a phase cancels the one in flight.
type Controller struct {
	cfg      Config
	signal   grid.SignalConfig
	runner   Runner
	store    Store
	sessions Sessions
	log      zerolog.Logger

	mu      sync.Mutex
	current *pool.Job
}

// NewController wires a controller. store and sessions may be nil.
func NewController(cfg Config, signal grid.SignalConfig, runner Runner, store Store, sessions Sessions, logger zerolog.Logger) *Controller {
	return &Controller{
		cfg:      cfg,
		signal:   signal,
		runner:   runner,
		store:    store,
		sessions: sessions,
		log:      logger.With().Str("component", "search").Logger(),
	}
}

// Prepare resolves the signal once for a candle history.
func (c *Controller) Prepare(symbol string, candles []model.Candle) (*History, error) {
	sig, err := grid.ResolveSignal(candles, c.signal)
	if err != nil {
		return nil, fmt.Errorf("prepare %s: %w", symbol, err)
	}
	return &History{Symbol: symbol, Candles: candles, Signal: sig}, nil
}

func (c *Controller) base() model.SimulationConfig {
	return model.SimulationConfig{
		InitialPosition: c.cfg.InitialPosition,
		InitialCapital:  c.cfg.InitialCapital,
		Mode:            c.cfg.Mode,
	}
}

// Phase1 runs the symmetric baseline grid: condition count rows by threshold magnitude
// columns, with the magnitude mirrored negative on the sell side.
func (c *Controller) Phase1(ctx context.Context, h *History, progress ProgressFunc) (*Outcome, error) {
	spec := grid.Spec{
		Task:     model.TaskSymmetric,
		Rows:     grid.Range{Min: float64(c.cfg.CountMin), Max: float64(c.cfg.CountMax)},
		Cols:     grid.Range{Min: c.cfg.MagnitudeMin, Max: c.cfg.MagnitudeMax},
		Decimals: c.cfg.Decimals,
		Fine:     c.cfg.Fine,
		Base:     c.base(),
	}
	return c.runPhase(ctx, h, model.SourcePhase1, spec, progress)
}

// Phase2A keeps the baseline's sell side and refines buy lookback and threshold.
func (c *Controller) Phase2A(ctx context.Context, h *History, baseline model.PhaseBaseline, progress ProgressFunc) (*Outcome, error) {
	b := baseline.Config
	spec := grid.Spec{
		Task:     model.TaskBuyRefine,
		Rows:     c.countWindow(b.BuyLookback),
		Cols:     c.thresholdWindow(b.BuyThreshold),
		Decimals: c.cfg.Decimals,
		Fine:     c.cfg.Fine,
		Base:     b,
	}
	return c.runPhase(ctx, h, model.SourcePhase2A, spec, progress)
}

// Phase2B keeps the baseline's buy side and refines sell lookback and threshold.
func (c *Controller) Phase2B(ctx context.Context, h *History, baseline model.PhaseBaseline, progress ProgressFunc) (*Outcome, error) {
	b := baseline.Config
	spec := grid.Spec{
		Task:     model.TaskSellRefine,
		Rows:     c.countWindow(b.SellLookback),
		Cols:     c.sellWindow(b.SellThreshold),
		Decimals: c.cfg.Decimals,
		Fine:     c.cfg.Fine,
		Base:     b,
	}
	return c.runPhase(ctx, h, model.SourcePhase2B, spec, progress)
}

func (c *Controller) countWindow(count int) grid.Range {
	lo := max(grid.MinCount, count-c.cfg.RefineCount)
	hi := min(grid.MaxCount, count+c.cfg.RefineCount)
	return grid.Range{Min: float64(lo), Max: float64(hi)}
}

func (c *Controller) thresholdWindow(t float64) grid.Range {
	return grid.Range{
		Min: math.Max(-grid.MaxThreshold, t-c.cfg.RefineThreshold),
		Max: math.Min(grid.MaxThreshold, t+c.cfg.RefineThreshold),
	}
}

// sellWindow keeps the sell window on the baseline's side of zero. Sells compare by
// |threshold|, so columns mirrored across zero would repeat each other.
func (c *Controller) sellWindow(t float64) grid.Range {
	w := c.thresholdWindow(t)
	if t <= 0 {
		w.Max = math.Min(w.Max, 0)
	} else {
		w.Min = math.Max(w.Min, 0)
	}
	return w
}

func (c *Controller) runPhase(ctx context.Context, h *History, source model.Source, spec grid.Spec, progress ProgressFunc) (*Outcome, error) {
	plan, err := spec.Plan()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}

	c.mu.Lock()
	if c.current != nil {
		c.current.Cancel()
	}
	job, err := c.runner.Start(ctx, pool.Request{Spec: spec, Candles: h.Candles, Signal: h.Signal, Chunks: c.cfg.Chunks})
	if err != nil {
		c.current = nil
		c.mu.Unlock()
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	c.current = job
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		if c.current == job {
			c.current = nil
		}
		c.mu.Unlock()
	}()

	started := time.Now()
	g, err := job.Wait(ctx, func(m pool.Message) {
		if progress != nil && c.isCurrent(m.RunID) {
			progress(source, m)
		}
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			c.log.Debug().Str("phase", string(source)).Msg("phase cancelled")
		}
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	out := &Outcome{Source: source, Grid: g, Plan: plan}

	if c.store != nil {
		rec := model.RunRecord{
			ID:         job.ID,
			Symbol:     h.Symbol,
			Task:       spec.Task,
			Source:     source,
			Rows:       len(g.Rows),
			Cols:       len(g.Cols),
			BestReturn: g.MaxReturn,
			MinReturn:  g.MinReturn,
			ElapsedMs:  time.Since(started).Milliseconds(),
			CreatedAt:  time.Now().UTC(),
		}
		if err := c.store.RecordRun(ctx, rec); err != nil {
			c.log.Error().Err(err).Str("run_id", job.ID).Msg("failed to record run")
		}
	}
	return out, nil
}

func (c *Controller) isCurrent(runID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current != nil && c.current.ID == runID
}

// Cancel abandons the phase in flight, if any.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != nil {
		c.current.Cancel()
		c.current = nil
	}
}

// Detail returns the enriched trade log for one configuration on the cached signal.
func (c *Controller) Detail(ctx context.Context, h *History, cfg model.SimulationConfig) (pool.Message, error) {
	return c.runner.Detail(ctx, pool.DetailRequest{Candles: h.Candles, Config: cfg, Signal: h.Signal, SignalConfig: c.signal})
}

// Save persists a baseline as a named configuration and records it as the symbol's
// recommendation.
func (c *Controller) Save(ctx context.Context, symbol, name, memo string, b model.PhaseBaseline) (model.SavedConfig, error) {
	if name == "" {
		name = fmt.Sprintf("%s %s %s", symbol, b.Source, time.Now().UTC().Format("2006-01-02 15:04"))
	}
	saved := model.NewSavedConfig(uuid.NewString(), name, symbol, b, time.Now().UTC())
	saved.Memo = memo
	if c.store != nil {
		if err := c.store.SaveConfig(ctx, saved); err != nil {
			return model.SavedConfig{}, fmt.Errorf("save config: %w", err)
		}
	}
	if c.sessions != nil {
		if err := c.sessions.SetRecommendation(symbol, saved); err != nil {
			return model.SavedConfig{}, fmt.Errorf("set recommendation: %w", err)
		}
	}
	c.log.Info().Str("symbol", symbol).Str("source", string(b.Source)).
		Float64("expected_return", saved.ExpectedReturn).Msg("configuration saved")
	return saved, nil
}

// Report summarizes a full Optimize run.
type Report struct {
	Symbol         string
	Phase1         *Outcome // nil when the stored baseline was reused
	Phase2A        *Outcome
	Phase2B        *Outcome
	Baseline       model.PhaseBaseline
	Recommendation model.PhaseBaseline
	Saved          *model.SavedConfig
	ReusedBaseline bool
}

// Optimize runs the whole protocol with automatic selection. With ReuseBaseline set,
// a stored baseline for the symbol replaces Phase 1.
func (c *Controller) Optimize(ctx context.Context, h *History, progress ProgressFunc) (*Report, error) {
	rep := &Report{Symbol: h.Symbol}

	if c.cfg.ReuseBaseline && c.sessions != nil {
		if b, ok := c.sessions.Baseline(h.Symbol); ok {
			rep.Baseline, rep.ReusedBaseline = b, true
			c.log.Info().Str("symbol", h.Symbol).Msg("reusing stored phase 1 baseline")
		}
	}
	if !rep.ReusedBaseline {
		p1, err := c.Phase1(ctx, h, progress)
		if err != nil {
			return nil, err
		}
		rep.Phase1 = p1
		rep.Baseline = p1.Best()
		if c.sessions != nil {
			if err := c.sessions.SetBaseline(h.Symbol, rep.Baseline); err != nil {
				c.log.Error().Err(err).Str("symbol", h.Symbol).Msg("failed to store baseline")
			}
		}
	}

	p2a, err := c.Phase2A(ctx, h, rep.Baseline, progress)
	if err != nil {
		return nil, err
	}
	p2b, err := c.Phase2B(ctx, h, rep.Baseline, progress)
	if err != nil {
		return nil, err
	}
	rep.Phase2A, rep.Phase2B = p2a, p2b
	rep.Recommendation = Compare(p2a.Best(), p2b.Best())

	if c.cfg.AutoSave {
		saved, err := c.Save(ctx, h.Symbol, "", "auto", rep.Recommendation)
		if err != nil {
			return rep, err
		}
		rep.Saved = &saved
	}
	c.log.Info().Str("symbol", h.Symbol).Str("source", string(rep.Recommendation.Source)).
		Float64("return", rep.Recommendation.Result.TotalReturnPercent).
		Int("trades", rep.Recommendation.Result.TradeCount).Msg("optimization complete")
	return rep, nil
}
