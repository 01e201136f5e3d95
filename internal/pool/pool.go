// Package pool runs grid chunks on a fixed set of worker goroutines. A run splits the
// row axis into contiguous chunks, sends each as a task, and merges the replies back in
// chunk order.
package pool

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"GridOptimizer/internal/grid"
	"GridOptimizer/internal/model"
	"GridOptimizer/internal/policy"
)

// MaxChunks caps how many chunks a single run is split into.
const MaxChunks = 4

var (
	// ErrWorkerFailed wraps any failure inside a chunk, including recovered panics.
	ErrWorkerFailed = errors.New("worker failed")
	// ErrPoolClosed is returned for work submitted after Close.
	ErrPoolClosed = errors.New("pool closed")
)

// Request is one grid run. Signal is reused when non-empty, otherwise it is resolved
// once from SignalConfig before any chunk starts.
type Request struct {
	Spec         grid.Spec
	Candles      []model.Candle
	Signal       model.IndicatorSeries
	SignalConfig grid.SignalConfig
	// Chunks overrides the automatic chunk count; it is still capped at MaxChunks and
	// the row count.
	Chunks int
}

// DetailRequest asks for the enriched trade log of one configuration.
type DetailRequest struct {
	Candles      []model.Candle
	Config       model.SimulationConfig
	Signal       model.IndicatorSeries
	SignalConfig grid.SignalConfig
}

type task struct {
	ctx      context.Context
	runID    string
	index    int
	plan     *grid.Plan
	lo, hi   int
	candles  []model.Candle
	signal   model.IndicatorSeries
	progress chan<- chunkProgress
	reply    chan<- chunkResult
}

type chunkProgress struct {
	index   int
	percent float64
}

type chunkResult struct {
	rows [][]model.SimulationResult
	err  error
}

type rowsFunc func(ctx context.Context, plan *grid.Plan, candles []model.Candle, signal model.IndicatorSeries, lo, hi int, progress grid.ProgressFunc) ([][]model.SimulationResult, error)

func simulateRows(ctx context.Context, plan *grid.Plan, candles []model.Candle, signal model.IndicatorSeries, lo, hi int, progress grid.ProgressFunc) ([][]model.SimulationResult, error) {
	return plan.SimulateRows(ctx, candles, signal, lo, hi, progress)
}

// Pool is a fixed set of workers consuming chunk tasks.
type Pool struct {
	size  int
	tasks chan task
	quit  chan struct{}
	wg    sync.WaitGroup
	once  sync.Once
	log   zerolog.Logger
	rows  rowsFunc
}

// New starts size workers. size <= 0 uses runtime.NumCPU().
func New(size int, logger zerolog.Logger) *Pool {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	p := &Pool{
		size:  size,
		tasks: make(chan task),
		quit:  make(chan struct{}),
		log:   logger.With().Str("component", "pool").Logger(),
		rows:  simulateRows,
	}
	for i := 0; i < size; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	p.log.Debug().Int("workers", size).Msg("worker pool started")
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return p.size }

// Close stops the workers and waits for them to exit. Tasks in flight are abandoned.
func (p *Pool) Close() {
	p.once.Do(func() {
		close(p.quit)
		p.wg.Wait()
		p.log.Debug().Msg("worker pool stopped")
	})
}

func (p *Pool) closed() bool {
	select {
	case <-p.quit:
		return true
	default:
		return false
	}
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	for {
		select {
		case <-p.quit:
			return
		case t := <-p.tasks:
			t.reply <- p.execute(id, t)
		}
	}
}

func (p *Pool) execute(id int, t task) (res chunkResult) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error().Str("run_id", t.runID).Int("worker", id).Int("chunk", t.index).
				Interface("panic", r).Msg("chunk panicked")
			res = chunkResult{err: fmt.Errorf("%w: chunk %d: panic: %v", ErrWorkerFailed, t.index, r)}
		}
	}()
	rows, err := p.rows(t.ctx, t.plan, t.candles, t.signal, t.lo, t.hi, func(done, total int) {
		select {
		case t.progress <- chunkProgress{index: t.index, percent: float64(done) / float64(total) * 100}:
		default:
		}
	})
	if err != nil {
		if t.ctx.Err() != nil {
			return chunkResult{err: err}
		}
		return chunkResult{err: fmt.Errorf("%w: chunk %d: %w", ErrWorkerFailed, t.index, err)}
	}
	return chunkResult{rows: rows}
}

// ChunkBounds splits rows into n contiguous [lo,hi) ranges; the last absorbs the remainder.
func ChunkBounds(rows, n int) [][2]int {
	if n > rows {
		n = rows
	}
	if n < 1 {
		n = 1
	}
	size := rows / n
	out := make([][2]int, n)
	for i := 0; i < n; i++ {
		lo := i * size
		hi := lo + size
		if i == n-1 {
			hi = rows
		}
		out[i] = [2]int{lo, hi}
	}
	return out
}

func (p *Pool) chunkCount(req Request, rows int) int {
	n := req.Chunks
	if n <= 0 {
		n = min(p.size, runtime.NumCPU())
	}
	return max(1, min(n, MaxChunks, rows))
}

// Start validates the request, resolves the signal and launches the run. The returned
// Job streams PROGRESS messages followed by exactly one COMPLETE or ERROR, unless it is
// cancelled, in which case the channel closes with neither.
func (p *Pool) Start(ctx context.Context, req Request) (*Job, error) {
	if p.closed() {
		return nil, ErrPoolClosed
	}
	plan, err := req.Spec.Plan()
	if err != nil {
		return nil, err
	}
	signal := req.Signal
	if signal.Empty() {
		if signal, err = grid.ResolveSignal(req.Candles, req.SignalConfig); err != nil {
			return nil, err
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	job := &Job{
		ID:     uuid.NewString(),
		msgs:   make(chan Message, 16),
		cancel: cancel,
	}
	bounds := ChunkBounds(len(plan.Rows), p.chunkCount(req, len(plan.Rows)))
	log := p.log.With().Str("run_id", job.ID).Str("task", string(plan.Spec.Task)).Logger()
	log.Info().Int("rows", len(plan.Rows)).Int("cols", len(plan.Cols)).Int("chunks", len(bounds)).Msg("grid run started")

	go func() {
		defer close(job.msgs)
		defer cancel()
		started := time.Now()
		result, err := p.run(ctx, job, plan, bounds, req.Candles, signal)
		switch {
		case err != nil && ctx.Err() != nil:
			log.Debug().Msg("grid run cancelled")
		case err != nil:
			log.Error().Err(err).Msg("grid run failed")
			job.send(ctx, Message{Type: MsgError, Err: err, Text: err.Error()})
		default:
			log.Info().Dur("elapsed", time.Since(started)).Float64("max_return", result.MaxReturn).Msg("grid run complete")
			job.send(ctx, Message{Type: MsgComplete, Percent: 100, Result: result})
		}
	}()
	return job, nil
}

func (p *Pool) run(ctx context.Context, job *Job, plan *grid.Plan, bounds [][2]int, candles []model.Candle, signal model.IndicatorSeries) (*model.GridResult, error) {
	g, gctx := errgroup.WithContext(ctx)
	n := len(bounds)
	parts := make([][][]model.SimulationResult, n)
	progress := make(chan chunkProgress, n*4)

	for i, b := range bounds {
		g.Go(func() error {
			reply := make(chan chunkResult, 1)
			t := task{
				ctx:      gctx,
				runID:    job.ID,
				index:    i,
				plan:     plan,
				lo:       b[0],
				hi:       b[1],
				candles:  slices.Clone(candles),
				signal:   signal,
				progress: progress,
				reply:    reply,
			}
			select {
			case p.tasks <- t:
			case <-gctx.Done():
				return gctx.Err()
			case <-p.quit:
				return ErrPoolClosed
			}
			select {
			case r := <-reply:
				if r.err != nil {
					return r.err
				}
				parts[i] = r.rows
				return nil
			case <-gctx.Done():
				return gctx.Err()
			case <-p.quit:
				return ErrPoolClosed
			}
		})
	}

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()
	for {
		select {
		case pr := <-progress:
			job.send(ctx, Message{Type: MsgProgress, Percent: globalPercent(pr.index, n, pr.percent),
				Text: fmt.Sprintf("chunk %d/%d at %.0f%%", pr.index+1, n, pr.percent)})
		case err := <-done:
			if err != nil {
				return nil, err
			}
			merged := make([][]model.SimulationResult, 0, len(plan.Rows))
			for _, part := range parts {
				merged = append(merged, part...)
			}
			return plan.Assemble(merged), nil
		}
	}
}

// globalPercent maps chunk index's local progress onto the whole run.
func globalPercent(index, n int, pct float64) float64 {
	return float64(index)/float64(n)*100 + pct/float64(n)
}

// Run starts a job and blocks until it completes, fails or ctx is cancelled.
func (p *Pool) Run(ctx context.Context, req Request) (*model.GridResult, error) {
	job, err := p.Start(ctx, req)
	if err != nil {
		return nil, err
	}
	return job.Wait(ctx, nil)
}

// Detail evaluates one configuration on an ad hoc goroutine, independent of any grid run.
func (p *Pool) Detail(ctx context.Context, req DetailRequest) (Message, error) {
	signal := req.Signal
	if signal.Empty() {
		var err error
		if signal, err = grid.ResolveSignal(req.Candles, req.SignalConfig); err != nil {
			return Message{}, err
		}
	}
	id := uuid.NewString()
	reply := make(chan Message, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				reply <- Message{RunID: id, Type: MsgError, Err: fmt.Errorf("%w: detail: panic: %v", ErrWorkerFailed, r)}
			}
		}()
		details, summary := policy.Detail(req.Candles, signal, req.Config)
		reply <- Message{RunID: id, Type: MsgDetailComplete, Percent: 100, Details: details, Summary: &summary}
	}()
	select {
	case m := <-reply:
		if m.Err != nil {
			return Message{}, m.Err
		}
		return m, nil
	case <-ctx.Done():
		return Message{}, ctx.Err()
	}
}
