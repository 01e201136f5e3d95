// Package collector supplies ordered candle histories to the engine. Fetchers talk to
// the outside world; Collector normalizes what they return.
package collector

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog"

	"GridOptimizer/internal/calculator"
	"GridOptimizer/internal/model"
)

// ErrNoData is returned when no candle survives normalization and the time window.
var ErrNoData = errors.New("no candles in window")

// MockFetcher returns fixed or generated data for development and testing.
type MockFetcher struct {
	Price   float64
	Candles []model.Candle
	// StartMs and StepMs place generated candles; zero values use 1h steps from 2024-01-01.
	StartMs int64
	StepMs  int64
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchCandles(_ context.Context, _, _ string, limit int) ([]model.Candle, error) {
	if m.Candles != nil {
		return m.Candles, nil
	}
	return m.generate(limit), nil
}

func (m *MockFetcher) generate(count int) []model.Candle {
	start, step := m.StartMs, m.StepMs
	if start == 0 {
		start = 1704067200000
	}
	if step == 0 {
		step = 3_600_000
	}
	base := m.Price
	if base == 0 {
		base = 100
	}
	out := make([]model.Candle, count)
	for i := 0; i < count; i++ {
		p := base * (1 + 0.08*math.Sin(float64(i)/17) + 0.03*math.Sin(float64(i)/5) + 0.0005*float64(i))
		out[i] = model.Candle{
			Timestamp: start + int64(i)*step,
			Open:      p * 0.999,
			High:      p * 1.005,
			Low:       p * 0.995,
			Close:     p,
		}
	}
	return out
}

// Collector fetches one symbol's history and hands the engine a clean slice.
type Collector struct {
	Fetcher  Fetcher
	Symbol   string
	Interval string
	Limit    int
	log      zerolog.Logger
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, symbol, interval string, limit int, logger zerolog.Logger) *Collector {
	return &Collector{
		Fetcher:  fetcher,
		Symbol:   symbol,
		Interval: interval,
		Limit:    limit,
		log:      logger.With().Str("component", "collector").Str("source", fetcher.Name()).Logger(),
	}
}

// Collect fetches candles, normalizes them and keeps base-lookback < ts <= base. A zero
// base means the latest candle; a zero lookback keeps the full history.
func (c *Collector) Collect(ctx context.Context, base, lookback int64) ([]model.Candle, error) {
	raw, err := c.Fetcher.FetchCandles(ctx, c.Symbol, c.Interval, c.Limit)
	if err != nil {
		return nil, fmt.Errorf("fetch %s candles: %w", c.Symbol, err)
	}
	candles, dropped := Normalize(raw)
	if dropped > 0 {
		c.log.Warn().Int("dropped", dropped).Str("symbol", c.Symbol).Msg("dropped duplicate or invalid candles")
	}
	candles = calculator.SliceWindow(candles, base, lookback)
	if len(candles) == 0 {
		return nil, fmt.Errorf("%s: %w", c.Symbol, ErrNoData)
	}
	c.log.Debug().Str("symbol", c.Symbol).Int("candles", len(candles)).Msg("candles collected")
	return candles, nil
}

// Normalize sorts candles ascending, keeps the last bar for each duplicated timestamp and
// drops bars with non-positive or non-finite closes. It returns the cleaned copy and the
// number of bars removed.
func Normalize(raw []model.Candle) ([]model.Candle, int) {
	out := make([]model.Candle, 0, len(raw))
	for _, c := range raw {
		if c.Close > 0 && !math.IsInf(c.Close, 0) && !math.IsNaN(c.Close) {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })
	w := 0
	for i := range out {
		if w > 0 && out[w-1].Timestamp == out[i].Timestamp {
			out[w-1] = out[i]
			continue
		}
		out[w] = out[i]
		w++
	}
	return out[:w], len(raw) - w
}
