// Package policy implements the flat/holding decision state machine that turns a signal
// series into trades. Every caller (grid cells, pool chunks, detail queries) goes through
// Evaluate so trade logic never diverges between code paths.
package policy

import (
	"math"

	"GridOptimizer/internal/calculator"
	"GridOptimizer/internal/model"
)

// StartIndex returns the first step at which the policy may act.
func StartIndex(cfg model.SimulationConfig) int {
	start := cfg.StartIndex
	if cfg.BuyLookback > start {
		start = cfg.BuyLookback
	}
	if cfg.SellLookback > start {
		start = cfg.SellLookback
	}
	return start
}

// BuyTriggered reports whether v clears the buy level above the lookback minimum.
func BuyTriggered(v, min, threshold float64, mode model.ThresholdMode) bool {
	if mode == model.ModeAbsolute {
		return v-min >= threshold
	}
	return v >= min+math.Abs(min)*threshold
}

// SellTriggered reports whether v has fallen through the sell level below the lookback
// maximum. The threshold is applied by magnitude.
func SellTriggered(v, max, threshold float64, mode model.ThresholdMode) bool {
	t := math.Abs(threshold)
	if mode == model.ModeAbsolute {
		return v-max <= -t
	}
	return v <= max-math.Abs(max)*t
}

type step struct {
	index   int
	event   model.TradeEvent
	balance float64 // marked to market at the event price
}

// Evaluate runs the policy over signal, pricing each step at the candle the signal value
// is aligned to. It has no side effects and keeps no state between calls.
func Evaluate(candles []model.Candle, signal model.IndicatorSeries, cfg model.SimulationConfig) model.SimulationResult {
	res, _ := run(candles, signal, cfg, nil)
	return res
}

func run(candles []model.Candle, signal model.IndicatorSeries, cfg model.SimulationConfig, onEvent func(step)) (model.SimulationResult, int) {
	capital := cfg.InitialCapital
	if capital <= 0 {
		capital = model.DefaultInitialCapital
	}
	values := signal.Values
	n := len(values)
	if signal.Offset+n > len(candles) {
		n = len(candles) - signal.Offset
	}
	start := StartIndex(cfg)
	if cfg.BuyLookback < 1 || cfg.SellLookback < 1 || n <= start {
		return model.SimulationResult{FinalBalance: capital}, start
	}
	price := func(i int) float64 { return candles[signal.Offset+i].Close }

	cash, coins := capital, 0.0
	holding := false
	if cfg.InitialPosition == model.PositionCoin {
		coins, cash = capital/price(start), 0
		holding = true
	}

	var trades []model.TradeEvent
	for i := start; i < n; i++ {
		v := values[i]
		p := price(i)
		if !holding {
			lo := calculator.WindowMin(values, i, cfg.BuyLookback)
			if !BuyTriggered(v, lo, cfg.BuyThreshold, cfg.Mode) {
				continue
			}
			coins, cash = cash/p, 0
			holding = true
			ev := model.TradeEvent{
				Timestamp:       candles[signal.Offset+i].Timestamp,
				Action:          model.ActionBuy,
				Price:           p,
				LookbackExtreme: lo,
				ThresholdUsed:   cfg.BuyThreshold,
			}
			trades = append(trades, ev)
			if onEvent != nil {
				onEvent(step{index: i, event: ev, balance: coins * p})
			}
			continue
		}
		hi := calculator.WindowMax(values, i, cfg.SellLookback)
		if !SellTriggered(v, hi, cfg.SellThreshold, cfg.Mode) {
			continue
		}
		cash, coins = coins*p, 0
		holding = false
		ev := model.TradeEvent{
			Timestamp:       candles[signal.Offset+i].Timestamp,
			Action:          model.ActionSell,
			Price:           p,
			LookbackExtreme: hi,
			ThresholdUsed:   cfg.SellThreshold,
		}
		trades = append(trades, ev)
		if onEvent != nil {
			onEvent(step{index: i, event: ev, balance: cash})
		}
	}

	final := cash
	if holding {
		final = coins * price(n-1)
	}
	return model.SimulationResult{
		TotalReturnPercent: (final - capital) / capital * 100,
		TradeCount:         len(trades),
		Trades:             trades,
		FinalBalance:       final,
	}, start
}

// Detail evaluates one configuration and enriches each trade with its own return, the
// running strategy return and the buy-and-hold return from the first active step.
func Detail(candles []model.Candle, signal model.IndicatorSeries, cfg model.SimulationConfig) ([]model.TradeDetail, model.SimulationResult) {
	capital := cfg.InitialCapital
	if capital <= 0 {
		capital = model.DefaultInitialCapital
	}
	var steps []step
	res, start := run(candles, signal, cfg, func(s step) { steps = append(steps, s) })
	if len(steps) == 0 {
		return nil, res
	}

	startPrice := candles[signal.Offset+start].Close
	details := make([]model.TradeDetail, len(steps))
	entry := 0.0
	if cfg.InitialPosition == model.PositionCoin {
		entry = startPrice
	}
	for k, s := range steps {
		d := model.TradeDetail{
			TradeEvent:              s.event,
			CumulativeReturnPercent: (s.balance - capital) / capital * 100,
			HoldReturnPercent:       (s.event.Price/startPrice - 1) * 100,
		}
		switch s.event.Action {
		case model.ActionBuy:
			entry = s.event.Price
		case model.ActionSell:
			if entry > 0 {
				d.TradeReturnPercent = (s.event.Price/entry - 1) * 100
			}
		}
		details[k] = d
	}
	return details, res
}
