package model

// Position is the side a simulation starts from.
type Position string

const (
	PositionCash Position = "cash"
	PositionCoin Position = "coin"
)

// ThresholdMode selects how a threshold is compared against the lookback extreme.
type ThresholdMode string

const (
	// ModeRelative: buy when signal >= min + |min|*buyThr, sell when signal <= max - |max|*|sellThr|.
	ModeRelative ThresholdMode = "relative"
	// ModeAbsolute: buy when signal - min >= buyThr, sell when signal - max <= -|sellThr|.
	ModeAbsolute ThresholdMode = "absolute"
)

// DefaultInitialCapital is used when a config leaves InitialCapital unset.
const DefaultInitialCapital = 10000.0

// SimulationConfig holds the four policy parameters plus run settings.
type SimulationConfig struct {
	BuyLookback     int           `json:"buy_lookback"`
	BuyThreshold    float64       `json:"buy_threshold"`
	SellLookback    int           `json:"sell_lookback"`
	SellThreshold   float64       `json:"sell_threshold"`
	InitialPosition Position      `json:"initial_position"`
	InitialCapital  float64       `json:"initial_capital"`
	Mode            ThresholdMode `json:"mode"`
	// StartIndex is a shared first step within the signal; the effective start is
	// never below max(BuyLookback, SellLookback).
	StartIndex int `json:"start_index"`
}

// Action is the side of a trade event.
type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
)

// TradeEvent is one discretionary transition of the decision policy.
type TradeEvent struct {
	Timestamp       int64   `json:"timestamp"`
	Action          Action  `json:"action"`
	Price           float64 `json:"price"`
	LookbackExtreme float64 `json:"lookback_extreme"`
	ThresholdUsed   float64 `json:"threshold_used"`
}

// SimulationResult is the outcome of one policy run.
type SimulationResult struct {
	TotalReturnPercent float64      `json:"total_return_percent"`
	TradeCount         int          `json:"trade_count"`
	Trades             []TradeEvent `json:"trades,omitempty"`
	FinalBalance       float64      `json:"final_balance"`
}

// TradeDetail is a trade event enriched with running returns for detail queries.
type TradeDetail struct {
	TradeEvent
	TradeReturnPercent      float64 `json:"trade_return_percent"`
	CumulativeReturnPercent float64 `json:"cumulative_return_percent"`
	HoldReturnPercent       float64 `json:"hold_return_percent"`
}
