package model

import "time"

// SavedConfig is the persisted configuration record handed to the external store.
type SavedConfig struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Symbol             string    `json:"symbol,omitempty"`
	BuyConditionCount  int       `json:"buy_condition_count"`
	BuyThreshold       float64   `json:"buy_threshold"`
	SellConditionCount int       `json:"sell_condition_count"`
	SellThreshold      float64   `json:"sell_threshold"`
	ExpectedReturn     float64   `json:"expected_return"`
	TradeCount         int       `json:"trade_count"`
	Source             Source    `json:"source"`
	CreatedAt          time.Time `json:"created_at"`
	Memo               string    `json:"memo,omitempty"`
}

// NewSavedConfig builds a record from a selected baseline.
func NewSavedConfig(id, name, symbol string, b PhaseBaseline, createdAt time.Time) SavedConfig {
	return SavedConfig{
		ID:                 id,
		Name:               name,
		Symbol:             symbol,
		BuyConditionCount:  b.Config.BuyLookback,
		BuyThreshold:       b.Config.BuyThreshold,
		SellConditionCount: b.Config.SellLookback,
		SellThreshold:      b.Config.SellThreshold,
		ExpectedReturn:     b.Result.TotalReturnPercent,
		TradeCount:         b.Result.TradeCount,
		Source:             b.Source,
		CreatedAt:          createdAt,
	}
}

// RunRecord is one completed grid run kept in the run history.
type RunRecord struct {
	ID         string    `json:"id"`
	Symbol     string    `json:"symbol"`
	Task       TaskType  `json:"task"`
	Source     Source    `json:"source"`
	Rows       int       `json:"rows"`
	Cols       int       `json:"cols"`
	BestReturn float64   `json:"best_return"`
	MinReturn  float64   `json:"min_return"`
	ElapsedMs  int64     `json:"elapsed_ms"`
	CreatedAt  time.Time `json:"created_at"`
}
