package model

// Indicator names used in ranking points and flags.
const (
	IndicatorMACD      = "MACD"
	IndicatorRSI       = "RSI"
	IndicatorAO        = "AO"
	IndicatorDisparity = "DISPARITY20"
	IndicatorRTI       = "RTI"
)

// IndicatorFlags selects which indicators feed the composite.
type IndicatorFlags struct {
	MACD      bool `yaml:"macd" json:"macd"`
	RSI       bool `yaml:"rsi" json:"rsi"`
	AO        bool `yaml:"ao" json:"ao"`
	Disparity bool `yaml:"disparity" json:"disparity"`
	RTI       bool `yaml:"rti" json:"rti"`
}

// Any reports whether at least one indicator is enabled.
func (f IndicatorFlags) Any() bool {
	return f.MACD || f.RSI || f.AO || f.Disparity || f.RTI
}

// RankingPoint is one aligned time step of the composite. Raw values are nil for
// disabled or unavailable indicators.
type RankingPoint struct {
	Timestamp int64    `json:"timestamp"`
	MACD      *float64 `json:"macd,omitempty"`
	RSI       *float64 `json:"rsi,omitempty"`
	AO        *float64 `json:"ao,omitempty"`
	Disparity *float64 `json:"disparity,omitempty"`
	RTI       *float64 `json:"rti,omitempty"`
	Composite float64  `json:"composite"`
}
