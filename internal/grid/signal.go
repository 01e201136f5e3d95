package grid

import (
	"errors"
	"fmt"

	"GridOptimizer/internal/calculator"
	"GridOptimizer/internal/model"
	"GridOptimizer/internal/ranking"
)

// ErrSignalUnavailable is returned when the configured signal cannot be computed from the
// candles (insufficient warm-up history).
var ErrSignalUnavailable = errors.New("signal unavailable")

// Signal kinds.
const (
	SignalRTI       = "rti"
	SignalComposite = "composite"
)

// SignalConfig describes how the scalar signal driving the policy is derived.
type SignalConfig struct {
	Kind         string               `yaml:"kind" json:"kind"`
	TrendWindow  int                  `yaml:"trend_window" json:"trend_window"`
	Sensitivity  float64              `yaml:"sensitivity" json:"sensitivity"`
	SignalLength int                  `yaml:"signal_length" json:"signal_length"`
	Indicators   model.IndicatorFlags `yaml:"indicators" json:"indicators"`
	ZScoreWindow int                  `yaml:"zscore_window" json:"zscore_window"`
}

// DefaultSignalConfig is the RTI line with standard parameters.
func DefaultSignalConfig() SignalConfig {
	return SignalConfig{
		Kind:         SignalRTI,
		TrendWindow:  calculator.RTITrendWindow,
		Sensitivity:  calculator.RTISensitivity,
		SignalLength: calculator.RTISignalLength,
		Indicators:   model.IndicatorFlags{MACD: true, RSI: true, AO: true, Disparity: true, RTI: true},
	}
}

// ResolveSignal computes the signal series once for a whole grid. The returned series is
// shared read-only by every cell and every pool chunk.
func ResolveSignal(candles []model.Candle, cfg SignalConfig) (model.IndicatorSeries, error) {
	switch cfg.Kind {
	case "", SignalRTI:
		d := DefaultSignalConfig()
		if cfg.TrendWindow > 0 {
			d.TrendWindow = cfg.TrendWindow
		}
		if cfg.Sensitivity > 0 {
			d.Sensitivity = cfg.Sensitivity
		}
		if cfg.SignalLength > 0 {
			d.SignalLength = cfg.SignalLength
		}
		rti := calculator.RTI(candles, d.TrendWindow, d.Sensitivity, d.SignalLength)
		if rti.Empty() {
			return model.IndicatorSeries{}, fmt.Errorf("%w: RTI needs %d candles, have %d",
				ErrSignalUnavailable, calculator.RTIWarmup(d.TrendWindow, d.SignalLength), len(candles))
		}
		return rti.RTI, nil
	case SignalComposite:
		res, err := ranking.Compute(candles, ranking.Options{Flags: cfg.Indicators, ZScoreWindow: cfg.ZScoreWindow})
		if err != nil {
			return model.IndicatorSeries{}, fmt.Errorf("%w: %w", ErrSignalUnavailable, err)
		}
		return res.Composite, nil
	default:
		return model.IndicatorSeries{}, fmt.Errorf("unknown signal kind %q", cfg.Kind)
	}
}
