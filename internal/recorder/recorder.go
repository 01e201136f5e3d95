// Package recorder stores saved optimizer configurations and grid run history.
package recorder

import (
	"context"

	"GridOptimizer/internal/model"
)

// Recorder persists saved configurations and run history.
type Recorder interface {
	SaveConfig(ctx context.Context, cfg model.SavedConfig) error
	// ListConfigs returns the newest configurations first. An empty symbol lists all.
	ListConfigs(ctx context.Context, symbol string, limit int) ([]model.SavedConfig, error)
	RecordRun(ctx context.Context, run model.RunRecord) error
	Close() error
}
