package recorder

import (
	"context"

	"GridOptimizer/internal/model"
)

// NoopRecorder is used when no database is configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) SaveConfig(_ context.Context, _ model.SavedConfig) error { return nil }
func (n *NoopRecorder) ListConfigs(_ context.Context, _ string, _ int) ([]model.SavedConfig, error) {
	return nil, nil
}
func (n *NoopRecorder) RecordRun(_ context.Context, _ model.RunRecord) error { return nil }
func (n *NoopRecorder) Close() error                                         { return nil }
