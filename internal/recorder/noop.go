package recorder

import "PaperTrader/internal/model"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) SaveAnalysis(_ *model.SignalResult) error { return nil }
func (n *NoopRecorder) SavePosition(_ *model.Position) error     { return nil }
func (n *NoopRecorder) UpdatePosition(_ *model.Position) error   { return nil }
func (n *NoopRecorder) FindOpenPositions(_ Filter) ([]model.Position, error) {
	return nil, nil
}
func (n *NoopRecorder) FindAllPositions(_ Filter) ([]model.Position, error) {
	return nil, nil
}
func (n *NoopRecorder) Close() error { return nil }
