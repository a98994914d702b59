package recorder

import "PaperTrader/internal/model"

// Filter narrows position queries. Zero values mean no restriction.
type Filter struct {
	AccountID int64
	Limit     int
}

// Recorder is the optional durable store behind the ledger and the signal
// engine. The core functions fully in memory when it is absent or failing;
// callers log persistence errors and never roll back in-memory state.
type Recorder interface {
	SaveAnalysis(res *model.SignalResult) error
	SavePosition(p *model.Position) error
	UpdatePosition(p *model.Position) error
	FindOpenPositions(f Filter) ([]model.Position, error)
	FindAllPositions(f Filter) ([]model.Position, error)
	Close() error
}
