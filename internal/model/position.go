package model

import "time"

// Side is the direction of a position. Call and put are the binary-option
// variants of buy and sell.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
	SideCall Side = "call"
	SidePut  Side = "put"
)

// PositionStatus is the lifecycle state of a position: open -> closed,
// terminal, no reopen.
type PositionStatus string

const (
	StatusOpen   PositionStatus = "open"
	StatusClosed PositionStatus = "closed"
)

// TradeSource records which surface requested a trade.
type TradeSource string

const (
	SourceWeb      TradeSource = "web"
	SourceTelegram TradeSource = "telegram"
	SourceAuto     TradeSource = "auto"
)

// Position is one paper-traded exposure. It is owned exclusively by the
// ledger; only Ledger.Close mutates it after creation, and its ID stays
// valid after closing.
type Position struct {
	ID          int64
	AccountID   int64 // 0 when no owning account
	Symbol      string
	Side        Side
	Amount      float64
	Leverage    int
	EntryPrice  float64
	OpenedAt    time.Time
	Status      PositionStatus
	ClosePrice  float64
	ClosedAt    time.Time
	RealizedPnL float64
	Source      TradeSource
	AnalysisID  string // analysis that drove an auto trade, if any
	Binary      bool
	ExpiresAt   time.Time // zero unless Binary
}

// Account tracks a virtual trading balance.
type Account struct {
	ID      int64
	Balance float64
}
