package ledger

import (
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"PaperTrader/internal/model"
	"PaperTrader/internal/recorder"
)

// PriceSource supplies the current simulated price for a symbol.
type PriceSource interface {
	CurrentPrice(symbol string) float64
}

// Ledger owns all positions and accounts. Positions move open -> closed and
// never reopen; IDs are unique and monotonic and stay valid after closing.
// Callers always receive copies, never the owned records.
type Ledger struct {
	mu        sync.RWMutex
	prices    PriceSource
	rec       recorder.Recorder
	positions map[int64]*model.Position
	order     []int64 // position IDs in open order
	accounts  map[int64]*model.Account
	nextID    int64
	log       *logrus.Entry
}

// New creates a Ledger. rec may be nil to skip persistence.
func New(prices PriceSource, rec recorder.Recorder, logger *logrus.Logger) *Ledger {
	return &Ledger{
		prices:    prices,
		rec:       rec,
		positions: make(map[int64]*model.Position),
		accounts:  make(map[int64]*model.Account),
		log:       logger.WithField("component", "ledger"),
	}
}

// CreateAccount registers a virtual account with a starting balance.
func (l *Ledger) CreateAccount(id int64, balance float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.accounts[id] = &model.Account{ID: id, Balance: balance}
}

// AccountBalance returns the current balance of an account.
func (l *Ledger) AccountBalance(id int64) (float64, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	acct, ok := l.accounts[id]
	if !ok {
		return 0, false
	}
	return acct.Balance, true
}

// OpenRequest describes a position to open. AccountID 0 means no owning
// account (no balance check, no settlement). Expiry is honored only for
// binary positions.
type OpenRequest struct {
	Symbol     string
	Side       model.Side
	Amount     float64
	Leverage   int
	AccountID  int64
	Source     model.TradeSource
	AnalysisID string
	Binary     bool
	Expiry     time.Duration
}

// Open validates the request, fetches a fresh simulated price as the entry,
// and creates a new open position. Validation failures are rejected whole;
// nothing is partially applied.
func (l *Ledger) Open(req OpenRequest) (*model.Position, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAmount, req.Amount)
	}
	if !sideAllowed(req.Side, req.Binary) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSide, req.Side)
	}
	leverage := req.Leverage
	if leverage < 1 {
		leverage = 1
	}
	source := req.Source
	if source == "" {
		source = model.SourceWeb
	}

	entry := l.prices.CurrentPrice(req.Symbol)

	l.mu.Lock()
	if req.AccountID != 0 {
		acct, ok := l.accounts[req.AccountID]
		if !ok {
			l.mu.Unlock()
			return nil, fmt.Errorf("%w: %d", ErrUnknownAccount, req.AccountID)
		}
		if acct.Balance < req.Amount {
			l.mu.Unlock()
			return nil, fmt.Errorf("%w: %.2f < %.2f", ErrInsufficientBalance, acct.Balance, req.Amount)
		}
	}

	l.nextID++
	p := &model.Position{
		ID:         l.nextID,
		AccountID:  req.AccountID,
		Symbol:     req.Symbol,
		Side:       req.Side,
		Amount:     req.Amount,
		Leverage:   leverage,
		EntryPrice: entry,
		OpenedAt:   time.Now().UTC(),
		Status:     model.StatusOpen,
		Source:     source,
		AnalysisID: req.AnalysisID,
		Binary:     req.Binary,
	}
	if req.Binary && req.Expiry > 0 {
		p.ExpiresAt = p.OpenedAt.Add(req.Expiry)
	}
	l.positions[p.ID] = p
	l.order = append(l.order, p.ID)
	cp := *p
	l.mu.Unlock()

	l.persist(func(r recorder.Recorder) error { return r.SavePosition(&cp) }, "save position")

	l.log.WithFields(logrus.Fields{
		"position": cp.ID, "symbol": cp.Symbol, "side": cp.Side,
		"amount": cp.Amount, "entry": cp.EntryPrice, "source": cp.Source,
	}).Info("position opened")
	return &cp, nil
}

// Close settles an open position at a fresh simulated price, computes the
// realized P&L rounded to 2 decimal places, and credits or debits the owning
// account. Exactly one of several concurrent Close calls on the same id
// succeeds; the rest get ErrAlreadyClosed.
func (l *Ledger) Close(id int64) (*model.Position, error) {
	l.mu.Lock()
	p, ok := l.positions[id]
	if !ok {
		l.mu.Unlock()
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	if p.Status != model.StatusOpen {
		l.mu.Unlock()
		return nil, fmt.Errorf("%w: %d", ErrAlreadyClosed, id)
	}

	closePrice := l.prices.CurrentPrice(p.Symbol)
	pnl := realizedPnL(p.Side, p.EntryPrice, closePrice, p.Amount, p.Leverage)

	p.Status = model.StatusClosed
	p.ClosePrice = closePrice
	p.ClosedAt = time.Now().UTC()
	p.RealizedPnL = pnl

	if p.AccountID != 0 {
		if acct, ok := l.accounts[p.AccountID]; ok {
			acct.Balance = decimal.NewFromFloat(acct.Balance).
				Add(decimal.NewFromFloat(pnl)).Round(2).InexactFloat64()
		}
	}
	cp := *p
	l.mu.Unlock()

	l.persist(func(r recorder.Recorder) error { return r.UpdatePosition(&cp) }, "update position")

	l.log.WithFields(logrus.Fields{
		"position": cp.ID, "close": cp.ClosePrice, "pnl": cp.RealizedPnL,
	}).Info("position closed")
	return &cp, nil
}

// Filter narrows listing operations. Zero values mean no restriction.
type Filter struct {
	AccountID int64
	Limit     int
}

// ListOpen returns open positions, most recent first.
func (l *Ledger) ListOpen(f Filter) []model.Position {
	return l.list(f, true)
}

// ListAll returns all positions regardless of status, most recent first.
func (l *Ledger) ListAll(f Filter) []model.Position {
	return l.list(f, false)
}

func (l *Ledger) list(f Filter, openOnly bool) []model.Position {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []model.Position
	for i := len(l.order) - 1; i >= 0; i-- {
		p := l.positions[l.order[i]]
		if openOnly && p.Status != model.StatusOpen {
			continue
		}
		if f.AccountID != 0 && p.AccountID != f.AccountID {
			continue
		}
		out = append(out, *p)
		if f.Limit > 0 && len(out) >= f.Limit {
			break
		}
	}
	return out
}

// CloseExpired settles every open binary position whose expiry has passed.
// Returns the closed positions.
func (l *Ledger) CloseExpired(now time.Time) []model.Position {
	l.mu.RLock()
	var due []int64
	for _, p := range l.positions {
		if p.Status == model.StatusOpen && p.Binary && !p.ExpiresAt.IsZero() && !p.ExpiresAt.After(now) {
			due = append(due, p.ID)
		}
	}
	l.mu.RUnlock()

	var closed []model.Position
	for _, id := range due {
		p, err := l.Close(id)
		if err != nil {
			// lost the race to a manual close; nothing to do
			continue
		}
		closed = append(closed, *p)
	}
	return closed
}

// realizedPnL computes the 2-decimal-place profit of closing a position.
// A call settles with the buy formula, a put with the sell formula.
func realizedPnL(side model.Side, entry, close, amount float64, leverage int) float64 {
	diff := close - entry
	if side == model.SideSell || side == model.SidePut {
		diff = entry - close
	}
	return decimal.NewFromFloat(diff).
		Mul(decimal.NewFromFloat(amount)).
		Mul(decimal.NewFromInt(int64(leverage))).
		Round(2).
		InexactFloat64()
}

func sideAllowed(side model.Side, binary bool) bool {
	switch side {
	case model.SideBuy, model.SideSell:
		return true
	case model.SideCall, model.SidePut:
		return binary
	}
	return false
}

// persist runs a recorder operation best-effort: failures are logged and do
// not roll back the in-memory state change.
func (l *Ledger) persist(op func(recorder.Recorder) error, what string) {
	if l.rec == nil {
		return
	}
	if err := op(l.rec); err != nil {
		l.log.WithError(err).Warn(what)
	}
}
