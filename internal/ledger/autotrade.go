package ledger

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"PaperTrader/internal/model"
)

// The auto-trader only acts on signals at or above this confidence. Fixed
// policy, not user-tunable.
const autoTradeMinConfidence = 70.0

// DecisionStatus reports what the auto-trader did for one instrument.
type DecisionStatus string

const (
	DecisionSkipped DecisionStatus = "skipped"
	DecisionOpened  DecisionStatus = "opened"
)

// Decision is the outcome of one auto-trade evaluation.
type Decision struct {
	Status   DecisionStatus
	Reason   string // set when skipped
	Analysis *model.SignalResult
	Position *model.Position // set when opened
}

// Analyzer is the signal source consulted before each auto trade.
type Analyzer interface {
	Analyze(ctx context.Context, symbol, timeframe string) (*model.SignalResult, error)
}

// AutoTradeController opens positions from analysis output, but only when the
// signal clears the confidence gate and recommends an actionable side.
type AutoTradeController struct {
	engine    Analyzer
	ledger    *Ledger
	timeframe string
	log       *logrus.Entry
}

// NewAutoTradeController creates the controller. All auto trades are tagged
// with source "auto" and linked to the analysis that drove them.
func NewAutoTradeController(engine Analyzer, ledger *Ledger, timeframe string, logger *logrus.Logger) *AutoTradeController {
	return &AutoTradeController{
		engine:    engine,
		ledger:    ledger,
		timeframe: timeframe,
		log:       logger.WithField("component", "autotrade"),
	}
}

// Decide analyzes the instrument and conditionally opens a position.
func (c *AutoTradeController) Decide(ctx context.Context, symbol string, amount float64, accountID int64) (*Decision, error) {
	res, err := c.engine.Analyze(ctx, symbol, c.timeframe)
	if err != nil {
		return nil, fmt.Errorf("analyze %s: %w", symbol, err)
	}

	if res.Confidence < autoTradeMinConfidence {
		c.log.WithFields(logrus.Fields{"symbol": symbol, "confidence": res.Confidence}).
			Info("skipping auto trade")
		return &Decision{Status: DecisionSkipped, Reason: "confidence too low", Analysis: res}, nil
	}
	if res.Recommendation != model.RecommendBuy && res.Recommendation != model.RecommendSell {
		c.log.WithField("symbol", symbol).Info("skipping auto trade")
		return &Decision{Status: DecisionSkipped, Reason: "recommendation is hold", Analysis: res}, nil
	}

	pos, err := c.ledger.Open(OpenRequest{
		Symbol:     symbol,
		Side:       model.Side(res.Recommendation),
		Amount:     amount,
		Leverage:   1,
		AccountID:  accountID,
		Source:     model.SourceAuto,
		AnalysisID: res.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("open auto trade for %s: %w", symbol, err)
	}

	c.log.WithFields(logrus.Fields{
		"symbol": symbol, "position": pos.ID, "side": pos.Side, "confidence": res.Confidence,
	}).Info("auto trade opened")
	return &Decision{Status: DecisionOpened, Analysis: res, Position: pos}, nil
}
