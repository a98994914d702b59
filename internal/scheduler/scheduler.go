package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"PaperTrader/internal/ledger"
	"PaperTrader/internal/strategy"
)

// Scheduler manages all cron tasks: periodic market analysis, the auto-trade
// cycle, and the binary-option expiry sweep.
type Scheduler struct {
	Cron   *cron.Cron
	Engine *strategy.Engine
	Ledger *ledger.Ledger
	Auto   *ledger.AutoTradeController

	Instruments []string
	Timeframe   string

	AutoEnabled bool
	AutoAmount  float64
	AutoAccount int64

	Ctx context.Context
	log *logrus.Entry
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, engine *strategy.Engine, lg *ledger.Ledger, auto *ledger.AutoTradeController, logger *logrus.Logger) *Scheduler {
	return &Scheduler{
		Cron:   cron.New(cron.WithSeconds()),
		Engine: engine,
		Ledger: lg,
		Auto:   auto,
		Ctx:    ctx,
		log:    logger.WithField("component", "scheduler"),
	}
}

// RegisterAll registers the analysis, auto-trade, and expiry-sweep tasks.
func (s *Scheduler) RegisterAll(analysisCron, autoTradeCron, expiryCron string) error {
	if _, err := s.Cron.AddFunc(analysisCron, s.analysisTask); err != nil {
		return fmt.Errorf("register analysis task: %w", err)
	}
	if _, err := s.Cron.AddFunc(autoTradeCron, s.autoTradeTask); err != nil {
		return fmt.Errorf("register auto-trade task: %w", err)
	}
	if _, err := s.Cron.AddFunc(expiryCron, s.expiryTask); err != nil {
		return fmt.Errorf("register expiry task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Info("scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.Cron.Stop()
	s.log.Info("scheduler stopped")
}

// RunAnalysisNow executes the analysis task immediately (manual trigger /
// RUN_ON_START).
func (s *Scheduler) RunAnalysisNow() {
	s.analysisTask()
}

func (s *Scheduler) analysisTask() {
	for _, symbol := range s.Instruments {
		ctx, cancel := context.WithTimeout(s.Ctx, 30*time.Second)
		res, err := s.Engine.Analyze(ctx, symbol, s.Timeframe)
		cancel()
		if err != nil {
			s.log.WithError(err).WithField("symbol", symbol).Error("analysis failed")
			continue
		}
		s.log.WithFields(logrus.Fields{
			"symbol": symbol, "trend": res.Trend,
			"recommendation": res.Recommendation, "confidence": res.Confidence,
		}).Info("scheduled analysis")
	}
}

func (s *Scheduler) autoTradeTask() {
	if !s.AutoEnabled {
		return
	}
	for _, symbol := range s.Instruments {
		ctx, cancel := context.WithTimeout(s.Ctx, 30*time.Second)
		dec, err := s.Auto.Decide(ctx, symbol, s.AutoAmount, s.AutoAccount)
		cancel()
		if err != nil {
			s.log.WithError(err).WithField("symbol", symbol).Error("auto trade failed")
			continue
		}
		if dec.Status == ledger.DecisionSkipped {
			s.log.WithFields(logrus.Fields{"symbol": symbol, "reason": dec.Reason}).
				Debug("auto trade skipped")
		}
	}
}

func (s *Scheduler) expiryTask() {
	closed := s.Ledger.CloseExpired(time.Now())
	if len(closed) > 0 {
		s.log.WithField("count", len(closed)).Info("expired binary positions settled")
	}
}
