package strategy

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"PaperTrader/internal/advisory"
	"PaperTrader/internal/calculator"
	"PaperTrader/internal/model"
	"PaperTrader/internal/recorder"
	"PaperTrader/internal/simulator"
)

// Engine turns simulated price history into a SignalResult, optionally
// blending an external advisory opinion. Results are immutable once returned
// and memoized for the cache TTL.
type Engine struct {
	sim     *simulator.Simulator
	advisor advisory.Advisor // nil when no advisor is configured
	rec     recorder.Recorder
	cache   *resultCache

	periods         int
	advisoryTimeout time.Duration
	riskLevel       string
	log             *logrus.Entry
}

// Options tunes the engine; zero values fall back to sensible defaults.
type Options struct {
	Periods         int
	CacheTTL        time.Duration
	AdvisoryTimeout time.Duration
	RiskLevel       string
}

// NewEngine creates a signal engine. advisor may be nil; rec may be nil to
// skip persistence.
func NewEngine(sim *simulator.Simulator, advisor advisory.Advisor, rec recorder.Recorder, opts Options, logger *logrus.Logger) *Engine {
	if opts.Periods == 0 {
		opts.Periods = 100
	}
	if opts.CacheTTL == 0 {
		opts.CacheTTL = 10 * time.Minute
	}
	if opts.AdvisoryTimeout == 0 {
		opts.AdvisoryTimeout = 20 * time.Second
	}
	return &Engine{
		sim:             sim,
		advisor:         advisor,
		rec:             rec,
		cache:           newResultCache(opts.CacheTTL),
		periods:         opts.Periods,
		advisoryTimeout: opts.AdvisoryTimeout,
		riskLevel:       opts.RiskLevel,
		log:             logger.WithField("component", "strategy"),
	}
}

// Analyze runs the full pipeline for one instrument: generate a price series,
// compute indicators, evaluate the local signal, consult the advisor, and
// return one immutable result. A cached result within the TTL is returned
// as-is, with no recomputation and no advisory call.
func (e *Engine) Analyze(ctx context.Context, symbol, timeframe string) (*model.SignalResult, error) {
	key := symbol + "/" + timeframe
	if res, ok := e.cache.get(key); ok {
		return res, nil
	}

	bars := e.sim.Generate(symbol, timeframe, e.periods)
	snaps := calculator.Compute(bars)
	snap, idx, ok := calculator.LastReady(snaps)
	if !ok {
		return nil, fmt.Errorf("analyze %s: need at least %d bars for full indicators, got %d",
			symbol, calculator.MinBars, len(bars))
	}
	lastBar := bars[idx]

	local := Evaluate(snap, lastBar.Close, bars[:idx+1])

	res := &model.SignalResult{
		ID:             uuid.NewString(),
		Symbol:         symbol,
		Timeframe:      timeframe,
		Timestamp:      time.Now().UTC(),
		CurrentPrice:   lastBar.Close,
		Trend:          local.Trend,
		Strength:       local.Strength,
		Recommendation: local.Recommendation,
		Confidence:     local.Confidence,
		Support:        local.Support,
		Resistance:     local.Resistance,
		Indicators:     snap,
	}

	if e.advisor != nil {
		adv := e.fetchAdvisory(ctx, res)
		res.Advisory = &adv
		// Adopt the advisory verdict only when it is strictly more confident
		// than the local one; errored advisories carry confidence 50 and so
		// essentially never win.
		if !adv.Err && adv.Confidence > res.Confidence {
			res.Trend = adv.Trend
			res.Strength = adv.Strength
			res.Recommendation = adv.Recommendation
			res.Confidence = adv.Confidence
		}
	}

	e.cache.put(key, res)

	if e.rec != nil {
		if err := e.rec.SaveAnalysis(res); err != nil {
			e.log.WithError(err).WithField("symbol", symbol).Warn("save analysis")
		}
	}

	e.log.WithFields(logrus.Fields{
		"symbol":         symbol,
		"timeframe":      timeframe,
		"trend":          res.Trend,
		"recommendation": res.Recommendation,
		"confidence":     res.Confidence,
	}).Info("analysis complete")
	return res, nil
}

func (e *Engine) fetchAdvisory(ctx context.Context, res *model.SignalResult) model.Advisory {
	actx, cancel := context.WithTimeout(ctx, e.advisoryTimeout)
	defer cancel()

	adv, err := e.advisor.GetAdvisory(actx, advisory.Snapshot{
		Symbol:         res.Symbol,
		Timeframe:      res.Timeframe,
		AssetClass:     simulator.Lookup(res.Symbol).Class,
		CurrentPrice:   res.CurrentPrice,
		Trend:          res.Trend,
		Strength:       res.Strength,
		Recommendation: res.Recommendation,
		Confidence:     res.Confidence,
		Support:        res.Support,
		Resistance:     res.Resistance,
		Indicators:     res.Indicators,
		RiskLevel:      e.riskLevel,
	})
	if err != nil {
		e.log.WithError(err).WithField("symbol", res.Symbol).Warn("advisory unavailable, using defaults")
		return advisory.Defaulted("advisory unavailable: " + err.Error())
	}
	return advisory.Normalize(adv)
}
