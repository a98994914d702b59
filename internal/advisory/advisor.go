package advisory

import (
	"context"

	"PaperTrader/internal/model"
)

// Snapshot is the analysis state handed to the advisor. It is a read-only
// view; the advisor never mutates core state.
type Snapshot struct {
	Symbol         string
	Timeframe      string
	AssetClass     model.AssetClass
	CurrentPrice   float64
	Trend          model.Trend
	Strength       float64
	Recommendation model.Recommendation
	Confidence     float64
	Support        float64
	Resistance     float64
	Indicators     model.IndicatorSnapshot
	RiskLevel      string // low, medium, high
}

// Advisor produces an external, non-authoritative opinion for an instrument.
// Implementations may block on the network; callers bound them with ctx.
type Advisor interface {
	GetAdvisory(ctx context.Context, snap Snapshot) (model.Advisory, error)
}

// Defaulted is the conservative fallback advisory applied whenever retrieval
// fails: neutral trend, hold recommendation, confidence 50, error flag set.
// With confidence 50 the blend rule will essentially never let it override a
// local result.
func Defaulted(reason string) model.Advisory {
	return model.Advisory{
		Trend:          model.TrendNeutral,
		Strength:       50,
		Recommendation: model.RecommendHold,
		Confidence:     50,
		Reasoning:      reason,
		Err:            true,
	}
}

// Normalize applies the single default-fill step for advisory fields: unknown
// trends become neutral, unknown recommendations become hold, and numeric
// fields outside [0,100] are rejected and replaced with 50 rather than
// clamped.
func Normalize(a model.Advisory) model.Advisory {
	switch a.Trend {
	case model.TrendBullish, model.TrendBearish, model.TrendNeutral:
	default:
		a.Trend = model.TrendNeutral
	}
	switch a.Recommendation {
	case model.RecommendBuy, model.RecommendSell, model.RecommendHold:
	default:
		a.Recommendation = model.RecommendHold
	}
	if a.Confidence < 0 || a.Confidence > 100 {
		a.Confidence = 50
	}
	if a.Strength < 0 || a.Strength > 100 {
		a.Strength = 50
	}
	return a
}
