package strategy

import (
	"PaperTrader/internal/model"
)

const (
	rsiOverbought = 70.0
	rsiOversold   = 30.0

	supportBuffer    = 0.998 // 0.2% below the recent low
	resistanceBuffer = 1.002 // 0.2% above the recent high

	srLookback = 20 // trailing bars for support/resistance
)

// LocalSignal is the engine's own verdict, before any advisory blend.
type LocalSignal struct {
	Trend          model.Trend
	Strength       float64
	Recommendation model.Recommendation
	Confidence     float64
	Score          int // the raw sentiment tally
	Support        float64
	Resistance     float64
}

// Evaluate derives trend, strength, recommendation and confidence from the
// latest ready indicator snapshot. Purely deterministic: the sentiment score
// adds one unit per aligned signal and subtracts one per opposed signal, and
// the thresholds never tie-break.
func Evaluate(snap model.IndicatorSnapshot, lastClose float64, recent []model.PriceBar) LocalSignal {
	out := LocalSignal{
		Trend:          model.TrendNeutral,
		Strength:       50,
		Recommendation: model.RecommendHold,
		Confidence:     50,
	}

	switch {
	case snap.SMAFast > snap.SMASlow && lastClose > snap.SMASlow:
		out.Trend = model.TrendBullish
		if snap.RSI > 50 {
			out.Strength = clamp95(50 + 10*(snap.RSI-50))
		}
	case snap.SMAFast < snap.SMASlow && lastClose < snap.SMASlow:
		out.Trend = model.TrendBearish
		if snap.RSI < 50 {
			out.Strength = clamp95(50 + 10*(50-snap.RSI))
		}
	}

	score := 0
	if lastClose > snap.SMASlow {
		score++
	} else {
		score--
	}
	if snap.SMAFast > snap.SMASlow {
		score++
	} else {
		score--
	}
	if snap.RSI > rsiOverbought {
		score-- // overbought
	} else if snap.RSI < rsiOversold {
		score++ // oversold
	}
	if snap.MACD > snap.MACDSignal {
		score++
	} else {
		score--
	}
	if lastClose > snap.UpperBand {
		score--
	} else if lastClose < snap.LowerBand {
		score++
	}
	out.Score = score

	switch {
	case score >= 2:
		out.Recommendation = model.RecommendBuy
		out.Confidence = clamp95(50 + 10*float64(score))
	case score <= -2:
		out.Recommendation = model.RecommendSell
		out.Confidence = clamp95(50 + 10*float64(-score))
	}

	out.Support, out.Resistance = supportResistance(recent)
	return out
}

// supportResistance places support slightly below the trailing low and
// resistance slightly above the trailing high, over the last srLookback bars.
func supportResistance(bars []model.PriceBar) (support, resistance float64) {
	if len(bars) == 0 {
		return 0, 0
	}
	window := bars
	if len(window) > srLookback {
		window = window[len(window)-srLookback:]
	}
	low := window[0].Low
	high := window[0].High
	for _, b := range window[1:] {
		if b.Low < low {
			low = b.Low
		}
		if b.High > high {
			high = b.High
		}
	}
	return low * supportBuffer, high * resistanceBuffer
}

func clamp95(v float64) float64 {
	if v > 95 {
		return 95
	}
	if v < 0 {
		return 0
	}
	return v
}
