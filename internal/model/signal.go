package model

import "time"

// Trend describes the market direction read from the indicators.
type Trend string

const (
	TrendBullish Trend = "bullish"
	TrendBearish Trend = "bearish"
	TrendNeutral Trend = "neutral"
)

// Recommendation is the suggested action for an instrument.
type Recommendation string

const (
	RecommendBuy  Recommendation = "buy"
	RecommendSell Recommendation = "sell"
	RecommendHold Recommendation = "hold"
)

// SignalResult is the immutable outcome of one analysis request.
type SignalResult struct {
	ID             string
	Symbol         string
	Timeframe      string
	Timestamp      time.Time
	CurrentPrice   float64
	Trend          Trend
	Strength       float64 // 0-100
	Recommendation Recommendation
	Confidence     float64 // 0-100
	Support        float64
	Resistance     float64
	Indicators     IndicatorSnapshot
	Advisory       *Advisory // nil when no advisor is configured
}
