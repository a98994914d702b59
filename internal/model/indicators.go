package model

// IndicatorSnapshot holds all technical indicators derived for one bar.
// Ready is false until every lookback window behind it is full; unready
// snapshots must never reach the signal engine.
type IndicatorSnapshot struct {
	SMAFast         float64
	SMASlow         float64
	RSI             float64
	MACD            float64
	MACDSignal      float64
	MACDHist        float64
	UpperBand       float64
	LowerBand       float64
	VolatilityRatio float64
	Ready           bool
}
