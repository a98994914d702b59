package calculator

import (
	"math"

	"PaperTrader/internal/model"
)

// Indicator periods. MinBars is the shortest series for which at least one
// snapshot is ready: the MACD signal line is the slowest to warm up, needing
// the slow EMA seed plus the signal EMA seed.
const (
	FastSMAPeriod    = 5
	SlowSMAPeriod    = 20
	RSIPeriod        = 14
	MACDFastPeriod   = 12
	MACDSlowPeriod   = 26
	MACDSignalPeriod = 9
	BollingerPeriod  = 20
	BollingerWidth   = 2.0

	MinBars = MACDSlowPeriod + MACDSignalPeriod - 1
)

// Compute derives one IndicatorSnapshot per input bar, aligned 1:1. Snapshots
// whose lookback windows are not yet full carry Ready=false and must be
// dropped before signal evaluation. Repeated calls on the same input produce
// identical output.
func Compute(bars []model.PriceBar) []model.IndicatorSnapshot {
	closes := extractCloses(bars)

	smaFast := smaSeries(closes, FastSMAPeriod)
	smaSlow := smaSeries(closes, SlowSMAPeriod)
	rsi := rsiSeries(closes, RSIPeriod)

	ema12 := emaSeries(closes, MACDFastPeriod)
	ema26 := emaSeries(closes, MACDSlowPeriod)
	macd := nanSlice(len(closes))
	for i := range closes {
		macd[i] = ema12[i] - ema26[i] // NaN-propagating
	}
	signal := emaSeries(macd, MACDSignalPeriod)

	std := stddevSeries(closes, BollingerPeriod)

	snaps := make([]model.IndicatorSnapshot, len(bars))
	for i := range bars {
		ready := !math.IsNaN(smaFast[i]) && !math.IsNaN(smaSlow[i]) &&
			!math.IsNaN(rsi[i]) && !math.IsNaN(macd[i]) &&
			!math.IsNaN(signal[i]) && !math.IsNaN(std[i])
		if !ready {
			snaps[i] = model.IndicatorSnapshot{}
			continue
		}
		snaps[i] = model.IndicatorSnapshot{
			SMAFast:         smaFast[i],
			SMASlow:         smaSlow[i],
			RSI:             rsi[i],
			MACD:            macd[i],
			MACDSignal:      signal[i],
			MACDHist:        macd[i] - signal[i],
			UpperBand:       smaSlow[i] + BollingerWidth*std[i],
			LowerBand:       smaSlow[i] - BollingerWidth*std[i],
			VolatilityRatio: std[i] / smaSlow[i],
			Ready:           true,
		}
	}
	return snaps
}

// LastReady returns the most recent ready snapshot and its bar index.
func LastReady(snaps []model.IndicatorSnapshot) (model.IndicatorSnapshot, int, bool) {
	for i := len(snaps) - 1; i >= 0; i-- {
		if snaps[i].Ready {
			return snaps[i], i, true
		}
	}
	return model.IndicatorSnapshot{}, -1, false
}

func extractCloses(bars []model.PriceBar) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}
