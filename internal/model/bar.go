package model

import "time"

// PriceBar represents a single candlestick bar.
// Invariant: Low <= min(Open, Close) and High >= max(Open, Close).
type PriceBar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}
