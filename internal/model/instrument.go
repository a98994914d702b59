package model

// AssetClass groups instruments by market type.
type AssetClass string

const (
	AssetForex     AssetClass = "forex"
	AssetCommodity AssetClass = "commodity"
	AssetCrypto    AssetClass = "crypto"
)

// Instrument is immutable reference data for a tradeable symbol: its asset
// class and the volatility profile the simulator runs with.
type Instrument struct {
	Symbol          string
	Class           AssetClass
	BasePrice       float64
	TickVolatility  float64 // stddev of one current-price step, as a fraction
	DailyVolatility float64 // stddev of one bar-to-bar change, as a fraction
}

// QuotePrecision returns the decimal places prices of this class are quoted at.
func (i Instrument) QuotePrecision() int {
	if i.Class == AssetForex {
		return 5
	}
	return 2
}
