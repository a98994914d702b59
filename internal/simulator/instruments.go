package simulator

import "PaperTrader/internal/model"

// Reference instruments, loaded once at process start. Base prices and
// volatility fractions are the profiles the paper market is tuned with:
// majors around 1% daily volatility, gold 1.5%, crypto 3-4%.
var instruments = map[string]model.Instrument{
	"EURUSD": {Symbol: "EURUSD", Class: model.AssetForex, BasePrice: 1.10, TickVolatility: 0.0015, DailyVolatility: 0.01},
	"GBPUSD": {Symbol: "GBPUSD", Class: model.AssetForex, BasePrice: 1.25, TickVolatility: 0.0018, DailyVolatility: 0.01},
	"USDJPY": {Symbol: "USDJPY", Class: model.AssetForex, BasePrice: 150.0, TickVolatility: 0.0020, DailyVolatility: 0.01},
	"AUDUSD": {Symbol: "AUDUSD", Class: model.AssetForex, BasePrice: 0.75, TickVolatility: 0.0025, DailyVolatility: 0.01},
	"USDCAD": {Symbol: "USDCAD", Class: model.AssetForex, BasePrice: 1.35, TickVolatility: 0.0016, DailyVolatility: 0.01},
	"XAUUSD": {Symbol: "XAUUSD", Class: model.AssetCommodity, BasePrice: 2300.0, TickVolatility: 0.003, DailyVolatility: 0.015},
	"BTCUSD": {Symbol: "BTCUSD", Class: model.AssetCrypto, BasePrice: 60000.0, TickVolatility: 0.008, DailyVolatility: 0.03},
	"ETHUSD": {Symbol: "ETHUSD", Class: model.AssetCrypto, BasePrice: 3500.0, TickVolatility: 0.01, DailyVolatility: 0.04},
}

// Lookup resolves a symbol to its instrument profile. Unknown symbols get a
// low-volatility forex-like default instead of an error, so callers always
// have something safe to simulate.
func Lookup(symbol string) model.Instrument {
	if inst, ok := instruments[symbol]; ok {
		return inst
	}
	return model.Instrument{
		Symbol:          symbol,
		Class:           model.AssetForex,
		BasePrice:       1.0,
		TickVolatility:  0.001,
		DailyVolatility: 0.01,
	}
}

// Symbols returns all known instrument symbols.
func Symbols() []string {
	out := make([]string, 0, len(instruments))
	for s := range instruments {
		out = append(out, s)
	}
	return out
}
