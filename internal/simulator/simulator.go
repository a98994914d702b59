package simulator

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"PaperTrader/internal/model"
)

// Simulator produces synthetic OHLCV series by bounded random walk and tracks
// a current price per instrument. Safe for concurrent use: the per-instrument
// read-modify-write price step is serialized under one mutex, which also
// guards the shared random source.
type Simulator struct {
	mu   sync.Mutex
	rng  *rand.Rand
	last map[string]float64 // symbol -> last simulated price
	log  *logrus.Entry
}

// New creates a Simulator around the given random source. Tests pass a seeded
// source for reproducible series.
func New(rng *rand.Rand, logger *logrus.Logger) *Simulator {
	return &Simulator{
		rng:  rng,
		last: make(map[string]float64),
		log:  logger.WithField("component", "simulator"),
	}
}

func stepFor(timeframe string) time.Duration {
	switch timeframe {
	case "1h":
		return time.Hour
	case "4h":
		return 4 * time.Hour
	case "1d":
		return 24 * time.Hour
	default:
		return 24 * time.Hour
	}
}

// Generate produces an ordered, finite series of bars for the instrument.
// The walk starts at the instrument's base price and compounds a normally
// distributed percentage change per step, clamped to +/-3 standard deviations
// so a single draw cannot produce a pathological bar.
func (s *Simulator) Generate(symbol, timeframe string, periods int) []model.PriceBar {
	inst := Lookup(symbol)
	step := stepFor(timeframe)
	start := time.Now().Add(-time.Duration(periods) * step)

	s.mu.Lock()
	defer s.mu.Unlock()

	prec := inst.QuotePrecision()
	bars := make([]model.PriceBar, 0, periods)
	price := inst.BasePrice
	for i := 0; i < periods; i++ {
		change := s.rng.NormFloat64() * inst.DailyVolatility
		if change > 3*inst.DailyVolatility {
			change = 3 * inst.DailyVolatility
		}
		if change < -3*inst.DailyVolatility {
			change = -3 * inst.DailyVolatility
		}
		price *= 1 + change

		half := inst.DailyVolatility / 2
		open := price * (1 + s.rng.NormFloat64()*half)
		high := price * (1 + math.Abs(s.rng.NormFloat64()*half))
		low := price * (1 - math.Abs(s.rng.NormFloat64()*half))
		if open > high {
			high = open
		}
		if open < low {
			low = open
		}

		bars = append(bars, model.PriceBar{
			Time:   start.Add(time.Duration(i) * step),
			Open:   roundTo(open, prec),
			High:   roundTo(high, prec),
			Low:    roundTo(low, prec),
			Close:  roundTo(price, prec),
			Volume: float64(1000 + s.rng.Intn(9000)),
		})
	}

	s.log.WithFields(logrus.Fields{"symbol": symbol, "timeframe": timeframe, "periods": periods}).
		Debug("generated price series")
	return bars
}

// CurrentPrice applies one tick-volatility random step to the instrument's
// last simulated price and returns it. The read-apply-store sequence is one
// critical section, so concurrent callers see a consistent price evolution.
func (s *Simulator) CurrentPrice(symbol string) float64 {
	inst := Lookup(symbol)

	s.mu.Lock()
	defer s.mu.Unlock()

	price, ok := s.last[symbol]
	if !ok {
		price = inst.BasePrice
	}
	price *= 1 + s.rng.NormFloat64()*inst.TickVolatility
	price = roundTo(price, inst.QuotePrecision())
	s.last[symbol] = price
	return price
}

func roundTo(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}
