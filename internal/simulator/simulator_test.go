package simulator

import (
	"io"
	"math"
	"math/rand"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"

	"PaperTrader/internal/model"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestSimulator(seed int64) *Simulator {
	return New(rand.New(rand.NewSource(seed)), testLogger())
}

func TestGenerate_BarInvariants(t *testing.T) {
	sim := newTestSimulator(42)
	for _, symbol := range []string{"EURUSD", "XAUUSD", "BTCUSD"} {
		bars := sim.Generate(symbol, "1d", 100)
		if len(bars) != 100 {
			t.Fatalf("%s: expected 100 bars, got %d", symbol, len(bars))
		}
		for i, b := range bars {
			if b.Low > math.Min(b.Open, b.Close) {
				t.Fatalf("%s bar %d: low %f above min(open,close) %f", symbol, i, b.Low, math.Min(b.Open, b.Close))
			}
			if b.High < math.Max(b.Open, b.Close) {
				t.Fatalf("%s bar %d: high %f below max(open,close) %f", symbol, i, b.High, math.Max(b.Open, b.Close))
			}
			if b.Volume <= 0 {
				t.Fatalf("%s bar %d: non-positive volume %f", symbol, i, b.Volume)
			}
			if i > 0 && !b.Time.After(bars[i-1].Time) {
				t.Fatalf("%s bar %d: timestamps not strictly increasing", symbol, i)
			}
		}
	}
}

func TestGenerate_SameSeedReproducible(t *testing.T) {
	a := newTestSimulator(7).Generate("EURUSD", "1d", 50)
	b := newTestSimulator(7).Generate("EURUSD", "1d", 50)
	for i := range a {
		if a[i].Open != b[i].Open || a[i].High != b[i].High ||
			a[i].Low != b[i].Low || a[i].Close != b[i].Close ||
			a[i].Volume != b[i].Volume {
			t.Fatalf("bar %d differs between identically seeded runs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestGenerate_QuotePrecision(t *testing.T) {
	sim := newTestSimulator(1)
	bars := sim.Generate("EURUSD", "1d", 20)
	for i, b := range bars {
		scaled := b.Close * 1e5
		if math.Abs(scaled-math.Round(scaled)) > 1e-6 {
			t.Fatalf("bar %d: close %v not rounded to 5 decimal places", i, b.Close)
		}
	}
}

func TestLookup_UnknownSymbolDefaults(t *testing.T) {
	inst := Lookup("ZZZZZZ")
	if inst.Symbol != "ZZZZZZ" {
		t.Fatalf("expected symbol preserved, got %q", inst.Symbol)
	}
	if inst.Class != model.AssetForex || inst.BasePrice != 1.0 {
		t.Fatalf("expected low-volatility default profile, got %+v", inst)
	}
}

func TestCurrentPrice_StaysNearBase(t *testing.T) {
	sim := newTestSimulator(3)
	base := Lookup("EURUSD").BasePrice
	p := sim.CurrentPrice("EURUSD")
	if p <= 0 {
		t.Fatalf("expected positive price, got %f", p)
	}
	if math.Abs(p-base)/base > 0.05 {
		t.Fatalf("single tick moved price %f too far from base %f", p, base)
	}
}

func TestCurrentPrice_ConcurrentCallers(t *testing.T) {
	sim := newTestSimulator(9)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if p := sim.CurrentPrice("BTCUSD"); p <= 0 {
					t.Errorf("non-positive concurrent price: %f", p)
					return
				}
			}
		}()
	}
	wg.Wait()
}
