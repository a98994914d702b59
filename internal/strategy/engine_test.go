package strategy

import (
	"context"
	"errors"
	"io"
	"math/rand"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"PaperTrader/internal/advisory"
	"PaperTrader/internal/model"
	"PaperTrader/internal/simulator"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestSimulator(seed int64) *simulator.Simulator {
	return simulator.New(rand.New(rand.NewSource(seed)), testLogger())
}

type stubAdvisor struct {
	advisory model.Advisory
	err      error
	calls    atomic.Int64
}

func (s *stubAdvisor) GetAdvisory(ctx context.Context, snap advisory.Snapshot) (model.Advisory, error) {
	s.calls.Add(1)
	if s.err != nil {
		return model.Advisory{}, s.err
	}
	return s.advisory, nil
}

func TestAnalyze_NoAdvisor(t *testing.T) {
	eng := NewEngine(newTestSimulator(42), nil, nil, Options{}, testLogger())

	res, err := eng.Analyze(context.Background(), "EURUSD", "1d")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ID == "" {
		t.Fatal("expected a generated analysis ID")
	}
	if res.Advisory != nil {
		t.Fatal("expected nil advisory when no advisor is configured")
	}
	if res.Confidence < 0 || res.Confidence > 100 {
		t.Fatalf("confidence out of range: %f", res.Confidence)
	}
	if !res.Indicators.Ready {
		t.Fatal("expected a ready indicator snapshot")
	}
}

func TestAnalyze_TooFewBars(t *testing.T) {
	eng := NewEngine(newTestSimulator(42), nil, nil, Options{Periods: 10}, testLogger())

	if _, err := eng.Analyze(context.Background(), "EURUSD", "1d"); err == nil {
		t.Fatal("expected an error when the series is shorter than the warm-up")
	}
}

func TestAnalyze_AdvisoryOverridesWhenMoreConfident(t *testing.T) {
	adv := &stubAdvisor{advisory: model.Advisory{
		Trend:          model.TrendBearish,
		Strength:       90,
		Recommendation: model.RecommendSell,
		Confidence:     99,
	}}
	eng := NewEngine(newTestSimulator(42), adv, nil, Options{}, testLogger())

	res, err := eng.Analyze(context.Background(), "EURUSD", "1d")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Recommendation != model.RecommendSell || res.Confidence != 99 {
		t.Fatalf("expected the advisory verdict to win, got %s at %f", res.Recommendation, res.Confidence)
	}
	if res.Trend != model.TrendBearish || res.Strength != 90 {
		t.Fatalf("expected trend and strength adopted, got %s/%f", res.Trend, res.Strength)
	}
	if res.Advisory == nil || res.Advisory.Err {
		t.Fatal("expected the advisory attached without the error flag")
	}
}

func TestAnalyze_LessConfidentAdvisoryIgnored(t *testing.T) {
	withAdv := &stubAdvisor{advisory: model.Advisory{
		Trend:          model.TrendBearish,
		Recommendation: model.RecommendSell,
		Confidence:     1, // below any local confidence
	}}
	engAdv := NewEngine(newTestSimulator(42), withAdv, nil, Options{}, testLogger())
	engLocal := NewEngine(newTestSimulator(42), nil, nil, Options{}, testLogger())

	got, err := engAdv.Analyze(context.Background(), "EURUSD", "1d")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want, err := engLocal.Analyze(context.Background(), "EURUSD", "1d")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Recommendation != want.Recommendation || got.Confidence != want.Confidence ||
		got.Trend != want.Trend {
		t.Fatalf("weak advisory changed the verdict: got %s/%f, want %s/%f",
			got.Recommendation, got.Confidence, want.Recommendation, want.Confidence)
	}
	if got.Advisory == nil {
		t.Fatal("expected the losing advisory still attached for transparency")
	}
}

func TestAnalyze_AdvisorErrorFallsBackToDefaults(t *testing.T) {
	adv := &stubAdvisor{err: errors.New("upstream down")}
	eng := NewEngine(newTestSimulator(42), adv, nil, Options{}, testLogger())
	local := NewEngine(newTestSimulator(42), nil, nil, Options{}, testLogger())

	got, err := eng.Analyze(context.Background(), "EURUSD", "1d")
	if err != nil {
		t.Fatalf("advisor failure must not fail the analysis: %v", err)
	}
	want, _ := local.Analyze(context.Background(), "EURUSD", "1d")

	if got.Advisory == nil || !got.Advisory.Err {
		t.Fatal("expected a defaulted advisory with the error flag set")
	}
	if got.Advisory.Confidence != 50 || got.Advisory.Recommendation != model.RecommendHold {
		t.Fatalf("expected neutral defaults, got %+v", got.Advisory)
	}
	if got.Recommendation != want.Recommendation || got.Trend != want.Trend {
		t.Fatal("defaulted advisory must not change the local verdict")
	}
}

func TestAnalyze_CacheHitSkipsAdvisor(t *testing.T) {
	adv := &stubAdvisor{advisory: model.Advisory{
		Trend:          model.TrendNeutral,
		Recommendation: model.RecommendHold,
		Confidence:     60,
		Strength:       50,
	}}
	eng := NewEngine(newTestSimulator(42), adv, nil, Options{CacheTTL: time.Hour}, testLogger())

	first, err := eng.Analyze(context.Background(), "EURUSD", "1d")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := eng.Analyze(context.Background(), "EURUSD", "1d")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.ID != second.ID {
		t.Fatal("expected the cached result, got a recomputed one")
	}
	if n := adv.calls.Load(); n != 1 {
		t.Fatalf("expected exactly one advisory call, got %d", n)
	}
}

func TestAnalyze_CacheKeyedPerTimeframe(t *testing.T) {
	eng := NewEngine(newTestSimulator(42), nil, nil, Options{CacheTTL: time.Hour}, testLogger())

	daily, _ := eng.Analyze(context.Background(), "EURUSD", "1d")
	hourly, _ := eng.Analyze(context.Background(), "EURUSD", "1h")
	if daily.ID == hourly.ID {
		t.Fatal("expected distinct cache entries per timeframe")
	}
}

func TestResultCache_Expiry(t *testing.T) {
	c := newResultCache(10 * time.Minute)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.put("EURUSD/1d", &model.SignalResult{ID: "a"})
	if _, ok := c.get("EURUSD/1d"); !ok {
		t.Fatal("expected a fresh entry to hit")
	}

	now = now.Add(10 * time.Minute)
	if _, ok := c.get("EURUSD/1d"); ok {
		t.Fatal("expected the entry to expire at the TTL boundary")
	}
	if len(c.entries) != 0 {
		t.Fatal("expected the expired entry to be evicted")
	}
}
