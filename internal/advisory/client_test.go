package advisory

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"PaperTrader/internal/model"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func chatServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", got)
		}
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": content}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
}

func testSnapshot() Snapshot {
	return Snapshot{
		Symbol:       "EURUSD",
		Timeframe:    "1d",
		AssetClass:   model.AssetForex,
		CurrentPrice: 1.1,
		Trend:        model.TrendBullish,
		Indicators:   model.IndicatorSnapshot{RSI: 55, Ready: true},
	}
}

func TestGetAdvisory_ValidPayload(t *testing.T) {
	srv := chatServer(t, `{"trend":"bullish","strength":80,"recommendation":"buy","confidence":85,"reasoning":"momentum","key_factors":["rates"],"risk_assessment":"medium","timeframe":"short_term"}`)
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", "test-model", 5*time.Second, testLogger())
	adv, err := c.GetAdvisory(context.Background(), testSnapshot())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if adv.Trend != model.TrendBullish || adv.Recommendation != model.RecommendBuy {
		t.Fatalf("unexpected verdict: %+v", adv)
	}
	if adv.Confidence != 85 || adv.Strength != 80 {
		t.Fatalf("unexpected numerics: conf=%f strength=%f", adv.Confidence, adv.Strength)
	}
	if adv.Err {
		t.Fatal("error flag set on a successful advisory")
	}
	if adv.Horizon != "short_term" {
		t.Fatalf("unexpected horizon %q", adv.Horizon)
	}
}

func TestGetAdvisory_FencedJSON(t *testing.T) {
	srv := chatServer(t, "```json\n{\"trend\":\"bearish\",\"strength\":60,\"recommendation\":\"sell\",\"confidence\":70}\n```")
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", "test-model", 5*time.Second, testLogger())
	adv, err := c.GetAdvisory(context.Background(), testSnapshot())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if adv.Recommendation != model.RecommendSell || adv.Confidence != 70 {
		t.Fatalf("unexpected verdict: %+v", adv)
	}
}

func TestGetAdvisory_StringNumerics(t *testing.T) {
	srv := chatServer(t, `{"trend":"bullish","strength":"75","recommendation":"buy","confidence":"85"}`)
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", "test-model", 5*time.Second, testLogger())
	adv, err := c.GetAdvisory(context.Background(), testSnapshot())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if adv.Confidence != 85 || adv.Strength != 75 {
		t.Fatalf("expected quoted numbers parsed, got conf=%f strength=%f", adv.Confidence, adv.Strength)
	}
}

func TestGetAdvisory_UnparseableNumericsDefaulted(t *testing.T) {
	srv := chatServer(t, `{"trend":"bullish","strength":"very strong","recommendation":"buy","confidence":"high"}`)
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", "test-model", 5*time.Second, testLogger())
	adv, err := c.GetAdvisory(context.Background(), testSnapshot())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if adv.Confidence != 50 || adv.Strength != 50 {
		t.Fatalf("expected unparseable numerics defaulted to 50, got conf=%f strength=%f", adv.Confidence, adv.Strength)
	}
}

func TestGetAdvisory_MalformedContent(t *testing.T) {
	srv := chatServer(t, "I cannot provide financial advice.")
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", "test-model", 5*time.Second, testLogger())
	if _, err := c.GetAdvisory(context.Background(), testSnapshot()); err == nil {
		t.Fatal("expected an error for non-JSON content")
	}
}

func TestGetAdvisory_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", "test-model", 5*time.Second, testLogger())
	if _, err := c.GetAdvisory(context.Background(), testSnapshot()); err == nil {
		t.Fatal("expected an error for a non-200 status")
	}
}

func TestNormalize_RejectsOutOfRange(t *testing.T) {
	cases := []struct {
		name string
		in   model.Advisory
		want model.Advisory
	}{
		{
			name: "unknown trend and recommendation",
			in:   model.Advisory{Trend: "sideways", Recommendation: "yolo", Confidence: 80, Strength: 60},
			want: model.Advisory{Trend: model.TrendNeutral, Recommendation: model.RecommendHold, Confidence: 80, Strength: 60},
		},
		{
			name: "confidence above range rejected, not clamped",
			in:   model.Advisory{Trend: model.TrendBullish, Recommendation: model.RecommendBuy, Confidence: 120, Strength: 60},
			want: model.Advisory{Trend: model.TrendBullish, Recommendation: model.RecommendBuy, Confidence: 50, Strength: 60},
		},
		{
			name: "negative strength rejected",
			in:   model.Advisory{Trend: model.TrendBearish, Recommendation: model.RecommendSell, Confidence: 70, Strength: -5},
			want: model.Advisory{Trend: model.TrendBearish, Recommendation: model.RecommendSell, Confidence: 70, Strength: 50},
		},
		{
			name: "boundary values kept",
			in:   model.Advisory{Trend: model.TrendNeutral, Recommendation: model.RecommendHold, Confidence: 100, Strength: 0},
			want: model.Advisory{Trend: model.TrendNeutral, Recommendation: model.RecommendHold, Confidence: 100, Strength: 0},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Normalize(tc.in)
			if got.Trend != tc.want.Trend || got.Recommendation != tc.want.Recommendation ||
				got.Confidence != tc.want.Confidence || got.Strength != tc.want.Strength {
				t.Fatalf("Normalize(%+v) = %+v, want %+v", tc.in, got, tc.want)
			}
		})
	}
}

func TestDefaulted(t *testing.T) {
	adv := Defaulted("upstream down")
	if !adv.Err {
		t.Fatal("expected the error flag set")
	}
	if adv.Trend != model.TrendNeutral || adv.Recommendation != model.RecommendHold {
		t.Fatalf("expected neutral defaults, got %+v", adv)
	}
	if adv.Confidence != 50 || adv.Strength != 50 {
		t.Fatalf("expected 50/50 defaults, got %+v", adv)
	}
	if adv.Reasoning != "upstream down" {
		t.Fatalf("expected the reason recorded, got %q", adv.Reasoning)
	}
}
