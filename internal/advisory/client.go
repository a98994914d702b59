package advisory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"PaperTrader/internal/model"
)

// Client calls an OpenAI-compatible chat-completions endpoint (Groq by
// default) and parses the model's JSON verdict into an Advisory. All failure
// modes surface as errors; the caller converts them to the Defaulted
// advisory.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
	log     *logrus.Entry
}

// NewClient creates an advisory client. timeout bounds the whole HTTP
// exchange in addition to any deadline on the caller's context.
func NewClient(baseURL, apiKey, modelName string, timeout time.Duration, logger *logrus.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   modelName,
		client:  &http.Client{Timeout: timeout},
		log:     logger.WithField("component", "advisory"),
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// flexFloat accepts a JSON number or a numeric string. Anything unparseable
// leaves ok=false so Normalize applies the default instead of a silent clamp.
type flexFloat struct {
	value float64
	ok    bool
}

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	f.value = v
	f.ok = true
	return nil
}

// advisoryPayload is the JSON contract the prompt asks the model to return.
type advisoryPayload struct {
	Trend          string    `json:"trend"`
	Strength       flexFloat `json:"strength"`
	Recommendation string    `json:"recommendation"`
	Confidence     flexFloat `json:"confidence"`
	Reasoning      string    `json:"reasoning"`
	KeyFactors     []string  `json:"key_factors"`
	RiskAssessment string    `json:"risk_assessment"`
	Timeframe      string    `json:"timeframe"`
}

// GetAdvisory requests an opinion for the given analysis snapshot.
func (c *Client) GetAdvisory(ctx context.Context, snap Snapshot) (model.Advisory, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemMessage(snap.AssetClass)},
			{Role: "user", Content: buildPrompt(snap)},
		},
		Temperature: 0.2,
		MaxTokens:   1024,
	})
	if err != nil {
		return model.Advisory{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return model.Advisory{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return model.Advisory{}, fmt.Errorf("advisory call: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return model.Advisory{}, fmt.Errorf("advisory API status %d: %s", resp.StatusCode, string(respBody))
	}

	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return model.Advisory{}, fmt.Errorf("decode response: %w", err)
	}
	if len(chat.Choices) == 0 {
		return model.Advisory{}, fmt.Errorf("advisory response has no choices")
	}

	content := strings.TrimSpace(chat.Choices[0].Message.Content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var payload advisoryPayload
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return model.Advisory{}, fmt.Errorf("parse advisory payload: %w", err)
	}

	adv := model.Advisory{
		Trend:          model.Trend(payload.Trend),
		Recommendation: model.Recommendation(payload.Recommendation),
		Reasoning:      payload.Reasoning,
		KeyFactors:     payload.KeyFactors,
		RiskAssessment: payload.RiskAssessment,
		Horizon:        payload.Timeframe,
	}
	if payload.Confidence.ok {
		adv.Confidence = payload.Confidence.value
	} else {
		adv.Confidence = -1 // Normalize rejects out-of-range to 50
	}
	if payload.Strength.ok {
		adv.Strength = payload.Strength.value
	} else {
		adv.Strength = -1
	}
	adv = Normalize(adv)

	c.log.WithFields(logrus.Fields{
		"symbol":         snap.Symbol,
		"recommendation": adv.Recommendation,
		"confidence":     adv.Confidence,
	}).Info("advisory received")
	return adv, nil
}

func systemMessage(class model.AssetClass) string {
	switch class {
	case model.AssetCrypto:
		return "You are a cryptocurrency trading expert with deep knowledge of blockchain technology, market cycles, on-chain metrics, and crypto-specific technical analysis."
	case model.AssetCommodity:
		return "You are a commodities trading expert specializing in gold markets with knowledge of inflation impacts, monetary policy, geopolitical factors, and precious metals market dynamics."
	default:
		return "You are a financial expert specializing in forex trading and technical analysis with deep knowledge of currency markets, central bank policies, and macroeconomic factors."
	}
}

func buildPrompt(snap Snapshot) string {
	var factors string
	switch snap.AssetClass {
	case model.AssetCrypto:
		factors = "Consider relevant crypto factors like market sentiment, adoption trends, regulation news, technological developments, and network metrics."
	case model.AssetCommodity:
		factors = "Consider relevant gold factors like inflation expectations, US dollar strength, interest rates, market uncertainty, geopolitical risks, and physical demand."
	default:
		factors = "Consider relevant forex factors like interest rate differentials, economic data releases, central bank policies, and geopolitical events."
	}

	ind := snap.Indicators
	return fmt.Sprintf(`Analyze the following market data for %s on the %s timeframe and provide a trading recommendation.

TECHNICAL INDICATORS:
- RSI: %.2f
- MACD: %.5f
- MACD Signal: %.5f
- SMA 20: %.5f
- Bollinger Bands:
  - Upper: %.5f
  - Lower: %.5f

CURRENT PRICE: %.5f
SUPPORT LEVEL: %.5f
RESISTANCE LEVEL: %.5f
LOCAL VERDICT: trend=%s recommendation=%s confidence=%.0f
RISK TOLERANCE: %s

%s

Respond with exactly this JSON object and no other text:
{
  "trend": "bullish|bearish|neutral",
  "strength": "value between 0-100",
  "recommendation": "buy|sell|hold",
  "confidence": "value between 0-100",
  "reasoning": "brief explanation",
  "key_factors": ["factor1", "factor2"],
  "risk_assessment": "brief risk analysis",
  "timeframe": "short_term|medium_term|long_term"
}`,
		snap.Symbol, snap.Timeframe,
		ind.RSI, ind.MACD, ind.MACDSignal, ind.SMASlow, ind.UpperBand, ind.LowerBand,
		snap.CurrentPrice, snap.Support, snap.Resistance,
		snap.Trend, snap.Recommendation, snap.Confidence,
		riskLevel(snap.RiskLevel),
		factors)
}

func riskLevel(level string) string {
	switch level {
	case "low", "medium", "high":
		return level
	default:
		return "medium"
	}
}
