// Package predictor produces optional forward price estimates from
// recorded history, refined by an LLM when one is configured.
// Predictions are advisory enrichment and are never written back to an
// asset's valuation.
package predictor

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mvillard/patrimoine/internal/core"
	"github.com/mvillard/patrimoine/internal/history"
	"github.com/mvillard/patrimoine/internal/llm"
	"github.com/mvillard/patrimoine/internal/metrics"
)

const (
	lookbackDays = 90
	timeframe    = "30d"
	validity     = 24 * time.Hour

	algorithmTechnical = "technical"
	algorithmBlended   = "technical+llm"
)

// Predictor estimates a future price for an asset.
type Predictor struct {
	history *history.Recorder
	model   llm.Provider
	metrics *metrics.Registry
	logger  *zap.Logger
}

// New creates a predictor. The LLM provider and metrics registry are
// optional; without a model the prediction is purely technical.
func New(recorder *history.Recorder, model llm.Provider, m *metrics.Registry, logger *zap.Logger) *Predictor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Predictor{history: recorder, model: model, metrics: m, logger: logger}
}

// Predict estimates the asset's price one timeframe ahead. The
// technical estimate always succeeds when enough history exists; LLM
// refinement failures degrade to the technical estimate alone.
func (p *Predictor) Predict(ctx context.Context, a core.Asset) (*core.Prediction, error) {
	records, err := p.history.History(ctx, a.ID, lookbackDays)
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, core.ErrNoHistory
	}

	prices := make([]float64, len(records))
	for i, rec := range records {
		prices[i] = rec.Price
	}
	factors := ComputeFactors(prices)
	current := prices[len(prices)-1]

	price, confidence := technicalEstimate(current, factors)
	algorithm := algorithmTechnical

	if p.model != nil {
		llmPrice, llmConfidence, err := p.refine(ctx, a, factors, current)
		if err != nil {
			p.logger.Warn("LLM refinement failed, using technical estimate",
				zap.String("asset_id", a.ID),
				zap.Error(err))
		} else {
			price = (price + llmPrice) / 2
			confidence = (confidence + llmConfidence) / 2
			algorithm = algorithmBlended
		}
	}

	if p.metrics != nil {
		p.metrics.RecordPrediction(algorithm)
	}

	now := time.Now().UTC()
	return &core.Prediction{
		AssetID:        a.ID,
		PredictedPrice: price,
		Confidence:     confidence,
		Timeframe:      timeframe,
		Algorithm:      algorithm,
		CreatedAt:      now,
		ExpiresAt:      now.Add(validity),
	}, nil
}

// technicalEstimate projects the trend forward and derates confidence
// by observed volatility. The trend is clamped so one noisy window
// cannot produce a runaway estimate.
func technicalEstimate(current float64, f Factors) (price, confidence float64) {
	trend := f.Trend
	if trend > 0.2 {
		trend = 0.2
	}
	if trend < -0.2 {
		trend = -0.2
	}

	// Overbought/oversold pressure nudges the projection back.
	adjustment := trend
	if f.RSI > 70 {
		adjustment -= 0.02
	} else if f.RSI < 30 {
		adjustment += 0.02
	}

	price = current * (1 + adjustment)
	confidence = 0.9 - f.Volatility*5
	confidence = math.Max(0.1, math.Min(0.9, confidence))
	return price, confidence
}

type llmEstimate struct {
	Price      float64 `json:"price"`
	Confidence float64 `json:"confidence"`
}

func (p *Predictor) refine(ctx context.Context, a core.Asset, f Factors, current float64) (float64, float64, error) {
	prompt := fmt.Sprintf(
		`Estimate the price of the asset below in %s.
Asset: %s (%s, type %s)
Current price: %.2f %s
7-day moving average: %.2f
30-day moving average: %.2f
RSI(14): %.1f
Daily volatility: %.4f
Respond with JSON only: {"price": <number>, "confidence": <0..1>}`,
		timeframe, a.Name, a.Symbol, a.Type, current, a.Currency,
		f.MA7, f.MA30, f.RSI, f.Volatility)

	resp, err := p.model.Chat(ctx, llm.ChatRequest{
		SystemPrompt: "You are a financial analyst. Answer with a single JSON object and nothing else.",
		Messages:     []llm.Message{{Role: "user", Content: prompt}},
		MaxTokens:    256,
		Temperature:  0.2,
		JSONMode:     true,
	})
	if err != nil {
		return 0, 0, core.WrapError(core.ErrLLMFailed, err)
	}

	var est llmEstimate
	content := strings.TrimSpace(resp.Content)
	if err := json.Unmarshal([]byte(content), &est); err != nil {
		return 0, 0, core.WrapError(core.ErrLLMFailed,
			fmt.Errorf("unparseable response %q: %w", content, err))
	}
	if est.Price <= 0 {
		return 0, 0, core.WrapError(core.ErrLLMFailed,
			fmt.Errorf("non-positive price %f", est.Price))
	}
	if est.Confidence < 0 || est.Confidence > 1 {
		est.Confidence = 0.5
	}
	return est.Price, est.Confidence, nil
}
