package scoring

import (
	"github.com/pipeit/factora/internal/clients/tokenmetrics"
	"github.com/pipeit/factora/internal/domain"
)

// SentimentWeights are the blend coefficients for the sentiment strategy.
type SentimentWeights struct {
	TraderGrade float64
	TAGrade     float64
	Signal      float64
	BullBear    float64
}

// DefaultSentimentWeights is the canonical blend.
var DefaultSentimentWeights = SentimentWeights{
	TraderGrade: 0.35,
	TAGrade:     0.25,
	Signal:      0.20,
	BullBear:    0.20,
}

// SentimentStrategy blends the instrument's grades with analyst bull/bear
// balance, then scales the result by overall market mood:
//
//	base  = traderGrade×wT + taGrade×wA + signalStrength×100×wS + bullBearRatio×100×wB
//	score = base × (0.8 + (sentimentGrade/50)×0.2)
//	if the market has a direction, score ×= 1 + alignment×0.1
//	  where alignment = bullBearRatio when bullish, 1−bullBearRatio when bearish
type SentimentStrategy struct {
	weights SentimentWeights
}

// NewSentimentStrategy creates the sentiment-weighted scoring strategy
func NewSentimentStrategy(weights SentimentWeights) *SentimentStrategy {
	return &SentimentStrategy{weights: weights}
}

// Name implements Strategy
func (s *SentimentStrategy) Name() string { return "sentiment" }

// Score implements Strategy
func (s *SentimentStrategy) Score(m *tokenmetrics.TokenMetrics, sentiment domain.SentimentSnapshot) float64 {
	bullBear := BullBearRatio(m.BullishCount, m.BearishCount)

	base := m.TraderGrade*s.weights.TraderGrade +
		m.TAGrade*s.weights.TAGrade +
		m.SignalStrength*100*s.weights.Signal +
		bullBear*100*s.weights.BullBear

	score := base * (0.8 + (sentiment.Grade/50)*0.2)

	if sentiment.LastSignal != 0 {
		alignment := bullBear
		if sentiment.Bearish() {
			alignment = 1 - bullBear
		}
		score *= 1 + alignment*0.1
	}

	return score
}
