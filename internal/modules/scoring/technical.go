package scoring

import (
	"math"

	"github.com/pipeit/factora/internal/clients/tokenmetrics"
	"github.com/pipeit/factora/internal/domain"
	"github.com/pipeit/factora/pkg/formulas"
)

// TechnicalStrategy is the stricter indicator-driven blend:
//
//	score = traderGrade×0.4 + tmSignal×0.3 + emaCrossover×0.2 + rsiCenter×0.1
//
// where tmSignal and the EMA(20)-over-EMA(50) crossover are ±1 signals
// normalized to 0-100, and rsiCenter rewards RSI(14) closeness to 50
// (ranging markets with room to move either way).
type TechnicalStrategy struct{}

// NewTechnicalStrategy creates the technical-indicator scoring strategy
func NewTechnicalStrategy() *TechnicalStrategy {
	return &TechnicalStrategy{}
}

// Name implements Strategy
func (s *TechnicalStrategy) Name() string { return "technical" }

// Score implements Strategy. Market sentiment is intentionally not a factor
// here; the indicator terms already encode direction.
func (s *TechnicalStrategy) Score(m *tokenmetrics.TokenMetrics, _ domain.SentimentSnapshot) float64 {
	tmTerm := normalizeSignal(m.TMSignal)
	emaTerm := normalizeSignal(formulas.EMACrossoverSignal(m.Closes, 20, 50))

	rsiTerm := 50.0
	if rsi := formulas.CalculateRSI(m.Closes, 14); rsi != nil {
		rsiTerm = 100 - math.Abs(*rsi-50)*2
		if rsiTerm < 0 {
			rsiTerm = 0
		}
	}

	return m.TraderGrade*0.4 + tmTerm*0.3 + emaTerm*0.2 + rsiTerm*0.1
}

// normalizeSignal maps a -1/0/1 signal onto 0/50/100
func normalizeSignal(signal int) float64 {
	return (float64(signal) + 1) / 2 * 100
}
