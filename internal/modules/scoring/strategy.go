package scoring

import (
	"sort"

	"github.com/rs/zerolog"

	"github.com/pipeit/factora/internal/clients/tokenmetrics"
	"github.com/pipeit/factora/internal/domain"
)

// Strategy computes a composite desirability score for one instrument given
// its metrics and the overall market sentiment. Two implementations exist:
// the sentiment-weighted blend and the technical-indicator blend. The scoring
// coefficients come from configuration so either behavior is reachable
// without code changes.
type Strategy interface {
	Name() string
	Score(metrics *tokenmetrics.TokenMetrics, sentiment domain.SentimentSnapshot) float64
}

// Scorer ranks candidate instruments with the configured strategy.
type Scorer struct {
	strategy Strategy
	log      zerolog.Logger
}

// NewScorer creates a new instrument scorer
func NewScorer(strategy Strategy, log zerolog.Logger) *Scorer {
	return &Scorer{
		strategy: strategy,
		log:      log.With().Str("service", "scoring").Str("strategy", strategy.Name()).Logger(),
	}
}

// Rank scores every instrument and returns them sorted by score descending.
// Ties break on symbol lexical order so planning output is deterministic.
func (s *Scorer) Rank(metrics []*tokenmetrics.TokenMetrics, sentiment domain.SentimentSnapshot) []ScoredInstrument {
	scored := make([]ScoredInstrument, 0, len(metrics))

	for _, m := range metrics {
		score := s.strategy.Score(m, sentiment)

		scored = append(scored, ScoredInstrument{
			Symbol:         m.Symbol,
			Score:          score,
			TraderGrade:    m.TraderGrade,
			TAGrade:        m.TAGrade,
			SignalStrength: m.SignalStrength,
			BullBearRatio:  BullBearRatio(m.BullishCount, m.BearishCount),
			GradeTrend:     m.GradeTrend(),
			CurrentPrice:   m.CurrentPrice,
			IsSynthetic:    m.Synthetic,
		})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Symbol < scored[j].Symbol
	})

	for _, inst := range scored {
		s.log.Debug().
			Str("symbol", inst.Symbol).
			Float64("score", inst.Score).
			Bool("synthetic", inst.IsSynthetic).
			Msg("Instrument scored")
	}

	return scored
}

// BullBearRatio is the share of bullish indicators among all directional
// indicators, defaulting to 0.5 when there are none.
func BullBearRatio(bullish, bearish int) float64 {
	total := bullish + bearish
	if total == 0 {
		return 0.5
	}
	return float64(bullish) / float64(total)
}
