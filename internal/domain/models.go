package domain

// SentimentSnapshot is a point-in-time read of overall market mood.
// Produced by the market signal feed, consumed read-only by the rate
// recommender and the instrument scorer. A fresh snapshot is fetched per
// recommendation/scoring cycle; snapshots are never mutated.
type SentimentSnapshot struct {
	Grade      float64 `json:"grade"`       // 0-100
	Label      string  `json:"label"`       // "negative", "neutral", "positive", ...
	LastSignal int     `json:"last_signal"` // -1 bearish, 0 neutral, 1 bullish
	AsOf       string  `json:"as_of"`       // data date (YYYY-MM-DD)
}

// NeutralSentiment is the default snapshot used when the feed is unavailable.
func NeutralSentiment(asOf string) SentimentSnapshot {
	return SentimentSnapshot{
		Grade:      50,
		Label:      "neutral",
		LastSignal: 0,
		AsOf:       asOf,
	}
}

// Direction classifies the snapshot's last signal.
func (s SentimentSnapshot) Bullish() bool { return s.LastSignal > 0 }
func (s SentimentSnapshot) Bearish() bool { return s.LastSignal < 0 }
