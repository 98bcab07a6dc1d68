package rates

import (
	"time"

	"github.com/pipeit/factora/internal/domain"
)

// Range is an inclusive percentage band.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Recommendation is the factoring rate guidance derived from market
// sentiment. Status reports feed health: when the feed is down the
// recommendation carries safe defaults with Status "error" instead of
// failing, so callers must check Status rather than rely on an error return.
type Recommendation struct {
	Status       string                    `json:"status"` // "success" or "error"
	Message      string                    `json:"message,omitempty"`
	FeeRangePct  Range                     `json:"fee_range_pct"`
	AdvanceRange Range                     `json:"advance_range_pct"`
	Sentiment    *domain.SentimentSnapshot `json:"sentiment,omitempty"`
	GeneratedAt  time.Time                 `json:"generated_at"`
}

// Default bands used when the sentiment feed is unavailable.
var (
	DefaultFeeRange     = Range{Min: 2.5, Max: 4.5}
	DefaultAdvanceRange = Range{Min: 65, Max: 80}
)
