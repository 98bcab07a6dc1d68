package rates

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/pipeit/factora/internal/domain"
)

// SentimentFeed supplies the market sentiment snapshot the recommender maps
// onto rate bands.
type SentimentFeed interface {
	GetMarketSentiment(ctx context.Context) (domain.SentimentSnapshot, error)
}

// Service maps market sentiment onto factoring fee and advance bands.
// Higher sentiment means lower fees and higher advances, both better for the
// invoice seller.
type Service struct {
	feed SentimentFeed
	log  zerolog.Logger
}

// NewService creates a new rate recommendation service
func NewService(feed SentimentFeed, log zerolog.Logger) *Service {
	return &Service{
		feed: feed,
		log:  log.With().Str("service", "rates").Logger(),
	}
}

// Recommend fetches a fresh sentiment snapshot and derives the rate bands.
// A feed failure yields the default bands with Status "error"; this is the
// financial default-safety path and never returns a Go error.
func (s *Service) Recommend(ctx context.Context) Recommendation {
	sentiment, err := s.feed.GetMarketSentiment(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("Sentiment feed unavailable, recommending default rates")
		return Recommendation{
			Status:       "error",
			Message:      "failed to get market sentiment",
			FeeRangePct:  DefaultFeeRange,
			AdvanceRange: DefaultAdvanceRange,
			GeneratedAt:  time.Now(),
		}
	}

	fee, advance := BandsForGrade(sentiment.Grade)

	return Recommendation{
		Status:       "success",
		FeeRangePct:  fee,
		AdvanceRange: advance,
		Sentiment:    &sentiment,
		GeneratedAt:  time.Now(),
	}
}

// BandsForGrade is the fixed threshold-band lookup from sentiment grade to
// fee and advance ranges.
//
//	grade > 70: fee 2.0-3.5, advance 75-90
//	grade > 50: fee 2.5-4.0, advance 70-85
//	grade > 30: fee 3.0-4.5, advance 65-80
//	otherwise:  fee 3.5-5.0, advance 55-70
func BandsForGrade(grade float64) (fee Range, advance Range) {
	switch {
	case grade > 70:
		return Range{Min: 2.0, Max: 3.5}, Range{Min: 75, Max: 90}
	case grade > 50:
		return Range{Min: 2.5, Max: 4.0}, Range{Min: 70, Max: 85}
	case grade > 30:
		return Range{Min: 3.0, Max: 4.5}, Range{Min: 65, Max: 80}
	default:
		return Range{Min: 3.5, Max: 5.0}, Range{Min: 55, Max: 70}
	}
}
