package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/pipeit/factora/internal/modules/trading"
)

// PositionRefreshJob re-marks all active positions from the market feed so
// unrealized P/L stays current between user-initiated updates.
type PositionRefreshJob struct {
	trading *trading.Service
	timeout time.Duration
	log     zerolog.Logger
}

// NewPositionRefreshJob creates a new position refresh job
func NewPositionRefreshJob(tradingService *trading.Service, log zerolog.Logger) *PositionRefreshJob {
	return &PositionRefreshJob{
		trading: tradingService,
		timeout: 2 * time.Minute,
		log:     log.With().Str("job", "position_refresh").Logger(),
	}
}

// Name returns the job name
func (j *PositionRefreshJob) Name() string {
	return "position_refresh"
}

// Run refreshes every active position once
func (j *PositionRefreshJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	return j.trading.RefreshPositions(ctx)
}
