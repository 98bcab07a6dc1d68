package trading

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pipeit/factora/internal/domain"
	"github.com/pipeit/factora/internal/events"
)

// ExecutionBackend turns one allocation into a trade record. The only
// implementation routes nothing anywhere; a real venue adapter would satisfy
// the same interface.
type ExecutionBackend interface {
	SubmitTrade(symbol string, ethAmount, entryPrice float64) (TradeRecord, error)
}

// SimulatedBackend fabricates fills with pseudo-random transaction hashes.
type SimulatedBackend struct{}

// NewSimulatedBackend creates a new simulated execution backend
func NewSimulatedBackend() *SimulatedBackend {
	return &SimulatedBackend{}
}

// SubmitTrade produces a simulated fill. A zero entry price yields a zero
// token amount and the trade is flagged degenerate instead of dividing by
// zero.
func (b *SimulatedBackend) SubmitTrade(symbol string, ethAmount, entryPrice float64) (TradeRecord, error) {
	tokenAmount := 0.0
	status := "filled"
	if entryPrice > 0 {
		tokenAmount = ethAmount / entryPrice
	} else {
		status = "degenerate"
	}

	return TradeRecord{
		Symbol:      symbol,
		TxHash:      syntheticTxHash(),
		EthAmount:   ethAmount,
		TokenAmount: tokenAmount,
		EntryPrice:  entryPrice,
		Status:      status,
		EntryTime:   time.Now().UTC(),
	}, nil
}

// syntheticTxHash fakes a 32-byte transaction hash from two uuids.
func syntheticTxHash() string {
	hex := strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
	return "0x" + hex
}

// ExecutePlan opens positions for every allocation in the plan. Executing a
// plan twice is a no-op for the second caller: the stored execution details
// are returned unchanged and no new positions open. The mutex serializes
// racing callers; the conditional UPDATE in the plan ledger is the real
// at-most-once guarantee.
func (s *Service) ExecutePlan(ctx context.Context, planID string) (*TradingPlan, error) {
	s.execMu.Lock()
	defer s.execMu.Unlock()

	plan, err := s.plans.Get(planID)
	if err != nil {
		return nil, err
	}
	if plan.Executed {
		s.log.Debug().Str("plan_id", planID).Msg("Plan already executed, returning stored details")
		return plan, nil
	}

	trades := make([]TradeRecord, 0, len(plan.Allocations))
	opened := make([]Position, 0, len(plan.Allocations))

	for i, alloc := range plan.Allocations {
		params := plan.Parameters[i]

		trade, err := s.backend.SubmitTrade(alloc.Symbol, alloc.Amount, params.EntryPrice)
		if err != nil {
			return nil, fmt.Errorf("failed to submit trade for %s: %w", alloc.Symbol, err)
		}
		trades = append(trades, trade)

		opened = append(opened, Position{
			PositionID:        uuid.NewString(),
			PlanID:            plan.PlanID,
			Symbol:            alloc.Symbol,
			EntryTime:         trade.EntryTime,
			TokenAmount:       trade.TokenAmount,
			EthAmount:         alloc.Amount,
			EntryPrice:        params.EntryPrice,
			ExitTarget:        params.ExitPrice,
			StopLoss:          params.StopLoss,
			ExpectedProfitPct: params.ExpectedProfitPct,
			Status:            PositionStatusActive,
			CurrentPrice:      params.EntryPrice,
		})
	}

	details := &ExecutionDetails{
		Timestamp:     time.Now().UTC(),
		WalletAddress: s.cfg.WalletAddress,
		Network:       s.cfg.ChainNetwork,
		Trades:        trades,
	}

	claimed, err := s.plans.MarkExecuted(planID, details, opened)
	if err != nil {
		return nil, err
	}
	if !claimed {
		// Lost the claim to a concurrent caller; their details stand.
		return s.plans.Get(planID)
	}

	s.events.Emit(events.PlanExecuted, "trading", map[string]interface{}{
		"plan_id":   planID,
		"trades":    len(trades),
		"positions": len(opened),
	})

	s.log.Info().
		Str("plan_id", planID).
		Int("positions", len(opened)).
		Msg("Plan executed")

	plan.Executed = true
	plan.ExecutionDetails = details
	return plan, nil
}

// UpdatePosition refreshes a position's mark price and unrealized P/L.
// When newPrice is nil the current market price is fetched, falling back to
// deterministic synthetic data if the feed is down.
func (s *Service) UpdatePosition(ctx context.Context, positionID string, newPrice *float64) (*Position, error) {
	pos, err := s.positions.Get(positionID)
	if err != nil {
		return nil, err
	}
	if pos.Status == PositionStatusClosed {
		return nil, fmt.Errorf("%w: position %s is closed", domain.ErrInvalidState, positionID)
	}

	price, err := s.resolvePrice(ctx, pos.Symbol, newPrice)
	if err != nil {
		return nil, err
	}

	profitLoss, profitLossPct := computePL(pos.EntryPrice, pos.EthAmount, price)

	if err := s.positions.UpdatePrice(positionID, price, profitLoss, profitLossPct); err != nil {
		return nil, err
	}

	s.events.Emit(events.PositionUpdated, "trading", map[string]interface{}{
		"position_id": positionID,
		"symbol":      pos.Symbol,
		"price":       price,
		"pl_pct":      profitLossPct,
	})

	pos.CurrentPrice = price
	pos.ProfitLoss = profitLoss
	pos.ProfitLossPct = profitLossPct
	return pos, nil
}

// ClosePosition finalizes a position. When exitPrice is nil one is
// synthesized off the last mark (entry price when never marked) with a mild
// upward bias, mirroring the simulated fills.
func (s *Service) ClosePosition(ctx context.Context, positionID string, exitPrice *float64) (*Position, error) {
	pos, err := s.positions.Get(positionID)
	if err != nil {
		return nil, err
	}
	if pos.Status == PositionStatusClosed {
		return nil, fmt.Errorf("%w: position %s already closed", domain.ErrInvalidState, positionID)
	}

	var price float64
	switch {
	case exitPrice != nil && *exitPrice > 0:
		price = *exitPrice
	case exitPrice != nil:
		return nil, fmt.Errorf("%w: exit price must be positive", domain.ErrValidation)
	default:
		base := pos.CurrentPrice
		if base <= 0 {
			base = pos.EntryPrice
		}
		price = base * (1 + s.uniform(-0.02, 0.04))
	}

	profitLoss, profitLossPct := computePL(pos.EntryPrice, pos.EthAmount, price)
	closeTime := time.Now().UTC()

	if err := s.positions.Close(positionID, price, profitLoss, profitLossPct, closeTime); err != nil {
		return nil, err
	}

	s.events.Emit(events.PositionClosed, "trading", map[string]interface{}{
		"position_id": positionID,
		"symbol":      pos.Symbol,
		"exit_price":  price,
		"pl_pct":      profitLossPct,
	})

	pos.Status = PositionStatusClosed
	pos.CurrentPrice = price
	pos.ExitPrice = &price
	pos.ProfitLoss = profitLoss
	pos.ProfitLossPct = profitLossPct
	pos.CloseTime = &closeTime
	return pos, nil
}

// ActivePositions lists open positions.
func (s *Service) ActivePositions() ([]Position, error) {
	return s.positions.ListActive()
}

// History lists closed positions, newest first.
func (s *Service) History() ([]Position, error) {
	return s.positions.ListClosed()
}

// RefreshPositions re-marks every active position from the market feed.
// Per-position failures are logged and skipped so one bad symbol does not
// stall the sweep.
func (s *Service) RefreshPositions(ctx context.Context) error {
	active, err := s.positions.ListActive()
	if err != nil {
		return err
	}

	refreshed := 0
	for _, pos := range active {
		if _, err := s.UpdatePosition(ctx, pos.PositionID, nil); err != nil {
			s.log.Warn().Err(err).Str("position_id", pos.PositionID).Msg("Failed to refresh position")
			continue
		}
		refreshed++
	}

	if refreshed > 0 {
		s.events.Emit(events.PositionsRefresh, "trading", map[string]interface{}{
			"refreshed": refreshed,
			"active":    len(active),
		})
	}

	return nil
}

func (s *Service) resolvePrice(ctx context.Context, symbol string, override *float64) (float64, error) {
	if override != nil {
		if *override <= 0 {
			return 0, fmt.Errorf("%w: price must be positive", domain.ErrValidation)
		}
		return *override, nil
	}
	return s.marketPrice(ctx, symbol), nil
}

// computePL derives unrealized or realized P/L from a mark price. A zero
// entry price (degenerate fill) always reports flat.
func computePL(entryPrice, ethAmount, price float64) (profitLoss, profitLossPct float64) {
	if entryPrice <= 0 {
		return 0, 0
	}
	profitLossPct = (price/entryPrice - 1) * 100
	profitLoss = ethAmount * profitLossPct / 100
	return profitLoss, profitLossPct
}

func (s *Service) uniform(min, max float64) float64 {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return min + s.rng.Float64()*(max-min)
}
