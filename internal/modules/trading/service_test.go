package trading

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipeit/factora/internal/clients/tokenmetrics"
	"github.com/pipeit/factora/internal/database"
	"github.com/pipeit/factora/internal/domain"
	"github.com/pipeit/factora/internal/events"
	"github.com/pipeit/factora/internal/modules/scoring"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, InitPlansSchema(db.Conn()))
	require.NoError(t, InitPositionsSchema(db.Conn()))

	return db.Conn()
}

// MockMarketFeed for testing
type MockMarketFeed struct {
	grades        map[string]float64
	prices        map[string]float64
	sentimentDown bool
	metricsDown   bool
}

func (m *MockMarketFeed) GetMarketSentiment(ctx context.Context) (domain.SentimentSnapshot, error) {
	if m.sentimentDown {
		return domain.SentimentSnapshot{}, fmt.Errorf("%w: mock sentiment error", domain.ErrUpstreamUnavailable)
	}
	return domain.SentimentSnapshot{Grade: 50, Label: "neutral", LastSignal: 0, AsOf: "2026-01-15"}, nil
}

func (m *MockMarketFeed) GetTokenMetrics(ctx context.Context, symbol string) (*tokenmetrics.TokenMetrics, error) {
	if m.metricsDown {
		return nil, fmt.Errorf("%w: mock metrics error", domain.ErrUpstreamUnavailable)
	}
	price, ok := m.prices[symbol]
	if !ok {
		price = 100
	}
	return &tokenmetrics.TokenMetrics{
		Symbol:       symbol,
		TraderGrade:  m.grades[symbol],
		CurrentPrice: price,
	}, nil
}

func newTestService(t *testing.T, feed MarketFeed) *Service {
	t.Helper()
	return newTestServiceWithAdvisor(t, feed, nil)
}

func newTestServiceWithAdvisor(t *testing.T, feed MarketFeed, advisor Advisor) *Service {
	t.Helper()

	db := setupTestDB(t)
	log := zerolog.Nop()

	scorer := scoring.NewScorer(scoring.NewSentimentStrategy(scoring.DefaultSentimentWeights), log)

	return NewService(
		NewPlanRepository(db, log),
		NewPositionRepository(db, log),
		feed,
		scorer,
		NewAllocator(3),
		NewSimulatedBackend(),
		advisor,
		events.NewManager(log),
		ServiceConfig{
			CandidateSymbols: []string{"ETH", "BTC", "LINK"},
			WalletAddress:    "0xtest",
			ChainNetwork:     "base-sepolia",
		},
		log,
	)
}

func defaultFeed() *MockMarketFeed {
	return &MockMarketFeed{
		grades: map[string]float64{"ETH": 90, "BTC": 60, "LINK": 30},
		prices: map[string]float64{"ETH": 2000, "BTC": 40000, "LINK": 15},
	}
}

func TestGeneratePlan(t *testing.T) {
	service := newTestService(t, defaultFeed())

	plan, err := service.GeneratePlan(context.Background(), 1.0)
	require.NoError(t, err)

	assert.NotEmpty(t, plan.PlanID)
	assert.False(t, plan.Executed)
	assert.Equal(t, 1.0, plan.IdleFundsAmount)
	require.Len(t, plan.Allocations, 3)
	require.Len(t, plan.Parameters, 3)

	// Allocations and parameters line up symbol by symbol.
	for i := range plan.Allocations {
		assert.Equal(t, plan.Allocations[i].Symbol, plan.Parameters[i].Symbol)
	}

	sum := 0.0
	for _, alloc := range plan.Allocations {
		sum += alloc.Weight
	}
	assert.InDelta(t, 1.0, sum, 1e-6)

	// Persisted and retrievable.
	stored, err := service.GetPlan(plan.PlanID)
	require.NoError(t, err)
	assert.Equal(t, plan.PlanID, stored.PlanID)
	assert.Len(t, stored.Allocations, 3)
}

func TestGeneratePlan_Validation(t *testing.T) {
	service := newTestService(t, defaultFeed())

	_, err := service.GeneratePlan(context.Background(), 0)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = service.GeneratePlan(context.Background(), -1)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

// A dead feed never aborts planning: sentiment falls back to neutral and
// every symbol gets deterministic synthetic metrics.
func TestGeneratePlan_FeedDown(t *testing.T) {
	service := newTestService(t, &MockMarketFeed{sentimentDown: true, metricsDown: true})

	plan, err := service.GeneratePlan(context.Background(), 1.0)
	require.NoError(t, err)

	assert.Equal(t, "neutral", plan.Sentiment.Label)
	assert.Equal(t, 50.0, plan.Sentiment.Grade)
	require.Len(t, plan.Allocations, 3)

	// Synthetic data is seeded by symbol, so a second plan ranks identically.
	again, err := service.GeneratePlan(context.Background(), 1.0)
	require.NoError(t, err)
	for i := range plan.Allocations {
		assert.Equal(t, plan.Allocations[i].Symbol, again.Allocations[i].Symbol)
		assert.InDelta(t, plan.Allocations[i].Weight, again.Allocations[i].Weight, 1e-9)
	}
}

func TestExecutePlan(t *testing.T) {
	service := newTestService(t, defaultFeed())

	plan, err := service.GeneratePlan(context.Background(), 1.0)
	require.NoError(t, err)

	executed, err := service.ExecutePlan(context.Background(), plan.PlanID)
	require.NoError(t, err)

	assert.True(t, executed.Executed)
	require.NotNil(t, executed.ExecutionDetails)
	assert.Equal(t, "0xtest", executed.ExecutionDetails.WalletAddress)
	assert.Equal(t, "base-sepolia", executed.ExecutionDetails.Network)
	require.Len(t, executed.ExecutionDetails.Trades, 3)

	for _, trade := range executed.ExecutionDetails.Trades {
		assert.Contains(t, trade.TxHash, "0x")
		assert.Equal(t, "filled", trade.Status)
		assert.Greater(t, trade.TokenAmount, 0.0)
	}

	positions, err := service.ActivePositions()
	require.NoError(t, err)
	assert.Len(t, positions, 3)
}

// Scenario: the second execute returns the stored details and opens no
// further positions.
func TestExecutePlan_Idempotent(t *testing.T) {
	service := newTestService(t, defaultFeed())

	plan, err := service.GeneratePlan(context.Background(), 1.0)
	require.NoError(t, err)

	first, err := service.ExecutePlan(context.Background(), plan.PlanID)
	require.NoError(t, err)

	second, err := service.ExecutePlan(context.Background(), plan.PlanID)
	require.NoError(t, err)

	assert.Equal(t, first.ExecutionDetails.Timestamp, second.ExecutionDetails.Timestamp)
	require.Len(t, second.ExecutionDetails.Trades, 3)
	for i, trade := range first.ExecutionDetails.Trades {
		assert.Equal(t, trade.TxHash, second.ExecutionDetails.Trades[i].TxHash)
	}

	positions, err := service.ActivePositions()
	require.NoError(t, err)
	assert.Len(t, positions, 3)
}

func TestExecutePlan_NotFound(t *testing.T) {
	service := newTestService(t, defaultFeed())

	_, err := service.ExecutePlan(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func executeOnePosition(t *testing.T, service *Service) Position {
	t.Helper()

	plan, err := service.GeneratePlan(context.Background(), 1.0)
	require.NoError(t, err)
	_, err = service.ExecutePlan(context.Background(), plan.PlanID)
	require.NoError(t, err)

	positions, err := service.ActivePositions()
	require.NoError(t, err)
	require.NotEmpty(t, positions)
	return positions[0]
}

func TestUpdatePosition(t *testing.T) {
	service := newTestService(t, defaultFeed())
	pos := executeOnePosition(t, service)

	newPrice := pos.EntryPrice * 1.10
	updated, err := service.UpdatePosition(context.Background(), pos.PositionID, &newPrice)
	require.NoError(t, err)

	assert.InDelta(t, 10.0, updated.ProfitLossPct, 0.001)
	assert.InDelta(t, pos.EthAmount*0.10, updated.ProfitLoss, 0.001)
	assert.Equal(t, newPrice, updated.CurrentPrice)

	stored, err := service.positions.Get(pos.PositionID)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, stored.ProfitLossPct, 0.001)
}

func TestUpdatePosition_NotFound(t *testing.T) {
	service := newTestService(t, defaultFeed())

	price := 100.0
	_, err := service.UpdatePosition(context.Background(), "missing", &price)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestClosePosition_ExplicitExit(t *testing.T) {
	service := newTestService(t, defaultFeed())
	pos := executeOnePosition(t, service)

	exitPrice := pos.EntryPrice * 1.05
	closed, err := service.ClosePosition(context.Background(), pos.PositionID, &exitPrice)
	require.NoError(t, err)

	assert.Equal(t, PositionStatusClosed, closed.Status)
	require.NotNil(t, closed.ExitPrice)
	assert.Equal(t, exitPrice, *closed.ExitPrice)
	assert.NotNil(t, closed.CloseTime)
	assert.InDelta(t, 5.0, closed.ProfitLossPct, 0.001)

	// Out of the active set, into history.
	active, err := service.ActivePositions()
	require.NoError(t, err)
	for _, p := range active {
		assert.NotEqual(t, pos.PositionID, p.PositionID)
	}

	history, err := service.History()
	require.NoError(t, err)
	found := false
	for _, p := range history {
		if p.PositionID == pos.PositionID {
			found = true
		}
	}
	assert.True(t, found)
}

func TestClosePosition_SynthesizedExit(t *testing.T) {
	service := newTestService(t, defaultFeed())
	pos := executeOnePosition(t, service)

	closed, err := service.ClosePosition(context.Background(), pos.PositionID, nil)
	require.NoError(t, err)

	// Synthesized exit stays within the -2%..+4% envelope of the last mark.
	require.NotNil(t, closed.ExitPrice)
	assert.GreaterOrEqual(t, *closed.ExitPrice, pos.CurrentPrice*0.98)
	assert.LessOrEqual(t, *closed.ExitPrice, pos.CurrentPrice*1.04)
}

func TestClosePosition_AlreadyClosed(t *testing.T) {
	service := newTestService(t, defaultFeed())
	pos := executeOnePosition(t, service)

	_, err := service.ClosePosition(context.Background(), pos.PositionID, nil)
	require.NoError(t, err)

	_, err = service.ClosePosition(context.Background(), pos.PositionID, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestPerformance(t *testing.T) {
	service := newTestService(t, defaultFeed())

	plan, err := service.GeneratePlan(context.Background(), 1.0)
	require.NoError(t, err)
	_, err = service.ExecutePlan(context.Background(), plan.PlanID)
	require.NoError(t, err)

	positions, err := service.ActivePositions()
	require.NoError(t, err)
	require.Len(t, positions, 3)

	// One winner, one loser, one left open.
	win := positions[0].EntryPrice * 1.10
	_, err = service.ClosePosition(context.Background(), positions[0].PositionID, &win)
	require.NoError(t, err)

	loss := positions[1].EntryPrice * 0.95
	_, err = service.ClosePosition(context.Background(), positions[1].PositionID, &loss)
	require.NoError(t, err)

	report, err := service.Performance()
	require.NoError(t, err)

	assert.Equal(t, 2, report.TotalTrades)
	assert.Equal(t, 1, report.Wins)
	assert.Equal(t, 1, report.Losses)
	assert.InDelta(t, 0.5, report.WinRate, 0.001)
	assert.Equal(t, 1, report.OpenPositions)
	assert.InDelta(t, 2.5, report.AvgReturnPct, 0.001) // mean of +10 and -5
	// StdDev of {+0.10, -0.05} annualized over 365 daily observations.
	assert.InDelta(t, 0.10606602*math.Sqrt(365)*100, report.AnnualizedVolPct, 0.01)
	assert.NotNil(t, report.MaxDrawdown)
}

func TestPerformance_Empty(t *testing.T) {
	service := newTestService(t, defaultFeed())

	report, err := service.Performance()
	require.NoError(t, err)

	assert.Equal(t, 0, report.TotalTrades)
	assert.Equal(t, 0.0, report.WinRate)
	assert.Equal(t, 0.0, report.AnnualizedVolPct)
	assert.Nil(t, report.SharpeRatio)
	assert.Nil(t, report.MaxDrawdown)
}

type stubAdvisor struct {
	draft string
	err   error
}

func (a *stubAdvisor) DraftPlan(ctx context.Context, plan *TradingPlan) (string, error) {
	return a.draft, a.err
}

func TestGeneratePlan_DraftParsedAndPersisted(t *testing.T) {
	advisor := &stubAdvisor{draft: `1. ETH/USDC
Stop loss at 1900
Exit point: 2060
Hold for 24 hours

2. BTC/USDC
Stop loss at 38000
Take profit at 41200
Hold duration: 2 days`}
	service := newTestServiceWithAdvisor(t, defaultFeed(), advisor)

	plan, err := service.GeneratePlan(context.Background(), 1.0)
	require.NoError(t, err)

	assert.Equal(t, advisor.draft, plan.DraftText)
	require.NotNil(t, plan.ParsedDraft)
	assert.Equal(t, []string{"ETH/USDC", "BTC/USDC"}, plan.ParsedDraft.TradingPairs)
	assert.Equal(t, "Stop loss at 1900", plan.ParsedDraft.StopLosses["ETH/USDC"])
	assert.Equal(t, "Take profit at 41200", plan.ParsedDraft.ExitPoints["BTC/USDC"])
	assert.Equal(t, "Hold duration: 2 days", plan.ParsedDraft.HoldDurations["BTC/USDC"])

	// The parsed structure survives a round trip through the ledger.
	stored, err := service.GetPlan(plan.PlanID)
	require.NoError(t, err)
	require.NotNil(t, stored.ParsedDraft)
	assert.Equal(t, plan.ParsedDraft, stored.ParsedDraft)
}

func TestGeneratePlan_DraftUnavailable(t *testing.T) {
	advisor := &stubAdvisor{err: fmt.Errorf("%w: model offline", domain.ErrUpstreamUnavailable)}
	service := newTestServiceWithAdvisor(t, defaultFeed(), advisor)

	plan, err := service.GeneratePlan(context.Background(), 1.0)
	require.NoError(t, err)

	assert.Empty(t, plan.DraftText)
	assert.Nil(t, plan.ParsedDraft)
}
