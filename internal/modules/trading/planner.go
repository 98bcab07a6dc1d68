package trading

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pipeit/factora/internal/clients/tokenmetrics"
	"github.com/pipeit/factora/internal/domain"
	"github.com/pipeit/factora/internal/events"
	"github.com/pipeit/factora/internal/modules/scoring"
)

// MarketFeed supplies market sentiment and per-instrument metrics.
type MarketFeed interface {
	GetMarketSentiment(ctx context.Context) (domain.SentimentSnapshot, error)
	GetTokenMetrics(ctx context.Context, symbol string) (*tokenmetrics.TokenMetrics, error)
}

// Advisor produces an optional free-text narrative for a freshly built plan.
type Advisor interface {
	DraftPlan(ctx context.Context, plan *TradingPlan) (string, error)
}

// ServiceConfig carries the deployment identity stamped into executions and
// the candidate universe scanned when planning.
type ServiceConfig struct {
	CandidateSymbols []string
	WalletAddress    string
	ChainNetwork     string
}

// Service runs the idle-funds pipeline: score candidates, allocate the top
// of the ranking, synthesize trade parameters, persist the plan, and later
// simulate its execution and position lifecycle.
type Service struct {
	plans     *PlanRepository
	positions *PositionRepository
	feed      MarketFeed
	scorer    *scoring.Scorer
	allocator *Allocator
	backend   ExecutionBackend
	advisor   Advisor // nil disables drafting
	events    *events.Manager
	cfg       ServiceConfig
	log       zerolog.Logger

	execMu sync.Mutex
	rngMu  sync.Mutex
	rng    *rand.Rand
}

// NewService creates a new trading service
func NewService(
	plans *PlanRepository,
	positions *PositionRepository,
	feed MarketFeed,
	scorer *scoring.Scorer,
	allocator *Allocator,
	backend ExecutionBackend,
	advisor Advisor,
	eventManager *events.Manager,
	cfg ServiceConfig,
	log zerolog.Logger,
) *Service {
	return &Service{
		plans:     plans,
		positions: positions,
		feed:      feed,
		scorer:    scorer,
		allocator: allocator,
		backend:   backend,
		advisor:   advisor,
		events:    eventManager,
		cfg:       cfg,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		log:       log.With().Str("service", "trading").Logger(),
	}
}

// GeneratePlan builds and stores a deployment plan for the given amount of
// idle funds. Feed failures never abort planning: sentiment degrades to a
// neutral snapshot and per-symbol metric failures substitute deterministic
// synthetic data.
func (s *Service) GeneratePlan(ctx context.Context, idleFunds float64) (*TradingPlan, error) {
	if idleFunds <= 0 {
		return nil, fmt.Errorf("%w: idle funds amount must be positive", domain.ErrValidation)
	}

	sentiment, err := s.feed.GetMarketSentiment(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("Market sentiment unavailable, planning with neutral default")
		s.events.Emit(events.FeedDegraded, "trading", map[string]interface{}{
			"scope": "market_sentiment",
			"error": err.Error(),
		})
		sentiment = domain.NeutralSentiment(time.Now().UTC().Format("2006-01-02"))
	}

	metrics := make([]*tokenmetrics.TokenMetrics, 0, len(s.cfg.CandidateSymbols))
	for _, symbol := range s.cfg.CandidateSymbols {
		m, err := s.feed.GetTokenMetrics(ctx, symbol)
		if err != nil {
			s.log.Warn().Err(err).Str("symbol", symbol).Msg("Token metrics unavailable, substituting synthetic data")
			s.events.Emit(events.FeedDegraded, "trading", map[string]interface{}{
				"scope":  "token_metrics",
				"symbol": symbol,
				"error":  err.Error(),
			})
			m = tokenmetrics.Synthetic(symbol)
		}
		metrics = append(metrics, m)
	}

	ranked := s.scorer.Rank(metrics, sentiment)

	allocations, err := s.allocator.Allocate(ranked, idleFunds)
	if err != nil {
		return nil, err
	}

	// Allocations come out index-aligned with the head of the ranking.
	parameters := make([]TradingParameters, 0, len(allocations))
	for i := range allocations {
		parameters = append(parameters, SynthesizeParameters(ranked[i]))
	}

	plan := &TradingPlan{
		PlanID:          uuid.NewString(),
		CreatedAt:       time.Now().UTC(),
		IdleFundsAmount: idleFunds,
		Sentiment:       sentiment,
		Allocations:     allocations,
		Parameters:      parameters,
	}

	if s.advisor != nil {
		draft, err := s.advisor.DraftPlan(ctx, plan)
		if err != nil {
			s.log.Warn().Err(err).Str("plan_id", plan.PlanID).Msg("Plan drafting unavailable, proceeding without narrative")
		} else {
			plan.DraftText = draft
			parsed := ParseDraft(draft)
			plan.ParsedDraft = &parsed
		}
	}

	if err := s.plans.Create(plan); err != nil {
		return nil, err
	}

	s.events.Emit(events.PlanGenerated, "trading", map[string]interface{}{
		"plan_id":     plan.PlanID,
		"idle_funds":  idleFunds,
		"allocations": len(allocations),
		"sentiment":   sentiment.Label,
	})

	return plan, nil
}

// GetPlan returns one plan by id.
func (s *Service) GetPlan(planID string) (*TradingPlan, error) {
	return s.plans.Get(planID)
}

// ListPlans returns all plans, newest first.
func (s *Service) ListPlans() ([]TradingPlan, error) {
	return s.plans.List()
}

// marketPrice fetches the current price for a symbol, degrading to the
// deterministic synthetic price when the feed fails.
func (s *Service) marketPrice(ctx context.Context, symbol string) float64 {
	m, err := s.feed.GetTokenMetrics(ctx, symbol)
	if err != nil {
		m = tokenmetrics.Synthetic(symbol)
	}
	return m.CurrentPrice
}
