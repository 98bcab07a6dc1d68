package tokenmetrics

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/pipeit/factora/internal/domain"
)

// Client is the market signal feed. It wraps the Token Metrics HTTP API with
// a bounded timeout and a single retry; callers that cannot tolerate upstream
// failure fall back to Synthetic() data instead of aborting.
type Client struct {
	client *resty.Client
	log    zerolog.Logger
}

// Config holds client configuration
type Config struct {
	BaseURL string
	APIKey  string
}

// NewClient creates a new Token Metrics client
func NewClient(cfg Config, log zerolog.Logger) *Client {
	client := resty.New()
	client.SetBaseURL(cfg.BaseURL)
	client.SetTimeout(5 * time.Second)
	client.SetRetryCount(1)
	client.SetRetryWaitTime(500 * time.Millisecond)
	if cfg.APIKey != "" {
		client.SetHeader("api_key", cfg.APIKey)
	}
	client.SetHeader("accept", "application/json")

	return &Client{
		client: client,
		log:    log.With().Str("client", "tokenmetrics").Logger(),
	}
}

// GetMarketSentiment fetches the latest market sentiment snapshot. A fresh
// snapshot is fetched per call, never cached.
func (c *Client) GetMarketSentiment(ctx context.Context) (domain.SentimentSnapshot, error) {
	endDate := time.Now().Format("2006-01-02")
	startDate := time.Now().AddDate(0, 0, -7).Format("2006-01-02")

	var result sentimentResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"startDate": startDate,
			"endDate":   endDate,
		}).
		SetResult(&result).
		Get("/market-metrics")

	if err != nil {
		return domain.SentimentSnapshot{}, fmt.Errorf("%w: market sentiment: %v", domain.ErrUpstreamUnavailable, err)
	}
	if resp.IsError() {
		return domain.SentimentSnapshot{}, fmt.Errorf("%w: market sentiment: HTTP %d", domain.ErrUpstreamUnavailable, resp.StatusCode())
	}
	if len(result.Data) == 0 {
		return domain.SentimentSnapshot{}, fmt.Errorf("%w: market sentiment: empty response", domain.ErrUpstreamUnavailable)
	}

	latest := result.Data[len(result.Data)-1]
	snapshot := domain.SentimentSnapshot{
		Grade:      latest.MarketSentimentGrade,
		Label:      latest.MarketSentimentLabel,
		LastSignal: latest.LastTMGradeSignal,
		AsOf:       latest.Date,
	}
	if snapshot.Label == "" {
		snapshot.Label = "neutral"
	}

	return snapshot, nil
}

// GetTokenMetrics fetches grades, signals and recent closes for one symbol.
// Any failure or empty result is reported as ErrUpstreamUnavailable so the
// caller can substitute synthetic data without dropping the symbol.
func (c *Client) GetTokenMetrics(ctx context.Context, symbol string) (*TokenMetrics, error) {
	endDate := time.Now().Format("2006-01-02")
	startDate := time.Now().AddDate(0, 0, -90).Format("2006-01-02")

	grades, err := c.getTraderGrades(ctx, symbol, startDate, endDate)
	if err != nil {
		return nil, err
	}

	metrics := &TokenMetrics{Symbol: symbol}
	latest := grades[len(grades)-1]
	metrics.TraderGrade = latest.TraderGrade
	metrics.TAGrade = latest.TAGrade
	metrics.QuantGrade = latest.QuantGrade
	metrics.PreviousTraderGrade = latest.TraderGrade
	if len(grades) > 1 {
		metrics.PreviousTraderGrade = grades[len(grades)-2].TraderGrade
	}

	// Signals and prices are best-effort extras on top of the grades
	if sig, err := c.getSignals(ctx, symbol); err != nil {
		c.log.Warn().Err(err).Str("symbol", symbol).Msg("Signals unavailable, using neutral defaults")
		metrics.SignalStrength = 0.5
	} else {
		metrics.TMSignal = sig.Signal
		metrics.SignalStrength = sig.SignalStrength
		metrics.BullishCount = sig.BullishCount
		metrics.BearishCount = sig.BearishCount
	}

	closes, err := c.getDailyCloses(ctx, symbol, startDate, endDate)
	if err != nil || len(closes) == 0 {
		c.log.Warn().Err(err).Str("symbol", symbol).Msg("Price series unavailable")
		return nil, fmt.Errorf("%w: prices for %s", domain.ErrUpstreamUnavailable, symbol)
	}
	metrics.Closes = closes
	metrics.CurrentPrice = closes[len(closes)-1]

	return metrics, nil
}

func (c *Client) getTraderGrades(ctx context.Context, symbol, startDate, endDate string) ([]traderGradeRow, error) {
	var result traderGradesResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"symbol":    symbol,
			"startDate": startDate,
			"endDate":   endDate,
		}).
		SetResult(&result).
		Get("/trader-grades")

	if err != nil {
		return nil, fmt.Errorf("%w: trader grades for %s: %v", domain.ErrUpstreamUnavailable, symbol, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: trader grades for %s: HTTP %d", domain.ErrUpstreamUnavailable, symbol, resp.StatusCode())
	}
	if len(result.Data) == 0 {
		return nil, fmt.Errorf("%w: trader grades for %s: empty response", domain.ErrUpstreamUnavailable, symbol)
	}

	return result.Data, nil
}

func (c *Client) getSignals(ctx context.Context, symbol string) (*signalRow, error) {
	var result signalsResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("symbol", symbol).
		SetResult(&result).
		Get("/trading-signals")

	if err != nil {
		return nil, fmt.Errorf("%w: signals for %s: %v", domain.ErrUpstreamUnavailable, symbol, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: signals for %s: HTTP %d", domain.ErrUpstreamUnavailable, symbol, resp.StatusCode())
	}
	if len(result.Data) == 0 {
		return nil, fmt.Errorf("%w: signals for %s: empty response", domain.ErrUpstreamUnavailable, symbol)
	}

	return &result.Data[len(result.Data)-1], nil
}

func (c *Client) getDailyCloses(ctx context.Context, symbol, startDate, endDate string) ([]float64, error) {
	var result ohlcvResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"symbol":    symbol,
			"startDate": startDate,
			"endDate":   endDate,
		}).
		SetResult(&result).
		Get("/daily-ohlcv")

	if err != nil {
		return nil, fmt.Errorf("%w: ohlcv for %s: %v", domain.ErrUpstreamUnavailable, symbol, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: ohlcv for %s: HTTP %d", domain.ErrUpstreamUnavailable, symbol, resp.StatusCode())
	}

	closes := make([]float64, 0, len(result.Data))
	for _, row := range result.Data {
		if row.Close > 0 {
			closes = append(closes, row.Close)
		}
	}

	return closes, nil
}
