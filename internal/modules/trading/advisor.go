package trading

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pipeit/factora/internal/clients/llm"
)

const advisorSystemPrompt = "You are an AI trading bot specializing in high-frequency crypto trading. " +
	"You provide specific, concise trading instructions that can be executed by automated systems."

// PlanAdvisor asks an LLM for a free-text narrative of a generated plan.
// Purely advisory: planning and execution never depend on its output.
type PlanAdvisor struct {
	client *llm.Client
	log    zerolog.Logger
}

// NewPlanAdvisor creates a new plan advisor
func NewPlanAdvisor(client *llm.Client, log zerolog.Logger) *PlanAdvisor {
	return &PlanAdvisor{
		client: client,
		log:    log.With().Str("service", "advisor").Logger(),
	}
}

// DraftPlan renders the plan into the prompt and returns the model's
// narrative verbatim.
func (a *PlanAdvisor) DraftPlan(ctx context.Context, plan *TradingPlan) (string, error) {
	prompt := buildPlanPrompt(plan)

	draft, err := a.client.Chat(ctx, advisorSystemPrompt, prompt)
	if err != nil {
		return "", err
	}

	a.log.Debug().
		Str("plan_id", plan.PlanID).
		Int("draft_len", len(draft)).
		Msg("Plan draft generated")

	return draft, nil
}

func buildPlanPrompt(plan *TradingPlan) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are a high-frequency crypto trading bot managing idle funds from an invoice factoring pool.\n")
	fmt.Fprintf(&b, "You need to generate short-term (minutes to hours) trading opportunities for %.4f ETH.\n\n", plan.IdleFundsAmount)

	fmt.Fprintf(&b, "Current market data:\n")
	fmt.Fprintf(&b, "MARKET SENTIMENT: %s\n", plan.Sentiment.Label)
	fmt.Fprintf(&b, "SENTIMENT GRADE: %.0f/100\n", plan.Sentiment.Grade)
	fmt.Fprintf(&b, "MARKET SIGNAL: %d (1=bullish, -1=bearish, 0=neutral)\n", plan.Sentiment.LastSignal)

	b.WriteString("\nTOKEN ANALYSIS:\n")
	for i, alloc := range plan.Allocations {
		params := plan.Parameters[i]
		fmt.Fprintf(&b, "\n%s:\n", alloc.Symbol)
		fmt.Fprintf(&b, "  SCORE: %.2f\n", alloc.Score)
		fmt.Fprintf(&b, "  ALLOCATION: %.1f%% (%.4f ETH)\n", alloc.Weight*100, alloc.Amount)
		fmt.Fprintf(&b, "  ENTRY: $%.6f  EXIT: $%.6f  STOP: $%.6f\n", params.EntryPrice, params.ExitPrice, params.StopLoss)
		fmt.Fprintf(&b, "  HOLD: %s\n", params.HoldDuration)
	}

	b.WriteString("\nYour goal is to maximize returns while ensuring the funds can be quickly liquidated if needed for invoice factoring.\n\n")
	b.WriteString("Based on the data, provide:\n")
	b.WriteString("1. Top 2-3 trading pairs to focus on\n")
	b.WriteString("2. Entry and exit price points for each pair\n")
	b.WriteString("3. Maximum position size for each trade (in % of idle funds)\n")
	b.WriteString("4. Stop-loss levels to manage risk\n")
	b.WriteString("5. Expected hold duration (in minutes/hours)\n\n")
	b.WriteString("Keep your answers precise and actionable. These trades need to be executed automatically.\n")

	return b.String()
}

// ParsedDraft is a best-effort structured reading of a plan narrative.
type ParsedDraft struct {
	TradingPairs  []string          `json:"trading_pairs"`
	StopLosses    map[string]string `json:"stop_losses"`
	ExitPoints    map[string]string `json:"exit_points"`
	HoldDurations map[string]string `json:"hold_durations"`
}

// ParseDraft extracts trading pairs and per-pair stop/exit/hold lines from a
// narrative. The model's prose is unconstrained, so anything it does not
// recognize is simply left out.
func ParseDraft(text string) ParsedDraft {
	parsed := ParsedDraft{
		TradingPairs:  []string{},
		StopLosses:    map[string]string{},
		ExitPoints:    map[string]string{},
		HoldDurations: map[string]string{},
	}

	currentPair := ""
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if pair := extractPair(line); pair != "" {
			currentPair = pair
			parsed.TradingPairs = append(parsed.TradingPairs, pair)
			continue
		}
		if currentPair == "" {
			continue
		}

		lower := strings.ToLower(line)
		switch {
		case strings.Contains(lower, "stop"):
			parsed.StopLosses[currentPair] = line
		case strings.Contains(lower, "exit") || strings.Contains(lower, "take profit") || strings.Contains(lower, "target"):
			parsed.ExitPoints[currentPair] = line
		case (strings.Contains(lower, "hold") || strings.Contains(lower, "duration")) &&
			(strings.Contains(lower, "minute") || strings.Contains(lower, "hour") || strings.Contains(lower, "day")):
			parsed.HoldDurations[currentPair] = line
		}
	}

	return parsed
}

func extractPair(line string) string {
	for _, field := range strings.Fields(line) {
		if !strings.Contains(field, "/") {
			continue
		}
		candidate := strings.Trim(field, ",.:()*")
		parts := strings.Split(candidate, "/")
		if len(parts) == 2 && parts[0] != "" && parts[1] != "" {
			return strings.ToUpper(candidate)
		}
	}
	return ""
}
