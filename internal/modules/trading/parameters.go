package trading

import (
	"math"

	"github.com/pipeit/factora/internal/modules/scoring"
)

// Parameter synthesis heuristics. Entry assumes a small limit-order
// improvement over spot; the profit target scales with score and the stop
// tightens as signal confidence rises.
const (
	entryImprovementPct = 0.005 // buy 0.5% below current price

	targetScaleFactor = 0.03 // targetPct = 0.03 × score/100
	minTargetPct      = 0.01
	maxTargetPct      = 0.05

	maxStopPct = 0.05 // stopPct = 0.05 − 0.03 × signalStrength
	minStopPct = 0.02
)

// SynthesizeParameters converts one scored, allocated instrument into
// concrete entry/exit/stop levels and an expected profit percentage.
func SynthesizeParameters(inst scoring.ScoredInstrument) TradingParameters {
	entryPrice := inst.CurrentPrice * (1 - entryImprovementPct)

	targetPct := clamp(targetScaleFactor*inst.Score/100, minTargetPct, maxTargetPct)
	exitPrice := inst.CurrentPrice * (1 + targetPct)

	stopPct := clamp(maxStopPct-0.03*inst.SignalStrength, minStopPct, maxStopPct)
	stopLoss := inst.CurrentPrice * (1 - stopPct)

	expectedProfitPct := 0.0
	if entryPrice > 0 {
		expectedProfitPct = (exitPrice/entryPrice - 1) * 100
	}

	return TradingParameters{
		Symbol:            inst.Symbol,
		EntryPrice:        round6(entryPrice),
		ExitPrice:         round6(exitPrice),
		StopLoss:          round6(stopLoss),
		HoldDuration:      holdDurationHint(inst.GradeTrend),
		ExpectedProfitPct: round2(expectedProfitPct),
	}
}

// holdDurationHint chooses a coarse hold window from the short-term trader
// grade trend: a strongly rising grade justifies a longer hold, a falling
// one a quick exit.
func holdDurationHint(gradeTrend float64) string {
	switch {
	case gradeTrend > 5:
		return "48-72h"
	case gradeTrend < -5:
		return "12-24h"
	default:
		return "24-48h"
	}
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

func round6(f float64) float64 {
	return math.Round(f*1e6) / 1e6
}
