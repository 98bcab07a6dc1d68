package trading

import (
	"github.com/pipeit/factora/pkg/formulas"
)

// Performance aggregates realized results over the closed-trade history plus
// a snapshot of open exposure. Returns an empty report, not an error, when
// nothing has closed yet.
func (s *Service) Performance() (*PerformanceReport, error) {
	closed, err := s.positions.ListClosed()
	if err != nil {
		return nil, err
	}
	active, err := s.positions.ListActive()
	if err != nil {
		return nil, err
	}

	report := &PerformanceReport{
		TotalTrades:   len(closed),
		OpenPositions: len(active),
	}

	for _, pos := range active {
		report.UnrealizedPL += pos.ProfitLoss
	}

	if len(closed) == 0 {
		return report, nil
	}

	// ListClosed is newest first; metrics want chronological order.
	returns := make([]float64, 0, len(closed))
	for i := len(closed) - 1; i >= 0; i-- {
		pos := closed[i]
		report.TotalProfitLoss += pos.ProfitLoss
		if pos.ProfitLoss > 0 {
			report.Wins++
		} else if pos.ProfitLoss < 0 {
			report.Losses++
		}
		returns = append(returns, pos.ProfitLossPct)
	}

	report.WinRate = float64(report.Wins) / float64(report.TotalTrades)
	report.AvgReturnPct = formulas.Mean(returns)
	report.ReturnStdDevPct = formulas.StdDev(returns)

	fractions := make([]float64, len(returns))
	for i, r := range returns {
		fractions[i] = r / 100
	}
	// Per-trade returns are treated as daily observations, matching the
	// annualization the Sharpe ratio uses below.
	report.AnnualizedVolPct = formulas.AnnualizedVolatility(fractions) * 100

	report.SharpeRatio = formulas.CalculateSharpeRatio(fractions, 0, 365)
	report.MaxDrawdown = formulas.CalculateMaxDrawdown(equityCurve(fractions))

	return report, nil
}

// equityCurve compounds per-trade returns from a normalized start of 1.0.
func equityCurve(fractions []float64) []float64 {
	curve := make([]float64, 0, len(fractions)+1)
	equity := 1.0
	curve = append(curve, equity)
	for _, f := range fractions {
		equity *= 1 + f
		curve = append(curve, equity)
	}
	return curve
}
