package formulas

import (
	"github.com/markcheno/go-talib"
)

// CalculateEMA calculates the Exponential Moving Average over the given
// period and returns the current value, or nil if there is insufficient data.
func CalculateEMA(closes []float64, period int) *float64 {
	if len(closes) < period {
		return nil
	}

	ema := talib.Ema(closes, period)

	if len(ema) > 0 && !isNaN(ema[len(ema)-1]) {
		result := ema[len(ema)-1]
		return &result
	}

	return nil
}

// EMACrossoverSignal compares a fast EMA against a slow EMA on the same
// series. Returns +1 when the fast EMA is above the slow (bullish crossover
// state), -1 when below, 0 when equal or not computable.
func EMACrossoverSignal(closes []float64, fastPeriod, slowPeriod int) int {
	fast := CalculateEMA(closes, fastPeriod)
	slow := CalculateEMA(closes, slowPeriod)

	if fast == nil || slow == nil {
		return 0
	}

	switch {
	case *fast > *slow:
		return 1
	case *fast < *slow:
		return -1
	default:
		return 0
	}
}
