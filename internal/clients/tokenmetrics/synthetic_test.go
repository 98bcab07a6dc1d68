package tokenmetrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Synthetic data is the fallback for a dead feed; it must be identical on
// every call for the same symbol so planning output stays stable.
func TestSynthetic_Deterministic(t *testing.T) {
	first := Synthetic("ETH")
	second := Synthetic("ETH")

	assert.Equal(t, first.TraderGrade, second.TraderGrade)
	assert.Equal(t, first.TAGrade, second.TAGrade)
	assert.Equal(t, first.QuantGrade, second.QuantGrade)
	assert.Equal(t, first.SignalStrength, second.SignalStrength)
	assert.Equal(t, first.TMSignal, second.TMSignal)
	assert.Equal(t, first.BullishCount, second.BullishCount)
	assert.Equal(t, first.BearishCount, second.BearishCount)
	assert.Equal(t, first.CurrentPrice, second.CurrentPrice)
	assert.Equal(t, first.Closes, second.Closes)
}

func TestSynthetic_DistinctSymbols(t *testing.T) {
	eth := Synthetic("ETH")
	btc := Synthetic("BTC")

	// Different seeds should not collide on the whole close series.
	assert.NotEqual(t, eth.Closes, btc.Closes)
}

func TestSynthetic_Ranges(t *testing.T) {
	for _, symbol := range []string{"ETH", "BTC", "LINK", "MATIC", "AAVE"} {
		m := Synthetic(symbol)

		assert.True(t, m.Synthetic)
		assert.Equal(t, symbol, m.Symbol)
		assert.GreaterOrEqual(t, m.TraderGrade, 40.0)
		assert.LessOrEqual(t, m.TraderGrade, 90.0)
		assert.GreaterOrEqual(t, m.SignalStrength, 0.2)
		assert.LessOrEqual(t, m.SignalStrength, 0.9)
		assert.Greater(t, m.CurrentPrice, 0.0)
		require.Len(t, m.Closes, 90)
		assert.Equal(t, m.Closes[len(m.Closes)-1], m.CurrentPrice)
	}
}

func TestSymbolSeed_Stable(t *testing.T) {
	assert.Equal(t, symbolSeed("ETH"), symbolSeed("ETH"))
	assert.NotEqual(t, symbolSeed("ETH"), symbolSeed("BTC"))
}
