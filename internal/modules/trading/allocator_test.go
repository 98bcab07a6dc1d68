package trading

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipeit/factora/internal/domain"
	"github.com/pipeit/factora/internal/modules/scoring"
)

func rankedInstruments(scores ...float64) []scoring.ScoredInstrument {
	symbols := []string{"ETH", "BTC", "LINK", "MATIC", "AAVE"}
	ranked := make([]scoring.ScoredInstrument, len(scores))
	for i, score := range scores {
		ranked[i] = scoring.ScoredInstrument{
			Symbol:       symbols[i],
			Score:        score,
			CurrentPrice: 100,
		}
	}
	return ranked
}

// Scenario: scores [90,60,30] split 1.0 ETH as [0.5, 0.333, 0.167].
func TestAllocate_ScoreProportionalWeights(t *testing.T) {
	allocator := NewAllocator(3)

	allocations, err := allocator.Allocate(rankedInstruments(90, 60, 30), 1.0)
	require.NoError(t, err)
	require.Len(t, allocations, 3)

	assert.InDelta(t, 0.5, allocations[0].Weight, 0.001)
	assert.InDelta(t, 1.0/3, allocations[1].Weight, 0.001)
	assert.InDelta(t, 1.0/6, allocations[2].Weight, 0.001)

	assert.InDelta(t, 0.5, allocations[0].Amount, 0.001)
	assert.InDelta(t, 1.0/3, allocations[1].Amount, 0.001)
	assert.InDelta(t, 1.0/6, allocations[2].Amount, 0.001)
}

func TestAllocate_WeightsSumToOne(t *testing.T) {
	allocator := NewAllocator(3)

	tests := []struct {
		name   string
		scores []float64
	}{
		{"three instruments", []float64{90, 60, 30}},
		{"more candidates than slots", []float64{95, 80, 72, 55, 31}},
		{"single instrument", []float64{42}},
		{"two instruments", []float64{10, 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			allocations, err := allocator.Allocate(rankedInstruments(tt.scores...), 2.5)
			require.NoError(t, err)

			sum := 0.0
			for i, alloc := range allocations {
				sum += alloc.Weight
				if i > 0 {
					assert.GreaterOrEqual(t, allocations[i-1].Weight, alloc.Weight)
				}
			}
			assert.InDelta(t, 1.0, sum, 1e-6)
		})
	}
}

func TestAllocate_TopNCutoff(t *testing.T) {
	allocator := NewAllocator(3)

	allocations, err := allocator.Allocate(rankedInstruments(95, 80, 72, 55, 31), 1.0)
	require.NoError(t, err)

	require.Len(t, allocations, 3)
	assert.Equal(t, "ETH", allocations[0].Symbol)
	assert.Equal(t, "BTC", allocations[1].Symbol)
	assert.Equal(t, "LINK", allocations[2].Symbol)
}

func TestAllocate_AllZeroScores_EqualWeights(t *testing.T) {
	allocator := NewAllocator(3)

	allocations, err := allocator.Allocate(rankedInstruments(0, 0, 0), 3.0)
	require.NoError(t, err)

	for _, alloc := range allocations {
		assert.InDelta(t, 1.0/3, alloc.Weight, 1e-6)
		assert.InDelta(t, 1.0, alloc.Amount, 1e-6)
	}
}

func TestAllocate_Validation(t *testing.T) {
	allocator := NewAllocator(3)

	_, err := allocator.Allocate(rankedInstruments(90), 0)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = allocator.Allocate(rankedInstruments(90), -1)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = allocator.Allocate(nil, 1.0)
	assert.ErrorIs(t, err, domain.ErrValidation)
}
