package trading

import (
	"fmt"

	"github.com/pipeit/factora/internal/domain"
	"github.com/pipeit/factora/internal/modules/scoring"
)

// Allocator splits idle funds across the best-scored instruments.
// Selection rule: fixed top-K (default 3). Weights are proportional to
// score: weight(i) = score(i) / Σscore(selected). When every selected score
// is zero the allocator falls back to equal weighting.
type Allocator struct {
	topN int
}

// NewAllocator creates a new portfolio allocator
func NewAllocator(topN int) *Allocator {
	if topN < 1 {
		topN = 1
	}
	return &Allocator{topN: topN}
}

// Allocate assigns capital weights to the top instruments of an already
// ranked list. The returned allocations are index-aligned with the head of
// the ranked input.
func (a *Allocator) Allocate(ranked []scoring.ScoredInstrument, idleFunds float64) ([]Allocation, error) {
	if idleFunds <= 0 {
		return nil, fmt.Errorf("%w: idle funds amount must be positive, got %v", domain.ErrValidation, idleFunds)
	}
	if len(ranked) == 0 {
		return nil, fmt.Errorf("%w: no instruments to allocate across", domain.ErrValidation)
	}

	selected := ranked
	if len(selected) > a.topN {
		selected = selected[:a.topN]
	}

	totalScore := 0.0
	for _, inst := range selected {
		totalScore += inst.Score
	}

	allocations := make([]Allocation, len(selected))
	for i, inst := range selected {
		weight := 1.0 / float64(len(selected))
		if totalScore > 0 {
			weight = inst.Score / totalScore
		}

		allocations[i] = Allocation{
			Symbol:       inst.Symbol,
			Weight:       weight,
			Amount:       idleFunds * weight,
			Score:        inst.Score,
			CurrentPrice: inst.CurrentPrice,
		}
	}

	return allocations, nil
}
