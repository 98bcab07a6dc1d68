package factoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipeit/factora/internal/domain"
)

func TestCalculateOffer(t *testing.T) {
	tests := []struct {
		name          string
		invoiceAmount float64
		advancePct    float64
		feePct        float64
		wantAdvance   float64
		wantFee       float64
		wantRemaining float64
	}{
		{"standard terms", 1000, 80, 3, 800, 30, 170},
		{"low advance", 5000, 65, 2.5, 3250, 125, 1625},
		{"full advance no fee", 1000, 100, 0, 1000, 0, 0},
		{"cents rounding", 333.33, 80, 3, 266.66, 10, 56.67},
		{"small invoice", 0.01, 50, 10, 0.01, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			terms, err := CalculateOffer(tt.invoiceAmount, tt.advancePct, tt.feePct)
			require.NoError(t, err)

			assert.InDelta(t, tt.wantAdvance, terms.AdvanceAmount, 0.001)
			assert.InDelta(t, tt.wantFee, terms.FeeAmount, 0.001)
			assert.InDelta(t, tt.wantRemaining, terms.RemainingAmount, 0.001)

			// The three parts always reassemble the invoice exactly.
			sum := terms.AdvanceAmount + terms.FeeAmount + terms.RemainingAmount
			assert.InDelta(t, tt.invoiceAmount, sum, 0.005)
		})
	}
}

func TestCalculateOffer_Validation(t *testing.T) {
	tests := []struct {
		name          string
		invoiceAmount float64
		advancePct    float64
		feePct        float64
	}{
		{"zero invoice", 0, 80, 3},
		{"negative invoice", -100, 80, 3},
		{"advance over 100", 1000, 101, 3},
		{"negative advance", 1000, -1, 3},
		{"fee over 100", 1000, 50, 101},
		{"negative fee", 1000, 50, -0.5},
		{"combined over 100", 1000, 80, 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CalculateOffer(tt.invoiceAmount, tt.advancePct, tt.feePct)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestCalculateOffer_Expiry(t *testing.T) {
	terms, err := CalculateOffer(1000, 80, 3)
	require.NoError(t, err)

	assert.WithinDuration(t, terms.CreatedAt.Add(24*time.Hour), terms.ExpiresAt, time.Second)
}
