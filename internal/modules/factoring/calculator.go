package factoring

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pipeit/factora/internal/domain"
)

// OfferTerms is the result of the factoring arithmetic, before the offer is
// given an id and stored.
type OfferTerms struct {
	InvoiceAmount   float64
	AdvancePct      float64
	AdvanceAmount   float64
	FeePct          float64
	FeeAmount       float64
	RemainingAmount float64
	CreatedAt       time.Time
	ExpiresAt       time.Time
}

// CalculateOffer computes advance, fee and remaining amounts for an invoice.
// Money math is done in decimals and rounded to cents so the three parts
// always sum back to the invoice amount exactly.
//
// Inputs are rejected (never clamped or passed through) when the invoice
// amount is non-positive, either percentage is outside [0,100], or the two
// percentages together exceed 100, since a combined rate above 100 would produce
// a negative remainder owed to the seller.
func CalculateOffer(invoiceAmount, advancePct, feePct float64) (OfferTerms, error) {
	if invoiceAmount <= 0 {
		return OfferTerms{}, fmt.Errorf("%w: invoice amount must be positive, got %v", domain.ErrValidation, invoiceAmount)
	}
	if advancePct < 0 || advancePct > 100 {
		return OfferTerms{}, fmt.Errorf("%w: advance percentage must be in [0,100], got %v", domain.ErrValidation, advancePct)
	}
	if feePct < 0 || feePct > 100 {
		return OfferTerms{}, fmt.Errorf("%w: fee percentage must be in [0,100], got %v", domain.ErrValidation, feePct)
	}
	if advancePct+feePct > 100 {
		return OfferTerms{}, fmt.Errorf("%w: advance and fee percentages sum to %v, must not exceed 100", domain.ErrValidation, advancePct+feePct)
	}

	invoice := decimal.NewFromFloat(invoiceAmount)
	hundred := decimal.NewFromInt(100)

	advance := invoice.Mul(decimal.NewFromFloat(advancePct)).Div(hundred).Round(2)
	fee := invoice.Mul(decimal.NewFromFloat(feePct)).Div(hundred).Round(2)
	remaining := invoice.Round(2).Sub(advance).Sub(fee)

	now := time.Now()

	advanceAmount, _ := advance.Float64()
	feeAmount, _ := fee.Float64()
	remainingAmount, _ := remaining.Float64()

	return OfferTerms{
		InvoiceAmount:   invoiceAmount,
		AdvancePct:      advancePct,
		AdvanceAmount:   advanceAmount,
		FeePct:          feePct,
		FeeAmount:       feeAmount,
		RemainingAmount: remainingAmount,
		CreatedAt:       now,
		ExpiresAt:       now.Add(OfferExpiry),
	}, nil
}
