package factoring

import "time"

// OfferStatus is the lifecycle state of a factoring offer.
// The only legal transition is pending -> accepted.
type OfferStatus string

const (
	OfferStatusPending  OfferStatus = "pending"
	OfferStatusAccepted OfferStatus = "accepted"
)

// Offer is a factoring offer against an invoice on the payment network.
// Offers expire 24 hours after creation and are never deleted.
type Offer struct {
	OfferID          string      `json:"offer_id"`
	PaymentReference string      `json:"payment_reference"`
	Status           OfferStatus `json:"status"`
	InvoiceAmount    float64     `json:"invoice_amount"`
	AdvancePct       float64     `json:"advance_pct"`
	AdvanceAmount    float64     `json:"advance_amount"`
	FeePct           float64     `json:"fee_pct"`
	FeeAmount        float64     `json:"fee_amount"`
	RemainingAmount  float64     `json:"remaining_amount"`
	CreatedAt        time.Time   `json:"created_at"`
	ExpiresAt        time.Time   `json:"expires_at"`
	AcceptedAt       *time.Time  `json:"accepted_at,omitempty"`
}

// OfferExpiry is how long an offer stays open for acceptance.
const OfferExpiry = 24 * time.Hour
