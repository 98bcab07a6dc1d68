package factoring

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/pipeit/factora/internal/clients/requestnetwork"
	"github.com/pipeit/factora/internal/domain"
	"github.com/pipeit/factora/internal/events"
	"github.com/pipeit/factora/internal/modules/rates"
)

// InvoiceClient reads invoices from the payment network.
type InvoiceClient interface {
	GetInvoiceStatus(ctx context.Context, paymentReference string) (*requestnetwork.Invoice, error)
}

// RateRecommender supplies current rate guidance, used to fill in advance
// and fee percentages the caller left out.
type RateRecommender interface {
	Recommend(ctx context.Context) rates.Recommendation
}

// Service builds and manages factoring offers.
type Service struct {
	repo     *Repository
	invoices InvoiceClient
	rates    RateRecommender
	events   *events.Manager
	log      zerolog.Logger
}

// NewService creates a new factoring service
func NewService(
	repo *Repository,
	invoices InvoiceClient,
	rateRecommender RateRecommender,
	eventManager *events.Manager,
	log zerolog.Logger,
) *Service {
	return &Service{
		repo:     repo,
		invoices: invoices,
		rates:    rateRecommender,
		events:   eventManager,
		log:      log.With().Str("service", "factoring").Logger(),
	}
}

// CreateOfferInput is the caller's side of an offer request. AdvancePct and
// FeePct are optional; when nil the midpoints of the current recommended
// bands are used.
type CreateOfferInput struct {
	PaymentReference string   `json:"payment_reference"`
	AdvancePct       *float64 `json:"advance_pct,omitempty"`
	FeePct           *float64 `json:"factoring_fee,omitempty"`
}

// CreateOffer looks up the invoice on the network, fills in any missing
// percentages from the current rate recommendation, runs the factoring
// arithmetic and stores a pending offer.
func (s *Service) CreateOffer(ctx context.Context, input CreateOfferInput) (*Offer, error) {
	if input.PaymentReference == "" {
		return nil, fmt.Errorf("%w: payment reference is required", domain.ErrValidation)
	}

	invoice, err := s.invoices.GetInvoiceStatus(ctx, input.PaymentReference)
	if err != nil {
		return nil, err
	}

	invoiceAmount, err := strconv.ParseFloat(invoice.Amount, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invoice %s has non-numeric amount %q", domain.ErrValidation, input.PaymentReference, invoice.Amount)
	}

	advancePct, feePct := s.resolvePercentages(ctx, input)

	terms, err := CalculateOffer(invoiceAmount, advancePct, feePct)
	if err != nil {
		return nil, err
	}

	offer, err := s.repo.Create(input.PaymentReference, terms)
	if err != nil {
		return nil, err
	}

	s.events.Emit(events.OfferCreated, "factoring", map[string]interface{}{
		"offer_id":          offer.OfferID,
		"payment_reference": offer.PaymentReference,
		"invoice_amount":    offer.InvoiceAmount,
		"advance_amount":    offer.AdvanceAmount,
	})

	return offer, nil
}

// resolvePercentages picks explicit caller values or the midpoints of the
// currently recommended bands.
func (s *Service) resolvePercentages(ctx context.Context, input CreateOfferInput) (advancePct, feePct float64) {
	if input.AdvancePct != nil && input.FeePct != nil {
		return *input.AdvancePct, *input.FeePct
	}

	recommendation := s.rates.Recommend(ctx)
	advancePct = midpoint(recommendation.AdvanceRange)
	feePct = midpoint(recommendation.FeeRangePct)

	if input.AdvancePct != nil {
		advancePct = *input.AdvancePct
	}
	if input.FeePct != nil {
		feePct = *input.FeePct
	}

	return advancePct, feePct
}

// Accept transitions an offer to accepted, exactly once.
func (s *Service) Accept(offerID string) (*Offer, error) {
	if offerID == "" {
		return nil, fmt.Errorf("%w: offer id is required", domain.ErrValidation)
	}

	offer, err := s.repo.Accept(offerID)
	if err != nil {
		return nil, err
	}

	s.events.Emit(events.OfferAccepted, "factoring", map[string]interface{}{
		"offer_id":          offer.OfferID,
		"payment_reference": offer.PaymentReference,
	})

	return offer, nil
}

// Get returns a single offer.
func (s *Service) Get(offerID string) (*Offer, error) {
	return s.repo.Get(offerID)
}

// List returns all offers, most recent first.
func (s *Service) List() ([]Offer, error) {
	return s.repo.List()
}

func midpoint(r rates.Range) float64 {
	return (r.Min + r.Max) / 2
}
