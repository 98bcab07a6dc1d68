package factoring

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pipeit/factora/internal/domain"
)

// OffersSchema creates the offers table.
const OffersSchema = `
CREATE TABLE IF NOT EXISTS offers (
    offer_id TEXT PRIMARY KEY,
    payment_reference TEXT NOT NULL,
    status TEXT NOT NULL,
    invoice_amount REAL NOT NULL,
    advance_pct REAL NOT NULL,
    advance_amount REAL NOT NULL,
    fee_pct REAL NOT NULL,
    fee_amount REAL NOT NULL,
    remaining_amount REAL NOT NULL,
    created_at TEXT NOT NULL,
    expires_at TEXT NOT NULL,
    accepted_at TEXT
);

CREATE INDEX IF NOT EXISTS idx_offers_reference ON offers(payment_reference);
CREATE INDEX IF NOT EXISTS idx_offers_status ON offers(status);
`

// InitSchema ensures the offers table exists
func InitSchema(db *sql.DB) error {
	_, err := db.Exec(OffersSchema)
	return err
}

// Repository is the offer ledger. It is the single writer for offers; the
// pending -> accepted transition is an atomic conditional UPDATE so two
// concurrent accepts on the same offer cannot both apply.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new offer repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "offers").Logger(),
	}
}

// Create stores a new pending offer and returns it with a fresh id.
func (r *Repository) Create(paymentReference string, terms OfferTerms) (*Offer, error) {
	offer := &Offer{
		OfferID:          uuid.NewString(),
		PaymentReference: paymentReference,
		Status:           OfferStatusPending,
		InvoiceAmount:    terms.InvoiceAmount,
		AdvancePct:       terms.AdvancePct,
		AdvanceAmount:    terms.AdvanceAmount,
		FeePct:           terms.FeePct,
		FeeAmount:        terms.FeeAmount,
		RemainingAmount:  terms.RemainingAmount,
		CreatedAt:        terms.CreatedAt,
		ExpiresAt:        terms.ExpiresAt,
	}

	query := `
		INSERT INTO offers
		(offer_id, payment_reference, status, invoice_amount, advance_pct,
		 advance_amount, fee_pct, fee_amount, remaining_amount, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		offer.OfferID,
		offer.PaymentReference,
		string(offer.Status),
		offer.InvoiceAmount,
		offer.AdvancePct,
		offer.AdvanceAmount,
		offer.FeePct,
		offer.FeeAmount,
		offer.RemainingAmount,
		offer.CreatedAt.Format(time.RFC3339),
		offer.ExpiresAt.Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create offer: %w", err)
	}

	r.log.Info().
		Str("offer_id", offer.OfferID).
		Str("payment_reference", offer.PaymentReference).
		Float64("advance_amount", offer.AdvanceAmount).
		Msg("Offer created")

	return offer, nil
}

// Accept transitions an offer from pending to accepted. The UPDATE is
// conditional on the stored status, so the first caller wins and any repeat
// call observes ErrInvalidState with state unchanged.
func (r *Repository) Accept(offerID string) (*Offer, error) {
	acceptedAt := time.Now()

	result, err := r.db.Exec(
		`UPDATE offers SET status = ?, accepted_at = ? WHERE offer_id = ? AND status = ?`,
		string(OfferStatusAccepted),
		acceptedAt.Format(time.RFC3339),
		offerID,
		string(OfferStatusPending),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to accept offer: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read rows affected: %w", err)
	}

	if affected == 0 {
		// Either the offer does not exist or it is no longer pending
		existing, err := r.Get(offerID)
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: offer %s is %s, not pending", domain.ErrInvalidState, offerID, existing.Status)
	}

	r.log.Info().Str("offer_id", offerID).Msg("Offer accepted")

	return r.Get(offerID)
}

// Get returns a single offer by id.
func (r *Repository) Get(offerID string) (*Offer, error) {
	row := r.db.QueryRow(
		`SELECT offer_id, payment_reference, status, invoice_amount, advance_pct,
		        advance_amount, fee_pct, fee_amount, remaining_amount,
		        created_at, expires_at, accepted_at
		 FROM offers WHERE offer_id = ?`,
		offerID,
	)

	offer, err := scanOffer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: offer %s", domain.ErrNotFound, offerID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get offer: %w", err)
	}

	return offer, nil
}

// List returns all offers, most recent first.
func (r *Repository) List() ([]Offer, error) {
	rows, err := r.db.Query(
		`SELECT offer_id, payment_reference, status, invoice_amount, advance_pct,
		        advance_amount, fee_pct, fee_amount, remaining_amount,
		        created_at, expires_at, accepted_at
		 FROM offers ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list offers: %w", err)
	}
	defer rows.Close()

	offers := []Offer{}
	for rows.Next() {
		offer, err := scanOffer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan offer: %w", err)
		}
		offers = append(offers, *offer)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating offers: %w", err)
	}

	return offers, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOffer(row rowScanner) (*Offer, error) {
	var offer Offer
	var status, createdAt, expiresAt string
	var acceptedAt sql.NullString

	err := row.Scan(
		&offer.OfferID,
		&offer.PaymentReference,
		&status,
		&offer.InvoiceAmount,
		&offer.AdvancePct,
		&offer.AdvanceAmount,
		&offer.FeePct,
		&offer.FeeAmount,
		&offer.RemainingAmount,
		&createdAt,
		&expiresAt,
		&acceptedAt,
	)
	if err != nil {
		return nil, err
	}

	offer.Status = OfferStatus(status)
	if offer.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("invalid created_at: %w", err)
	}
	if offer.ExpiresAt, err = time.Parse(time.RFC3339, expiresAt); err != nil {
		return nil, fmt.Errorf("invalid expires_at: %w", err)
	}
	if acceptedAt.Valid {
		t, err := time.Parse(time.RFC3339, acceptedAt.String)
		if err != nil {
			return nil, fmt.Errorf("invalid accepted_at: %w", err)
		}
		offer.AcceptedAt = &t
	}

	return &offer, nil
}
