package factoring

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipeit/factora/internal/database"
	"github.com/pipeit/factora/internal/domain"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, InitSchema(db.Conn()))

	return db.Conn()
}

func mustCreateOffer(t *testing.T, repo *Repository, paymentReference string) *Offer {
	t.Helper()

	terms, err := CalculateOffer(1000, 80, 3)
	require.NoError(t, err)

	offer, err := repo.Create(paymentReference, terms)
	require.NoError(t, err)

	return offer
}

func TestRepository_CreateAndGet(t *testing.T) {
	repo := NewRepository(setupTestDB(t), zerolog.Nop())

	created := mustCreateOffer(t, repo, "ref1")
	assert.NotEmpty(t, created.OfferID)
	assert.Equal(t, OfferStatusPending, created.Status)
	assert.Nil(t, created.AcceptedAt)

	got, err := repo.Get(created.OfferID)
	require.NoError(t, err)
	assert.Equal(t, created.OfferID, got.OfferID)
	assert.Equal(t, "ref1", got.PaymentReference)
	assert.InDelta(t, 800, got.AdvanceAmount, 0.001)
	assert.InDelta(t, 30, got.FeeAmount, 0.001)
	assert.InDelta(t, 170, got.RemainingAmount, 0.001)
}

func TestRepository_GetMissing(t *testing.T) {
	repo := NewRepository(setupTestDB(t), zerolog.Nop())

	_, err := repo.Get("nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// Scenario: accept flips pending to accepted exactly once; the second accept
// reports a conflict and leaves the offer untouched.
func TestRepository_AcceptOnce(t *testing.T) {
	repo := NewRepository(setupTestDB(t), zerolog.Nop())
	created := mustCreateOffer(t, repo, "ref1")

	accepted, err := repo.Accept(created.OfferID)
	require.NoError(t, err)
	assert.Equal(t, OfferStatusAccepted, accepted.Status)
	require.NotNil(t, accepted.AcceptedAt)
	firstAcceptedAt := *accepted.AcceptedAt

	_, err = repo.Accept(created.OfferID)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	got, err := repo.Get(created.OfferID)
	require.NoError(t, err)
	assert.Equal(t, OfferStatusAccepted, got.Status)
	require.NotNil(t, got.AcceptedAt)
	assert.Equal(t, firstAcceptedAt, *got.AcceptedAt)
}

func TestRepository_AcceptMissing(t *testing.T) {
	repo := NewRepository(setupTestDB(t), zerolog.Nop())

	_, err := repo.Accept("nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRepository_List(t *testing.T) {
	repo := NewRepository(setupTestDB(t), zerolog.Nop())

	offers, err := repo.List()
	require.NoError(t, err)
	assert.Empty(t, offers)

	mustCreateOffer(t, repo, "ref1")
	mustCreateOffer(t, repo, "ref2")

	offers, err = repo.List()
	require.NoError(t, err)
	assert.Len(t, offers, 2)
}
