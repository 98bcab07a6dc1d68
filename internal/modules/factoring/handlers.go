package factoring

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/pipeit/factora/internal/clients/requestnetwork"
	"github.com/pipeit/factora/internal/domain"
)

// Handler handles factoring and invoice HTTP requests
type Handler struct {
	service  *Service
	invoices *requestnetwork.Client
	log      zerolog.Logger
}

// NewHandler creates a new factoring handler
func NewHandler(service *Service, invoices *requestnetwork.Client, log zerolog.Logger) *Handler {
	return &Handler{
		service:  service,
		invoices: invoices,
		log:      log.With().Str("handler", "factoring").Logger(),
	}
}

type createInvoiceRequest struct {
	Payee           string `json:"payee"`
	Amount          string `json:"amount"`
	InvoiceCurrency string `json:"invoice_currency"`
	PaymentCurrency string `json:"payment_currency"`
}

// HandleCreateInvoice creates an invoice on the payment network
func (h *Handler) HandleCreateInvoice(w http.ResponseWriter, r *http.Request) {
	var req createInvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.InvoiceCurrency == "" {
		req.InvoiceCurrency = "USD"
	}
	if req.PaymentCurrency == "" {
		req.PaymentCurrency = "ETH-base-base"
	}

	invoice, err := h.invoices.CreateInvoice(r.Context(), requestnetwork.CreateInvoiceRequest{
		Payee:           req.Payee,
		Amount:          req.Amount,
		InvoiceCurrency: req.InvoiceCurrency,
		PaymentCurrency: req.PaymentCurrency,
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, invoice)
}

// HandleInvoiceStatus returns the network's view of an invoice
func (h *Handler) HandleInvoiceStatus(w http.ResponseWriter, r *http.Request) {
	paymentReference := chi.URLParam(r, "paymentReference")

	invoice, err := h.invoices.GetInvoiceStatus(r.Context(), paymentReference)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, invoice)
}

type createOfferRequest struct {
	AdvancePct *float64 `json:"advance_pct"`
	FeePct     *float64 `json:"factoring_fee"`
}

// HandleCreateOffer creates a factoring offer for an invoice
func (h *Handler) HandleCreateOffer(w http.ResponseWriter, r *http.Request) {
	paymentReference := chi.URLParam(r, "paymentReference")

	var req createOfferRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	offer, err := h.service.CreateOffer(r.Context(), CreateOfferInput{
		PaymentReference: paymentReference,
		AdvancePct:       req.AdvancePct,
		FeePct:           req.FeePct,
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, offer)
}

type acceptOfferRequest struct {
	OfferID string `json:"offer_id"`
}

// HandleAcceptOffer accepts a pending offer
func (h *Handler) HandleAcceptOffer(w http.ResponseWriter, r *http.Request) {
	var req acceptOfferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	offer, err := h.service.Accept(req.OfferID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, offer)
}

// HandleListOffers returns all offers
func (h *Handler) HandleListOffers(w http.ResponseWriter, r *http.Request) {
	offers, err := h.service.List()
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, offers)
}

// HandleGetOffer returns a single offer by id
func (h *Handler) HandleGetOffer(w http.ResponseWriter, r *http.Request) {
	offerID := chi.URLParam(r, "id")

	offer, err := h.service.Get(offerID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, offer)
}

// writeDomainError maps the shared error taxonomy onto HTTP status codes
func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidState):
		h.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrValidation):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		h.writeError(w, http.StatusBadGateway, err.Error())
	default:
		h.log.Error().Err(err).Msg("Unhandled error")
		h.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes an error response
func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
