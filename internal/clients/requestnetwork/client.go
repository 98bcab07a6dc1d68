package requestnetwork

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/pipeit/factora/internal/domain"
)

// Client talks to the Request Network invoicing API. Invoices live on the
// network; this service only creates them and reads their status.
type Client struct {
	client *resty.Client
	log    zerolog.Logger
}

// Config holds client configuration
type Config struct {
	BaseURL string
	APIKey  string
}

// Invoice is the subset of the network's request payload this service uses.
type Invoice struct {
	PaymentReference string `json:"paymentReference"`
	RequestID        string `json:"requestId"`
	Payee            string `json:"payee"`
	Amount           string `json:"amount"`
	InvoiceCurrency  string `json:"invoiceCurrency"`
	PaymentCurrency  string `json:"paymentCurrency"`
	Status           string `json:"status"`
}

// CreateInvoiceRequest holds the fields needed to create an invoice.
type CreateInvoiceRequest struct {
	Payee           string `json:"payee"`
	Amount          string `json:"amount"`
	InvoiceCurrency string `json:"invoiceCurrency"`
	PaymentCurrency string `json:"paymentCurrency"`
}

// NewClient creates a new Request Network client
func NewClient(cfg Config, log zerolog.Logger) *Client {
	client := resty.New()
	client.SetBaseURL(cfg.BaseURL)
	client.SetTimeout(10 * time.Second)
	client.SetRetryCount(1)
	client.SetRetryWaitTime(time.Second)
	client.SetHeader("Content-Type", "application/json")
	if cfg.APIKey != "" {
		client.SetHeader("x-api-key", cfg.APIKey)
	}

	return &Client{
		client: client,
		log:    log.With().Str("client", "requestnetwork").Logger(),
	}
}

// CreateInvoice creates a new invoice request on the network.
func (c *Client) CreateInvoice(ctx context.Context, req CreateInvoiceRequest) (*Invoice, error) {
	if req.Payee == "" || req.Amount == "" {
		return nil, fmt.Errorf("%w: payee and amount are required", domain.ErrValidation)
	}

	var invoice Invoice
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&invoice).
		Post("/request")

	if err != nil {
		return nil, fmt.Errorf("%w: create invoice: %v", domain.ErrUpstreamUnavailable, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: create invoice: HTTP %d", domain.ErrUpstreamUnavailable, resp.StatusCode())
	}

	c.log.Info().
		Str("payment_reference", invoice.PaymentReference).
		Str("payee", invoice.Payee).
		Msg("Invoice created")

	return &invoice, nil
}

// GetInvoiceStatus fetches the current state of an invoice by its payment
// reference.
func (c *Client) GetInvoiceStatus(ctx context.Context, paymentReference string) (*Invoice, error) {
	if paymentReference == "" {
		return nil, fmt.Errorf("%w: payment reference is required", domain.ErrValidation)
	}

	var invoice Invoice
	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(&invoice).
		Get("/request/" + paymentReference)

	if err != nil {
		return nil, fmt.Errorf("%w: invoice status: %v", domain.ErrUpstreamUnavailable, err)
	}
	if resp.StatusCode() == 404 {
		return nil, fmt.Errorf("%w: invoice %s", domain.ErrNotFound, paymentReference)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: invoice status: HTTP %d", domain.ErrUpstreamUnavailable, resp.StatusCode())
	}

	return &invoice, nil
}
