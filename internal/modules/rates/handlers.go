package rates

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"
)

// Handler handles rate recommendation HTTP requests
type Handler struct {
	service *Service
	log     zerolog.Logger
}

// NewHandler creates a new rates handler
func NewHandler(service *Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "rates").Logger(),
	}
}

// HandleRecommend returns recommended factoring rates for current market
// conditions. Always 200: a degraded feed still yields usable default bands.
func (h *Handler) HandleRecommend(w http.ResponseWriter, r *http.Request) {
	recommendation := h.service.Recommend(r.Context())

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(recommendation); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode recommendation")
	}
}
