package trading

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/pipeit/factora/internal/domain"
)

// Handler handles trading HTTP requests
type Handler struct {
	service *Service
	log     zerolog.Logger
}

// NewHandler creates a new trading handler
func NewHandler(service *Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "trading").Logger(),
	}
}

type generatePlanRequest struct {
	IdleFundsAmount float64 `json:"idle_funds_amount"`
}

// HandleGeneratePlan builds a deployment plan for idle funds
func (h *Handler) HandleGeneratePlan(w http.ResponseWriter, r *http.Request) {
	var req generatePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	plan, err := h.service.GeneratePlan(r.Context(), req.IdleFundsAmount)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, plan)
}

// HandleListPlans returns all generated plans
func (h *Handler) HandleListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.service.ListPlans()
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"plans": plans})
}

// HandleGetPlan returns a single plan
func (h *Handler) HandleGetPlan(w http.ResponseWriter, r *http.Request) {
	planID := chi.URLParam(r, "planId")

	plan, err := h.service.GetPlan(planID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, plan)
}

// HandleExecutePlan simulates execution of a plan. Re-executing an executed
// plan returns the stored details with 200 instead of opening positions
// again.
func (h *Handler) HandleExecutePlan(w http.ResponseWriter, r *http.Request) {
	planID := chi.URLParam(r, "planId")

	plan, err := h.service.ExecutePlan(r.Context(), planID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, plan)
}

// HandleListPositions returns all active positions
func (h *Handler) HandleListPositions(w http.ResponseWriter, r *http.Request) {
	positions, err := h.service.ActivePositions()
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"positions": positions})
}

type updatePositionRequest struct {
	CurrentPrice *float64 `json:"current_price,omitempty"`
}

// HandleUpdatePosition refreshes a position's mark price and P/L
func (h *Handler) HandleUpdatePosition(w http.ResponseWriter, r *http.Request) {
	positionID := chi.URLParam(r, "id")

	var req updatePositionRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	pos, err := h.service.UpdatePosition(r.Context(), positionID, req.CurrentPrice)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, pos)
}

type closePositionRequest struct {
	ExitPrice *float64 `json:"exit_price,omitempty"`
}

// HandleClosePosition closes a position, synthesizing an exit price when
// none is supplied
func (h *Handler) HandleClosePosition(w http.ResponseWriter, r *http.Request) {
	positionID := chi.URLParam(r, "id")

	var req closePositionRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	pos, err := h.service.ClosePosition(r.Context(), positionID, req.ExitPrice)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, pos)
}

// HandleHistory returns closed positions, newest first
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.service.History()
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"history": history})
}

// HandlePerformance returns aggregate realized and unrealized results
func (h *Handler) HandlePerformance(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Performance()
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, report)
}

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
