package trading

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (*chi.Mux, *Service) {
	t.Helper()

	service := newTestService(t, defaultFeed())
	handler := NewHandler(service, zerolog.Nop())

	r := chi.NewRouter()
	r.Post("/trading/plan", handler.HandleGeneratePlan)
	r.Post("/trading/execute/{planId}", handler.HandleExecutePlan)
	r.Get("/trading/positions", handler.HandleListPositions)
	r.Post("/trading/positions/{id}/update", handler.HandleUpdatePosition)
	r.Post("/trading/positions/{id}/close", handler.HandleClosePosition)
	r.Get("/trading/history", handler.HandleHistory)
	r.Get("/trading/performance", handler.HandlePerformance)

	return r, service
}

func TestHandleGeneratePlan(t *testing.T) {
	router, _ := newTestRouter(t)

	body := bytes.NewBufferString(`{"idle_funds_amount": 1.0}`)
	req := httptest.NewRequest("POST", "/trading/plan", body)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	var plan TradingPlan
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &plan))
	assert.NotEmpty(t, plan.PlanID)
	assert.Len(t, plan.Allocations, 3)
}

func TestHandleGeneratePlan_BadAmount(t *testing.T) {
	router, _ := newTestRouter(t)

	body := bytes.NewBufferString(`{"idle_funds_amount": -5}`)
	req := httptest.NewRequest("POST", "/trading/plan", body)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleExecutePlan_NotFound(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest("POST", "/trading/execute/missing", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleExecuteAndPositions(t *testing.T) {
	router, service := newTestRouter(t)

	plan, err := service.GeneratePlan(context.Background(), 1.0)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/trading/execute/"+plan.PlanID, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest("GET", "/trading/positions", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Positions []Position `json:"positions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Positions, 3)
}

func TestHandleClosePosition_Conflict(t *testing.T) {
	router, service := newTestRouter(t)
	pos := executeOnePosition(t, service)

	_, err := service.ClosePosition(context.Background(), pos.PositionID, nil)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/trading/positions/"+pos.PositionID+"/close", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestHandleUpdatePosition_WithPrice(t *testing.T) {
	router, service := newTestRouter(t)
	pos := executeOnePosition(t, service)

	body := bytes.NewBufferString(`{"current_price": 99999}`)
	req := httptest.NewRequest("POST", "/trading/positions/"+pos.PositionID+"/update", body)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var updated Position
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, 99999.0, updated.CurrentPrice)
}

func TestHandlePerformance(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest("GET", "/trading/performance", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var report PerformanceReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, 0, report.TotalTrades)
}
