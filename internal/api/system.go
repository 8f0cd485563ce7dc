package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mtlprog/lpmon/internal/domain"
	"github.com/mtlprog/lpmon/internal/price"
	"github.com/mtlprog/lpmon/internal/scheduler"
)

// Prices is the price cache surface exposed over HTTP.
type Prices interface {
	GetPrice(ctx context.Context, mint string) (domain.TokenPrice, bool)
	AllCachedPrices() map[string]domain.TokenPrice
	CacheStatus() price.CacheStatus
	ClearCache()
}

// Tasks is the scheduler surface exposed over HTTP.
type Tasks interface {
	Status() scheduler.Status
	ExecuteTask(ctx context.Context, name string) bool
}

// SystemHandler provides price, scheduler and health endpoints.
type SystemHandler struct {
	prices Prices
	tasks  Tasks
}

func NewSystemHandler(prices Prices, tasks Tasks) *SystemHandler {
	return &SystemHandler{prices: prices, tasks: tasks}
}

// Health handles GET /health.
func (h *SystemHandler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"message":   "LP monitor is running",
		"timestamp": time.Now().UTC(),
		"services": map[string]any{
			"priceService": map[string]any{"running": true, "cache": h.prices.CacheStatus()},
			"scheduler":    h.tasks.Status(),
		},
	})
}

// ListPrices handles GET /api/prices.
func (h *SystemHandler) ListPrices(w http.ResponseWriter, _ *http.Request) {
	writeData(w, map[string]any{
		"cacheStatus": h.prices.CacheStatus(),
		"prices":      h.prices.AllCachedPrices(),
	})
}

// PriceStatus handles GET /api/prices/status.
func (h *SystemHandler) PriceStatus(w http.ResponseWriter, _ *http.Request) {
	writeData(w, h.prices.CacheStatus())
}

// GetPrice handles GET /api/prices/{mint}.
func (h *SystemHandler) GetPrice(w http.ResponseWriter, r *http.Request) {
	mint := chi.URLParam(r, "mint")
	p, ok := h.prices.GetPrice(r.Context(), mint)
	if !ok {
		writeError(w, http.StatusNotFound, "no price available for "+mint)
		return
	}
	writeData(w, p)
}

// ClearPrices handles POST /api/prices/clear.
func (h *SystemHandler) ClearPrices(w http.ResponseWriter, _ *http.Request) {
	h.prices.ClearCache()
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: "Price cache cleared"})
}

// SchedulerStatus handles GET /api/scheduler/status.
func (h *SystemHandler) SchedulerStatus(w http.ResponseWriter, _ *http.Request) {
	writeData(w, h.tasks.Status())
}

// RunTask handles POST /api/scheduler/tasks/{name}/run.
func (h *SystemHandler) RunTask(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !h.tasks.ExecuteTask(r.Context(), name) {
		for _, t := range h.tasks.Status().Tasks {
			if t.Name == name {
				writeError(w, http.StatusInternalServerError, "task "+name+" failed")
				return
			}
		}
		writeError(w, http.StatusNotFound, "task "+name+" not found")
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: "task " + name + " executed"})
}
