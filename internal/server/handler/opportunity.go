package handler

import (
	"log/slog"
	"net/http"

	"github.com/tradewatch/arbscan/internal/arbitrage"
	"github.com/tradewatch/arbscan/internal/domain"
)

// OpportunityHandler serves the live opportunity set and, when a store is
// configured, detection history.
type OpportunityHandler struct {
	registry *arbitrage.Registry
	store    domain.OpportunityStore // nil when persistence is disabled
	logger   *slog.Logger
}

func NewOpportunityHandler(registry *arbitrage.Registry, store domain.OpportunityStore, logger *slog.Logger) *OpportunityHandler {
	return &OpportunityHandler{
		registry: registry,
		store:    store,
		logger:   logger.With(slog.String("handler", "opportunity")),
	}
}

// ListLive returns the current opportunities sorted by net edge descending.
// GET /api/opportunities
func (h *OpportunityHandler) ListLive(w http.ResponseWriter, r *http.Request) {
	opps := h.registry.List()

	limit := queryLimit(r, len(opps), 500)
	if limit > len(opps) {
		limit = len(opps)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"count":         len(opps),
		"opportunities": opps[:limit],
	})
}

// ListHistory returns recently detected opportunities from the store.
// GET /api/opportunities/history
func (h *OpportunityHandler) ListHistory(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, http.StatusNotImplemented, "history persistence is not configured")
		return
	}

	limit := queryLimit(r, 50, 500)
	opps, err := h.store.ListRecent(r.Context(), limit)
	if err != nil {
		h.logger.Error("list history failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to load history")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"count":         len(opps),
		"opportunities": opps,
	})
}
