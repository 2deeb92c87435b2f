package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/tradewatch/arbscan/internal/arbitrage"
	"github.com/tradewatch/arbscan/internal/pipeline"
)

// StatusHandler reports runtime state: mode, uptime, live opportunity
// count, and the last cycle summary.
type StatusHandler struct {
	registry     *arbitrage.Registry
	orchestrator *pipeline.Orchestrator
	mode         string
	startedAt    time.Time
	logger       *slog.Logger
}

func NewStatusHandler(registry *arbitrage.Registry, orchestrator *pipeline.Orchestrator, mode string, startedAt time.Time, logger *slog.Logger) *StatusHandler {
	return &StatusHandler{
		registry:     registry,
		orchestrator: orchestrator,
		mode:         mode,
		startedAt:    startedAt,
		logger:       logger.With(slog.String("handler", "status")),
	}
}

// GetStatus returns the runtime status snapshot.
// GET /api/status
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"mode":               h.mode,
		"started_at":         h.startedAt.UTC().Format(time.RFC3339),
		"uptime_seconds":     int64(time.Since(h.startedAt).Seconds()),
		"live_opportunities": h.registry.Len(),
	}
	if res, ok := h.orchestrator.LastResult(); ok {
		status["last_cycle"] = res
	}
	writeJSON(w, http.StatusOK, status)
}
