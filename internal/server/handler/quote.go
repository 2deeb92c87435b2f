package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/tradewatch/arbscan/internal/domain"
)

// QuoteHandler serves the latest normalized quotes per venue from the cache.
type QuoteHandler struct {
	cache  domain.QuoteCache
	logger *slog.Logger
}

func NewQuoteHandler(cache domain.QuoteCache, logger *slog.Logger) *QuoteHandler {
	return &QuoteHandler{
		cache:  cache,
		logger: logger.With(slog.String("handler", "quote")),
	}
}

// ListQuotes returns the cached quotes for one venue.
// GET /api/quotes?venue=polymarket
func (h *QuoteHandler) ListQuotes(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		writeError(w, http.StatusNotImplemented, "quote cache is not configured")
		return
	}

	venue := domain.Venue(r.URL.Query().Get("venue"))
	if !venue.Valid() {
		writeError(w, http.StatusBadRequest, "venue must be one of: polymarket, kalshi")
		return
	}

	quotes, err := h.cache.GetQuotes(r.Context(), venue)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeJSON(w, http.StatusOK, map[string]any{
				"venue":  venue,
				"count":  0,
				"quotes": []domain.Quote{},
			})
			return
		}
		h.logger.Error("get quotes failed",
			slog.String("venue", string(venue)),
			slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to load quotes")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"venue":  venue,
		"count":  len(quotes),
		"quotes": quotes,
	})
}
