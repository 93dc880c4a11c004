package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/updownhq/terminal/internal/domain"
)

// MarketSource exposes the currently active market window.
type MarketSource interface {
	Current() domain.Market
}

// MarketHandler serves the active market window.
type MarketHandler struct {
	markets MarketSource
	logger  *slog.Logger
}

// NewMarketHandler creates a MarketHandler.
func NewMarketHandler(markets MarketSource, logger *slog.Logger) *MarketHandler {
	return &MarketHandler{
		markets: markets,
		logger:  logHandler(logger, "market"),
	}
}

// GetMarket returns the active market window for the terminal's view.
// GET /api/market
func (h *MarketHandler) GetMarket(w http.ResponseWriter, r *http.Request) {
	m := h.markets.Current()
	if m.ID == "" {
		writeError(w, http.StatusNotFound, "no active market")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"market": m,
		"status": string(m.StatusAt(time.Now())),
	})
}
