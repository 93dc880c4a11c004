package handler

import (
	"log/slog"
	"net/http"

	"github.com/updownhq/terminal/internal/domain"
)

// PositionSource exposes the reconciled positions for the active market.
type PositionSource interface {
	Pair() (up, down domain.Position)
}

// PositionHandler serves the wallet's position in the active market.
type PositionHandler struct {
	positions PositionSource
	markets   MarketSource
	logger    *slog.Logger
}

// NewPositionHandler creates a PositionHandler.
func NewPositionHandler(positions PositionSource, markets MarketSource, logger *slog.Logger) *PositionHandler {
	return &PositionHandler{
		positions: positions,
		markets:   markets,
		logger:    logHandler(logger, "position"),
	}
}

// ListPositions returns the up and down holdings for the active market.
// Unknown positions read as zero shares.
// GET /api/positions
func (h *PositionHandler) ListPositions(w http.ResponseWriter, r *http.Request) {
	m := h.markets.Current()
	if m.ID == "" {
		writeError(w, http.StatusNotFound, "no active market")
		return
	}

	up, down := h.positions.Pair()
	writeJSON(w, http.StatusOK, map[string]any{
		"marketId": m.ID,
		"up":       up,
		"down":     down,
	})
}
