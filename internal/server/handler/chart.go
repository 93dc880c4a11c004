package handler

import (
	"log/slog"
	"net/http"

	"github.com/updownhq/terminal/internal/domain"
)

// ChartSource exposes the synchronized chart series for the active market.
type ChartSource interface {
	Series() []domain.ChartPoint
	Market() domain.Market
}

// MarkerSource exposes the trade markers still inside their retention
// window.
type MarkerSource interface {
	Active() []domain.TradeMarker
}

// ChartHandler serves the chart series plus active trade markers.
type ChartHandler struct {
	chart   ChartSource
	markers MarkerSource
	logger  *slog.Logger
}

// NewChartHandler creates a ChartHandler. markers may be nil.
func NewChartHandler(chart ChartSource, markers MarkerSource, logger *slog.Logger) *ChartHandler {
	return &ChartHandler{
		chart:   chart,
		markers: markers,
		logger:  logHandler(logger, "chart"),
	}
}

// GetChart returns the full series for the market currently on screen.
// GET /api/chart
func (h *ChartHandler) GetChart(w http.ResponseWriter, r *http.Request) {
	m := h.chart.Market()
	if m.ID == "" {
		writeError(w, http.StatusNotFound, "no active market")
		return
	}

	resp := map[string]any{
		"marketId": m.ID,
		"series":   h.chart.Series(),
	}
	if h.markers != nil {
		resp["markers"] = h.markers.Active()
	}
	writeJSON(w, http.StatusOK, resp)
}
