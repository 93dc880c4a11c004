package handler

import (
	"log/slog"
	"net/http"

	"github.com/updownhq/terminal/internal/domain"
)

// FillHandler serves the account's settled-order history.
type FillHandler struct {
	store  domain.FillStore
	wallet string
	logger *slog.Logger
}

// NewFillHandler creates a FillHandler for the configured wallet.
func NewFillHandler(store domain.FillStore, wallet string, logger *slog.Logger) *FillHandler {
	return &FillHandler{
		store:  store,
		wallet: wallet,
		logger: logHandler(logger, "fill"),
	}
}

// ListFills returns the wallet's most recent fills, newest first.
// GET /api/fills?limit=50
func (h *FillHandler) ListFills(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, 50)

	fills, err := h.store.ListByWallet(r.Context(), h.wallet, limit)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "fill list failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "fill history unavailable")
		return
	}
	if fills == nil {
		fills = []domain.Fill{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"fills": fills})
}
