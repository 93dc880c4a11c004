package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/updownhq/terminal/internal/domain"
)

// OrderService runs the order lifecycle for one submission at a time.
type OrderService interface {
	Submit(ctx context.Context, intent domain.Intent) (domain.OrderPlaced, error)
	NeedsReauth() bool
}

// OrderHandler accepts order submissions from terminal sessions.
type OrderHandler struct {
	orders  OrderService
	markets MarketSource
	logger  *slog.Logger
}

// NewOrderHandler creates an OrderHandler.
func NewOrderHandler(orders OrderService, markets MarketSource, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{
		orders:  orders,
		markets: markets,
		logger:  logHandler(logger, "order"),
	}
}

// placeOrderRequest is the JSON body for order submission. The outcome is
// resolved to a token against the active market server-side, so a stale
// session cannot trade a window it is no longer looking at.
type placeOrderRequest struct {
	Outcome    string  `json:"outcome"`
	Side       string  `json:"side"`
	Mode       string  `json:"mode"`
	PriceCents float64 `json:"priceCents"`
	Shares     float64 `json:"shares"`
}

// PlaceOrder validates and submits one order through the lifecycle.
// POST /api/orders
func (h *OrderHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	m := h.markets.Current()
	if m.ID == "" {
		writeError(w, http.StatusNotFound, "no active market")
		return
	}

	tokenID, ok := m.TokenFor(req.Outcome)
	if !ok {
		writeError(w, http.StatusBadRequest, "outcome must be up or down")
		return
	}

	side := domain.OrderSide(req.Side)
	mode := domain.ExecutionMode(req.Mode)
	if mode == "" {
		mode = domain.ExecutionModeMarket
	}

	placed, err := h.orders.Submit(r.Context(), domain.Intent{
		TokenID:    tokenID,
		Side:       side,
		Mode:       mode,
		PriceCents: req.PriceCents,
		Shares:     req.Shares,
	})
	if err != nil {
		h.writeOrderError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"order":       placed,
		"needsReauth": h.orders.NeedsReauth(),
	})
}

// writeOrderError maps lifecycle failures to HTTP statuses without losing
// the user-facing message.
func (h *OrderHandler) writeOrderError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, domain.ErrBusy) {
		writeError(w, http.StatusConflict, "an order is already in flight")
		return
	}

	kind := domain.TradeErrorKindOf(err)
	status := http.StatusBadGateway
	switch kind {
	case domain.TradeErrValidation:
		status = http.StatusBadRequest
	case domain.TradeErrInsufficientBalance,
		domain.TradeErrInsufficientAllowance,
		domain.TradeErrInsufficientPosition:
		status = http.StatusUnprocessableEntity
	case domain.TradeErrApprovalPending:
		status = http.StatusAccepted
	case domain.TradeErrLiquidity:
		status = http.StatusConflict
	case domain.TradeErrCredentialMismatch:
		status = http.StatusUnauthorized
	case domain.TradeErrVenueRejected, domain.TradeErrNetwork:
		status = http.StatusBadGateway
	}

	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "order submission failed",
			slog.String("kind", string(kind)),
			slog.String("error", err.Error()),
		)
	}

	var te *domain.TradeError
	msg := "order failed"
	if errors.As(err, &te) {
		msg = te.Message
	}
	writeJSON(w, status, map[string]any{
		"error": msg,
		"kind":  string(kind),
	})
}
