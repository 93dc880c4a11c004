package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/updownhq/terminal/internal/domain"
)

// BookHandler serves the latest normalized order book per outcome.
type BookHandler struct {
	books   domain.BookCache
	markets MarketSource
	logger  *slog.Logger
}

// NewBookHandler creates a BookHandler.
func NewBookHandler(books domain.BookCache, markets MarketSource, logger *slog.Logger) *BookHandler {
	return &BookHandler{
		books:   books,
		markets: markets,
		logger:  logHandler(logger, "book"),
	}
}

// GetBook returns the cached book snapshot for one outcome of the active
// market.
// GET /api/book?outcome=up|down
func (h *BookHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	m := h.markets.Current()
	if m.ID == "" {
		writeError(w, http.StatusNotFound, "no active market")
		return
	}

	outcome := r.URL.Query().Get("outcome")
	tokenID, ok := m.TokenFor(outcome)
	if !ok {
		writeError(w, http.StatusBadRequest, "outcome must be up or down")
		return
	}

	book, err := h.books.GetBook(r.Context(), tokenID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "book not yet available")
			return
		}
		h.logger.ErrorContext(r.Context(), "book lookup failed",
			slog.String("token", tokenID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "book lookup failed")
		return
	}

	writeJSON(w, http.StatusOK, book)
}
