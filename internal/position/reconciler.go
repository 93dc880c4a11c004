// Package position maintains the read-through cache of the user's outcome
// token holdings for the active market.
package position

import (
	"context"
	"log/slog"
	"sync"

	"github.com/updownhq/terminal/internal/domain"
)

// Source fetches authoritative positions for a wallet from the venue.
type Source interface {
	Positions(ctx context.Context, wallet string) ([]domain.Position, error)
}

// Reconciler caches held shares and average entry price per outcome token,
// keyed to the active market and wallet. A fetch failure leaves zeroed
// positions rather than an error: a stale "0 shares" blocks nothing but a
// thrown error would block the whole panel.
type Reconciler struct {
	source Source
	logger *slog.Logger

	mu      sync.Mutex
	wallet  string
	market  domain.Market
	byToken map[string]domain.Position
}

// NewReconciler creates a Reconciler for the given source.
func NewReconciler(source Source, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		source:  source,
		logger:  logger.With(slog.String("component", "position_reconciler")),
		byToken: make(map[string]domain.Position),
	}
}

// SetMarket invalidates the cache for a new market window.
func (r *Reconciler) SetMarket(m domain.Market) {
	r.mu.Lock()
	r.market = m
	r.byToken = make(map[string]domain.Position)
	r.mu.Unlock()
}

// SetWallet invalidates the cache for a new wallet address.
func (r *Reconciler) SetWallet(wallet string) {
	r.mu.Lock()
	if r.wallet != wallet {
		r.wallet = wallet
		r.byToken = make(map[string]domain.Position)
	}
	r.mu.Unlock()
}

// Refresh refetches positions for the active wallet and keeps only the two
// tokens of the active market. On failure the previous cache is left
// untouched (no partial writes) and the error is logged, not returned as a
// hard failure to read paths.
func (r *Reconciler) Refresh(ctx context.Context) error {
	r.mu.Lock()
	wallet := r.wallet
	m := r.market
	r.mu.Unlock()

	if wallet == "" {
		return nil
	}

	all, err := r.source.Positions(ctx, wallet)
	if err != nil {
		r.logger.WarnContext(ctx, "position refresh failed",
			slog.String("wallet", wallet),
			slog.String("error", err.Error()),
		)
		return err
	}

	next := make(map[string]domain.Position, 2)
	for _, p := range all {
		if p.TokenID == m.UpToken || p.TokenID == m.DownToken {
			next[p.TokenID] = p
		}
	}

	r.mu.Lock()
	// Discard if the market or wallet moved while the fetch was in flight.
	if r.wallet == wallet && r.market.Key() == m.Key() {
		r.byToken = next
	}
	r.mu.Unlock()
	return nil
}

// Shares returns the held share count for a token, zero when unknown. This
// is the "available to sell" quantity.
func (r *Reconciler) Shares(tokenID string) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byToken[tokenID].Shares
}

// Get returns the cached position for a token; the zero Position when
// unknown.
func (r *Reconciler) Get(tokenID string) domain.Position {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.byToken[tokenID]
	p.TokenID = tokenID
	return p
}

// Pair returns the cached up/down positions for the active market.
func (r *Reconciler) Pair() (up, down domain.Position) {
	r.mu.Lock()
	defer r.mu.Unlock()
	up = r.byToken[r.market.UpToken]
	up.TokenID = r.market.UpToken
	down = r.byToken[r.market.DownToken]
	down.TokenID = r.market.DownToken
	return up, down
}
