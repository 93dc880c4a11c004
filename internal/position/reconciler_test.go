package position

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/updownhq/terminal/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testMarket(id string) domain.Market {
	start := time.Now().Truncate(time.Hour)
	return domain.Market{
		ID:        id,
		Pair:      "BTC/USD",
		Timeframe: "1h",
		UpToken:   id + "-up",
		DownToken: id + "-down",
		StartTime: start,
		EndTime:   start.Add(time.Hour),
	}
}

type fakeSource struct {
	positions []domain.Position
	err       error
	onFetch   func()
}

func (f *fakeSource) Positions(ctx context.Context, wallet string) ([]domain.Position, error) {
	if f.onFetch != nil {
		f.onFetch()
	}
	return f.positions, f.err
}

func TestRefreshFiltersToActiveMarket(t *testing.T) {
	m := testMarket("mkt-1")
	src := &fakeSource{positions: []domain.Position{
		{TokenID: m.UpToken, Shares: 12, AvgPriceCents: 48},
		{TokenID: m.DownToken, Shares: 3, AvgPriceCents: 55},
		{TokenID: "unrelated-tok", Shares: 100, AvgPriceCents: 10},
	}}

	r := NewReconciler(src, testLogger())
	r.SetWallet("0xwallet")
	r.SetMarket(m)

	if err := r.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	if got := r.Shares(m.UpToken); got != 12 {
		t.Fatalf("Shares(up) = %v, want 12", got)
	}
	if got := r.Shares("unrelated-tok"); got != 0 {
		t.Fatalf("Shares(unrelated) = %v, foreign tokens must not land", got)
	}

	up, down := r.Pair()
	if up.Shares != 12 || up.AvgPriceCents != 48 {
		t.Fatalf("up = %+v, want 12 shares at 48c", up)
	}
	if down.Shares != 3 || down.TokenID != m.DownToken {
		t.Fatalf("down = %+v, want 3 shares with token stamped", down)
	}
}

func TestRefreshWithoutWalletIsNoop(t *testing.T) {
	src := &fakeSource{onFetch: func() {
		panic("fetch should not run without a wallet")
	}}
	r := NewReconciler(src, testLogger())
	r.SetMarket(testMarket("mkt-1"))

	if err := r.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
}

func TestRefreshFailureKeepsPreviousCache(t *testing.T) {
	m := testMarket("mkt-1")
	src := &fakeSource{positions: []domain.Position{
		{TokenID: m.UpToken, Shares: 7},
	}}

	r := NewReconciler(src, testLogger())
	r.SetWallet("0xwallet")
	r.SetMarket(m)
	if err := r.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	src.err = errors.New("data api unavailable")
	src.positions = nil
	if err := r.Refresh(context.Background()); err == nil {
		t.Fatalf("Refresh should surface the fetch error")
	}

	if got := r.Shares(m.UpToken); got != 7 {
		t.Fatalf("Shares(up) = %v, failed refresh must not clear the cache", got)
	}
}

func TestRefreshDiscardsWhenMarketMoves(t *testing.T) {
	m1 := testMarket("mkt-1")
	m2 := testMarket("mkt-2")
	m2.Pair = "ETH/USD"

	r := NewReconciler(nil, testLogger())
	src := &fakeSource{
		positions: []domain.Position{{TokenID: m1.UpToken, Shares: 9}},
		// Market rolls over while the fetch is in flight.
		onFetch: func() { r.SetMarket(m2) },
	}
	r.source = src
	r.SetWallet("0xwallet")
	r.SetMarket(m1)

	if err := r.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if got := r.Shares(m1.UpToken); got != 0 {
		t.Fatalf("Shares = %v, fetch keyed to the old market must be discarded", got)
	}
}

func TestRefreshDiscardsWhenWalletChanges(t *testing.T) {
	m := testMarket("mkt-1")
	r := NewReconciler(nil, testLogger())
	src := &fakeSource{
		positions: []domain.Position{{TokenID: m.UpToken, Shares: 9}},
		onFetch:   func() { r.SetWallet("0xother") },
	}
	r.source = src
	r.SetWallet("0xwallet")
	r.SetMarket(m)

	if err := r.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if got := r.Shares(m.UpToken); got != 0 {
		t.Fatalf("Shares = %v, fetch keyed to the old wallet must be discarded", got)
	}
}

func TestSetMarketClearsCache(t *testing.T) {
	m1 := testMarket("mkt-1")
	src := &fakeSource{positions: []domain.Position{{TokenID: m1.UpToken, Shares: 4}}}

	r := NewReconciler(src, testLogger())
	r.SetWallet("0xwallet")
	r.SetMarket(m1)
	if err := r.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	r.SetMarket(testMarket("mkt-2"))
	if got := r.Shares(m1.UpToken); got != 0 {
		t.Fatalf("Shares = %v, market change must invalidate the cache", got)
	}
}

func TestGetStampsTokenID(t *testing.T) {
	r := NewReconciler(&fakeSource{}, testLogger())
	p := r.Get("some-tok")
	if p.TokenID != "some-tok" || p.Shares != 0 {
		t.Fatalf("Get on unknown token = %+v, want zero position with token stamped", p)
	}
}
