// Package feed contains the long-running pollers that keep the terminal's
// market state fresh: the order-book feed and the active-market watcher.
package feed

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/updownhq/terminal/internal/book"
	"github.com/updownhq/terminal/internal/clock"
	"github.com/updownhq/terminal/internal/domain"
)

// BookSource fetches one token's raw book payload.
type BookSource interface {
	OrderBookRaw(ctx context.Context, tokenID string) ([]byte, error)
}

// BookFeed periodically fetches both outcome books in parallel, normalizes
// them, and fans the snapshots out to the cache and the signal bus. Results
// are tagged with the market generation at fetch time; a market switch
// mid-flight turns the landing into a no-op.
type BookFeed struct {
	source BookSource
	cache  domain.BookCache
	bus    domain.SignalBus
	ticks  clock.Source
	logger *slog.Logger

	interval time.Duration
	now      func() time.Time

	mu     sync.Mutex
	gen    uint64
	market domain.Market
}

// NewBookFeed creates a BookFeed. cache and bus may be nil.
func NewBookFeed(source BookSource, cache domain.BookCache, bus domain.SignalBus, ticks clock.Source, interval time.Duration, logger *slog.Logger) *BookFeed {
	if interval <= 0 {
		interval = time.Second
	}
	return &BookFeed{
		source:   source,
		cache:    cache,
		bus:      bus,
		ticks:    ticks,
		logger:   logger.With(slog.String("component", "book_feed")),
		interval: interval,
		now:      time.Now,
	}
}

// SetMarket switches the feed to a new market. Any in-flight refresh for
// the previous market is abandoned on landing.
func (f *BookFeed) SetMarket(m domain.Market) {
	f.mu.Lock()
	f.gen++
	f.market = m
	f.mu.Unlock()
}

// Run drives the feed until the context is cancelled.
func (f *BookFeed) Run(ctx context.Context) error {
	ticker := f.ticks.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C():
			f.refresh(ctx)
		}
	}
}

// refresh performs one tick's work: parallel fetch, normalize, publish.
func (f *BookFeed) refresh(ctx context.Context) {
	f.mu.Lock()
	gen := f.gen
	m := f.market
	f.mu.Unlock()

	if m.UpToken == "" || m.DownToken == "" {
		return
	}
	if m.StatusAt(f.now()) == domain.MarketStatusEnded {
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	var upRaw, downRaw []byte
	g.Go(func() error {
		var err error
		upRaw, err = f.source.OrderBookRaw(gctx, m.UpToken)
		return err
	})
	g.Go(func() error {
		var err error
		downRaw, err = f.source.OrderBookRaw(gctx, m.DownToken)
		return err
	})
	if err := g.Wait(); err != nil {
		f.logger.DebugContext(ctx, "book refresh failed",
			slog.String("market", m.ID),
			slog.String("error", err.Error()),
		)
		return
	}

	now := f.now()
	books := []domain.OrderBook{
		book.Normalize(m.UpToken, upRaw, now),
		book.Normalize(m.DownToken, downRaw, now),
	}

	f.mu.Lock()
	stale := gen != f.gen
	f.mu.Unlock()
	if stale {
		return
	}

	for _, b := range books {
		if f.cache != nil {
			if err := f.cache.SetBook(ctx, b); err != nil {
				f.logger.WarnContext(ctx, "book cache write failed",
					slog.String("token", b.TokenID),
					slog.String("error", err.Error()),
				)
			}
		}
		if f.bus != nil {
			payload, _ := json.Marshal(b)
			if err := f.bus.Publish(ctx, "ch:book:"+b.TokenID, payload); err != nil {
				f.logger.WarnContext(ctx, "book publish failed",
					slog.String("token", b.TokenID),
					slog.String("error", err.Error()),
				)
			}
		}
	}
}
