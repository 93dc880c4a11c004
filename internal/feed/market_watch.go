package feed

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/updownhq/terminal/internal/clock"
	"github.com/updownhq/terminal/internal/domain"
)

// ChangeHandler observes a market switch. prev is the zero Market on the
// first resolution.
type ChangeHandler func(ctx context.Context, prev, next domain.Market)

// MarketWatch polls the resolver and announces when the active market
// window changes (timer rollover or operator navigation). All per-market
// state in the system keys off these announcements.
type MarketWatch struct {
	resolver  domain.MarketResolver
	cache     domain.MarketCache
	bus       domain.SignalBus
	ticks     clock.Source
	logger    *slog.Logger
	pair      string
	timeframe string
	offset    int
	interval  time.Duration

	mu       sync.Mutex
	current  domain.Market
	handlers []ChangeHandler
}

// NewMarketWatch creates a MarketWatch for one (pair, timeframe, offset)
// view. cache and bus may be nil.
func NewMarketWatch(
	resolver domain.MarketResolver,
	cache domain.MarketCache,
	bus domain.SignalBus,
	ticks clock.Source,
	pair, timeframe string,
	offset int,
	interval time.Duration,
	logger *slog.Logger,
) *MarketWatch {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &MarketWatch{
		resolver:  resolver,
		cache:     cache,
		bus:       bus,
		ticks:     ticks,
		logger:    logger.With(slog.String("component", "market_watch")),
		pair:      pair,
		timeframe: timeframe,
		offset:    offset,
		interval:  interval,
	}
}

// OnChange registers a handler called on every market switch, in
// registration order. Register before Run.
func (w *MarketWatch) OnChange(h ChangeHandler) {
	w.mu.Lock()
	w.handlers = append(w.handlers, h)
	w.mu.Unlock()
}

// Current returns the active market; the zero Market before first
// resolution.
func (w *MarketWatch) Current() domain.Market {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// Run resolves immediately, then keeps polling until the context is
// cancelled.
func (w *MarketWatch) Run(ctx context.Context) error {
	w.poll(ctx)

	ticker := w.ticks.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C():
			w.poll(ctx)
		}
	}
}

func (w *MarketWatch) poll(ctx context.Context) {
	next, err := w.resolver.Resolve(ctx, w.pair, w.timeframe, w.offset)
	if err != nil {
		w.logger.WarnContext(ctx, "market resolution failed",
			slog.String("pair", w.pair),
			slog.String("timeframe", w.timeframe),
			slog.String("error", err.Error()),
		)
		// A resolver outage right after a restart can still be bridged by
		// the cached window.
		if w.cache != nil && w.Current().ID == "" {
			if cached, cerr := w.cache.Get(ctx, w.pair, w.timeframe); cerr == nil {
				next = cached
			} else {
				return
			}
		} else {
			return
		}
	}

	w.mu.Lock()
	prev := w.current
	changed := prev.Key() != next.Key()
	if changed {
		w.current = next
	}
	handlers := w.handlers
	w.mu.Unlock()

	if !changed {
		return
	}

	w.logger.InfoContext(ctx, "active market changed",
		slog.String("from", prev.ID),
		slog.String("to", next.ID),
		slog.Time("window_end", next.EndTime),
	)

	if w.cache != nil {
		ttl := time.Until(next.EndTime)
		if ttl > 0 {
			if err := w.cache.Set(ctx, next, ttl); err != nil {
				w.logger.WarnContext(ctx, "market cache write failed",
					slog.String("error", err.Error()),
				)
			}
		}
	}
	if w.bus != nil {
		payload, _ := json.Marshal(next)
		if err := w.bus.Publish(ctx, "ch:market", payload); err != nil {
			w.logger.WarnContext(ctx, "market publish failed",
				slog.String("error", err.Error()),
			)
		}
	}

	for _, h := range handlers {
		h(ctx, prev, next)
	}
}
