// Package chart maintains the per-market price series that backs the
// terminal's chart: historical backfill merged with a live tick feed, plus
// the ephemeral trade-marker overlay.
package chart

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/updownhq/terminal/internal/clock"
	"github.com/updownhq/terminal/internal/domain"
)

// HistorySource provides the one-shot historical backfill for a market
// window.
type HistorySource interface {
	PriceHistory(ctx context.Context, m domain.Market, start, end time.Time) ([]domain.ChartPoint, error)
}

// QuoteSource provides the current best bid for both outcomes, used to
// extend a live market's series between history fetches.
type QuoteSource interface {
	BestBids(ctx context.Context, upToken, downToken string) (up, down float64, err error)
}

// DefaultMergeTolerance is the coincidence window: a live tick landing this
// close to the series tail replaces the tail instead of appending, which
// bounds series growth to one point per tick under clock jitter.
const DefaultMergeTolerance = 750 * time.Millisecond

// backfillMaxInterval caps the retry backoff for history fetches.
const backfillMaxInterval = 5 * time.Second

// Synchronizer owns one ordered ChartPoint series for the active market.
// All mutation goes through SetMarket and the internal apply paths; readers
// get copies. Every async result is tagged with the generation at issue
// time and discarded if the generation has advanced by completion, so a
// slow response for market A can never touch state after a switch to B.
type Synchronizer struct {
	history HistorySource
	quotes  QuoteSource
	ticks   clock.Source
	logger  *slog.Logger

	interval  time.Duration
	tolerance time.Duration
	retries   uint
	now       func() time.Time

	// notify, when set, observes every applied live point. Called outside
	// the lock.
	notify func(domain.Market, domain.ChartPoint)

	mu      sync.Mutex
	gen     uint64
	market  domain.Market
	series  []domain.ChartPoint
	fetched map[string]bool
	ticker  clock.Ticker
}

// Config carries the synchronizer's tunables.
type Config struct {
	TickInterval   time.Duration
	MergeTolerance time.Duration
	BackfillTries  uint
}

// NewSynchronizer creates a Synchronizer. ticks supplies the live polling
// cadence; pass a clock.Manual source in tests.
func NewSynchronizer(history HistorySource, quotes QuoteSource, ticks clock.Source, cfg Config, logger *slog.Logger) *Synchronizer {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Second
	}
	if cfg.MergeTolerance <= 0 {
		cfg.MergeTolerance = DefaultMergeTolerance
	}
	if cfg.BackfillTries == 0 {
		cfg.BackfillTries = 4
	}
	return &Synchronizer{
		history:   history,
		quotes:    quotes,
		ticks:     ticks,
		logger:    logger.With(slog.String("component", "series_sync")),
		interval:  cfg.TickInterval,
		tolerance: cfg.MergeTolerance,
		retries:   cfg.BackfillTries,
		now:       time.Now,
		fetched:   make(map[string]bool),
	}
}

// SetNotify registers an observer for applied live points.
func (s *Synchronizer) SetNotify(fn func(domain.Market, domain.ChartPoint)) {
	s.mu.Lock()
	s.notify = fn
	s.mu.Unlock()
}

// SetMarket switches the synchronizer to a new market window: the series is
// cleared, the live ticker is cancelled, and backfill starts for the new
// key. Calling it again with the same window is a no-op, which is what
// keeps history fetched exactly once per (market id, start time).
func (s *Synchronizer) SetMarket(ctx context.Context, m domain.Market) {
	s.mu.Lock()
	if s.market.Key() == m.Key() && s.fetched[m.Key()] {
		s.mu.Unlock()
		return
	}
	s.gen++
	gen := s.gen
	if s.ticker != nil {
		s.ticker.Stop()
		s.ticker = nil
	}
	s.market = m
	s.series = nil
	s.fetched = map[string]bool{}
	s.mu.Unlock()

	go s.sync(ctx, gen, m)
}

// Stop cancels the live ticker and bumps the generation so any in-flight
// work lands as a no-op.
func (s *Synchronizer) Stop() {
	s.mu.Lock()
	s.gen++
	if s.ticker != nil {
		s.ticker.Stop()
		s.ticker = nil
	}
	s.mu.Unlock()
}

// Series returns a copy of the current series.
func (s *Synchronizer) Series() []domain.ChartPoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.ChartPoint, len(s.series))
	copy(out, s.series)
	return out
}

// Market returns the market the series currently belongs to.
func (s *Synchronizer) Market() domain.Market {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.market
}

// sync backfills history for the captured generation and, once the window
// is open, runs the tick loop. A market resolved before its start time has
// no history yet; the goroutine waits for the window to open instead of
// returning, so early resolutions still get a live chart. Runs on its own
// goroutine per SetMarket.
func (s *Synchronizer) sync(ctx context.Context, gen uint64, m domain.Market) {
	now := s.now()
	status := m.StatusAt(now)
	end := m.EndTime
	if status == domain.MarketStatusLive {
		end = now
	}

	var points []domain.ChartPoint
	if status != domain.MarketStatusScheduled {
		var err error
		points, err = s.backfill(ctx, m, m.StartTime, end)
		if err != nil {
			s.logger.WarnContext(ctx, "history backfill failed",
				slog.String("market", m.ID),
				slog.String("error", err.Error()),
			)
			// Live markets still tick; the chart fills forward from now.
			points = nil
		}
	}

	if !s.applyHistory(gen, m, points) {
		return
	}

	if status == domain.MarketStatusEnded {
		return
	}
	if status == domain.MarketStatusScheduled && !s.waitForOpen(ctx, gen, m) {
		return
	}

	ticker := s.ticks.NewTicker(s.interval)
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		ticker.Stop()
		return
	}
	s.ticker = ticker
	s.mu.Unlock()

	for {
		select {
		case <-ctx.Done():
			ticker.Stop()
			return
		case <-ticker.C():
			if s.now().After(m.EndTime) {
				ticker.Stop()
				return
			}
			if !s.liveTick(ctx, gen, m) {
				ticker.Stop()
				return
			}
		}
	}
}

// waitForOpen blocks a scheduled market's sync goroutine until the window
// opens. Reports false when the context is cancelled or the generation
// advances while waiting.
func (s *Synchronizer) waitForOpen(ctx context.Context, gen uint64, m domain.Market) bool {
	timer := time.NewTimer(m.StartTime.Sub(s.now()))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
	}

	s.mu.Lock()
	current := gen == s.gen
	s.mu.Unlock()
	return current
}

// backfill fetches the historical window with exponential backoff on
// transport failure.
func (s *Synchronizer) backfill(ctx context.Context, m domain.Market, start, end time.Time) ([]domain.ChartPoint, error) {
	bo := backoff.NewExponentialBackOff()
	bo.MaxInterval = backfillMaxInterval

	var lastErr error
	for attempt := uint(0); attempt < s.retries; attempt++ {
		points, err := s.history.PriceHistory(ctx, m, start, end)
		if err == nil {
			return points, nil
		}
		lastErr = err

		sleep := bo.NextBackOff()
		if sleep == backoff.Stop {
			sleep = backfillMaxInterval
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(sleep):
		}
	}
	return nil, lastErr
}

// applyHistory installs the backfilled series if the generation still
// matches. Prices are normalized here so the heuristic is uniform across
// sources. Reports whether the result was applied.
func (s *Synchronizer) applyHistory(gen uint64, m domain.Market, points []domain.ChartPoint) bool {
	series := make([]domain.ChartPoint, 0, len(points))
	for _, p := range points {
		if p.Time.Before(m.StartTime) || p.Time.After(m.EndTime) {
			continue
		}
		series = append(series, domain.ChartPoint{
			Time:      p.Time,
			UpPrice:   domain.NormalizeCents(p.UpPrice),
			DownPrice: domain.NormalizeCents(p.DownPrice),
		})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return false
	}
	s.series = series
	s.fetched[m.Key()] = true
	return true
}

// liveTick fetches the current best bids and merges them into the series.
// Reports false when the generation has advanced, which ends the tick loop.
func (s *Synchronizer) liveTick(ctx context.Context, gen uint64, m domain.Market) bool {
	up, down, err := s.quotes.BestBids(ctx, m.UpToken, m.DownToken)
	if err != nil {
		s.logger.DebugContext(ctx, "live quote fetch failed",
			slog.String("market", m.ID),
			slog.String("error", err.Error()),
		)
		s.mu.Lock()
		current := gen == s.gen
		s.mu.Unlock()
		return current
	}

	point := domain.ChartPoint{
		Time:      s.now(),
		UpPrice:   domain.NormalizeCents(up),
		DownPrice: domain.NormalizeCents(down),
	}
	return s.applyTick(gen, m, point)
}

// applyTick merges one live point under the coincidence rule: a tick within
// the tolerance of the series tail replaces the tail, otherwise it appends.
// Stale generations are discarded. Reports whether the generation was still
// current.
func (s *Synchronizer) applyTick(gen uint64, m domain.Market, point domain.ChartPoint) bool {
	if point.Time.Before(m.StartTime) || point.Time.After(m.EndTime) {
		return true
	}

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return false
	}

	if n := len(s.series); n > 0 && point.Time.Sub(s.series[n-1].Time) <= s.tolerance {
		s.series[n-1] = point
	} else {
		s.series = append(s.series, point)
	}
	notify := s.notify
	s.mu.Unlock()

	if notify != nil {
		notify(m, point)
	}
	return true
}
