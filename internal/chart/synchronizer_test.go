package chart

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/updownhq/terminal/internal/clock"
	"github.com/updownhq/terminal/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testMarket(start time.Time) domain.Market {
	return domain.Market{
		ID:        "mkt-1",
		Pair:      "BTC/USD",
		Timeframe: "1h",
		UpToken:   "up-tok",
		DownToken: "down-tok",
		StartTime: start,
		EndTime:   start.Add(time.Hour),
	}
}

func newTestSynchronizer(t *testing.T) *Synchronizer {
	t.Helper()
	return NewSynchronizer(nil, nil, clock.NewManual(), Config{
		MergeTolerance: DefaultMergeTolerance,
	}, testLogger())
}

func TestApplyHistoryNormalizesAndWindows(t *testing.T) {
	start := time.Now().Truncate(time.Hour)
	m := testMarket(start)
	s := newTestSynchronizer(t)

	points := []domain.ChartPoint{
		{Time: start.Add(-time.Minute), UpPrice: 0.4, DownPrice: 0.6}, // before window
		{Time: start.Add(time.Minute), UpPrice: 0.48, DownPrice: 0.52},
		{Time: start.Add(2 * time.Minute), UpPrice: 51, DownPrice: 49}, // already cents
		{Time: m.EndTime.Add(time.Minute), UpPrice: 0.5, DownPrice: 0.5}, // after window
	}

	if !s.applyHistory(s.gen, m, points) {
		t.Fatalf("applyHistory with the current generation should apply")
	}

	series := s.Series()
	if len(series) != 2 {
		t.Fatalf("len(series) = %d, want 2 (out-of-window points dropped)", len(series))
	}
	if series[0].UpPrice != 48 || series[0].DownPrice != 52 {
		t.Fatalf("series[0] = %+v, want normalized 48/52", series[0])
	}
	if series[1].UpPrice != 51 || series[1].DownPrice != 49 {
		t.Fatalf("series[1] = %+v, want 51/49 passed through", series[1])
	}
}

func TestApplyTickMergeTolerance(t *testing.T) {
	start := time.Now().Truncate(time.Hour)
	m := testMarket(start)
	s := newTestSynchronizer(t)

	history := []domain.ChartPoint{
		{Time: start.Add(1 * time.Minute), UpPrice: 0.48, DownPrice: 0.52},
		{Time: start.Add(2 * time.Minute), UpPrice: 0.49, DownPrice: 0.51},
		{Time: start.Add(3 * time.Minute), UpPrice: 0.50, DownPrice: 0.50},
	}
	if !s.applyHistory(s.gen, m, history) {
		t.Fatalf("applyHistory failed")
	}

	// First live tick lands well after the tail: appends.
	t1 := start.Add(4 * time.Minute)
	s.applyTick(s.gen, m, domain.ChartPoint{Time: t1, UpPrice: 52, DownPrice: 48})
	if got := len(s.Series()); got != 4 {
		t.Fatalf("len(series) after distinct tick = %d, want 4", got)
	}

	// Second tick lands within the tolerance of the tail: replaces it.
	t2 := t1.Add(500 * time.Millisecond)
	s.applyTick(s.gen, m, domain.ChartPoint{Time: t2, UpPrice: 53, DownPrice: 47})
	series := s.Series()
	if len(series) != 4 {
		t.Fatalf("len(series) after coincident tick = %d, want 4 (tail replaced)", len(series))
	}
	tail := series[len(series)-1]
	if tail.UpPrice != 53 || !tail.Time.Equal(t2) {
		t.Fatalf("tail = %+v, want the replacing tick", tail)
	}

	// Third tick outside the tolerance: appends again.
	t3 := t2.Add(DefaultMergeTolerance + time.Millisecond)
	s.applyTick(s.gen, m, domain.ChartPoint{Time: t3, UpPrice: 54, DownPrice: 46})
	if got := len(s.Series()); got != 5 {
		t.Fatalf("len(series) after spaced tick = %d, want 5", got)
	}
}

func TestApplyTickStaleGeneration(t *testing.T) {
	start := time.Now().Truncate(time.Hour)
	m := testMarket(start)
	s := newTestSynchronizer(t)

	gen := s.gen
	if !s.applyHistory(gen, m, []domain.ChartPoint{
		{Time: start.Add(time.Minute), UpPrice: 0.5, DownPrice: 0.5},
	}) {
		t.Fatalf("applyHistory failed")
	}

	// A market switch bumps the generation.
	s.Stop()

	if s.applyTick(gen, m, domain.ChartPoint{Time: start.Add(2 * time.Minute), UpPrice: 60, DownPrice: 40}) {
		t.Fatalf("stale-generation tick should report not current")
	}
	if got := len(s.Series()); got != 1 {
		t.Fatalf("len(series) = %d, stale tick must not mutate the series", got)
	}
}

func TestApplyHistoryStaleGeneration(t *testing.T) {
	start := time.Now().Truncate(time.Hour)
	m := testMarket(start)
	s := newTestSynchronizer(t)

	gen := s.gen
	s.Stop()

	if s.applyHistory(gen, m, []domain.ChartPoint{
		{Time: start.Add(time.Minute), UpPrice: 0.5, DownPrice: 0.5},
	}) {
		t.Fatalf("stale-generation history should not apply")
	}
	if got := len(s.Series()); got != 0 {
		t.Fatalf("len(series) = %d, want 0", got)
	}
}

func TestApplyTickOutsideWindowIgnored(t *testing.T) {
	start := time.Now().Truncate(time.Hour)
	m := testMarket(start)
	s := newTestSynchronizer(t)

	if !s.applyTick(s.gen, m, domain.ChartPoint{Time: m.EndTime.Add(time.Minute), UpPrice: 50, DownPrice: 50}) {
		t.Fatalf("out-of-window tick on the current generation should still report current")
	}
	if got := len(s.Series()); got != 0 {
		t.Fatalf("len(series) = %d, out-of-window tick must not land", got)
	}
}

type fakeHistory struct {
	mu     sync.Mutex
	calls  int
	points []domain.ChartPoint
}

func (f *fakeHistory) PriceHistory(ctx context.Context, m domain.Market, start, end time.Time) ([]domain.ChartPoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.points, nil
}

func (f *fakeHistory) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeQuotes struct{ up, down float64 }

func (f *fakeQuotes) BestBids(ctx context.Context, upToken, downToken string) (float64, float64, error) {
	return f.up, f.down, nil
}

func TestScheduledMarketGoesLiveAtOpen(t *testing.T) {
	start := time.Now().Add(250 * time.Millisecond)
	m := testMarket(start)
	hist := &fakeHistory{}
	quotes := &fakeQuotes{up: 52, down: 48}
	ticks := clock.NewManual()
	s := NewSynchronizer(hist, quotes, ticks, Config{
		MergeTolerance: DefaultMergeTolerance,
	}, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.SetMarket(ctx, m)

	// The tick loop must come up once the window opens.
	deadline := time.Now().Add(3 * time.Second)
	for ticks.Active() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("tick loop never started after the window opened")
		}
		time.Sleep(5 * time.Millisecond)
	}

	ticks.Advance(time.Now())
	for len(s.Series()) == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("no live points landed after the window opened")
		}
		time.Sleep(5 * time.Millisecond)
	}

	p := s.Series()[0]
	if p.UpPrice != 52 || p.DownPrice != 48 {
		t.Fatalf("series[0] = %+v, want the live quote 52/48", p)
	}
	if hist.count() != 0 {
		t.Fatalf("history fetched %d times for an unopened window, want 0", hist.count())
	}
}

func TestApplyTickNotifies(t *testing.T) {
	start := time.Now().Truncate(time.Hour)
	m := testMarket(start)
	s := newTestSynchronizer(t)

	var seen []domain.ChartPoint
	s.SetNotify(func(_ domain.Market, p domain.ChartPoint) {
		seen = append(seen, p)
	})

	s.applyTick(s.gen, m, domain.ChartPoint{Time: start.Add(time.Minute), UpPrice: 50, DownPrice: 50})
	if len(seen) != 1 {
		t.Fatalf("notify called %d times, want 1", len(seen))
	}
	if seen[0].UpPrice != 50 {
		t.Fatalf("notified point = %+v", seen[0])
	}
}
