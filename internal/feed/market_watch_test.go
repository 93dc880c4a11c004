package feed

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/updownhq/terminal/internal/clock"
	"github.com/updownhq/terminal/internal/domain"
)

type fakeResolver struct {
	mu     sync.Mutex
	market domain.Market
	err    error
}

func (f *fakeResolver) set(m domain.Market, err error) {
	f.mu.Lock()
	f.market = m
	f.err = err
	f.mu.Unlock()
}

func (f *fakeResolver) Resolve(ctx context.Context, pair, timeframe string, offset int) (domain.Market, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.market, f.err
}

type fakeMarketCache struct {
	mu     sync.Mutex
	market domain.Market
	ok     bool
	sets   int
}

func (f *fakeMarketCache) Set(ctx context.Context, m domain.Market, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.market = m
	f.ok = true
	f.sets++
	return nil
}

func (f *fakeMarketCache) Get(ctx context.Context, pair, timeframe string) (domain.Market, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.ok {
		return domain.Market{}, domain.ErrNotFound
	}
	return f.market, nil
}

func (f *fakeMarketCache) Invalidate(ctx context.Context, pair, timeframe string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ok = false
	return nil
}

func newWatch(resolver domain.MarketResolver, cache domain.MarketCache, bus domain.SignalBus) *MarketWatch {
	return NewMarketWatch(resolver, cache, bus, clock.NewManual(), "BTC/USD", "1h", 0, time.Second, testLogger())
}

func TestPollAnnouncesMarketChange(t *testing.T) {
	m := liveMarket()
	resolver := &fakeResolver{}
	resolver.set(m, nil)
	cache := &fakeMarketCache{}
	bus := &fakeBus{}

	w := newWatch(resolver, cache, bus)

	var gotPrev, gotNext domain.Market
	calls := 0
	w.OnChange(func(_ context.Context, prev, next domain.Market) {
		calls++
		gotPrev, gotNext = prev, next
	})

	w.poll(context.Background())
	if calls != 1 {
		t.Fatalf("handler calls = %d, want 1", calls)
	}
	if gotPrev.ID != "" {
		t.Fatalf("prev = %+v, want the zero market on first resolution", gotPrev)
	}
	if gotNext.ID != m.ID {
		t.Fatalf("next.ID = %q, want %q", gotNext.ID, m.ID)
	}
	if w.Current().ID != m.ID {
		t.Fatalf("Current().ID = %q, want %q", w.Current().ID, m.ID)
	}
	if cache.sets != 1 {
		t.Fatalf("cache sets = %d, want 1", cache.sets)
	}
	if chans := bus.channels(); len(chans) != 1 || chans[0] != "ch:market" {
		t.Fatalf("published channels = %v, want [ch:market]", chans)
	}
}

func TestPollSameWindowIsQuiet(t *testing.T) {
	m := liveMarket()
	resolver := &fakeResolver{}
	resolver.set(m, nil)
	bus := &fakeBus{}

	w := newWatch(resolver, nil, bus)
	calls := 0
	w.OnChange(func(context.Context, domain.Market, domain.Market) { calls++ })

	w.poll(context.Background())
	w.poll(context.Background())

	if calls != 1 {
		t.Fatalf("handler calls = %d, re-resolving the same window must not re-announce", calls)
	}
	if got := len(bus.channels()); got != 1 {
		t.Fatalf("published %d messages, want 1", got)
	}
}

func TestPollRolloverAnnouncesNewWindow(t *testing.T) {
	m1 := liveMarket()
	m2 := liveMarket()
	m2.ID = "mkt-2"
	m2.StartTime = m1.EndTime
	m2.EndTime = m1.EndTime.Add(time.Hour)

	resolver := &fakeResolver{}
	resolver.set(m1, nil)

	w := newWatch(resolver, nil, nil)
	var transitions [][2]string
	w.OnChange(func(_ context.Context, prev, next domain.Market) {
		transitions = append(transitions, [2]string{prev.ID, next.ID})
	})

	w.poll(context.Background())
	resolver.set(m2, nil)
	w.poll(context.Background())

	want := [][2]string{{"", "mkt-1"}, {"mkt-1", "mkt-2"}}
	if len(transitions) != len(want) {
		t.Fatalf("transitions = %v, want %v", transitions, want)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Fatalf("transition %d = %v, want %v", i, transitions[i], want[i])
		}
	}
}

func TestPollResolverOutageBridgedByCache(t *testing.T) {
	m := liveMarket()
	cache := &fakeMarketCache{}
	if err := cache.Set(context.Background(), m, time.Hour); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	resolver := &fakeResolver{}
	resolver.set(domain.Market{}, errors.New("gamma api down"))

	w := newWatch(resolver, cache, nil)
	w.poll(context.Background())

	if w.Current().ID != m.ID {
		t.Fatalf("Current().ID = %q, want the cached window %q", w.Current().ID, m.ID)
	}
}

func TestPollResolverOutageWithCurrentMarketKeepsIt(t *testing.T) {
	m := liveMarket()
	resolver := &fakeResolver{}
	resolver.set(m, nil)
	cache := &fakeMarketCache{}

	w := newWatch(resolver, cache, nil)
	calls := 0
	w.OnChange(func(context.Context, domain.Market, domain.Market) { calls++ })

	w.poll(context.Background())
	resolver.set(domain.Market{}, errors.New("gamma api down"))
	w.poll(context.Background())

	if calls != 1 {
		t.Fatalf("handler calls = %d, an outage must not re-announce", calls)
	}
	if w.Current().ID != m.ID {
		t.Fatalf("Current().ID = %q, outage must not clear the active market", w.Current().ID)
	}
}
