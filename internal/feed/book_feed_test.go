package feed

import (
	"context"
	"errors"
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

func liveMarket() domain.Market {
	start := time.Now().Add(-10 * time.Minute)
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

type fakeBookSource struct {
	mu      sync.Mutex
	raw     map[string][]byte
	err     error
	onFetch func(tokenID string)
	calls   int
}

func (f *fakeBookSource) OrderBookRaw(ctx context.Context, tokenID string) ([]byte, error) {
	f.mu.Lock()
	f.calls++
	hook := f.onFetch
	raw := f.raw[tokenID]
	err := f.err
	f.mu.Unlock()
	if hook != nil {
		hook(tokenID)
	}
	return raw, err
}

type fakeBookCache struct {
	mu    sync.Mutex
	books map[string]domain.OrderBook
}

func newFakeBookCache() *fakeBookCache {
	return &fakeBookCache{books: make(map[string]domain.OrderBook)}
}

func (f *fakeBookCache) SetBook(ctx context.Context, b domain.OrderBook) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.books[b.TokenID] = b
	return nil
}

func (f *fakeBookCache) GetBook(ctx context.Context, tokenID string) (domain.OrderBook, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.books[tokenID]
	if !ok {
		return domain.OrderBook{}, domain.ErrNotFound
	}
	return b, nil
}

type fakeBus struct {
	mu        sync.Mutex
	published []domain.BusMessage
}

func (f *fakeBus) Publish(ctx context.Context, channel string, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, domain.BusMessage{Channel: channel, Payload: payload})
	return nil
}

func (f *fakeBus) Subscribe(ctx context.Context, channels ...string) (<-chan domain.BusMessage, error) {
	ch := make(chan domain.BusMessage)
	close(ch)
	return ch, nil
}

func (f *fakeBus) channels() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.published))
	for i, m := range f.published {
		out[i] = m.Channel
	}
	return out
}

const bookPayload = `{"bids":[{"price":"48","size":"10"}],"asks":[{"price":"52","size":"4"}]}`

func TestRefreshWritesBothBooks(t *testing.T) {
	m := liveMarket()
	src := &fakeBookSource{raw: map[string][]byte{
		m.UpToken:   []byte(bookPayload),
		m.DownToken: []byte(bookPayload),
	}}
	cache := newFakeBookCache()
	bus := &fakeBus{}

	f := NewBookFeed(src, cache, bus, clock.NewManual(), time.Second, testLogger())
	f.SetMarket(m)
	f.refresh(context.Background())

	for _, tok := range []string{m.UpToken, m.DownToken} {
		b, err := cache.GetBook(context.Background(), tok)
		if err != nil {
			t.Fatalf("GetBook(%s): %v", tok, err)
		}
		if len(b.Bids) != 1 || b.Bids[0].Price != 48 {
			t.Fatalf("book %s = %+v, want one bid at 48c", tok, b)
		}
	}

	chans := bus.channels()
	if len(chans) != 2 {
		t.Fatalf("published %d messages, want 2", len(chans))
	}
	if chans[0] != "ch:book:"+m.UpToken || chans[1] != "ch:book:"+m.DownToken {
		t.Fatalf("published channels = %v", chans)
	}
}

func TestRefreshSkipsEndedMarket(t *testing.T) {
	m := liveMarket()
	m.StartTime = time.Now().Add(-2 * time.Hour)
	m.EndTime = time.Now().Add(-time.Hour)

	src := &fakeBookSource{}
	f := NewBookFeed(src, newFakeBookCache(), nil, clock.NewManual(), time.Second, testLogger())
	f.SetMarket(m)
	f.refresh(context.Background())

	if src.calls != 0 {
		t.Fatalf("OrderBookRaw calls = %d, ended market must not be fetched", src.calls)
	}
}

func TestRefreshSkipsUnresolvedMarket(t *testing.T) {
	src := &fakeBookSource{}
	f := NewBookFeed(src, newFakeBookCache(), nil, clock.NewManual(), time.Second, testLogger())
	f.refresh(context.Background())

	if src.calls != 0 {
		t.Fatalf("OrderBookRaw calls = %d, feed must wait for a resolved market", src.calls)
	}
}

func TestRefreshFetchFailureLeavesCache(t *testing.T) {
	m := liveMarket()
	cache := newFakeBookCache()
	seed := domain.OrderBook{TokenID: m.UpToken, Bids: []domain.BookLevel{{Price: 40, Size: 1}}}
	if err := cache.SetBook(context.Background(), seed); err != nil {
		t.Fatalf("seed: %v", err)
	}

	src := &fakeBookSource{err: errors.New("clob unavailable")}
	f := NewBookFeed(src, cache, nil, clock.NewManual(), time.Second, testLogger())
	f.SetMarket(m)
	f.refresh(context.Background())

	b, err := cache.GetBook(context.Background(), m.UpToken)
	if err != nil || len(b.Bids) != 1 || b.Bids[0].Price != 40 {
		t.Fatalf("cached book = %+v (%v), failed fetch must not overwrite it", b, err)
	}
}

func TestRefreshStaleGenerationDiscarded(t *testing.T) {
	m := liveMarket()
	next := liveMarket()
	next.ID = "mkt-2"
	next.UpToken = "up-2"
	next.DownToken = "down-2"

	cache := newFakeBookCache()
	src := &fakeBookSource{raw: map[string][]byte{
		m.UpToken:   []byte(bookPayload),
		m.DownToken: []byte(bookPayload),
	}}

	f := NewBookFeed(src, cache, nil, clock.NewManual(), time.Second, testLogger())
	f.SetMarket(m)

	// Market rolls over while the fetch is in flight.
	var once sync.Once
	src.onFetch = func(string) {
		once.Do(func() { f.SetMarket(next) })
	}
	f.refresh(context.Background())

	if _, err := cache.GetBook(context.Background(), m.UpToken); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("stale fetch landed in the cache (err = %v)", err)
	}
}
