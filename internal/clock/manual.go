package clock

import (
	"sync"
	"time"
)

// Manual is a Source for tests. Tickers it creates only fire when Advance is
// called, so test code controls time completely.
type Manual struct {
	mu      sync.Mutex
	tickers []*manualTicker
}

// NewManual returns an empty manual tick source.
func NewManual() *Manual { return &Manual{} }

// NewTicker returns a ticker that fires only on Advance.
func (m *Manual) NewTicker(interval time.Duration) Ticker {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &manualTicker{out: make(chan time.Time, 16)}
	m.tickers = append(m.tickers, t)
	return t
}

// Advance delivers one tick carrying the given timestamp to every live
// ticker created by this source.
func (m *Manual) Advance(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tickers {
		t.mu.Lock()
		if !t.stopped {
			t.out <- now
		}
		t.mu.Unlock()
	}
}

// Active returns how many tickers have been created and not stopped.
func (m *Manual) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.tickers {
		t.mu.Lock()
		if !t.stopped {
			n++
		}
		t.mu.Unlock()
	}
	return n
}

type manualTicker struct {
	mu      sync.Mutex
	out     chan time.Time
	stopped bool
}

func (t *manualTicker) C() <-chan time.Time { return t.out }

func (t *manualTicker) Stop() {
	t.mu.Lock()
	t.stopped = true
	t.mu.Unlock()
}
