// Package clock provides the timing sources that drive periodic refreshes.
// Tickers are handed out by a Source so that tests can substitute a manual
// source and simulate time deterministically instead of sleeping.
package clock

import (
	"errors"
	"sync"
	"time"
)

// Ticker delivers discrete tick events. Consumers do cheap, idempotent work
// per tick (a fetch dispatch, not heavy computation).
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// Source creates tickers. The zero interval is invalid; implementations
// clamp it to a sane floor rather than panicking.
type Source interface {
	NewTicker(interval time.Duration) Ticker
}

const minInterval = 100 * time.Millisecond

// probeWait bounds how long NewSource waits for the background probe tick.
const probeWait = 10 * minInterval

// NewSource returns the preferred tick source: the isolated Background
// source, verified by waiting for a probe ticker to actually deliver. When
// the probe does not deliver within its window (a starved runtime that
// cannot service the pump goroutine), the Degraded passthrough is returned
// together with the reason so the caller can log the downgrade.
func NewSource() (Source, error) {
	bg := NewBackground()
	probe := bg.NewTicker(minInterval)
	defer probe.Stop()

	select {
	case <-probe.C():
		return bg, nil
	case <-time.After(probeWait):
		return NewDegraded(), errors.New("clock: probe tick undelivered, falling back to degraded source")
	}
}

// Background is the default Source. Each ticker pumps on its own goroutine,
// decoupled from whatever the consumer is doing: a slow or busy consumer
// causes ticks to be coalesced, never queued, so delivery cadence is not
// subject to consumer scheduling.
type Background struct{}

// NewBackground returns the background tick source.
func NewBackground() *Background { return &Background{} }

// NewTicker starts a background ticker at the given interval.
func (*Background) NewTicker(interval time.Duration) Ticker {
	if interval < minInterval {
		interval = minInterval
	}
	t := &backgroundTicker{
		out:  make(chan time.Time, 1),
		done: make(chan struct{}),
	}
	go t.run(interval)
	return t
}

type backgroundTicker struct {
	out      chan time.Time
	done     chan struct{}
	stopOnce sync.Once
}

func (t *backgroundTicker) run(interval time.Duration) {
	tick := time.NewTicker(interval)
	defer tick.Stop()
	for {
		select {
		case <-t.done:
			return
		case now := <-tick.C:
			// Coalesce: drop the tick when the consumer has not drained
			// the previous one.
			select {
			case t.out <- now:
			default:
			}
		}
	}
}

func (t *backgroundTicker) C() <-chan time.Time { return t.out }

// Stop halts the ticker and releases its goroutine. No tick is delivered
// after Stop returns.
func (t *backgroundTicker) Stop() {
	t.stopOnce.Do(func() { close(t.done) })
}

// Degraded is the fallback Source: a plain time.Ticker passthrough with no
// isolation goroutine. Updates keep flowing, but a blocked consumer blocks
// the cadence. Used when the isolated source cannot be constructed.
type Degraded struct{}

// NewDegraded returns the degraded same-thread tick source.
func NewDegraded() *Degraded { return &Degraded{} }

// NewTicker starts a plain ticker at the given interval.
func (*Degraded) NewTicker(interval time.Duration) Ticker {
	if interval < minInterval {
		interval = minInterval
	}
	return &degradedTicker{t: time.NewTicker(interval)}
}

type degradedTicker struct{ t *time.Ticker }

func (d *degradedTicker) C() <-chan time.Time { return d.t.C }
func (d *degradedTicker) Stop()               { d.t.Stop() }
