package chart

import (
	"sync"
	"time"

	"github.com/updownhq/terminal/internal/domain"
)

// Markers holds the chart's ephemeral fill annotations. Markers age out
// after domain.MarkerRetention; expired entries are pruned on read.
type Markers struct {
	mu    sync.Mutex
	items []domain.TradeMarker
	now   func() time.Time
}

// NewMarkers returns an empty marker set.
func NewMarkers() *Markers {
	return &Markers{now: time.Now}
}

// Record adds a marker for a placed order.
func (mk *Markers) Record(evt domain.OrderPlaced) {
	mk.mu.Lock()
	defer mk.mu.Unlock()
	mk.items = append(mk.items, domain.TradeMarker{
		ID:         evt.ID,
		Time:       evt.Timestamp,
		Shares:     evt.Shares,
		PriceCents: evt.PriceCents,
		Side:       evt.Side,
		Outcome:    evt.Outcome,
	})
}

// Active returns the non-expired markers, pruning the rest.
func (mk *Markers) Active() []domain.TradeMarker {
	now := mk.now()
	mk.mu.Lock()
	defer mk.mu.Unlock()

	kept := mk.items[:0]
	for _, m := range mk.items {
		if !m.Expired(now) {
			kept = append(kept, m)
		}
	}
	mk.items = kept

	out := make([]domain.TradeMarker, len(kept))
	copy(out, kept)
	return out
}

// Clear drops all markers; called on market change.
func (mk *Markers) Clear() {
	mk.mu.Lock()
	mk.items = nil
	mk.mu.Unlock()
}
