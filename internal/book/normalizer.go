// Package book turns raw venue book payloads into normalized, display-ready
// order books and keeps the book viewport centered on the spread.
package book

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/updownhq/terminal/internal/domain"
)

// rawPayload covers the shapes the book collaborator is known to emit:
// bids/asks, legacy buyOrders/sellOrders, or either of those nested under a
// data envelope.
type rawPayload struct {
	Bids       []rawLevel  `json:"bids"`
	Asks       []rawLevel  `json:"asks"`
	BuyOrders  []rawLevel  `json:"buyOrders"`
	SellOrders []rawLevel  `json:"sellOrders"`
	Data       *rawPayload `json:"data"`
}

// rawLevel tolerates price/size arriving as JSON numbers or strings.
type rawLevel struct {
	Price flexNumber `json:"price"`
	Size  flexNumber `json:"size"`
}

// flexNumber parses a JSON number or numeric string. Anything else leaves
// valid=false and the level is dropped during normalization; defaulting a
// corrupt level to zero would silently poison the cumulative totals.
type flexNumber struct {
	value float64
	valid bool
}

func (f *flexNumber) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			f.value, f.valid = v, true
		}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err == nil {
		f.value, f.valid = v, true
	}
	return nil
}

// Normalize converts a raw book payload for tokenID into the canonical
// sorted, cumulative form. It is a pure transform: unrecognizable payloads
// produce empty sides rather than an error, because a missing book is a
// display state, not a fault.
func Normalize(tokenID string, payload []byte, now time.Time) domain.OrderBook {
	out := domain.OrderBook{TokenID: tokenID, Timestamp: now}

	var raw rawPayload
	if err := json.Unmarshal(payload, &raw); err != nil {
		return out
	}

	bids, asks := pickSides(&raw)
	out.Bids = normalizeSide(bids, true)
	out.Asks = normalizeSide(asks, false)
	return out
}

// pickSides resolves the key-naming ambiguity, preferring the modern
// bids/asks keys and descending into the data envelope when the top level
// has neither.
func pickSides(raw *rawPayload) (bids, asks []rawLevel) {
	switch {
	case raw.Bids != nil || raw.Asks != nil:
		return raw.Bids, raw.Asks
	case raw.BuyOrders != nil || raw.SellOrders != nil:
		return raw.BuyOrders, raw.SellOrders
	case raw.Data != nil:
		return pickSides(raw.Data)
	default:
		return nil, nil
	}
}

func normalizeSide(levels []rawLevel, descending bool) []domain.BookLevel {
	out := make([]domain.BookLevel, 0, len(levels))
	for _, l := range levels {
		if !l.Price.valid || !l.Size.valid {
			continue
		}
		if math.IsNaN(l.Price.value) || math.IsNaN(l.Size.value) {
			continue
		}
		if l.Size.value <= 0 || l.Price.value < 0 {
			continue
		}
		out = append(out, domain.BookLevel{Price: l.Price.value, Size: l.Size.value})
	}

	if descending {
		sort.Slice(out, func(i, j int) bool { return out[i].Price > out[j].Price })
	} else {
		sort.Slice(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	}

	var cum float64
	for i := range out {
		cum += out[i].Size
		out[i].CumulativeSize = cum
	}
	return out
}
