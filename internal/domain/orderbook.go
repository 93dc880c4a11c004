package domain

import "time"

// BookLevel is a single normalized price level. CumulativeSize is the
// running sum of Size from the top of the side down to this level.
type BookLevel struct {
	Price          float64 `json:"price"`
	Size           float64 `json:"size"`
	CumulativeSize float64 `json:"cumulativeSize"`
}

// OrderBook is the normalized two-sided book for one outcome token. Bids are
// sorted strictly descending by price, asks strictly ascending.
type OrderBook struct {
	TokenID   string      `json:"tokenId"`
	Bids      []BookLevel `json:"bids"`
	Asks      []BookLevel `json:"asks"`
	Timestamp time.Time   `json:"timestamp"`
}

// BestBid returns the highest bid price, or 0 when the side is empty.
func (b OrderBook) BestBid() float64 {
	if len(b.Bids) == 0 {
		return 0
	}
	return b.Bids[0].Price
}

// BestAsk returns the lowest ask price, or 0 when the side is empty.
func (b OrderBook) BestAsk() float64 {
	if len(b.Asks) == 0 {
		return 0
	}
	return b.Asks[0].Price
}

// MidPrice returns the midpoint of the spread, or 0 when either side is empty.
func (b OrderBook) MidPrice() float64 {
	bid, ask := b.BestBid(), b.BestAsk()
	if bid <= 0 || ask <= 0 {
		return 0
	}
	return (bid + ask) / 2
}

// Spread returns ask minus bid, or 0 when either side is empty.
func (b OrderBook) Spread() float64 {
	bid, ask := b.BestBid(), b.BestAsk()
	if bid <= 0 || ask <= 0 {
		return 0
	}
	return ask - bid
}
