package domain

import (
	"encoding/json"
	"time"
)

// OrderSide indicates whether this is a buy or sell.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "buy"
	OrderSideSell OrderSide = "sell"
)

// ExecutionMode selects how an intent should execute at the venue.
type ExecutionMode string

const (
	ExecutionModeMarket ExecutionMode = "market" // fill-or-kill at the quoted price
	ExecutionModeLimit  ExecutionMode = "limit"  // rests on the book at PriceCents
)

// MinOrderShares is the venue-wide minimum order size.
const MinOrderShares = 5.0

// Intent is a user's buy/sell request as it enters the order lifecycle. It
// exists only for the duration of one submit attempt and is never persisted.
type Intent struct {
	TokenID    string
	Side       OrderSide
	Mode       ExecutionMode
	PriceCents float64 // limit price, or the quoted price for market mode
	Shares     float64
}

// SignRequest is what the server-held signer needs to produce a signed order.
// Prices cross the wire as decimal fractions, matching the venue contract.
type SignRequest struct {
	TokenID string  `json:"tokenId"`
	Side    string  `json:"side"`
	Price   float64 `json:"price"`
	Size    float64 `json:"size"`
	NegRisk bool    `json:"negRisk"`
}

// SignedOrder is the opaque signed payload returned by the signer. This
// layer never inspects or produces signatures; it only forwards them.
type SignedOrder struct {
	Raw json.RawMessage `json:"signedOrder"`
}

// PlaceResult is the venue's response to an order submission.
type PlaceResult struct {
	Success   bool   `json:"success"`
	OrderID   string `json:"orderId"`
	Error     string `json:"error"`
	ErrorCode string `json:"errorCode"`
}

// OrderPlaced is emitted after a successful fill, for the chart's marker
// overlay and the fill history. It is the lifecycle's only externally
// observable event.
type OrderPlaced struct {
	ID           string    `json:"id"`
	Shares       float64   `json:"shares"`
	PriceCents   float64   `json:"price"`
	DollarAmount float64   `json:"dollarAmount"`
	Side         OrderSide `json:"side"`
	Outcome      string    `json:"outcome"`
	Timestamp    time.Time `json:"timestamp"`
}
