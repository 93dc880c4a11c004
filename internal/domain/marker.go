package domain

import "time"

// MarkerRetention is how long a trade marker stays visible on the chart.
const MarkerRetention = 5 * time.Minute

// TradeMarker is an ephemeral chart annotation for a recent fill. Markers
// self-expire after MarkerRetention and are never persisted.
type TradeMarker struct {
	ID         string    `json:"id"`
	Time       time.Time `json:"time"`
	Shares     float64   `json:"shares"`
	PriceCents float64   `json:"price"`
	Side       OrderSide `json:"side"`
	Outcome    string    `json:"outcome"`
}

// Expired reports whether the marker has aged out at the given instant.
func (m TradeMarker) Expired(now time.Time) bool {
	return now.Sub(m.Time) > MarkerRetention
}
