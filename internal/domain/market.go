package domain

import (
	"context"
	"fmt"
	"time"
)

// MarketStatus represents where a market sits in its trading window.
type MarketStatus string

const (
	MarketStatusScheduled MarketStatus = "scheduled"
	MarketStatusLive      MarketStatus = "live"
	MarketStatusEnded     MarketStatus = "ended"
)

// Market is one UP/DOWN binary market: a trading pair over a fixed time
// window with one outcome token per side. A Market value is immutable once
// resolved; a new window produces a new value that replaces the old one
// wholesale.
type Market struct {
	ID        string
	Slug      string
	Pair      string // e.g. "BTC-USD"
	Timeframe string // e.g. "1h"
	UpToken   string // ERC-1155 token ID for the UP outcome
	DownToken string // ERC-1155 token ID for the DOWN outcome
	StartTime time.Time
	EndTime   time.Time
	NegRisk   bool
	Status    MarketStatus
}

// Key identifies the market window for cache and staleness purposes. Two
// resolutions of the same window produce the same key.
func (m Market) Key() string {
	return fmt.Sprintf("%s:%d", m.ID, m.StartTime.Unix())
}

// StatusAt derives the window status at the given instant.
func (m Market) StatusAt(now time.Time) MarketStatus {
	switch {
	case now.Before(m.StartTime):
		return MarketStatusScheduled
	case now.Before(m.EndTime):
		return MarketStatusLive
	default:
		return MarketStatusEnded
	}
}

// TokenFor maps an outcome name to its token ID. Outcome is "up" or "down".
func (m Market) TokenFor(outcome string) (string, bool) {
	switch outcome {
	case OutcomeUp:
		return m.UpToken, true
	case OutcomeDown:
		return m.DownToken, true
	default:
		return "", false
	}
}

// OutcomeFor is the inverse of TokenFor.
func (m Market) OutcomeFor(tokenID string) (string, bool) {
	switch tokenID {
	case m.UpToken:
		return OutcomeUp, true
	case m.DownToken:
		return OutcomeDown, true
	default:
		return "", false
	}
}

// Outcome names for the two sides of a binary market.
const (
	OutcomeUp   = "up"
	OutcomeDown = "down"
)

// MarketResolver resolves the currently active market for a pair, timeframe,
// and window offset (0 = current window, -1 = previous, ...). The core only
// reacts to its output changing; resolution itself is a collaborator concern.
type MarketResolver interface {
	Resolve(ctx context.Context, pair, timeframe string, offset int) (Market, error)
}
