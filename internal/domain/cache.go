package domain

import (
	"context"
	"time"
)

// PriceCache holds the latest outcome prices for the active market so
// concurrent viewer sessions share one fetch pipeline.
type PriceCache interface {
	SetTick(ctx context.Context, marketKey string, point ChartPoint) error
	GetTick(ctx context.Context, marketKey string) (ChartPoint, error)
}

// BookCache stores the latest normalized book snapshot per outcome token.
type BookCache interface {
	SetBook(ctx context.Context, book OrderBook) error
	GetBook(ctx context.Context, tokenID string) (OrderBook, error)
}

// MarketCache stores the most recently resolved market per (pair, timeframe)
// so a gateway restart inside a window does not need a fresh resolution.
type MarketCache interface {
	Set(ctx context.Context, market Market, ttl time.Duration) error
	Get(ctx context.Context, pair, timeframe string) (Market, error)
	Invalidate(ctx context.Context, pair, timeframe string) error
}

// SignalBus is the pub/sub fabric between the data feeds and the WebSocket
// hub that pushes updates to browser sessions.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channels ...string) (<-chan BusMessage, error)
}

// BusMessage is one published payload together with its source channel.
type BusMessage struct {
	Channel string
	Payload []byte
}
