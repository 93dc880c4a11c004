package domain

import (
	"context"
	"time"
)

// Fill is a settled order recorded for the account's trade history.
type Fill struct {
	ID         string
	Wallet     string
	MarketID   string
	TokenID    string
	Outcome    string
	Side       OrderSide
	Shares     float64
	PriceCents float64
	USDAmount  float64
	PlacedAt   time.Time
}

// FillStore persists settled orders.
type FillStore interface {
	Create(ctx context.Context, fill Fill) error
	ListByWallet(ctx context.Context, wallet string, limit int) ([]Fill, error)
}

// BlobWriter uploads an object to blob storage.
type BlobWriter interface {
	Put(ctx context.Context, path string, data []byte, contentType string) error
}
