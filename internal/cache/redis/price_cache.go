package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/updownhq/terminal/internal/domain"
)

const (
	tickKeyPrefix = "tick:"
	tickTTL       = 2 * time.Minute
)

// PriceCache stores the latest chart point per market window so a freshly
// connected session paints a price before the first live tick lands. It
// implements domain.PriceCache.
type PriceCache struct {
	client *Client
}

// NewPriceCache creates a PriceCache backed by the given client.
func NewPriceCache(client *Client) *PriceCache {
	return &PriceCache{client: client}
}

// SetTick stores the latest chart point for a market window.
func (c *PriceCache) SetTick(ctx context.Context, marketKey string, point domain.ChartPoint) error {
	data, err := json.Marshal(point)
	if err != nil {
		return fmt.Errorf("redis: marshal tick: %w", err)
	}

	if err := c.client.rdb.Set(ctx, tickKeyPrefix+marketKey, data, tickTTL).Err(); err != nil {
		return fmt.Errorf("redis: set tick %s: %w", marketKey, err)
	}
	return nil
}

// GetTick returns the latest chart point for a market window, or
// domain.ErrNotFound when none is cached.
func (c *PriceCache) GetTick(ctx context.Context, marketKey string) (domain.ChartPoint, error) {
	data, err := c.client.rdb.Get(ctx, tickKeyPrefix+marketKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.ChartPoint{}, fmt.Errorf("redis: tick %s: %w", marketKey, domain.ErrNotFound)
	}
	if err != nil {
		return domain.ChartPoint{}, fmt.Errorf("redis: get tick %s: %w", marketKey, err)
	}

	var point domain.ChartPoint
	if err := json.Unmarshal(data, &point); err != nil {
		return domain.ChartPoint{}, fmt.Errorf("redis: unmarshal tick %s: %w", marketKey, err)
	}
	return point, nil
}
