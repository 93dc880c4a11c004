package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/updownhq/terminal/internal/domain"
)

const marketKeyPrefix = "market:"

// MarketCache stores the resolved market window per (pair, timeframe) so a
// gateway restart inside a window can bridge a resolver outage. It
// implements domain.MarketCache.
type MarketCache struct {
	client *Client
}

// NewMarketCache creates a MarketCache backed by the given client.
func NewMarketCache(client *Client) *MarketCache {
	return &MarketCache{client: client}
}

func marketCacheKey(pair, timeframe string) string {
	return marketKeyPrefix + strings.ToLower(pair) + ":" + strings.ToLower(timeframe)
}

// Set stores the market under its pair and timeframe. The TTL should not
// outlive the market window.
func (c *MarketCache) Set(ctx context.Context, market domain.Market, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(market)
	if err != nil {
		return fmt.Errorf("redis: marshal market: %w", err)
	}

	key := marketCacheKey(market.Pair, market.Timeframe)
	if err := c.client.rdb.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis: set market %s: %w", key, err)
	}
	return nil
}

// Get returns the cached market for (pair, timeframe), or domain.ErrNotFound.
func (c *MarketCache) Get(ctx context.Context, pair, timeframe string) (domain.Market, error) {
	key := marketCacheKey(pair, timeframe)
	data, err := c.client.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Market{}, fmt.Errorf("redis: market %s: %w", key, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Market{}, fmt.Errorf("redis: get market %s: %w", key, err)
	}

	var market domain.Market
	if err := json.Unmarshal(data, &market); err != nil {
		return domain.Market{}, fmt.Errorf("redis: unmarshal market %s: %w", key, err)
	}
	return market, nil
}

// Invalidate drops the cached market for (pair, timeframe).
func (c *MarketCache) Invalidate(ctx context.Context, pair, timeframe string) error {
	if err := c.client.rdb.Del(ctx, marketCacheKey(pair, timeframe)).Err(); err != nil {
		return fmt.Errorf("redis: invalidate market: %w", err)
	}
	return nil
}
