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
	bookKeyPrefix = "book:"
	bookTTL       = 30 * time.Second
)

// BookCache stores the latest normalized order book per token. The short TTL
// keeps stale depth from surviving a feed outage. It implements
// domain.BookCache.
type BookCache struct {
	client *Client
}

// NewBookCache creates a BookCache backed by the given client.
func NewBookCache(client *Client) *BookCache {
	return &BookCache{client: client}
}

// SetBook stores the latest snapshot for book.TokenID.
func (c *BookCache) SetBook(ctx context.Context, book domain.OrderBook) error {
	data, err := json.Marshal(book)
	if err != nil {
		return fmt.Errorf("redis: marshal book: %w", err)
	}

	if err := c.client.rdb.Set(ctx, bookKeyPrefix+book.TokenID, data, bookTTL).Err(); err != nil {
		return fmt.Errorf("redis: set book %s: %w", book.TokenID, err)
	}
	return nil
}

// GetBook returns the cached snapshot for a token, or domain.ErrNotFound.
func (c *BookCache) GetBook(ctx context.Context, tokenID string) (domain.OrderBook, error) {
	data, err := c.client.rdb.Get(ctx, bookKeyPrefix+tokenID).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.OrderBook{}, fmt.Errorf("redis: book %s: %w", tokenID, domain.ErrNotFound)
	}
	if err != nil {
		return domain.OrderBook{}, fmt.Errorf("redis: get book %s: %w", tokenID, err)
	}

	var book domain.OrderBook
	if err := json.Unmarshal(data, &book); err != nil {
		return domain.OrderBook{}, fmt.Errorf("redis: unmarshal book %s: %w", tokenID, err)
	}
	return book, nil
}
