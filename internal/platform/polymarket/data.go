package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/updownhq/terminal/internal/book"
	"github.com/updownhq/terminal/internal/domain"
)

// DataClient is the read-side REST client: order books and price history.
type DataClient struct {
	baseURL    string
	httpClient httpDoer
}

// NewDataClient creates a DataClient.
//
// baseURL is the data API root, e.g. "https://data.polymarket.com".
func NewDataClient(baseURL string) *DataClient {
	return &DataClient{
		baseURL:    baseURL,
		httpClient: newHTTPClient(),
	}
}

// OrderBookRaw fetches the raw book payload for one token. The payload
// shape varies across API versions, so normalization is left to the book
// package.
func (c *DataClient) OrderBookRaw(ctx context.Context, tokenID string) ([]byte, error) {
	params := url.Values{}
	params.Set("tokenId", tokenID)

	body, err := doGet(ctx, c.httpClient, c.baseURL+"/orderbook?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("polymarket/data: get orderbook %s: %w", tokenID, err)
	}
	return body, nil
}

// PriceHistory fetches the historical series for a market window. Prices
// are returned exactly as the upstream reports them; scale normalization
// happens in the synchronizer so history and live ticks go through the
// same path.
func (c *DataClient) PriceHistory(ctx context.Context, m domain.Market, start, end time.Time) ([]domain.ChartPoint, error) {
	params := url.Values{}
	params.Set("marketId", m.ID)
	params.Set("startTime", strconv.FormatInt(start.Unix(), 10))
	params.Set("endTime", strconv.FormatInt(end.Unix(), 10))
	if m.UpToken != "" {
		params.Set("yesTokenId", m.UpToken)
	}
	if m.DownToken != "" {
		params.Set("noTokenId", m.DownToken)
	}

	body, err := doGet(ctx, c.httpClient, c.baseURL+"/price-history?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("polymarket/data: get price history %s: %w", m.ID, err)
	}

	var resp apiHistoryResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("polymarket/data: decode price history: %w", err)
	}

	points := make([]domain.ChartPoint, 0, len(resp.Data))
	for _, p := range resp.Data {
		points = append(points, domain.ChartPoint{
			Time:      time.Unix(p.Time, 0).UTC(),
			UpPrice:   p.UpPrice,
			DownPrice: p.DownPrice,
		})
	}
	return points, nil
}

// BestBids fetches both outcome books in parallel and returns the best bid
// for each. Outcome books are never fetched serially; the pair is one
// logical read.
func (c *DataClient) BestBids(ctx context.Context, upToken, downToken string) (up, down float64, err error) {
	g, gctx := errgroup.WithContext(ctx)

	var upRaw, downRaw []byte
	g.Go(func() error {
		var err error
		upRaw, err = c.OrderBookRaw(gctx, upToken)
		return err
	})
	g.Go(func() error {
		var err error
		downRaw, err = c.OrderBookRaw(gctx, downToken)
		return err
	})
	if err := g.Wait(); err != nil {
		return 0, 0, err
	}

	now := time.Now().UTC()
	upBook := book.Normalize(upToken, upRaw, now)
	downBook := book.Normalize(downToken, downRaw, now)
	return upBook.BestBid(), downBook.BestBid(), nil
}
