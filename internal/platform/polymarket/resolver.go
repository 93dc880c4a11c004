package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/updownhq/terminal/internal/domain"
)

// Resolver resolves the currently active market window for a pair and
// timeframe. It implements domain.MarketResolver.
type Resolver struct {
	baseURL    string
	httpClient httpDoer
	now        func() time.Time
}

// NewResolver creates a Resolver against the given market API root.
func NewResolver(baseURL string) *Resolver {
	return &Resolver{
		baseURL:    baseURL,
		httpClient: newHTTPClient(),
		now:        time.Now,
	}
}

// Resolve returns the market for (pair, timeframe) at the given window
// offset: 0 is the current window, negative offsets walk back through past
// windows.
func (r *Resolver) Resolve(ctx context.Context, pair, timeframe string, offset int) (domain.Market, error) {
	params := url.Values{}
	params.Set("pair", pair)
	params.Set("timeframe", timeframe)
	params.Set("offset", strconv.Itoa(offset))

	body, err := doGet(ctx, r.httpClient, r.baseURL+"/markets/active?"+params.Encode())
	if err != nil {
		return domain.Market{}, fmt.Errorf("polymarket/resolver: resolve %s %s: %w", pair, timeframe, err)
	}

	var apiMarket APIMarket
	if err := json.Unmarshal(body, &apiMarket); err != nil {
		return domain.Market{}, fmt.Errorf("polymarket/resolver: decode market: %w", err)
	}
	if apiMarket.ID == "" || apiMarket.UpToken == "" || apiMarket.DownToken == "" {
		return domain.Market{}, fmt.Errorf("polymarket/resolver: %w: incomplete market for %s %s", domain.ErrNotFound, pair, timeframe)
	}

	return apiMarket.ToDomainMarket(r.now()), nil
}
