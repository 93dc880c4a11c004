package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/updownhq/terminal/internal/domain"
)

// Credentials are the API credentials forwarded with each order submission.
// The venue checks that they belong to the submitting wallet.
type Credentials struct {
	Key        string `json:"key"`
	Secret     string `json:"secret"`
	Passphrase string `json:"passphrase"`
}

// TradeClient talks to the server-held signer and the order proxy.
type TradeClient struct {
	baseURL    string
	creds      Credentials
	httpClient httpDoer
}

// NewTradeClient creates a TradeClient against the given proxy root.
func NewTradeClient(baseURL string, creds Credentials) *TradeClient {
	return &TradeClient{
		baseURL:    baseURL,
		creds:      creds,
		httpClient: newHTTPClient(),
	}
}

// SignOrder asks the server-held signer to produce a signed order object.
// Signing never happens locally.
func (c *TradeClient) SignOrder(ctx context.Context, req domain.SignRequest) (domain.SignedOrder, error) {
	status, body, err := doPost(ctx, c.httpClient, c.baseURL+"/trade/sign-order-vps", req)
	if err != nil {
		return domain.SignedOrder{}, fmt.Errorf("polymarket/trade: sign order: %w", err)
	}
	if err := checkHTTPStatus(status, body); err != nil {
		return domain.SignedOrder{}, fmt.Errorf("polymarket/trade: sign order: %w", err)
	}

	var signed domain.SignedOrder
	if err := json.Unmarshal(body, &signed); err != nil {
		return domain.SignedOrder{}, fmt.Errorf("polymarket/trade: decode signed order: %w", err)
	}
	if len(signed.Raw) == 0 {
		return domain.SignedOrder{}, fmt.Errorf("polymarket/trade: signer returned empty order")
	}
	return signed, nil
}

// PlaceOrder posts a signed order through the proxy. Venue rejections come
// back as a PlaceResult with Success=false and the raw error text; only
// transport-level failures return a Go error, so the lifecycle can tell
// "the venue said no" apart from "the request never arrived".
func (c *TradeClient) PlaceOrder(ctx context.Context, wallet string, order domain.SignedOrder, mode domain.ExecutionMode) (domain.PlaceResult, error) {
	orderType := "GTC"
	if mode == domain.ExecutionModeMarket {
		orderType = "FOK"
	}

	payload := map[string]any{
		"walletAddress": wallet,
		"credentials":   c.creds,
		"signedOrder":   order.Raw,
		"orderType":     orderType,
	}

	status, body, err := doPost(ctx, c.httpClient, c.baseURL+"/trade/place-order", payload)
	if err != nil {
		return domain.PlaceResult{}, fmt.Errorf("polymarket/trade: place order: %w", err)
	}

	var result domain.PlaceResult
	if jsonErr := json.Unmarshal(body, &result); jsonErr != nil {
		// Unparseable body: treat per status.
		if err := checkHTTPStatus(status, body); err != nil {
			return domain.PlaceResult{}, fmt.Errorf("polymarket/trade: place order: %w", err)
		}
		return domain.PlaceResult{}, fmt.Errorf("polymarket/trade: decode place result: %w", jsonErr)
	}

	if status >= http.StatusInternalServerError {
		return domain.PlaceResult{}, fmt.Errorf("polymarket/trade: place order: HTTP %d: %s", status, result.Error)
	}
	return result, nil
}
