package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/updownhq/terminal/internal/domain"
)

// UserClient is the REST client for the user-state collaborators: allowance
// queries, server-side approval transactions, and positions. Approvals are
// executed on-chain by the server; the private key never reaches the
// terminal.
type UserClient struct {
	baseURL    string
	httpClient httpDoer
}

// NewUserClient creates a UserClient against the given API root.
func NewUserClient(baseURL string) *UserClient {
	return &UserClient{
		baseURL:    baseURL,
		httpClient: newHTTPClient(),
	}
}

// Allowance fetches the wallet's current allowance and balance state.
func (c *UserClient) Allowance(ctx context.Context, wallet string) (domain.AllowanceStatus, error) {
	params := url.Values{}
	params.Set("address", wallet)

	body, err := doGet(ctx, c.httpClient, c.baseURL+"/user/allowance?"+params.Encode())
	if err != nil {
		return domain.AllowanceStatus{}, fmt.Errorf("polymarket/user: get allowance: %w", err)
	}

	var resp apiAllowanceResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.AllowanceStatus{}, fmt.Errorf("polymarket/user: decode allowance: %w", err)
	}
	return resp.ToDomain(), nil
}

// ApproveFunding triggers a server-side USDC approval transaction.
func (c *UserClient) ApproveFunding(ctx context.Context, wallet string) error {
	return c.approve(ctx, "/user/approve-usdc", wallet)
}

// ApproveConditional triggers a server-side conditional-token approval
// transaction.
func (c *UserClient) ApproveConditional(ctx context.Context, wallet string) error {
	return c.approve(ctx, "/user/approve-conditional-tokens", wallet)
}

func (c *UserClient) approve(ctx context.Context, path, wallet string) error {
	status, body, err := doPost(ctx, c.httpClient, c.baseURL+path, map[string]string{
		"address": wallet,
	})
	if err != nil {
		return fmt.Errorf("polymarket/user: approve %s: %w", path, err)
	}
	if err := checkHTTPStatus(status, body); err != nil {
		return fmt.Errorf("polymarket/user: approve %s: %w", path, err)
	}

	var resp apiApproveResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("polymarket/user: decode approve response: %w", err)
	}
	if !resp.Success {
		return fmt.Errorf("polymarket/user: approve %s rejected: %s", path, resp.Error)
	}
	return nil
}

// Positions fetches current holdings for a wallet.
func (c *UserClient) Positions(ctx context.Context, wallet string) ([]domain.Position, error) {
	params := url.Values{}
	params.Set("address", wallet)

	body, err := doGet(ctx, c.httpClient, c.baseURL+"/user/positions?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("polymarket/user: get positions: %w", err)
	}

	var apiPositions []APIPosition
	if err := json.Unmarshal(body, &apiPositions); err != nil {
		return nil, fmt.Errorf("polymarket/user: decode positions: %w", err)
	}

	positions := make([]domain.Position, 0, len(apiPositions))
	for i := range apiPositions {
		positions = append(positions, apiPositions[i].ToDomainPosition())
	}
	return positions, nil
}

// RefreshBalance re-reads the wallet's funding state. The allowance
// endpoint is authoritative for balance, so this is a fetch-and-discard
// used to warm the server-side cache after a fill.
func (c *UserClient) RefreshBalance(ctx context.Context, wallet string) error {
	if _, err := c.Allowance(ctx, wallet); err != nil {
		return fmt.Errorf("polymarket/user: refresh balance: %w", err)
	}
	return nil
}
