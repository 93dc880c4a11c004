// Package trade drives an order from user intent through allowance checks,
// server-side signing, submission, and reconciliation.
package trade

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/updownhq/terminal/internal/domain"
)

// State is the controller's position in the order lifecycle.
type State string

const (
	StateIdle              State = "idle"
	StateValidatingIntent  State = "validating_intent"
	StateCheckingAllowance State = "checking_allowance"
	StateNeedsApproval     State = "needs_approval"
	StateApproving         State = "approving"
	StateSigning           State = "signing"
	StateSubmitting        State = "submitting"
	StateReconciling       State = "reconciling"
	StateSettled           State = "settled"
)

// AllowanceAPI exposes the server-side allowance and approval endpoints.
// Approvals are executed on-chain by the server; no key material reaches
// this layer.
type AllowanceAPI interface {
	Allowance(ctx context.Context, wallet string) (domain.AllowanceStatus, error)
	ApproveFunding(ctx context.Context, wallet string) error
	ApproveConditional(ctx context.Context, wallet string) error
}

// Signer asks the server-held signer for a signed order object.
type Signer interface {
	SignOrder(ctx context.Context, req domain.SignRequest) (domain.SignedOrder, error)
}

// Placer posts a signed order through the venue proxy.
type Placer interface {
	PlaceOrder(ctx context.Context, wallet string, order domain.SignedOrder, mode domain.ExecutionMode) (domain.PlaceResult, error)
}

// Positions is the slice of the position reconciler the controller needs:
// the sell cap before submission and the refresh after a fill.
type Positions interface {
	Shares(tokenID string) float64
	Refresh(ctx context.Context) error
}

// BalanceRefresher refetches the wallet's funding balance after a fill.
type BalanceRefresher interface {
	RefreshBalance(ctx context.Context, wallet string) error
}

// Config carries the controller's tunables.
type Config struct {
	Wallet           string
	MinShares        float64
	ApprovalInterval time.Duration
	ApprovalAttempts int
}

// Controller is the order lifecycle state machine. One controller serves
// one wallet; the state machine itself enforces that a second submit cannot
// start while another is in flight.
type Controller struct {
	allow     AllowanceAPI
	signer    Signer
	placer    Placer
	positions Positions
	balances  BalanceRefresher
	fills     domain.FillStore
	logger    *slog.Logger

	wallet           string
	minShares        float64
	approvalInterval time.Duration
	approvalAttempts int

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error

	events chan domain.OrderPlaced

	mu          sync.Mutex
	state       State
	market      domain.Market
	needsReauth bool
}

// NewController creates a Controller. fills and balances may be nil; the
// corresponding reconciliation steps are skipped.
func NewController(
	allow AllowanceAPI,
	signer Signer,
	placer Placer,
	positions Positions,
	balances BalanceRefresher,
	fills domain.FillStore,
	cfg Config,
	logger *slog.Logger,
) *Controller {
	if cfg.MinShares <= 0 {
		cfg.MinShares = domain.MinOrderShares
	}
	if cfg.ApprovalInterval <= 0 {
		cfg.ApprovalInterval = time.Second
	}
	if cfg.ApprovalAttempts <= 0 {
		cfg.ApprovalAttempts = 60
	}
	return &Controller{
		allow:            allow,
		signer:           signer,
		placer:           placer,
		positions:        positions,
		balances:         balances,
		fills:            fills,
		logger:           logger.With(slog.String("component", "order_lifecycle")),
		wallet:           cfg.Wallet,
		minShares:        cfg.MinShares,
		approvalInterval: cfg.ApprovalInterval,
		approvalAttempts: cfg.ApprovalAttempts,
		now:              time.Now,
		sleep:            ctxSleep,
		events:           make(chan domain.OrderPlaced, 16),
		state:            StateIdle,
	}
}

// Events is the channel of placed-order notifications consumed by the
// chart's marker overlay and the WebSocket hub.
func (c *Controller) Events() <-chan domain.OrderPlaced {
	return c.events
}

// SetMarket points the controller at the active market. Approval and
// position state is derived per market, so nothing is carried over.
func (c *Controller) SetMarket(m domain.Market) {
	c.mu.Lock()
	c.market = m
	c.mu.Unlock()
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// NeedsReauth reports whether the venue flagged a credential/wallet
// ownership mismatch on the last submission. The UI routes the user to
// re-authentication instead of showing a generic failure.
func (c *Controller) NeedsReauth() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.needsReauth
}

// ClearReauth resets the re-authentication flag after the user signs in
// again.
func (c *Controller) ClearReauth() {
	c.mu.Lock()
	c.needsReauth = false
	c.mu.Unlock()
}

// Submit runs one intent through the full lifecycle. Every failure path
// resolves the state machine back to Idle; the returned error is a
// *domain.TradeError classifying what went wrong.
func (c *Controller) Submit(ctx context.Context, intent domain.Intent) (domain.OrderPlaced, error) {
	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return domain.OrderPlaced{}, domain.ErrBusy
	}
	c.state = StateValidatingIntent
	market := c.market
	c.mu.Unlock()
	defer c.setState(StateIdle)

	if err := c.validate(intent, market); err != nil {
		return domain.OrderPlaced{}, err
	}

	if err := c.ensureApprovals(ctx, intent); err != nil {
		return domain.OrderPlaced{}, err
	}

	signed, err := c.sign(ctx, intent, market)
	if err != nil {
		return domain.OrderPlaced{}, err
	}

	if err := c.submit(ctx, signed, intent.Mode); err != nil {
		return domain.OrderPlaced{}, err
	}

	return c.reconcile(ctx, intent, market), nil
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// validate applies the local pre-flight checks. Rejections are terminal and
// never reach the network.
func (c *Controller) validate(intent domain.Intent, market domain.Market) error {
	if !common.IsHexAddress(c.wallet) {
		return domain.NewTradeError(domain.TradeErrValidation, "wallet address is not a valid hex address")
	}
	if intent.Shares <= 0 {
		return domain.NewTradeError(domain.TradeErrValidation, "share amount must be positive")
	}
	if intent.Shares < c.minShares {
		return domain.NewTradeError(domain.TradeErrValidation,
			fmt.Sprintf("minimum order size is %g shares", c.minShares))
	}
	if intent.Side != domain.OrderSideBuy && intent.Side != domain.OrderSideSell {
		return domain.NewTradeError(domain.TradeErrValidation, "side must be buy or sell")
	}
	if _, ok := market.OutcomeFor(intent.TokenID); !ok {
		return domain.NewTradeError(domain.TradeErrValidation, "token does not belong to the active market")
	}
	if intent.Mode == domain.ExecutionModeLimit {
		if intent.PriceCents <= 0 || intent.PriceCents > 100 {
			return domain.NewTradeError(domain.TradeErrValidation, "limit price must be between 0 and 100 cents")
		}
	} else if intent.PriceCents <= 0 {
		return domain.NewTradeError(domain.TradeErrValidation, "no quote available for market order")
	}
	if intent.Side == domain.OrderSideSell {
		held := c.positions.Shares(intent.TokenID)
		if intent.Shares > held {
			return domain.NewTradeError(domain.TradeErrInsufficientPosition,
				fmt.Sprintf("sell of %g shares exceeds held position of %g", intent.Shares, held))
		}
	}
	return nil
}

// ensureApprovals runs the allowance leg of the lifecycle. Buys hard-require
// funding allowance; sells only warn on a missing conditional approval
// because the venue enforces it server-side and the rejection maps cleanly.
func (c *Controller) ensureApprovals(ctx context.Context, intent domain.Intent) error {
	c.setState(StateCheckingAllowance)

	status, err := c.allow.Allowance(ctx, c.wallet)
	if err != nil {
		return domain.WrapTradeError(domain.TradeErrNetwork, "allowance check failed", err)
	}

	if intent.Side == domain.OrderSideSell {
		if status.ConditionalNeedsApproval {
			c.logger.WarnContext(ctx, "conditional token approval missing; venue may reject the sell",
				slog.String("wallet", c.wallet),
			)
		}
		return nil
	}

	if !status.NeedsApproval {
		return nil
	}
	if !status.HasBalance {
		return domain.NewTradeError(domain.TradeErrInsufficientBalance,
			"wallet has no spendable balance to fund this order")
	}

	c.setState(StateNeedsApproval)
	c.setState(StateApproving)

	if err := c.allow.ApproveFunding(ctx, c.wallet); err != nil {
		return domain.WrapTradeError(domain.TradeErrNetwork, "funding approval failed", err)
	}
	if status.ConditionalNeedsApproval {
		if err := c.allow.ApproveConditional(ctx, c.wallet); err != nil {
			return domain.WrapTradeError(domain.TradeErrNetwork, "conditional token approval failed", err)
		}
	}

	// Poll until the chain reflects the approval or the ceiling is hit.
	for attempt := 0; attempt < c.approvalAttempts; attempt++ {
		if err := c.sleep(ctx, c.approvalInterval); err != nil {
			return domain.WrapTradeError(domain.TradeErrNetwork, "approval polling cancelled", err)
		}
		status, err = c.allow.Allowance(ctx, c.wallet)
		if err != nil {
			c.logger.DebugContext(ctx, "allowance poll failed",
				slog.Int("attempt", attempt+1),
				slog.String("error", err.Error()),
			)
			continue
		}
		if !status.NeedsApproval {
			return nil
		}
	}

	return domain.NewTradeError(domain.TradeErrApprovalPending,
		"approval is still processing on-chain; retry once it confirms")
}

func (c *Controller) sign(ctx context.Context, intent domain.Intent, market domain.Market) (domain.SignedOrder, error) {
	c.setState(StateSigning)

	req := domain.SignRequest{
		TokenID: intent.TokenID,
		Side:    string(intent.Side),
		Price:   intent.PriceCents / 100,
		Size:    intent.Shares,
		NegRisk: market.NegRisk,
	}
	signed, err := c.signer.SignOrder(ctx, req)
	if err != nil {
		return domain.SignedOrder{}, domain.WrapTradeError(domain.TradeErrNetwork, "order signing failed", err)
	}
	return signed, nil
}

func (c *Controller) submit(ctx context.Context, signed domain.SignedOrder, mode domain.ExecutionMode) error {
	c.setState(StateSubmitting)

	result, err := c.placer.PlaceOrder(ctx, c.wallet, signed, mode)
	if err != nil {
		return domain.WrapTradeError(domain.TradeErrNetwork, "order submission failed", err)
	}
	if result.Success {
		return nil
	}

	terr := MapVenueError(result.Error, result.ErrorCode)
	if terr.Kind == domain.TradeErrCredentialMismatch {
		c.mu.Lock()
		c.needsReauth = true
		c.mu.Unlock()
	}
	return terr
}

// reconcile refreshes positions and wallet balance in parallel, records the
// fill, and emits the order-placed event. Partial failures here are logged
// but never surface as an order failure: the order is already on the book.
func (c *Controller) reconcile(ctx context.Context, intent domain.Intent, market domain.Market) domain.OrderPlaced {
	c.setState(StateReconciling)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return c.positions.Refresh(gctx) })
	if c.balances != nil {
		g.Go(func() error { return c.balances.RefreshBalance(gctx, c.wallet) })
	}
	if err := g.Wait(); err != nil {
		c.logger.WarnContext(ctx, "post-fill reconciliation incomplete",
			slog.String("error", err.Error()),
		)
	}

	outcome, _ := market.OutcomeFor(intent.TokenID)
	notional := decimal.NewFromFloat(intent.Shares).
		Mul(decimal.NewFromFloat(intent.PriceCents)).
		Div(decimal.NewFromInt(100)).
		Round(2)

	evt := domain.OrderPlaced{
		ID:           uuid.New().String(),
		Shares:       intent.Shares,
		PriceCents:   intent.PriceCents,
		DollarAmount: notional.InexactFloat64(),
		Side:         intent.Side,
		Outcome:      outcome,
		Timestamp:    c.now(),
	}

	if c.fills != nil {
		fill := domain.Fill{
			ID:         evt.ID,
			Wallet:     c.wallet,
			MarketID:   market.ID,
			TokenID:    intent.TokenID,
			Outcome:    outcome,
			Side:       intent.Side,
			Shares:     intent.Shares,
			PriceCents: intent.PriceCents,
			USDAmount:  evt.DollarAmount,
			PlacedAt:   evt.Timestamp,
		}
		if err := c.fills.Create(ctx, fill); err != nil {
			c.logger.WarnContext(ctx, "fill record failed",
				slog.String("fill_id", fill.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	// Non-blocking: a slow hub must not hold the lifecycle in Reconciling.
	select {
	case c.events <- evt:
	default:
		c.logger.Warn("order event dropped, consumer backlogged",
			slog.String("event_id", evt.ID),
		)
	}

	c.setState(StateSettled)
	return evt
}

func ctxSleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
