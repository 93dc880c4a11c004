package app

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/updownhq/terminal/internal/chart"
	"github.com/updownhq/terminal/internal/domain"
	"github.com/updownhq/terminal/internal/feed"
	"github.com/updownhq/terminal/internal/position"
	"github.com/updownhq/terminal/internal/server"
	"github.com/updownhq/terminal/internal/server/handler"
	"github.com/updownhq/terminal/internal/server/ws"
	"github.com/updownhq/terminal/internal/trade"
)

// positionRefreshInterval paces the background position reconciliation
// between fills.
const positionRefreshInterval = 5 * time.Second

// TerminalMode runs the full trading terminal: data feeds, position
// reconciliation, the order lifecycle, and the API server.
func (a *App) TerminalMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting terminal mode")
	return a.runGateway(ctx, deps, true)
}

// MonitorMode runs the read-only terminal: feeds and the API server, no
// order submission and no wallet state.
func (a *App) MonitorMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting monitor mode")
	return a.runGateway(ctx, deps, false)
}

func (a *App) runGateway(ctx context.Context, deps *Dependencies, trading bool) error {
	g, ctx := errgroup.WithContext(ctx)

	syncr := chart.NewSynchronizer(deps.Data, deps.Data, deps.Clock, chart.Config{
		TickInterval:   a.cfg.Feed.ChartInterval.Duration,
		MergeTolerance: a.cfg.Feed.MergeTolerance.Duration,
		BackfillTries:  uint(a.cfg.Feed.BackfillTries),
	}, a.logger)
	defer syncr.Stop()

	markers := chart.NewMarkers()
	bookFeed := feed.NewBookFeed(
		deps.Data, deps.BookCache, deps.SignalBus, deps.Clock,
		a.cfg.Feed.BookInterval.Duration, a.logger,
	)
	reconciler := position.NewReconciler(deps.User, a.logger)

	var controller *trade.Controller
	if trading && deps.Trade != nil {
		reconciler.SetWallet(a.cfg.Wallet.Address)
		controller = trade.NewController(
			deps.User, deps.Trade, deps.Trade, reconciler, deps.User,
			deps.FillStore,
			trade.Config{
				Wallet:           a.cfg.Wallet.Address,
				MinShares:        a.cfg.Trade.MinShares,
				ApprovalInterval: a.cfg.Trade.ApprovalInterval.Duration,
				ApprovalAttempts: a.cfg.Trade.ApprovalAttempts,
			},
			a.logger,
		)
	}

	// Applied live chart points fan out to the tick cache and the bus.
	syncr.SetNotify(func(m domain.Market, p domain.ChartPoint) {
		if err := deps.PriceCache.SetTick(ctx, m.Key(), p); err != nil {
			a.logger.WarnContext(ctx, "tick cache write failed",
				slog.String("error", err.Error()),
			)
		}
		payload, _ := json.Marshal(map[string]any{"marketId": m.ID, "point": p})
		if err := deps.SignalBus.Publish(ctx, "ch:chart", payload); err != nil {
			a.logger.WarnContext(ctx, "chart publish failed",
				slog.String("error", err.Error()),
			)
		}
	})

	watch := feed.NewMarketWatch(
		deps.Resolver, deps.MarketCache, deps.SignalBus, deps.Clock,
		a.cfg.View.Pair, a.cfg.View.Timeframe, a.cfg.View.Offset,
		a.cfg.Feed.MarketInterval.Duration, a.logger,
	)
	watch.OnChange(func(ctx context.Context, prev, next domain.Market) {
		// Archive the outgoing window before the synchronizer discards its
		// series.
		if deps.Archiver != nil && prev.ID != "" {
			if err := deps.Archiver.ArchiveWindow(ctx, prev, syncr.Series()); err != nil {
				a.logger.WarnContext(ctx, "window archive failed",
					slog.String("market", prev.ID),
					slog.String("error", err.Error()),
				)
			}
		}

		syncr.SetMarket(ctx, next)
		bookFeed.SetMarket(next)
		reconciler.SetMarket(next)
		if controller != nil {
			controller.SetMarket(next)
		}
		markers.Clear()
	})

	if controller != nil {
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case evt := <-controller.Events():
					markers.Record(evt)
					payload, _ := json.Marshal(evt)
					if err := deps.SignalBus.Publish(ctx, "ch:order", payload); err != nil {
						a.logger.WarnContext(ctx, "order publish failed",
							slog.String("error", err.Error()),
						)
					}
				}
			}
		})

		g.Go(func() error {
			ticker := deps.Clock.NewTicker(positionRefreshInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-ticker.C():
					// Failures leave the previous snapshot; Refresh logs.
					_ = reconciler.Refresh(ctx)
				}
			}
		})
	}

	g.Go(func() error { return watch.Run(ctx) })
	g.Go(func() error { return bookFeed.Run(ctx) })

	hub := ws.NewHub(deps.SignalBus, a.logger)
	g.Go(func() error { return hub.Run(ctx) })

	handlers := server.Handlers{
		Health:    handler.NewHealthHandler(a.logger),
		Market:    handler.NewMarketHandler(watch, a.logger),
		Book:      handler.NewBookHandler(deps.BookCache, watch, a.logger),
		Chart:     handler.NewChartHandler(syncr, markers, a.logger),
		Positions: handler.NewPositionHandler(reconciler, watch, a.logger),
	}
	if deps.FillStore != nil {
		handlers.Fills = handler.NewFillHandler(deps.FillStore, a.cfg.Wallet.Address, a.logger)
	}
	if controller != nil {
		handlers.Orders = handler.NewOrderHandler(controller, watch, a.logger)
	}

	srv := server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
	}, handlers, hub, a.logger)

	g.Go(func() error { return srv.Start() })
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return ctx.Err()
	})

	return g.Wait()
}
