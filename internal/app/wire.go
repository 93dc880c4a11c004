package app

import (
	"context"
	"fmt"
	"log/slog"

	s3blob "github.com/updownhq/terminal/internal/blob/s3"
	"github.com/updownhq/terminal/internal/cache/redis"
	"github.com/updownhq/terminal/internal/clock"
	"github.com/updownhq/terminal/internal/config"
	"github.com/updownhq/terminal/internal/domain"
	"github.com/updownhq/terminal/internal/platform/polymarket"
	"github.com/updownhq/terminal/internal/store/postgres"
)

// Dependencies bundles every dependency the application modes need. It is
// constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	// Venue clients
	Data     *polymarket.DataClient
	User     *polymarket.UserClient
	Trade    *polymarket.TradeClient
	Resolver *polymarket.Resolver

	// Caches and bus
	PriceCache  domain.PriceCache
	BookCache   domain.BookCache
	MarketCache domain.MarketCache
	SignalBus   domain.SignalBus

	// Persistence (nil when Postgres is disabled)
	FillStore domain.FillStore

	// Blob storage (nil when S3 is disabled)
	BlobWriter domain.BlobWriter
	Archiver   *s3blob.Archiver

	// Clock drives all polling cadences.
	Clock clock.Source
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that
// should be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	logger := slog.Default()

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	ticks, err := clock.NewSource()
	if err != nil {
		logger.Warn("tick source degraded, consumers share the timer thread",
			slog.String("error", err.Error()),
		)
	}

	deps := &Dependencies{
		Data:     polymarket.NewDataClient(cfg.Venue.DataHost),
		User:     polymarket.NewUserClient(cfg.Venue.UserHost),
		Resolver: polymarket.NewResolver(cfg.Venue.DataHost),
		Clock:    ticks,
	}

	if cfg.Wallet.ApiKey != "" {
		deps.Trade = polymarket.NewTradeClient(cfg.Venue.TradeHost, polymarket.Credentials{
			Key:        cfg.Wallet.ApiKey,
			Secret:     cfg.Wallet.ApiSecret,
			Passphrase: cfg.Wallet.ApiPassphrase,
		})
	}

	redisClient, err := redis.New(ctx, redis.ClientConfig{
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		PoolSize:   cfg.Redis.PoolSize,
		MaxRetries: cfg.Redis.MaxRetries,
		TLSEnabled: cfg.Redis.TLSEnabled,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: redis: %w", err)
	}
	closers = append(closers, func() { _ = redisClient.Close() })

	deps.PriceCache = redis.NewPriceCache(redisClient)
	deps.BookCache = redis.NewBookCache(redisClient)
	deps.MarketCache = redis.NewMarketCache(redisClient)
	deps.SignalBus = redis.NewSignalBus(redisClient)

	if cfg.Postgres.Enabled {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		deps.FillStore = postgres.NewFillStore(pgClient.Pool())
	}

	if cfg.S3.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}

		deps.BlobWriter = s3blob.NewWriter(s3Client)
		deps.Archiver = s3blob.NewArchiver(deps.BlobWriter, deps.BookCache, logger)
	}

	return deps, cleanup, nil
}
