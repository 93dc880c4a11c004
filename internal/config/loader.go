package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies TERMINAL_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known TERMINAL_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	setStr(&cfg.Wallet.Address, "TERMINAL_WALLET_ADDRESS")
	setStr(&cfg.Wallet.ApiKey, "TERMINAL_WALLET_API_KEY")
	setStr(&cfg.Wallet.ApiSecret, "TERMINAL_WALLET_API_SECRET")
	setStr(&cfg.Wallet.ApiPassphrase, "TERMINAL_WALLET_API_PASSPHRASE")

	setStr(&cfg.Venue.DataHost, "TERMINAL_VENUE_DATA_HOST")
	setStr(&cfg.Venue.UserHost, "TERMINAL_VENUE_USER_HOST")
	setStr(&cfg.Venue.TradeHost, "TERMINAL_VENUE_TRADE_HOST")

	setStr(&cfg.View.Pair, "TERMINAL_VIEW_PAIR")
	setStr(&cfg.View.Timeframe, "TERMINAL_VIEW_TIMEFRAME")
	setInt(&cfg.View.Offset, "TERMINAL_VIEW_OFFSET")

	setDuration(&cfg.Feed.BookInterval, "TERMINAL_FEED_BOOK_INTERVAL")
	setDuration(&cfg.Feed.MarketInterval, "TERMINAL_FEED_MARKET_INTERVAL")
	setDuration(&cfg.Feed.ChartInterval, "TERMINAL_FEED_CHART_INTERVAL")
	setDuration(&cfg.Feed.MergeTolerance, "TERMINAL_FEED_MERGE_TOLERANCE")
	setInt(&cfg.Feed.BackfillTries, "TERMINAL_FEED_BACKFILL_TRIES")

	setFloat64(&cfg.Trade.MinShares, "TERMINAL_TRADE_MIN_SHARES")
	setDuration(&cfg.Trade.ApprovalInterval, "TERMINAL_TRADE_APPROVAL_INTERVAL")
	setInt(&cfg.Trade.ApprovalAttempts, "TERMINAL_TRADE_APPROVAL_ATTEMPTS")

	setStr(&cfg.Redis.Addr, "TERMINAL_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "TERMINAL_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "TERMINAL_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "TERMINAL_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "TERMINAL_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "TERMINAL_REDIS_TLS_ENABLED")

	setBool(&cfg.Postgres.Enabled, "TERMINAL_POSTGRES_ENABLED")
	setStr(&cfg.Postgres.DSN, "TERMINAL_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "TERMINAL_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "TERMINAL_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "TERMINAL_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "TERMINAL_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "TERMINAL_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "TERMINAL_POSTGRES_SSL_MODE")
	setInt(&cfg.Postgres.PoolMaxConns, "TERMINAL_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "TERMINAL_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "TERMINAL_POSTGRES_RUN_MIGRATIONS")

	setBool(&cfg.S3.Enabled, "TERMINAL_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "TERMINAL_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "TERMINAL_S3_REGION")
	setStr(&cfg.S3.Bucket, "TERMINAL_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "TERMINAL_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "TERMINAL_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "TERMINAL_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "TERMINAL_S3_FORCE_PATH_STYLE")

	setInt(&cfg.Server.Port, "TERMINAL_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "TERMINAL_SERVER_CORS_ORIGINS")

	setStr(&cfg.Mode, "TERMINAL_MODE")
	setStr(&cfg.LogLevel, "TERMINAL_LOG_LEVEL")
}

// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
