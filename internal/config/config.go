// Package config defines the top-level configuration for the terminal
// gateway and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by TERMINAL_* environment
// variables.
type Config struct {
	Wallet   WalletConfig   `toml:"wallet"`
	Venue    VenueConfig    `toml:"venue"`
	View     ViewConfig     `toml:"view"`
	Feed     FeedConfig     `toml:"feed"`
	Trade    TradeConfig    `toml:"trade"`
	Redis    RedisConfig    `toml:"redis"`
	Postgres PostgresConfig `toml:"postgres"`
	S3       S3Config       `toml:"s3"`
	Server   ServerConfig   `toml:"server"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
}

// WalletConfig identifies the trading wallet and its venue API credentials.
// The private key never appears here; order signing happens on the signer
// service.
type WalletConfig struct {
	Address       string `toml:"address"`
	ApiKey        string `toml:"api_key"`
	ApiSecret     string `toml:"api_secret"`
	ApiPassphrase string `toml:"api_passphrase"`
}

// VenueConfig holds the upstream API endpoints.
type VenueConfig struct {
	DataHost  string `toml:"data_host"`
	UserHost  string `toml:"user_host"`
	TradeHost string `toml:"trade_host"`
}

// ViewConfig selects which market window the gateway tracks.
type ViewConfig struct {
	Pair      string `toml:"pair"`
	Timeframe string `toml:"timeframe"`
	Offset    int    `toml:"offset"`
}

// FeedConfig holds polling cadences for the data feeds.
type FeedConfig struct {
	BookInterval   duration `toml:"book_interval"`
	MarketInterval duration `toml:"market_interval"`
	ChartInterval  duration `toml:"chart_interval"`
	MergeTolerance duration `toml:"merge_tolerance"`
	BackfillTries  int      `toml:"backfill_tries"`
}

// TradeConfig holds order-lifecycle parameters.
type TradeConfig struct {
	MinShares        float64  `toml:"min_shares"`
	ApprovalInterval duration `toml:"approval_interval"`
	ApprovalAttempts int      `toml:"approval_attempts"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Enabled       bool   `toml:"enabled"`
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// S3Config holds S3-compatible object storage parameters for window
// archives.
type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
}

// duration wraps time.Duration for TOML decoding.
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
func Defaults() Config {
	return Config{
		Venue: VenueConfig{
			DataHost:  "https://clob.polymarket.com",
			UserHost:  "https://data-api.polymarket.com",
			TradeHost: "https://clob.polymarket.com",
		},
		View: ViewConfig{
			Pair:      "BTC/USD",
			Timeframe: "1h",
			Offset:    0,
		},
		Feed: FeedConfig{
			BookInterval:   duration{time.Second},
			MarketInterval: duration{5 * time.Second},
			ChartInterval:  duration{time.Second},
			MergeTolerance: duration{750 * time.Millisecond},
			BackfillTries:  5,
		},
		Trade: TradeConfig{
			MinShares:        5.0,
			ApprovalInterval: duration{time.Second},
			ApprovalAttempts: 60,
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			PoolSize:   20,
			MaxRetries: 3,
		},
		Postgres: PostgresConfig{
			Enabled:       false,
			Host:          "localhost",
			Port:          5432,
			Database:      "terminal",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		S3: S3Config{
			Enabled:        false,
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "terminal-archives",
			ForcePathStyle: true,
		},
		Server: ServerConfig{
			Port:        8000,
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Mode:     "terminal",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"terminal": true,
	"monitor":  true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns
// a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: terminal, monitor)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Trading requires a wallet and venue credentials; monitor mode is
	// read-only and can run without either.
	if strings.ToLower(c.Mode) == "terminal" {
		if c.Wallet.Address == "" {
			errs = append(errs, "wallet: address is required for mode terminal")
		} else if !common.IsHexAddress(c.Wallet.Address) {
			errs = append(errs, fmt.Sprintf("wallet: %q is not a valid hex address", c.Wallet.Address))
		}
		if c.Wallet.ApiKey == "" || c.Wallet.ApiSecret == "" || c.Wallet.ApiPassphrase == "" {
			errs = append(errs, "wallet: api_key, api_secret, and api_passphrase are required for mode terminal")
		}
	}

	if c.Venue.DataHost == "" {
		errs = append(errs, "venue: data_host is required")
	}
	if c.View.Pair == "" {
		errs = append(errs, "view: pair is required")
	}
	if c.View.Timeframe == "" {
		errs = append(errs, "view: timeframe is required")
	}

	if c.Trade.MinShares <= 0 {
		errs = append(errs, "trade: min_shares must be positive")
	}
	if c.Trade.ApprovalAttempts <= 0 {
		errs = append(errs, "trade: approval_attempts must be positive")
	}

	if c.Redis.Addr == "" {
		errs = append(errs, "redis: addr is required")
	}
	if c.Postgres.Enabled && c.Postgres.DSN == "" && c.Postgres.Host == "" {
		errs = append(errs, "postgres: dsn or host is required when enabled")
	}
	if c.S3.Enabled {
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket is required when enabled")
		}
		if c.S3.Region == "" {
			errs = append(errs, "s3: region is required when enabled")
		}
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server: invalid port %d", c.Server.Port))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}
