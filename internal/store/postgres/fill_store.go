package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/updownhq/terminal/internal/domain"
)

// FillStore implements domain.FillStore using PostgreSQL.
type FillStore struct {
	pool *pgxpool.Pool
}

// NewFillStore creates a new FillStore backed by the given connection pool.
func NewFillStore(pool *pgxpool.Pool) *FillStore {
	return &FillStore{pool: pool}
}

const fillSelectCols = `id, wallet, market_id, token_id, outcome, side,
	shares, price_cents, usd_amount, placed_at`

func scanFillRows(rows pgx.Rows) ([]domain.Fill, error) {
	var fills []domain.Fill
	for rows.Next() {
		var f domain.Fill
		if err := rows.Scan(
			&f.ID, &f.Wallet, &f.MarketID, &f.TokenID, &f.Outcome,
			&f.Side, &f.Shares, &f.PriceCents, &f.USDAmount, &f.PlacedAt,
		); err != nil {
			return nil, err
		}
		fills = append(fills, f)
	}
	return fills, rows.Err()
}

// Create records one settled order. Re-recording the same fill ID is a
// no-op via ON CONFLICT DO NOTHING.
func (s *FillStore) Create(ctx context.Context, fill domain.Fill) error {
	const query = `
		INSERT INTO fills (
			id, wallet, market_id, token_id, outcome, side,
			shares, price_cents, usd_amount, placed_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10
		) ON CONFLICT (id) DO NOTHING`

	_, err := s.pool.Exec(ctx, query,
		fill.ID, fill.Wallet, fill.MarketID, fill.TokenID, fill.Outcome,
		fill.Side, fill.Shares, fill.PriceCents, fill.USDAmount, fill.PlacedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert fill %s: %w", fill.ID, err)
	}
	return nil
}

// ListByWallet returns the wallet's most recent fills, newest first.
func (s *FillStore) ListByWallet(ctx context.Context, wallet string, limit int) ([]domain.Fill, error) {
	query := `SELECT ` + fillSelectCols + ` FROM fills WHERE wallet = $1 ORDER BY placed_at DESC`
	args := []any{wallet}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list fills by wallet: %w", err)
	}
	defer rows.Close()

	fills, err := scanFillRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan fills by wallet: %w", err)
	}
	return fills, nil
}
