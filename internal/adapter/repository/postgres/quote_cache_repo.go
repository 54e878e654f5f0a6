package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/simaogato/portfolio-tracker/internal/domain"
)

// quoteCacheRepository implements domain.QuoteCacheRepository
type quoteCacheRepository struct {
	db *DB
}

// NewQuoteCacheRepository creates a new quote cache repository
func NewQuoteCacheRepository(db *DB) domain.QuoteCacheRepository {
	return &quoteCacheRepository{db: db}
}

// Get retrieves the cached quote of a symbol
func (r *quoteCacheRepository) Get(ctx context.Context, symbol string) (*domain.QuoteCacheEntry, error) {
	query := `
		SELECT symbol, price, fetched_at
		FROM quote_cache
		WHERE symbol = $1
	`

	var entry domain.QuoteCacheEntry
	err := r.db.QueryRowContext(ctx, query, symbol).Scan(&entry.Symbol, &entry.Price, &entry.FetchedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFoundf("no cached quote for %s", symbol)
		}
		return nil, fmt.Errorf("failed to get cached quote: %w", err)
	}

	return &entry, nil
}

// Upsert writes the cached quote of a symbol; the last write wins
func (r *quoteCacheRepository) Upsert(ctx context.Context, entry *domain.QuoteCacheEntry) error {
	query := `
		INSERT INTO quote_cache (symbol, price, fetched_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (symbol) DO UPDATE
		SET price = EXCLUDED.price, fetched_at = EXCLUDED.fetched_at
	`

	_, err := r.db.ExecContext(ctx, query, entry.Symbol, entry.Price, entry.FetchedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert cached quote: %w", err)
	}

	return nil
}
