// Package redis stores the quote cache in Redis instead of Postgres.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/simaogato/portfolio-tracker/internal/domain"
)

const keyPrefix = "portfolio:quote:"

// cachedQuote is the JSON document stored per symbol
type cachedQuote struct {
	Symbol    string          `json:"symbol"`
	Price     decimal.Decimal `json:"price"`
	FetchedAt time.Time       `json:"fetched_at"`
}

// quoteCacheRepository implements domain.QuoteCacheRepository
type quoteCacheRepository struct {
	client goredis.UniversalClient
}

// NewClient connects to Redis and checks the connection
func NewClient(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password, // Leave empty for no password
		DB:       db,
	})

	// Test connection
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}

// NewQuoteCacheRepository creates a quote cache backed by Redis.
// Entries never expire: freshness is decided by the pricing gateway, and expired entries are still
// served as stale quotes when the provider fails.
func NewQuoteCacheRepository(client goredis.UniversalClient) domain.QuoteCacheRepository {
	return &quoteCacheRepository{client: client}
}

func key(symbol string) string {
	return keyPrefix + symbol
}

// Get retrieves the cached quote of a symbol
func (r *quoteCacheRepository) Get(ctx context.Context, symbol string) (*domain.QuoteCacheEntry, error) {
	data, err := r.client.Get(ctx, key(symbol)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, domain.NotFoundf("no cached quote for %s", symbol)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached quote: %w", err)
	}
	return decodeEntry(data)
}

// Upsert writes the cached quote of a symbol; the last write wins
func (r *quoteCacheRepository) Upsert(ctx context.Context, entry *domain.QuoteCacheEntry) error {
	data, err := encodeEntry(entry)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, key(entry.Symbol), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set cached quote: %w", err)
	}
	return nil
}

func encodeEntry(entry *domain.QuoteCacheEntry) ([]byte, error) {
	data, err := json.Marshal(cachedQuote{Symbol: entry.Symbol, Price: entry.Price, FetchedAt: entry.FetchedAt.UTC()})
	if err != nil {
		return nil, fmt.Errorf("failed to serialize cached quote: %w", err)
	}
	return data, nil
}

func decodeEntry(data []byte) (*domain.QuoteCacheEntry, error) {
	var cached cachedQuote
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, fmt.Errorf("failed to deserialize cached quote: %w", err)
	}
	return &domain.QuoteCacheEntry{Symbol: cached.Symbol, Price: cached.Price, FetchedAt: cached.FetchedAt}, nil
}
