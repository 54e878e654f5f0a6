package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/portfolio-tracker/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntryEncoding(t *testing.T) {
	fetched := time.Date(2026, 4, 1, 14, 30, 0, 0, time.FixedZone("CET", 3600))
	entry := &domain.QuoteCacheEntry{Symbol: "BTC", Price: decimal.RequireFromString("69500.123456789"), FetchedAt: fetched}

	data, err := encodeEntry(entry)
	require.NoError(t, err)
	assert.JSONEq(t, `{"symbol":"BTC","price":"69500.123456789","fetched_at":"2026-04-01T13:30:00Z"}`, string(data))

	decoded, err := decodeEntry(data)
	require.NoError(t, err)
	assert.Equal(t, "BTC", decoded.Symbol)
	assert.True(t, decoded.Price.Equal(entry.Price))
	assert.True(t, decoded.FetchedAt.Equal(fetched))
}

func TestDecodeEntry_Garbage(t *testing.T) {
	_, err := decodeEntry([]byte("not json"))

	assert.ErrorContains(t, err, "failed to deserialize cached quote")
}

// TestQuoteCacheRepository runs against a real server when PORTFOLIO_TEST_REDIS is set
func TestQuoteCacheRepository(t *testing.T) {
	addr := os.Getenv("PORTFOLIO_TEST_REDIS")
	if addr == "" {
		t.Skip("PORTFOLIO_TEST_REDIS not set")
	}
	ctx := context.Background()
	client, err := NewClient(ctx, addr, "", 0)
	require.NoError(t, err)
	defer client.Close()

	repo := NewQuoteCacheRepository(client)
	symbol := "TEST-" + uuid.NewString()[:8]
	defer client.Del(ctx, key(symbol))

	_, err = repo.Get(ctx, symbol)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.Upsert(ctx, &domain.QuoteCacheEntry{Symbol: symbol, Price: decimal.NewFromInt(1), FetchedAt: now}))
	require.NoError(t, repo.Upsert(ctx, &domain.QuoteCacheEntry{Symbol: symbol, Price: decimal.NewFromInt(2), FetchedAt: now}))

	entry, err := repo.Get(ctx, symbol)
	require.NoError(t, err)
	assert.True(t, entry.Price.Equal(decimal.NewFromInt(2)))
}
