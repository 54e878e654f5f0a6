package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PortfolioRepository defines the interface for portfolio persistence operations
type PortfolioRepository interface {
	// GetByID retrieves a portfolio by its ID
	GetByID(ctx context.Context, id uuid.UUID) (*Portfolio, error)
	// Create creates a new portfolio
	Create(ctx context.Context, portfolio *Portfolio) error
	// List retrieves all portfolios ordered by creation time
	List(ctx context.Context) ([]*Portfolio, error)
}

// GroupRepository defines the interface for group persistence operations
type GroupRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Group, error)
	// GetByName returns ErrNotFound when the portfolio has no group with that name
	GetByName(ctx context.Context, portfolioID uuid.UUID, name string) (*Group, error)
	Create(ctx context.Context, group *Group) error
	// List retrieves the groups of a portfolio sorted by name
	List(ctx context.Context, portfolioID uuid.UUID) ([]*Group, error)
}

// AssetRepository defines the interface for asset persistence operations
type AssetRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Asset, error)
	// FindActiveBySymbol returns ErrNotFound when no non-archived asset of the portfolio uses symbol
	FindActiveBySymbol(ctx context.Context, portfolioID uuid.UUID, symbol string) (*Asset, error)
	// List retrieves the assets of a portfolio sorted by symbol
	List(ctx context.Context, portfolioID uuid.UUID, includeArchived bool) ([]*Asset, error)
	// Create inserts the asset and its seed transactions in one unit of work
	Create(ctx context.Context, asset *Asset, seed []*Transaction) error
	Update(ctx context.Context, asset *Asset) error
	// Delete hard-deletes an asset; callers check that it has no transactions
	Delete(ctx context.Context, id uuid.UUID) error
}

// LedgerChangeKind is the kind of write applied to an asset's history
type LedgerChangeKind string

const (
	LedgerInsert LedgerChangeKind = "INSERT"
	LedgerUpdate LedgerChangeKind = "UPDATE"
	LedgerDelete LedgerChangeKind = "DELETE"
)

// LedgerChange is one write to an asset's transaction history
type LedgerChange struct {
	Kind        LedgerChangeKind
	Transaction *Transaction
}

// TransactionRepository defines the interface for transaction persistence operations
type TransactionRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Transaction, error)
	// ListByAsset retrieves an asset's history in canonical order (timestamp, id)
	ListByAsset(ctx context.Context, assetID uuid.UUID) ([]*Transaction, error)
	// ListByPortfolio retrieves every transaction of a portfolio in canonical order
	ListByPortfolio(ctx context.Context, portfolioID uuid.UUID) ([]*Transaction, error)
	CountByAsset(ctx context.Context, assetID uuid.UUID) (int, error)
	// ApplyChange locks the asset's history, passes it to decide and persists the returned change
	// in the same unit of work. Nothing is written when decide returns an error.
	ApplyChange(ctx context.Context, assetID uuid.UUID, decide func(history []*Transaction) (*LedgerChange, error)) error
}

// BasketRepository defines the interface for basket persistence operations
type BasketRepository interface {
	// GetByID retrieves a basket with its links
	GetByID(ctx context.Context, id uuid.UUID) (*Basket, error)
	// List retrieves the baskets of a portfolio sorted by name, links included
	List(ctx context.Context, portfolioID uuid.UUID) ([]*Basket, error)
	Create(ctx context.Context, basket *Basket) error
	// Update renames the basket and replaces its whole link set
	Update(ctx context.Context, basket *Basket) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// QuoteCacheRepository defines the interface for the per-symbol quote cache
type QuoteCacheRepository interface {
	// Get returns ErrNotFound when the symbol was never cached
	Get(ctx context.Context, symbol string) (*QuoteCacheEntry, error)
	// Upsert writes the entry; last write wins
	Upsert(ctx context.Context, entry *QuoteCacheEntry) error
}

// QuoteSource is the external market data collaborator
type QuoteSource interface {
	// LatestQuote returns the latest price of symbol and the time it was observed
	LatestQuote(ctx context.Context, symbol string) (decimal.Decimal, time.Time, error)
	// HistoricalDaily returns daily closes in [start, end], ordered by date
	HistoricalDaily(ctx context.Context, symbol string, start, end time.Time) ([]HistoricalPoint, error)
}
