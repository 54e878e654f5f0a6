// Package mocks holds testify mocks of the domain collaborators, shared by the usecase tests.
package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/portfolio-tracker/internal/domain"
	"github.com/stretchr/testify/mock"
)

// PortfolioRepository is a mock implementation of domain.PortfolioRepository
type PortfolioRepository struct {
	mock.Mock
}

func (m *PortfolioRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Portfolio, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Portfolio), args.Error(1)
}

func (m *PortfolioRepository) Create(ctx context.Context, portfolio *domain.Portfolio) error {
	args := m.Called(ctx, portfolio)
	return args.Error(0)
}

func (m *PortfolioRepository) List(ctx context.Context) ([]*domain.Portfolio, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Portfolio), args.Error(1)
}

// GroupRepository is a mock implementation of domain.GroupRepository
type GroupRepository struct {
	mock.Mock
}

func (m *GroupRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Group, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Group), args.Error(1)
}

func (m *GroupRepository) GetByName(ctx context.Context, portfolioID uuid.UUID, name string) (*domain.Group, error) {
	args := m.Called(ctx, portfolioID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Group), args.Error(1)
}

func (m *GroupRepository) Create(ctx context.Context, group *domain.Group) error {
	args := m.Called(ctx, group)
	return args.Error(0)
}

func (m *GroupRepository) List(ctx context.Context, portfolioID uuid.UUID) ([]*domain.Group, error) {
	args := m.Called(ctx, portfolioID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Group), args.Error(1)
}

// AssetRepository is a mock implementation of domain.AssetRepository
type AssetRepository struct {
	mock.Mock
}

func (m *AssetRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Asset, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Asset), args.Error(1)
}

func (m *AssetRepository) FindActiveBySymbol(ctx context.Context, portfolioID uuid.UUID, symbol string) (*domain.Asset, error) {
	args := m.Called(ctx, portfolioID, symbol)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Asset), args.Error(1)
}

func (m *AssetRepository) List(ctx context.Context, portfolioID uuid.UUID, includeArchived bool) ([]*domain.Asset, error) {
	args := m.Called(ctx, portfolioID, includeArchived)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Asset), args.Error(1)
}

func (m *AssetRepository) Create(ctx context.Context, asset *domain.Asset, seed []*domain.Transaction) error {
	args := m.Called(ctx, asset, seed)
	return args.Error(0)
}

func (m *AssetRepository) Update(ctx context.Context, asset *domain.Asset) error {
	args := m.Called(ctx, asset)
	return args.Error(0)
}

func (m *AssetRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// TransactionRepository is a mock implementation of domain.TransactionRepository.
// ApplyChange runs decide against the history registered with On("ApplyChange", ...).Return(history, err)
// and records the change it produced in Applied.
type TransactionRepository struct {
	mock.Mock
	Applied []*domain.LedgerChange
}

func (m *TransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *TransactionRepository) ListByAsset(ctx context.Context, assetID uuid.UUID) ([]*domain.Transaction, error) {
	args := m.Called(ctx, assetID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Transaction), args.Error(1)
}

func (m *TransactionRepository) ListByPortfolio(ctx context.Context, portfolioID uuid.UUID) ([]*domain.Transaction, error) {
	args := m.Called(ctx, portfolioID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Transaction), args.Error(1)
}

func (m *TransactionRepository) CountByAsset(ctx context.Context, assetID uuid.UUID) (int, error) {
	args := m.Called(ctx, assetID)
	return args.Int(0), args.Error(1)
}

func (m *TransactionRepository) ApplyChange(ctx context.Context, assetID uuid.UUID, decide func(history []*domain.Transaction) (*domain.LedgerChange, error)) error {
	args := m.Called(ctx, assetID)
	if err := args.Error(1); err != nil {
		return err
	}
	var history []*domain.Transaction
	if args.Get(0) != nil {
		history = args.Get(0).([]*domain.Transaction)
	}
	change, err := decide(history)
	if err != nil {
		return err
	}
	m.Applied = append(m.Applied, change)
	return nil
}

// BasketRepository is a mock implementation of domain.BasketRepository
type BasketRepository struct {
	mock.Mock
}

func (m *BasketRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Basket, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Basket), args.Error(1)
}

func (m *BasketRepository) List(ctx context.Context, portfolioID uuid.UUID) ([]*domain.Basket, error) {
	args := m.Called(ctx, portfolioID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Basket), args.Error(1)
}

func (m *BasketRepository) Create(ctx context.Context, basket *domain.Basket) error {
	args := m.Called(ctx, basket)
	return args.Error(0)
}

func (m *BasketRepository) Update(ctx context.Context, basket *domain.Basket) error {
	args := m.Called(ctx, basket)
	return args.Error(0)
}

func (m *BasketRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// QuoteCacheRepository is a mock implementation of domain.QuoteCacheRepository
type QuoteCacheRepository struct {
	mock.Mock
}

func (m *QuoteCacheRepository) Get(ctx context.Context, symbol string) (*domain.QuoteCacheEntry, error) {
	args := m.Called(ctx, symbol)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.QuoteCacheEntry), args.Error(1)
}

func (m *QuoteCacheRepository) Upsert(ctx context.Context, entry *domain.QuoteCacheEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

// QuoteSource is a mock implementation of domain.QuoteSource
type QuoteSource struct {
	mock.Mock
}

func (m *QuoteSource) LatestQuote(ctx context.Context, symbol string) (decimal.Decimal, time.Time, error) {
	args := m.Called(ctx, symbol)
	return args.Get(0).(decimal.Decimal), args.Get(1).(time.Time), args.Error(2)
}

func (m *QuoteSource) HistoricalDaily(ctx context.Context, symbol string, start, end time.Time) ([]domain.HistoricalPoint, error) {
	args := m.Called(ctx, symbol, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.HistoricalPoint), args.Error(1)
}
