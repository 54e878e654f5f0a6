package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/portfolio-tracker/internal/domain"
	"github.com/simaogato/portfolio-tracker/internal/mocks"
	"github.com/simaogato/portfolio-tracker/internal/usecase/basket"
	"github.com/simaogato/portfolio-tracker/internal/usecase/position"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var ts = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

type fixture struct {
	ctx         context.Context
	portfolioID uuid.UUID
	assetRepo   *mocks.AssetRepository
	groupRepo   *mocks.GroupRepository
	txRepo      *mocks.TransactionRepository
	basketRepo  *mocks.BasketRepository
	pricer      *mocks.Pricer
	service     *DashboardService
}

func newFixture() *fixture {
	f := &fixture{
		ctx:         context.Background(),
		portfolioID: uuid.New(),
		assetRepo:   new(mocks.AssetRepository),
		groupRepo:   new(mocks.GroupRepository),
		txRepo:      new(mocks.TransactionRepository),
		basketRepo:  new(mocks.BasketRepository),
		pricer:      new(mocks.Pricer),
	}
	f.service = NewDashboardService(f.assetRepo, f.groupRepo, f.txRepo, f.basketRepo, f.pricer)
	return f
}

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func nd(v string) decimal.NullDecimal {
	return decimal.NewNullDecimal(d(v))
}

func buy(assetID uuid.UUID, qty, price string) *domain.Transaction {
	return &domain.Transaction{
		ID: domain.NewTransactionID(), AssetID: assetID, Type: domain.TransactionTypeBuy, Timestamp: ts,
		Quantity: nd(qty), Price: nd(price),
	}
}

func quote(symbol, price string) *domain.Quote {
	return &domain.Quote{Symbol: symbol, Price: d(price), FetchedAt: ts}
}

// tech portfolio: AAPL and MSFT in Stocks (both in the Tech basket) and a manually valued HOUSE in Alts
func (f *fixture) seedTechPortfolio() (aapl, msft, house *domain.Asset, tech *domain.Basket) {
	stocks := &domain.Group{ID: uuid.New(), PortfolioID: f.portfolioID, Name: "Stocks"}
	alts := &domain.Group{ID: uuid.New(), PortfolioID: f.portfolioID, Name: "Alts"}
	aapl = &domain.Asset{ID: uuid.New(), PortfolioID: f.portfolioID, GroupID: stocks.ID, Symbol: "AAPL", AssetType: domain.AssetTypeMarket}
	msft = &domain.Asset{ID: uuid.New(), PortfolioID: f.portfolioID, GroupID: stocks.ID, Symbol: "MSFT", AssetType: domain.AssetTypeMarket}
	house = &domain.Asset{ID: uuid.New(), PortfolioID: f.portfolioID, GroupID: alts.ID, Symbol: "HOUSE", AssetType: domain.AssetTypeManual}

	houseValue := &domain.Transaction{
		ID: domain.NewTransactionID(), AssetID: house.ID, Type: domain.TransactionTypeManualValueUpdate, Timestamp: ts,
		ManualValue: nd("5000"), InvestedOverride: nd("4000"),
	}
	tech = &domain.Basket{ID: uuid.New(), PortfolioID: f.portfolioID, Name: "Tech", Links: []domain.BasketLink{
		{AssetID: aapl.ID, Position: 0},
		{AssetID: msft.ID, Position: 1},
	}}

	f.assetRepo.On("List", f.ctx, f.portfolioID, false).Return([]*domain.Asset{aapl, house, msft}, nil)
	f.groupRepo.On("List", f.ctx, f.portfolioID).Return([]*domain.Group{alts, stocks}, nil)
	f.txRepo.On("ListByPortfolio", f.ctx, f.portfolioID).Return([]*domain.Transaction{
		buy(aapl.ID, "10", "100"), buy(msft.ID, "5", "200"), houseValue,
	}, nil)
	f.basketRepo.On("List", f.ctx, f.portfolioID).Return([]*domain.Basket{tech}, nil)
	return aapl, msft, house, tech
}

func TestGetSnapshot(t *testing.T) {
	f := newFixture()
	aapl, msft, house, tech := f.seedTechPortfolio()
	f.pricer.On("GetQuote", f.ctx, "AAPL").Return(quote("AAPL", "120"))
	f.pricer.On("GetQuote", f.ctx, "MSFT").Return(quote("MSFT", "180"))

	snapshot, err := f.service.GetSnapshot(f.ctx, f.portfolioID)

	require.NoError(t, err)

	// Canonical rows sorted by group then symbol
	require.Len(t, snapshot.Positions, 3)
	assert.Equal(t, []uuid.UUID{house.ID, aapl.ID, msft.ID}, []uuid.UUID{
		snapshot.Positions[0].ID, snapshot.Positions[1].ID, snapshot.Positions[2].ID,
	})
	assert.True(t, snapshot.CanonicalTotalValue.Equal(d("7100")), snapshot.CanonicalTotalValue.String())
	assert.True(t, snapshot.CanonicalTotalPnL.Equal(d("1100")), snapshot.CanonicalTotalPnL.String())

	require.Len(t, snapshot.GroupTotals, 2)
	assert.Equal(t, "Alts", snapshot.GroupTotals[0].GroupName)
	assert.True(t, snapshot.GroupTotals[0].Value.Equal(d("5000")))
	assert.Equal(t, "Stocks", snapshot.GroupTotals[1].GroupName)
	assert.True(t, snapshot.GroupTotals[1].Value.Equal(d("2100")))
	assert.True(t, snapshot.GroupTotals[1].UnrealizedPnL.Equal(d("100")))

	// Derived basket row
	require.Len(t, snapshot.DerivedPositions, 1)
	basketRow := snapshot.DerivedPositions[0]
	assert.Equal(t, position.RowKindBasket, basketRow.Kind)
	assert.Equal(t, "BASKET:"+tech.ID.String(), basketRow.Symbol)
	assert.Equal(t, "Tech", basketRow.Name)
	assert.True(t, basketRow.CurrentValue.Equal(d("2100")))
	assert.True(t, basketRow.UnrealizedPnL.Decimal.Equal(d("100")))
	assert.True(t, snapshot.DerivedTotalValue.Equal(d("2100")))

	require.Len(t, snapshot.Compositions, 1)
	composition := snapshot.Compositions[0]
	assert.Equal(t, basket.WeightsHeld, composition.Source)
	require.Len(t, composition.Members, 2)
	assert.Equal(t, "AAPL", composition.Members[0].Symbol)
	assert.True(t, composition.Members[0].Weight.Add(composition.Members[1].Weight).Equal(decimal.NewFromInt(1)))
	assert.True(t, composition.Members[0].Weight.GreaterThan(composition.Members[1].Weight))

	// Basket members replaced by their basket in the per-asset allocation
	assert.ElementsMatch(t, []uuid.UUID{aapl.ID, msft.ID}, snapshot.BasketMemberAssetIDs)
	require.Len(t, snapshot.AssetAllocation, 2)
	assert.Equal(t, "HOUSE", snapshot.AssetAllocation[0].Label)
	assert.Equal(t, "Tech", snapshot.AssetAllocation[1].Label)
	assert.Equal(t, basketRow.Symbol, snapshot.AssetAllocation[1].Key)
	total := snapshot.AssetAllocation[0].Percentage.Add(snapshot.AssetAllocation[1].Percentage)
	assert.True(t, total.Equal(decimal.NewFromInt(100)), total.String())

	require.Len(t, snapshot.GroupAllocation, 2)
	assert.Equal(t, "Alts", snapshot.GroupAllocation[0].Label)
	assert.True(t, snapshot.GroupAllocation[0].Value.Equal(d("5000")))
}

func manualValue(assetID uuid.UUID, value string) *domain.Transaction {
	return &domain.Transaction{
		ID: domain.NewTransactionID(), AssetID: assetID, Type: domain.TransactionTypeManualValueUpdate, Timestamp: ts,
		ManualValue: nd(value),
	}
}

func TestGetSnapshot_GroupNamesDifferingOnlyInCase(t *testing.T) {
	f := newFixture()
	upper := &domain.Group{ID: uuid.New(), PortfolioID: f.portfolioID, Name: "Stocks"}
	lower := &domain.Group{ID: uuid.New(), PortfolioID: f.portfolioID, Name: "stocks"}
	aaa := &domain.Asset{ID: uuid.New(), PortfolioID: f.portfolioID, GroupID: upper.ID, Symbol: "AAA", AssetType: domain.AssetTypeManual}
	bbb := &domain.Asset{ID: uuid.New(), PortfolioID: f.portfolioID, GroupID: lower.ID, Symbol: "BBB", AssetType: domain.AssetTypeManual}
	ccc := &domain.Asset{ID: uuid.New(), PortfolioID: f.portfolioID, GroupID: upper.ID, Symbol: "CCC", AssetType: domain.AssetTypeManual}

	f.assetRepo.On("List", f.ctx, f.portfolioID, false).Return([]*domain.Asset{aaa, bbb, ccc}, nil)
	f.groupRepo.On("List", f.ctx, f.portfolioID).Return([]*domain.Group{upper, lower}, nil)
	f.txRepo.On("ListByPortfolio", f.ctx, f.portfolioID).Return([]*domain.Transaction{
		manualValue(aaa.ID, "100"), manualValue(bbb.ID, "200"), manualValue(ccc.ID, "300"),
	}, nil)
	f.basketRepo.On("List", f.ctx, f.portfolioID).Return([]*domain.Basket{}, nil)

	snapshot, err := f.service.GetSnapshot(f.ctx, f.portfolioID)

	require.NoError(t, err)
	require.Len(t, snapshot.GroupTotals, 2)
	assert.Equal(t, "Stocks", snapshot.GroupTotals[0].GroupName)
	assert.True(t, snapshot.GroupTotals[0].Value.Equal(d("400")), snapshot.GroupTotals[0].Value.String())
	assert.Equal(t, "stocks", snapshot.GroupTotals[1].GroupName)
	assert.True(t, snapshot.GroupTotals[1].Value.Equal(d("200")))

	require.Len(t, snapshot.GroupAllocation, 2)
	assert.True(t, snapshot.GroupAllocation[0].Percentage.Equal(d("66.67")), snapshot.GroupAllocation[0].Percentage.String())
	assert.True(t, snapshot.GroupAllocation[1].Percentage.Equal(d("33.33")))
}

func TestGetSnapshot_OverlappingBasketsCountMemberOnce(t *testing.T) {
	f := newFixture()
	stocks := &domain.Group{ID: uuid.New(), PortfolioID: f.portfolioID, Name: "Stocks"}
	aapl := &domain.Asset{ID: uuid.New(), PortfolioID: f.portfolioID, GroupID: stocks.ID, Symbol: "AAPL", AssetType: domain.AssetTypeMarket}
	house := &domain.Asset{ID: uuid.New(), PortfolioID: f.portfolioID, GroupID: stocks.ID, Symbol: "HOUSE", AssetType: domain.AssetTypeManual}
	first := &domain.Basket{ID: uuid.New(), PortfolioID: f.portfolioID, Name: "B1", Links: []domain.BasketLink{{AssetID: aapl.ID}}}
	second := &domain.Basket{ID: uuid.New(), PortfolioID: f.portfolioID, Name: "B2", Links: []domain.BasketLink{{AssetID: aapl.ID}}}

	f.assetRepo.On("List", f.ctx, f.portfolioID, false).Return([]*domain.Asset{aapl, house}, nil)
	f.groupRepo.On("List", f.ctx, f.portfolioID).Return([]*domain.Group{stocks}, nil)
	f.txRepo.On("ListByPortfolio", f.ctx, f.portfolioID).Return([]*domain.Transaction{
		buy(aapl.ID, "10", "100"), manualValue(house.ID, "1000"),
	}, nil)
	f.basketRepo.On("List", f.ctx, f.portfolioID).Return([]*domain.Basket{first, second}, nil)
	f.pricer.On("GetQuote", f.ctx, "AAPL").Return(quote("AAPL", "100"))

	snapshot, err := f.service.GetSnapshot(f.ctx, f.portfolioID)

	require.NoError(t, err)
	// both derived rows still show the member
	require.Len(t, snapshot.DerivedPositions, 2)
	assert.True(t, snapshot.DerivedPositions[1].CurrentValue.Equal(d("1000")))

	require.Len(t, snapshot.AssetAllocation, 3)
	sum := decimal.Zero
	for _, share := range snapshot.AssetAllocation {
		sum = sum.Add(share.Value)
	}
	assert.True(t, sum.Equal(snapshot.CanonicalTotalValue), "slices %s, canonical %s", sum, snapshot.CanonicalTotalValue)

	byLabel := make(map[string]decimal.Decimal)
	for _, share := range snapshot.AssetAllocation {
		byLabel[share.Label] = share.Percentage
	}
	assert.True(t, byLabel["HOUSE"].Equal(d("50")), byLabel["HOUSE"].String())
	assert.True(t, byLabel["B1"].Equal(d("50")))
	assert.True(t, byLabel["B2"].IsZero())
}

func TestGetSnapshot_MissingQuoteKeepsBasketPnLFromReportingMembers(t *testing.T) {
	f := newFixture()
	f.seedTechPortfolio()
	f.pricer.On("GetQuote", f.ctx, "AAPL").Return(quote("AAPL", "120"))
	f.pricer.On("GetQuote", f.ctx, "MSFT").Return(nil)

	snapshot, err := f.service.GetSnapshot(f.ctx, f.portfolioID)

	require.NoError(t, err)
	assert.True(t, snapshot.CanonicalTotalValue.Equal(d("6200")))
	assert.True(t, snapshot.CanonicalTotalPnL.Equal(d("1200")))

	basketRow := snapshot.DerivedPositions[0]
	assert.True(t, basketRow.CurrentValue.Equal(d("1200")))
	assert.True(t, basketRow.UnrealizedPnL.Decimal.Equal(d("200")))
	assert.True(t, basketRow.QuoteStale)
}

func TestGetSnapshot_BasketWithoutLiveMembers(t *testing.T) {
	f := newFixture()
	empty := &domain.Basket{ID: uuid.New(), PortfolioID: f.portfolioID, Name: "Empty", Links: []domain.BasketLink{{AssetID: uuid.New()}}}
	f.assetRepo.On("List", f.ctx, f.portfolioID, false).Return([]*domain.Asset{}, nil)
	f.groupRepo.On("List", f.ctx, f.portfolioID).Return([]*domain.Group{}, nil)
	f.txRepo.On("ListByPortfolio", f.ctx, f.portfolioID).Return([]*domain.Transaction{}, nil)
	f.basketRepo.On("List", f.ctx, f.portfolioID).Return([]*domain.Basket{empty}, nil)

	snapshot, err := f.service.GetSnapshot(f.ctx, f.portfolioID)

	require.NoError(t, err)
	require.Len(t, snapshot.DerivedPositions, 1)
	assert.True(t, snapshot.DerivedPositions[0].CurrentValue.IsZero())
	assert.False(t, snapshot.DerivedPositions[0].UnrealizedPnL.Valid)
	assert.Empty(t, snapshot.Compositions[0].Members)
	assert.True(t, snapshot.AssetAllocation[0].Percentage.IsZero())
}

func TestGetSnapshot_UnknownGroupFallsBackToDefault(t *testing.T) {
	f := newFixture()
	asset := &domain.Asset{ID: uuid.New(), PortfolioID: f.portfolioID, GroupID: uuid.New(), Symbol: "VWCE", AssetType: domain.AssetTypeMarket}
	f.assetRepo.On("List", f.ctx, f.portfolioID, false).Return([]*domain.Asset{asset}, nil)
	f.groupRepo.On("List", f.ctx, f.portfolioID).Return([]*domain.Group{}, nil)
	f.txRepo.On("ListByPortfolio", f.ctx, f.portfolioID).Return([]*domain.Transaction{}, nil)
	f.basketRepo.On("List", f.ctx, f.portfolioID).Return([]*domain.Basket{}, nil)
	f.pricer.On("GetQuote", f.ctx, "VWCE").Return(quote("VWCE", "100"))

	snapshot, err := f.service.GetSnapshot(f.ctx, f.portfolioID)

	require.NoError(t, err)
	assert.Equal(t, domain.DefaultGroupName, snapshot.Positions[0].GroupName)
	assert.True(t, snapshot.Positions[0].CurrentValue.IsZero())
}

func TestGetSnapshot_RepositoryError(t *testing.T) {
	f := newFixture()
	f.assetRepo.On("List", f.ctx, f.portfolioID, false).Return(nil, errors.New("connection refused"))

	snapshot, err := f.service.GetSnapshot(f.ctx, f.portfolioID)

	assert.Nil(t, snapshot)
	assert.ErrorContains(t, err, "failed to list assets")
	f.groupRepo.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestPollQuotes(t *testing.T) {
	f := newFixture()
	aapl := &domain.Asset{ID: uuid.New(), Symbol: "AAPL", AssetType: domain.AssetTypeMarket}
	msft := &domain.Asset{ID: uuid.New(), Symbol: "MSFT", AssetType: domain.AssetTypeMarket}
	house := &domain.Asset{ID: uuid.New(), Symbol: "HOUSE", AssetType: domain.AssetTypeManual}
	f.assetRepo.On("List", f.ctx, f.portfolioID, false).Return([]*domain.Asset{aapl, house, msft}, nil)
	f.pricer.On("GetQuote", f.ctx, "AAPL").Return(&domain.Quote{
		Symbol: "AAPL", Price: d("120"), FetchedAt: ts, Stale: true, Warning: "Using cached quote due to provider issue: timeout",
	})
	f.pricer.On("GetQuote", f.ctx, "MSFT").Return(nil)

	statuses, err := f.service.PollQuotes(f.ctx, f.portfolioID, SplitSymbols(" msft,AAPL,house,,TSLA,aapl"))

	require.NoError(t, err)
	require.Len(t, statuses, 2)

	assert.Equal(t, "AAPL", statuses[0].Symbol)
	assert.True(t, statuses[0].Price.Decimal.Equal(d("120")))
	assert.True(t, statuses[0].Stale)
	assert.Contains(t, statuses[0].Warning, "provider issue")

	assert.Equal(t, "MSFT", statuses[1].Symbol)
	assert.False(t, statuses[1].Price.Valid)
	assert.True(t, statuses[1].Stale)

	f.pricer.AssertNotCalled(t, "GetQuote", mock.Anything, "HOUSE")
	f.pricer.AssertNotCalled(t, "GetQuote", mock.Anything, "TSLA")
}

func TestSplitSymbols(t *testing.T) {
	assert.Equal(t, []string{"AAPL", "BTC-USD"}, SplitSymbols(" aapl , btc-usd,,"))
	assert.Nil(t, SplitSymbols(""))
}
