package grpc

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/portfolio-tracker/internal/domain"
	"github.com/simaogato/portfolio-tracker/internal/mocks"
	"github.com/simaogato/portfolio-tracker/internal/usecase/basket"
	"github.com/simaogato/portfolio-tracker/internal/usecase/dashboard"
	"github.com/simaogato/portfolio-tracker/internal/usecase/ledger"
	"github.com/simaogato/portfolio-tracker/internal/usecase/position"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

const testToken = "secret"

type serverFixture struct {
	portfolios   *mocks.PortfolioRepository
	groups       *mocks.GroupRepository
	assets       *mocks.AssetRepository
	transactions *mocks.TransactionRepository
	baskets      *mocks.BasketRepository
	pricer       *mocks.Pricer
	conn         *grpc.ClientConn
}

func newServerFixture(t *testing.T) *serverFixture {
	t.Helper()

	f := &serverFixture{
		portfolios:   new(mocks.PortfolioRepository),
		groups:       new(mocks.GroupRepository),
		assets:       new(mocks.AssetRepository),
		transactions: new(mocks.TransactionRepository),
		baskets:      new(mocks.BasketRepository),
		pricer:       new(mocks.Pricer),
	}

	server := NewServer(
		ledger.NewLedgerService(f.portfolios, f.groups, f.assets, f.transactions, f.baskets),
		basket.NewBasketService(f.baskets, f.assets),
		position.NewPositionService(f.assets, f.groups, f.transactions, f.pricer),
		dashboard.NewDashboardService(f.assets, f.groups, f.transactions, f.baskets, f.pricer),
		time.UTC,
	)

	logger, _ := test.NewNullLogger()
	listener := bufconn.Listen(1 << 20)
	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(
		LoggingInterceptor(logger),
		AuthInterceptor(testToken),
	))
	RegisterPortfolioServiceServer(grpcServer, server)
	go func() { _ = grpcServer.Serve(listener) }()
	t.Cleanup(grpcServer.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return listener.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	f.conn = conn

	return f
}

func (f *serverFixture) call(t *testing.T, method string, body map[string]any) (map[string]any, error) {
	t.Helper()

	in, err := structpb.NewStruct(body)
	require.NoError(t, err)

	ctx := metadata.AppendToOutgoingContext(context.Background(), "authorization", "Bearer "+testToken)
	out := new(structpb.Struct)
	if err := f.conn.Invoke(ctx, "/"+ServiceName+"/"+method, in, out); err != nil {
		return nil, err
	}
	return out.AsMap(), nil
}

func TestServer_CreateGroup(t *testing.T) {
	f := newServerFixture(t)
	portfolioID := uuid.New()

	f.portfolios.On("GetByID", mock.Anything, portfolioID).Return(&domain.Portfolio{ID: portfolioID}, nil)
	f.groups.On("GetByName", mock.Anything, portfolioID, "Stocks").Return(nil, domain.NotFoundf("Group not found"))
	f.groups.On("Create", mock.Anything, mock.AnythingOfType("*domain.Group")).Return(nil)

	resp, err := f.call(t, "CreateGroup", map[string]any{
		"portfolio_id": portfolioID.String(),
		"name":         " Stocks ",
	})

	require.NoError(t, err)
	group := resp["group"].(map[string]any)
	assert.Equal(t, "Stocks", group["name"])
	assert.Equal(t, portfolioID.String(), group["portfolio_id"])
}

func TestServer_ErrorMapping(t *testing.T) {
	portfolioID := uuid.New()
	assetID := uuid.New()

	tests := []struct {
		name        string
		setup       func(f *serverFixture)
		method      string
		body        map[string]any
		wantCode    codes.Code
		wantMessage string
	}{
		{
			name:        "malformed identifier",
			setup:       func(f *serverFixture) {},
			method:      "ListGroups",
			body:        map[string]any{"portfolio_id": "nope"},
			wantCode:    codes.InvalidArgument,
			wantMessage: "invalid portfolio_id",
		},
		{
			name: "duplicate group",
			setup: func(f *serverFixture) {
				f.portfolios.On("GetByID", mock.Anything, portfolioID).Return(&domain.Portfolio{ID: portfolioID}, nil)
				f.groups.On("GetByName", mock.Anything, portfolioID, "Stocks").Return(&domain.Group{Name: "Stocks"}, nil)
			},
			method:      "CreateGroup",
			body:        map[string]any{"portfolio_id": portfolioID.String(), "name": "Stocks"},
			wantCode:    codes.FailedPrecondition,
			wantMessage: "Group already exists",
		},
		{
			name: "unknown asset keeps its reason through wrapping",
			setup: func(f *serverFixture) {
				f.assets.On("GetByID", mock.Anything, assetID).Return(nil, domain.NotFoundf("Asset not found"))
			},
			method:      "ArchiveAsset",
			body:        map[string]any{"asset_id": assetID.String()},
			wantCode:    codes.NotFound,
			wantMessage: "Asset not found",
		},
		{
			name: "rejected transaction",
			setup: func(f *serverFixture) {
				f.assets.On("GetByID", mock.Anything, assetID).Return(&domain.Asset{
					ID: assetID, PortfolioID: portfolioID, Symbol: "AAPL", AssetType: domain.AssetTypeMarket,
				}, nil)
				f.transactions.On("ApplyChange", mock.Anything, assetID).Return(nil, nil)
			},
			method: "AddTransaction",
			body: map[string]any{
				"asset_id":  assetID.String(),
				"type":      "SELL",
				"timestamp": "2026-01-05T10:00:00Z",
				"quantity":  "1",
				"price":     "100",
			},
			wantCode:    codes.InvalidArgument,
			wantMessage: "Cannot sell more than currently held quantity",
		},
		{
			name: "unclassified failure is hidden",
			setup: func(f *serverFixture) {
				f.assets.On("List", mock.Anything, portfolioID, false).Return(nil, errors.New("connection reset"))
			},
			method:      "GetSnapshot",
			body:        map[string]any{"portfolio_id": portfolioID.String()},
			wantCode:    codes.Internal,
			wantMessage: "internal error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newServerFixture(t)
			tt.setup(f)

			_, err := f.call(t, tt.method, tt.body)

			require.Error(t, err)
			st, ok := status.FromError(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantCode, st.Code())
			assert.Equal(t, tt.wantMessage, st.Message())
		})
	}
}

func TestServer_AddTransaction(t *testing.T) {
	f := newServerFixture(t)
	portfolioID := uuid.New()
	assetID := uuid.New()

	f.assets.On("GetByID", mock.Anything, assetID).Return(&domain.Asset{
		ID: assetID, PortfolioID: portfolioID, Symbol: "AAPL", AssetType: domain.AssetTypeMarket,
	}, nil)
	f.transactions.On("ApplyChange", mock.Anything, assetID).Return(nil, nil)

	resp, err := f.call(t, "AddTransaction", map[string]any{
		"asset_id":  assetID.String(),
		"type":      "buy",
		"timestamp": "2026-01-05 10:00",
		"quantity":  10,
		"price":     "100.25",
		"fees":      "1",
	})

	require.NoError(t, err)
	tx := resp["transaction"].(map[string]any)
	assert.Equal(t, "BUY", tx["type"])
	assert.Equal(t, "10", tx["quantity"])
	assert.Equal(t, "100.25", tx["price"])
	assert.Equal(t, "2026-01-05T10:00:00Z", tx["timestamp"])
	assert.Nil(t, tx["manual_value"])
	require.Len(t, f.transactions.Applied, 1)
}

func TestServer_CreateBasket(t *testing.T) {
	f := newServerFixture(t)
	portfolioID := uuid.New()
	aapl := &domain.Asset{ID: uuid.New(), PortfolioID: portfolioID, Symbol: "AAPL", AssetType: domain.AssetTypeMarket}
	msft := &domain.Asset{ID: uuid.New(), PortfolioID: portfolioID, Symbol: "MSFT", AssetType: domain.AssetTypeMarket}

	f.assets.On("GetByID", mock.Anything, aapl.ID).Return(aapl, nil)
	f.assets.On("GetByID", mock.Anything, msft.ID).Return(msft, nil)
	f.baskets.On("Create", mock.Anything, mock.AnythingOfType("*domain.Basket")).Return(nil)

	resp, err := f.call(t, "CreateBasket", map[string]any{
		"portfolio_id": portfolioID.String(),
		"name":         "Tech",
		"members": []any{
			map[string]any{"asset_id": aapl.ID.String(), "weight": "0.25"},
			map[string]any{"asset_id": msft.ID.String(), "weight": "0.75"},
		},
	})

	require.NoError(t, err)
	created := resp["basket"].(map[string]any)
	assert.Equal(t, "Tech", created["name"])
	members := created["members"].([]any)
	require.Len(t, members, 2)
	assert.Equal(t, aapl.ID.String(), members[0].(map[string]any)["asset_id"])
	assert.Equal(t, "0.75", members[1].(map[string]any)["weight"])
}

func TestServer_GetSnapshot(t *testing.T) {
	f := newServerFixture(t)
	portfolioID := uuid.New()
	groupID := uuid.New()
	asset := &domain.Asset{
		ID: uuid.New(), PortfolioID: portfolioID, GroupID: groupID, Symbol: "AAPL", Name: "Apple", AssetType: domain.AssetTypeMarket,
	}
	buy := &domain.Transaction{
		ID: uuid.New(), PortfolioID: portfolioID, AssetID: asset.ID, Type: domain.TransactionTypeBuy,
		Timestamp: time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC),
		Quantity:  decimal.NewNullDecimal(decimal.NewFromInt(10)),
		Price:     decimal.NewNullDecimal(decimal.NewFromInt(100)),
	}

	f.assets.On("List", mock.Anything, portfolioID, false).Return([]*domain.Asset{asset}, nil)
	f.groups.On("List", mock.Anything, portfolioID).Return([]*domain.Group{{ID: groupID, PortfolioID: portfolioID, Name: "Stocks"}}, nil)
	f.transactions.On("ListByPortfolio", mock.Anything, portfolioID).Return([]*domain.Transaction{buy}, nil)
	f.baskets.On("List", mock.Anything, portfolioID).Return([]*domain.Basket{}, nil)
	f.pricer.On("GetQuote", mock.Anything, "AAPL").Return(&domain.Quote{
		Symbol: "AAPL", Price: decimal.NewFromInt(120), FetchedAt: time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
	}, nil)

	resp, err := f.call(t, "GetSnapshot", map[string]any{"portfolio_id": portfolioID.String()})

	require.NoError(t, err)
	total := resp["canonical_total"].(map[string]any)
	assert.Equal(t, "1200", total["value"])
	assert.Equal(t, "200", total["unrealized_pnl"])
	positions := resp["positions"].([]any)
	require.Len(t, positions, 1)
	assert.Equal(t, "Stocks", positions[0].(map[string]any)["group"])
}

func TestServer_RequiresToken(t *testing.T) {
	f := newServerFixture(t)

	in, err := structpb.NewStruct(map[string]any{"portfolio_id": uuid.NewString()})
	require.NoError(t, err)

	err = f.conn.Invoke(context.Background(), "/"+ServiceName+"/ListGroups", in, new(structpb.Struct))

	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}
