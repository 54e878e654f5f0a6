package grpc

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/simaogato/portfolio-tracker/internal/adapter/view"
	"github.com/simaogato/portfolio-tracker/internal/domain"
	"github.com/simaogato/portfolio-tracker/internal/logging"
	"github.com/simaogato/portfolio-tracker/internal/usecase/basket"
	"github.com/simaogato/portfolio-tracker/internal/usecase/dashboard"
	"github.com/simaogato/portfolio-tracker/internal/usecase/ledger"
	"github.com/simaogato/portfolio-tracker/internal/usecase/position"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// Server implements the PortfolioService gRPC server
type Server struct {
	LedgerService    *ledger.LedgerService
	BasketService    *basket.BasketService
	PositionService  *position.PositionService
	DashboardService *dashboard.DashboardService
	// Location is the reference zone naive timestamps are read in
	Location *time.Location
}

var _ PortfolioServiceServer = (*Server)(nil)

// NewServer creates a new gRPC server instance
func NewServer(
	ledgerService *ledger.LedgerService,
	basketService *basket.BasketService,
	positionService *position.PositionService,
	dashboardService *dashboard.DashboardService,
	loc *time.Location,
) *Server {
	return &Server{
		LedgerService:    ledgerService,
		BasketService:    basketService,
		PositionService:  positionService,
		DashboardService: dashboardService,
		Location:         loc,
	}
}

// CreateGroup handles the CreateGroup RPC
func (s *Server) CreateGroup(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	r := newRequest(req)
	portfolioID, err := r.id("portfolio_id")
	if err != nil {
		return nil, mapError(ctx, err)
	}

	group, err := s.LedgerService.CreateGroup(ctx, portfolioID, r.str("name"))
	if err != nil {
		return nil, mapError(ctx, err)
	}
	return respond(map[string]any{"group": view.Group(group)})
}

// ListGroups handles the ListGroups RPC
func (s *Server) ListGroups(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	portfolioID, err := newRequest(req).id("portfolio_id")
	if err != nil {
		return nil, mapError(ctx, err)
	}

	groups, err := s.LedgerService.ListGroups(ctx, portfolioID)
	if err != nil {
		return nil, mapError(ctx, err)
	}
	return respond(map[string]any{"groups": view.Groups(groups)})
}

// CreateAsset handles the CreateAsset RPC. Seed fields are optional strings.
func (s *Server) CreateAsset(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	input, err := createAssetInput(newRequest(req))
	if err != nil {
		return nil, mapError(ctx, err)
	}

	asset, seed, err := s.LedgerService.CreateAsset(ctx, input)
	if err != nil {
		return nil, mapError(ctx, err)
	}
	return respond(map[string]any{
		"asset":        view.Asset(asset),
		"transactions": view.Transactions(seed),
	})
}

func createAssetInput(r request) (ledger.CreateAssetInput, error) {
	var input ledger.CreateAssetInput
	var err error

	if input.PortfolioID, err = r.id("portfolio_id"); err != nil {
		return input, err
	}
	if input.GroupID, err = r.id("group_id"); err != nil {
		return input, err
	}
	if input.AssetType, err = domain.ParseAssetType(r.str("asset_type")); err != nil {
		return input, err
	}
	input.Symbol = r.str("symbol")
	input.Name = r.str("name")

	if input.InitialQuantity, err = r.optionalDecimal("initial_quantity", "Initial quantity"); err != nil {
		return input, err
	}
	if input.InitialPrice, err = r.optionalDecimal("initial_price", "Initial price"); err != nil {
		return input, err
	}
	fees, err := r.optionalDecimal("initial_fees", "Initial fees")
	if err != nil {
		return input, err
	}
	input.InitialFees = fees.Decimal
	if input.InitialValue, err = r.optionalDecimal("initial_value", "Initial value"); err != nil {
		return input, err
	}
	if input.InitialInvested, err = r.optionalDecimal("initial_invested", "Initial invested"); err != nil {
		return input, err
	}
	return input, nil
}

// UpdateAsset handles the UpdateAsset RPC
func (s *Server) UpdateAsset(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	r := newRequest(req)
	assetID, err := r.id("asset_id")
	if err != nil {
		return nil, mapError(ctx, err)
	}
	groupID, err := r.id("group_id")
	if err != nil {
		return nil, mapError(ctx, err)
	}
	assetType, err := domain.ParseAssetType(r.str("asset_type"))
	if err != nil {
		return nil, mapError(ctx, err)
	}

	asset, err := s.LedgerService.UpdateAsset(ctx, assetID, ledger.UpdateAssetInput{
		Symbol:    r.str("symbol"),
		Name:      r.str("name"),
		AssetType: assetType,
		GroupID:   groupID,
	})
	if err != nil {
		return nil, mapError(ctx, err)
	}
	return respond(map[string]any{"asset": view.Asset(asset)})
}

// ArchiveAsset handles the ArchiveAsset RPC
func (s *Server) ArchiveAsset(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return s.assetLifecycle(ctx, req, s.LedgerService.ArchiveAsset)
}

// UnarchiveAsset handles the UnarchiveAsset RPC
func (s *Server) UnarchiveAsset(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return s.assetLifecycle(ctx, req, s.LedgerService.UnarchiveAsset)
}

func (s *Server) assetLifecycle(
	ctx context.Context,
	req *structpb.Struct,
	apply func(context.Context, uuid.UUID) (*domain.Asset, error),
) (*structpb.Struct, error) {
	assetID, err := newRequest(req).id("asset_id")
	if err != nil {
		return nil, mapError(ctx, err)
	}

	asset, err := apply(ctx, assetID)
	if err != nil {
		return nil, mapError(ctx, err)
	}
	return respond(map[string]any{"asset": view.Asset(asset)})
}

// DeleteAsset handles the DeleteAsset RPC
func (s *Server) DeleteAsset(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	assetID, err := newRequest(req).id("asset_id")
	if err != nil {
		return nil, mapError(ctx, err)
	}

	if err := s.LedgerService.DeleteAsset(ctx, assetID); err != nil {
		return nil, mapError(ctx, err)
	}
	return respond(map[string]any{"deleted": true})
}

// ListAssets handles the ListAssets RPC
func (s *Server) ListAssets(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	r := newRequest(req)
	portfolioID, err := r.id("portfolio_id")
	if err != nil {
		return nil, mapError(ctx, err)
	}

	assets, err := s.LedgerService.ListAssets(ctx, portfolioID, r.boolean("include_archived"))
	if err != nil {
		return nil, mapError(ctx, err)
	}
	return respond(map[string]any{"assets": view.Assets(assets)})
}

// GetAsset handles the GetAsset RPC: the asset, its live row and its full history
func (s *Server) GetAsset(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	assetID, err := newRequest(req).id("asset_id")
	if err != nil {
		return nil, mapError(ctx, err)
	}

	detail, err := s.PositionService.GetAssetDetail(ctx, assetID)
	if err != nil {
		return nil, mapError(ctx, err)
	}
	return respond(view.AssetDetail(detail))
}

// AddTransaction handles the AddTransaction RPC
func (s *Server) AddTransaction(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	r := newRequest(req)
	assetID, err := r.id("asset_id")
	if err != nil {
		return nil, mapError(ctx, err)
	}
	input, err := r.transactionInput().Parse(s.Location)
	if err != nil {
		return nil, mapError(ctx, err)
	}

	tx, err := s.LedgerService.AddTransaction(ctx, assetID, input)
	if err != nil {
		return nil, mapError(ctx, err)
	}
	return respond(map[string]any{"transaction": view.Transaction(tx)})
}

// EditTransaction handles the EditTransaction RPC
func (s *Server) EditTransaction(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	r := newRequest(req)
	assetID, err := r.id("asset_id")
	if err != nil {
		return nil, mapError(ctx, err)
	}
	txID, err := r.id("transaction_id")
	if err != nil {
		return nil, mapError(ctx, err)
	}
	input, err := r.transactionInput().Parse(s.Location)
	if err != nil {
		return nil, mapError(ctx, err)
	}

	tx, err := s.LedgerService.EditTransaction(ctx, assetID, txID, input)
	if err != nil {
		return nil, mapError(ctx, err)
	}
	return respond(map[string]any{"transaction": view.Transaction(tx)})
}

// DeleteTransaction handles the DeleteTransaction RPC
func (s *Server) DeleteTransaction(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	r := newRequest(req)
	assetID, err := r.id("asset_id")
	if err != nil {
		return nil, mapError(ctx, err)
	}
	txID, err := r.id("transaction_id")
	if err != nil {
		return nil, mapError(ctx, err)
	}

	if err := s.LedgerService.DeleteTransaction(ctx, assetID, txID); err != nil {
		return nil, mapError(ctx, err)
	}
	return respond(map[string]any{"deleted": true})
}

// CreateBasket handles the CreateBasket RPC
func (s *Server) CreateBasket(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	r := newRequest(req)
	portfolioID, err := r.id("portfolio_id")
	if err != nil {
		return nil, mapError(ctx, err)
	}
	members, err := r.members()
	if err != nil {
		return nil, mapError(ctx, err)
	}

	created, err := s.BasketService.CreateBasket(ctx, portfolioID, r.str("name"), members)
	if err != nil {
		return nil, mapError(ctx, err)
	}
	return respond(map[string]any{"basket": view.Basket(created)})
}

// UpdateBasket handles the UpdateBasket RPC. The member list replaces the previous one.
func (s *Server) UpdateBasket(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	r := newRequest(req)
	basketID, err := r.id("basket_id")
	if err != nil {
		return nil, mapError(ctx, err)
	}
	members, err := r.members()
	if err != nil {
		return nil, mapError(ctx, err)
	}

	updated, err := s.BasketService.UpdateBasket(ctx, basketID, r.str("name"), members)
	if err != nil {
		return nil, mapError(ctx, err)
	}
	return respond(map[string]any{"basket": view.Basket(updated)})
}

// DeleteBasket handles the DeleteBasket RPC
func (s *Server) DeleteBasket(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	basketID, err := newRequest(req).id("basket_id")
	if err != nil {
		return nil, mapError(ctx, err)
	}

	if err := s.BasketService.DeleteBasket(ctx, basketID); err != nil {
		return nil, mapError(ctx, err)
	}
	return respond(map[string]any{"deleted": true})
}

// ListBaskets handles the ListBaskets RPC
func (s *Server) ListBaskets(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	portfolioID, err := newRequest(req).id("portfolio_id")
	if err != nil {
		return nil, mapError(ctx, err)
	}

	baskets, err := s.BasketService.ListBaskets(ctx, portfolioID)
	if err != nil {
		return nil, mapError(ctx, err)
	}
	return respond(map[string]any{"baskets": view.Baskets(baskets)})
}

// GetSnapshot handles the GetSnapshot RPC
func (s *Server) GetSnapshot(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	portfolioID, err := newRequest(req).id("portfolio_id")
	if err != nil {
		return nil, mapError(ctx, err)
	}

	snapshot, err := s.DashboardService.GetSnapshot(ctx, portfolioID)
	if err != nil {
		return nil, mapError(ctx, err)
	}
	return respond(view.Snapshot(snapshot))
}

func respond(body map[string]any) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(body)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	return out, nil
}

// mapError converts domain errors to gRPC status errors.
// Classified errors carry their user-facing reason; anything else is logged and hidden.
func mapError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}

	var code codes.Code
	switch {
	case errors.Is(err, domain.ErrInvalidTransaction),
		errors.Is(err, domain.ErrMalformedInput),
		errors.Is(err, domain.ErrInvalidInput):
		code = codes.InvalidArgument
	case errors.Is(err, domain.ErrNotFound):
		code = codes.NotFound
	case errors.Is(err, domain.ErrConflict):
		code = codes.FailedPrecondition
	default:
		logging.FromContext(ctx).WithError(err).Error("request failed")
		return status.Error(codes.Internal, "internal error")
	}

	if reason, ok := domain.Reason(err); ok {
		return status.Error(code, reason)
	}
	return status.Error(code, err.Error())
}
