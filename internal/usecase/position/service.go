package position

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/simaogato/portfolio-tracker/internal/domain"
)

// AssetDetail is an asset with its priced position and its full history
type AssetDetail struct {
	Asset        *domain.Asset
	Group        *domain.Group
	Row          Row
	Transactions []*domain.Transaction // canonical order
}

// PositionService handles single-asset position lookups
type PositionService struct {
	AssetRepo       domain.AssetRepository
	GroupRepo       domain.GroupRepository
	TransactionRepo domain.TransactionRepository
	Pricer          Pricer
}

// NewPositionService creates a new PositionService instance
func NewPositionService(
	assetRepo domain.AssetRepository,
	groupRepo domain.GroupRepository,
	transactionRepo domain.TransactionRepository,
	pricer Pricer,
) *PositionService {
	return &PositionService{
		AssetRepo:       assetRepo,
		GroupRepo:       groupRepo,
		TransactionRepo: transactionRepo,
		Pricer:          pricer,
	}
}

// GetAssetDetail loads an asset, replays its history and prices it.
// Archived assets are still served: they keep their history.
func (s *PositionService) GetAssetDetail(ctx context.Context, assetID uuid.UUID) (*AssetDetail, error) {
	asset, err := s.AssetRepo.GetByID(ctx, assetID)
	if err != nil {
		return nil, fmt.Errorf("failed to get asset: %w", err)
	}

	group, err := s.GroupRepo.GetByID(ctx, asset.GroupID)
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}

	txs, err := s.TransactionRepo.ListByAsset(ctx, assetID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	txs = domain.SortTransactions(txs)

	row, err := BuildRow(ctx, s.Pricer, asset, group.Name, txs)
	if err != nil {
		return nil, err
	}

	return &AssetDetail{Asset: asset, Group: group, Row: row, Transactions: txs}, nil
}
