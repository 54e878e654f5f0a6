package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/portfolio-tracker/internal/domain"
	"github.com/simaogato/portfolio-tracker/internal/logging"
	"github.com/simaogato/portfolio-tracker/internal/usecase/replay"
)

// LedgerService handles groups, assets and transaction writes.
// Every transaction write re-validates the complete resulting history of the asset.
type LedgerService struct {
	PortfolioRepo   domain.PortfolioRepository
	GroupRepo       domain.GroupRepository
	AssetRepo       domain.AssetRepository
	TransactionRepo domain.TransactionRepository
	BasketRepo      domain.BasketRepository
	Now             func() time.Time
}

// NewLedgerService creates a new LedgerService instance
func NewLedgerService(
	portfolioRepo domain.PortfolioRepository,
	groupRepo domain.GroupRepository,
	assetRepo domain.AssetRepository,
	transactionRepo domain.TransactionRepository,
	basketRepo domain.BasketRepository,
) *LedgerService {
	return &LedgerService{
		PortfolioRepo:   portfolioRepo,
		GroupRepo:       groupRepo,
		AssetRepo:       assetRepo,
		TransactionRepo: transactionRepo,
		BasketRepo:      basketRepo,
		Now:             time.Now,
	}
}

// CreateGroup creates a group, unique by (portfolio, name)
func (s *LedgerService) CreateGroup(ctx context.Context, portfolioID uuid.UUID, name string) (*domain.Group, error) {
	if _, err := s.PortfolioRepo.GetByID(ctx, portfolioID); err != nil {
		return nil, fmt.Errorf("failed to get portfolio: %w", err)
	}

	group := &domain.Group{ID: uuid.New(), PortfolioID: portfolioID, Name: strings.TrimSpace(name)}
	if err := group.Validate(); err != nil {
		return nil, err
	}

	_, err := s.GroupRepo.GetByName(ctx, portfolioID, group.Name)
	if err == nil {
		return nil, domain.Conflictf("Group already exists")
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up group: %w", err)
	}

	if err := s.GroupRepo.Create(ctx, group); err != nil {
		return nil, fmt.Errorf("failed to create group: %w", err)
	}
	return group, nil
}

// ListGroups lists the groups of a portfolio sorted by name
func (s *LedgerService) ListGroups(ctx context.Context, portfolioID uuid.UUID) ([]*domain.Group, error) {
	groups, err := s.GroupRepo.List(ctx, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	return groups, nil
}

// ListAssets lists the assets of a portfolio sorted by symbol
func (s *LedgerService) ListAssets(ctx context.Context, portfolioID uuid.UUID, includeArchived bool) ([]*domain.Asset, error) {
	assets, err := s.AssetRepo.List(ctx, portfolioID, includeArchived)
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	return assets, nil
}

// CreateAsset creates an asset together with its seed transactions
// Logic:
//   - MARKET: an initial BUY is recorded when an initial quantity > 0 is given; it then needs a price
//   - MANUAL: an initial MANUAL_VALUE_UPDATE is required; an initial invested amount adds a BUY at price 1
//   - the seed set must replay like any other history
func (s *LedgerService) CreateAsset(ctx context.Context, input CreateAssetInput) (*domain.Asset, []*domain.Transaction, error) {
	asset := &domain.Asset{
		ID:          uuid.New(),
		PortfolioID: input.PortfolioID,
		GroupID:     input.GroupID,
		Symbol:      domain.NormalizeSymbol(input.Symbol),
		Name:        strings.TrimSpace(input.Name),
		AssetType:   input.AssetType,
		CreatedAt:   s.Now().UTC(),
	}
	if err := asset.Validate(); err != nil {
		return nil, nil, err
	}

	if err := s.checkGroup(ctx, asset.PortfolioID, asset.GroupID); err != nil {
		return nil, nil, err
	}
	if err := s.checkSymbolFree(ctx, asset.PortfolioID, asset.Symbol, uuid.Nil); err != nil {
		return nil, nil, err
	}

	seed, err := seedTransactions(asset, input)
	if err != nil {
		return nil, nil, err
	}
	if err := replay.Validate(asset.AssetType, seed); err != nil {
		return nil, nil, err
	}

	if err := s.AssetRepo.Create(ctx, asset, seed); err != nil {
		return nil, nil, fmt.Errorf("failed to create asset: %w", err)
	}
	return asset, seed, nil
}

func seedTransactions(asset *domain.Asset, input CreateAssetInput) ([]*domain.Transaction, error) {
	newSeed := func(txType domain.TransactionType, note string) *domain.Transaction {
		return &domain.Transaction{
			ID:          domain.NewTransactionID(),
			PortfolioID: asset.PortfolioID,
			AssetID:     asset.ID,
			Type:        txType,
			Timestamp:   asset.CreatedAt,
			Note:        note,
		}
	}

	if input.InitialFees.IsNegative() {
		return nil, domain.InvalidInputf("Initial fees cannot be negative")
	}

	if asset.AssetType == domain.AssetTypeMarket {
		if !input.InitialQuantity.Valid {
			return nil, nil
		}
		if !input.InitialQuantity.Decimal.IsPositive() {
			return nil, domain.InvalidInputf("Initial shares must be greater than zero")
		}
		if !input.InitialPrice.Valid {
			return nil, domain.InvalidInputf("Initial buy price is required when shares are provided")
		}
		tx := newSeed(domain.TransactionTypeBuy, "Initial position")
		tx.Quantity = input.InitialQuantity
		tx.Price = input.InitialPrice
		tx.Fees = input.InitialFees
		return []*domain.Transaction{tx}, nil
	}

	if !input.InitialValue.Valid {
		return nil, domain.InvalidInputf("Initial manual value is required for manual assets")
	}
	if input.InitialValue.Decimal.IsNegative() {
		return nil, domain.InvalidInputf("Initial manual value cannot be negative")
	}
	value := newSeed(domain.TransactionTypeManualValueUpdate, "Initial manual value")
	value.ManualValue = input.InitialValue
	seed := []*domain.Transaction{value}

	if input.InitialInvested.Valid {
		if !input.InitialInvested.Decimal.IsPositive() {
			return nil, domain.InvalidInputf("Initial invested must be greater than zero")
		}
		invested := newSeed(domain.TransactionTypeBuy, "Initial invested amount at unit cost 1")
		invested.Quantity = input.InitialInvested
		invested.Price = decimal.NewNullDecimal(decimal.NewFromInt(1))
		seed = append(seed, invested)
	}
	return seed, nil
}

// UpdateAsset edits an asset. Symbol and type are frozen once the asset has transactions.
func (s *LedgerService) UpdateAsset(ctx context.Context, assetID uuid.UUID, input UpdateAssetInput) (*domain.Asset, error) {
	asset, err := s.AssetRepo.GetByID(ctx, assetID)
	if err != nil {
		return nil, fmt.Errorf("failed to get asset: %w", err)
	}

	updated := *asset
	updated.Symbol = domain.NormalizeSymbol(input.Symbol)
	updated.Name = strings.TrimSpace(input.Name)
	updated.AssetType = input.AssetType
	updated.GroupID = input.GroupID
	if err := updated.Validate(); err != nil {
		return nil, err
	}

	if err := s.checkGroup(ctx, asset.PortfolioID, updated.GroupID); err != nil {
		return nil, err
	}

	if updated.Symbol != asset.Symbol || updated.AssetType != asset.AssetType {
		count, err := s.TransactionRepo.CountByAsset(ctx, assetID)
		if err != nil {
			return nil, fmt.Errorf("failed to count transactions: %w", err)
		}
		if count > 0 {
			return nil, domain.Conflictf("Symbol and type cannot be changed after transactions exist")
		}
	}
	if asset.AssetType == domain.AssetTypeMarket && updated.AssetType != domain.AssetTypeMarket {
		if err := s.checkNotBasketMember(ctx, asset); err != nil {
			return nil, err
		}
	}
	if updated.Symbol != asset.Symbol && !updated.IsArchived {
		if err := s.checkSymbolFree(ctx, asset.PortfolioID, updated.Symbol, asset.ID); err != nil {
			return nil, err
		}
	}

	if err := s.AssetRepo.Update(ctx, &updated); err != nil {
		return nil, fmt.Errorf("failed to update asset: %w", err)
	}
	return &updated, nil
}

// checkNotBasketMember rejects the change when a basket of the portfolio links the asset.
// Baskets only hold MARKET assets.
func (s *LedgerService) checkNotBasketMember(ctx context.Context, asset *domain.Asset) error {
	baskets, err := s.BasketRepo.List(ctx, asset.PortfolioID)
	if err != nil {
		return fmt.Errorf("failed to list baskets: %w", err)
	}
	for _, b := range baskets {
		for _, link := range b.Links {
			if link.AssetID == asset.ID {
				return domain.Conflictf("Asset is a member of basket %q and must stay MARKET", b.Name)
			}
		}
	}
	return nil
}

// ArchiveAsset soft-deletes an asset; its history is kept
func (s *LedgerService) ArchiveAsset(ctx context.Context, assetID uuid.UUID) (*domain.Asset, error) {
	return s.setArchived(ctx, assetID, true)
}

// UnarchiveAsset restores an archived asset when its symbol is still free
func (s *LedgerService) UnarchiveAsset(ctx context.Context, assetID uuid.UUID) (*domain.Asset, error) {
	return s.setArchived(ctx, assetID, false)
}

func (s *LedgerService) setArchived(ctx context.Context, assetID uuid.UUID, archived bool) (*domain.Asset, error) {
	asset, err := s.AssetRepo.GetByID(ctx, assetID)
	if err != nil {
		return nil, fmt.Errorf("failed to get asset: %w", err)
	}
	if asset.IsArchived == archived {
		return asset, nil
	}
	if !archived {
		if err := s.checkSymbolFree(ctx, asset.PortfolioID, asset.Symbol, asset.ID); err != nil {
			return nil, err
		}
	}

	updated := *asset
	updated.IsArchived = archived
	if err := s.AssetRepo.Update(ctx, &updated); err != nil {
		return nil, fmt.Errorf("failed to update asset: %w", err)
	}
	return &updated, nil
}

// DeleteAsset hard-deletes an asset that has never had a transaction
func (s *LedgerService) DeleteAsset(ctx context.Context, assetID uuid.UUID) error {
	if _, err := s.AssetRepo.GetByID(ctx, assetID); err != nil {
		return fmt.Errorf("failed to get asset: %w", err)
	}

	count, err := s.TransactionRepo.CountByAsset(ctx, assetID)
	if err != nil {
		return fmt.Errorf("failed to count transactions: %w", err)
	}
	if count > 0 {
		return domain.Conflictf("Cannot delete asset with transactions. Archive it instead.")
	}

	if err := s.AssetRepo.Delete(ctx, assetID); err != nil {
		return fmt.Errorf("failed to delete asset: %w", err)
	}
	return nil
}

// ListTransactions returns an asset's history in canonical order
func (s *LedgerService) ListTransactions(ctx context.Context, assetID uuid.UUID) ([]*domain.Transaction, error) {
	txs, err := s.TransactionRepo.ListByAsset(ctx, assetID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return domain.SortTransactions(txs), nil
}

// AddTransaction appends a transaction after validating the whole resulting history
func (s *LedgerService) AddTransaction(ctx context.Context, assetID uuid.UUID, input TransactionInput) (*domain.Transaction, error) {
	asset, err := s.loadAssetFor(ctx, assetID, input.Type)
	if err != nil {
		return nil, err
	}

	tx := newTransaction(asset, domain.NewTransactionID(), input)
	err = s.TransactionRepo.ApplyChange(ctx, assetID, func(history []*domain.Transaction) (*domain.LedgerChange, error) {
		candidate := append(append([]*domain.Transaction{}, history...), tx)
		if err := replay.Validate(asset.AssetType, candidate); err != nil {
			return nil, err
		}
		return &domain.LedgerChange{Kind: domain.LedgerInsert, Transaction: tx}, nil
	})
	if err != nil {
		return nil, s.rejected(ctx, "add", assetID, err)
	}
	return tx, nil
}

// EditTransaction replaces one transaction in place (keeping its identity) and re-validates the history
func (s *LedgerService) EditTransaction(ctx context.Context, assetID, txID uuid.UUID, input TransactionInput) (*domain.Transaction, error) {
	asset, err := s.loadAssetFor(ctx, assetID, input.Type)
	if err != nil {
		return nil, err
	}

	tx := newTransaction(asset, txID, input)
	err = s.TransactionRepo.ApplyChange(ctx, assetID, func(history []*domain.Transaction) (*domain.LedgerChange, error) {
		candidate := make([]*domain.Transaction, 0, len(history))
		found := false
		for _, existing := range history {
			if existing.ID == txID {
				candidate = append(candidate, tx)
				found = true
				continue
			}
			candidate = append(candidate, existing)
		}
		if !found {
			return nil, domain.NotFoundf("Transaction not found")
		}
		if err := replay.Validate(asset.AssetType, candidate); err != nil {
			return nil, err
		}
		return &domain.LedgerChange{Kind: domain.LedgerUpdate, Transaction: tx}, nil
	})
	if err != nil {
		return nil, s.rejected(ctx, "edit", assetID, err)
	}
	return tx, nil
}

// DeleteTransaction removes one transaction when the remaining history still replays
func (s *LedgerService) DeleteTransaction(ctx context.Context, assetID, txID uuid.UUID) error {
	asset, err := s.AssetRepo.GetByID(ctx, assetID)
	if err != nil {
		return fmt.Errorf("failed to get asset: %w", err)
	}

	err = s.TransactionRepo.ApplyChange(ctx, assetID, func(history []*domain.Transaction) (*domain.LedgerChange, error) {
		var target *domain.Transaction
		remaining := make([]*domain.Transaction, 0, len(history))
		for _, existing := range history {
			if existing.ID == txID {
				target = existing
				continue
			}
			remaining = append(remaining, existing)
		}
		if target == nil {
			return nil, domain.NotFoundf("Transaction not found")
		}
		if err := replay.Validate(asset.AssetType, remaining); err != nil {
			return nil, domain.InvalidTransactionf("Cannot delete transaction: %s", err.Error())
		}
		return &domain.LedgerChange{Kind: domain.LedgerDelete, Transaction: target}, nil
	})
	if err != nil {
		return s.rejected(ctx, "delete", assetID, err)
	}
	return nil
}

// ValidateAsset replays an asset's stored history and reports the first rejection
func (s *LedgerService) ValidateAsset(ctx context.Context, assetID uuid.UUID) error {
	asset, err := s.AssetRepo.GetByID(ctx, assetID)
	if err != nil {
		return fmt.Errorf("failed to get asset: %w", err)
	}
	txs, err := s.TransactionRepo.ListByAsset(ctx, assetID)
	if err != nil {
		return fmt.Errorf("failed to list transactions: %w", err)
	}
	return replay.Validate(asset.AssetType, txs)
}

func (s *LedgerService) loadAssetFor(ctx context.Context, assetID uuid.UUID, txType domain.TransactionType) (*domain.Asset, error) {
	asset, err := s.AssetRepo.GetByID(ctx, assetID)
	if err != nil {
		return nil, fmt.Errorf("failed to get asset: %w", err)
	}
	if !asset.AllowsTransactionType(txType) {
		return nil, domain.InvalidTransactionf("Transaction type not allowed for this asset type")
	}
	return asset, nil
}

func newTransaction(asset *domain.Asset, id uuid.UUID, input TransactionInput) *domain.Transaction {
	tx := &domain.Transaction{
		ID:          id,
		PortfolioID: asset.PortfolioID,
		AssetID:     asset.ID,
		Type:        input.Type,
		Timestamp:   input.Timestamp,
		Fees:        input.Fees,
		Note:        strings.TrimSpace(input.Note),
	}
	switch input.Type {
	case domain.TransactionTypeBuy, domain.TransactionTypeSell:
		tx.Quantity = input.Quantity
		tx.Price = input.Price
	case domain.TransactionTypeManualValueUpdate:
		tx.ManualValue = input.ManualValue
		tx.InvestedOverride = input.InvestedOverride
	}
	return tx
}

func (s *LedgerService) rejected(ctx context.Context, op string, assetID uuid.UUID, err error) error {
	if errors.Is(err, domain.ErrInvalidTransaction) || errors.Is(err, domain.ErrNotFound) {
		logging.FromContext(ctx).WithField("asset_id", assetID).WithField("op", op).WithError(err).Warn("transaction write rejected")
		return err
	}
	return fmt.Errorf("failed to %s transaction: %w", op, err)
}

func (s *LedgerService) checkGroup(ctx context.Context, portfolioID, groupID uuid.UUID) error {
	group, err := s.GroupRepo.GetByID(ctx, groupID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.InvalidInputf("Group not found")
	}
	if err != nil {
		return fmt.Errorf("failed to get group: %w", err)
	}
	if group.PortfolioID != portfolioID {
		return domain.InvalidInputf("Group not found")
	}
	return nil
}

func (s *LedgerService) checkSymbolFree(ctx context.Context, portfolioID uuid.UUID, symbol string, self uuid.UUID) error {
	existing, err := s.AssetRepo.FindActiveBySymbol(ctx, portfolioID, symbol)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to look up symbol: %w", err)
	}
	if existing.ID == self {
		return nil
	}
	return domain.Conflictf("Active asset with symbol '%s' already exists", symbol)
}
