package dashboard

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/portfolio-tracker/internal/domain"
	"github.com/simaogato/portfolio-tracker/internal/usecase/allocator"
	"github.com/simaogato/portfolio-tracker/internal/usecase/basket"
	"github.com/simaogato/portfolio-tracker/internal/usecase/position"
)

// GroupTotal is the canonical value and P&L of one group
type GroupTotal struct {
	GroupName     string
	Value         decimal.Decimal
	UnrealizedPnL decimal.Decimal
}

// CompositionMember is one live basket member with its display weight
type CompositionMember struct {
	AssetID uuid.UUID
	Symbol  string
	Weight  decimal.Decimal
	Value   decimal.Decimal
}

// Composition describes how a basket row is made up
type Composition struct {
	BasketID uuid.UUID
	Source   basket.WeightSource
	Members  []CompositionMember
}

// Snapshot is the dashboard of one portfolio.
// Positions and the canonical totals only ever contain individual assets; basket rows live in
// DerivedPositions and the derived totals.
type Snapshot struct {
	PortfolioID         uuid.UUID
	Positions           []position.Row
	GroupTotals         []GroupTotal
	CanonicalTotalValue decimal.Decimal
	CanonicalTotalPnL   decimal.Decimal

	DerivedPositions  []position.Row
	Compositions      []Composition
	DerivedTotalValue decimal.Decimal
	DerivedTotalPnL   decimal.Decimal

	GroupAllocation      []allocator.Share
	AssetAllocation      []allocator.Share
	BasketMemberAssetIDs []uuid.UUID
}

// DashboardService handles dashboard-related operations
type DashboardService struct {
	AssetRepo       domain.AssetRepository
	GroupRepo       domain.GroupRepository
	TransactionRepo domain.TransactionRepository
	BasketRepo      domain.BasketRepository
	Pricer          position.Pricer
}

// NewDashboardService creates a new DashboardService instance
func NewDashboardService(
	assetRepo domain.AssetRepository,
	groupRepo domain.GroupRepository,
	transactionRepo domain.TransactionRepository,
	basketRepo domain.BasketRepository,
	pricer position.Pricer,
) *DashboardService {
	return &DashboardService{
		AssetRepo:       assetRepo,
		GroupRepo:       groupRepo,
		TransactionRepo: transactionRepo,
		BasketRepo:      basketRepo,
		Pricer:          pricer,
	}
}

// GetSnapshot builds the dashboard of a portfolio
// Logic:
//   - one canonical row per active asset, sorted by (group name, symbol, id)
//   - canonical totals and group totals sum those rows only; a missing P&L counts as 0
//   - one derived row per basket: value = sum of live member values, P&L = sum of reported member P&Ls
//   - allocation by group over canonical totals; allocation by asset replaces basket members with their basket
func (s *DashboardService) GetSnapshot(ctx context.Context, portfolioID uuid.UUID) (*Snapshot, error) {
	// 1. Load active assets, groups and all transactions of the portfolio
	assets, err := s.AssetRepo.List(ctx, portfolioID, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}

	groups, err := s.GroupRepo.List(ctx, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	groupNames := make(map[uuid.UUID]string, len(groups))
	for _, group := range groups {
		groupNames[group.ID] = group.Name
	}

	txs, err := s.TransactionRepo.ListByPortfolio(ctx, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	txsByAsset := make(map[uuid.UUID][]*domain.Transaction)
	for _, tx := range txs {
		txsByAsset[tx.AssetID] = append(txsByAsset[tx.AssetID], tx)
	}

	// 2. Canonical rows
	rows := make([]position.Row, 0, len(assets))
	for _, asset := range assets {
		groupName, ok := groupNames[asset.GroupID]
		if !ok {
			groupName = domain.DefaultGroupName
		}
		row, err := position.BuildRow(ctx, s.Pricer, asset, groupName, txsByAsset[asset.ID])
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	slices.SortFunc(rows, position.CompareRows)

	snapshot := &Snapshot{
		PortfolioID:         portfolioID,
		Positions:           rows,
		CanonicalTotalValue: decimal.Zero,
		CanonicalTotalPnL:   decimal.Zero,
		DerivedTotalValue:   decimal.Zero,
		DerivedTotalPnL:     decimal.Zero,
	}

	// 3. Canonical totals
	for _, row := range rows {
		snapshot.CanonicalTotalValue = snapshot.CanonicalTotalValue.Add(row.CurrentValue)
		snapshot.CanonicalTotalPnL = snapshot.CanonicalTotalPnL.Add(reportedPnL(row))
	}
	snapshot.GroupTotals = GroupTotals(rows)

	// 4. Derived basket rows
	baskets, err := s.BasketRepo.List(ctx, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to list baskets: %w", err)
	}
	rowsByAsset := make(map[uuid.UUID]position.Row, len(rows))
	for _, row := range rows {
		rowsByAsset[row.ID] = row
	}
	members := make(map[uuid.UUID]bool)
	for _, b := range baskets {
		for _, link := range b.Links {
			members[link.AssetID] = true
		}
		row, composition := basketRow(b, rowsByAsset)
		snapshot.DerivedPositions = append(snapshot.DerivedPositions, row)
		snapshot.Compositions = append(snapshot.Compositions, composition)
		snapshot.DerivedTotalValue = snapshot.DerivedTotalValue.Add(row.CurrentValue)
		snapshot.DerivedTotalPnL = snapshot.DerivedTotalPnL.Add(reportedPnL(row))
	}
	for assetID := range members {
		snapshot.BasketMemberAssetIDs = append(snapshot.BasketMemberAssetIDs, assetID)
	}
	slices.SortFunc(snapshot.BasketMemberAssetIDs, func(a, b uuid.UUID) int { return strings.Compare(a.String(), b.String()) })

	// 5. Allocations
	snapshot.GroupAllocation = AllocationByGroup(snapshot.GroupTotals)
	snapshot.AssetAllocation = AllocationByAsset(rows, baskets)

	return snapshot, nil
}

// GroupTotals sums canonical rows per exact group name.
// Totals are ordered like rows: case-insensitive name first, exact name as tie-break.
func GroupTotals(rows []position.Row) []GroupTotal {
	byName := make(map[string]*GroupTotal)
	totals := make([]*GroupTotal, 0)
	for _, row := range rows {
		total, ok := byName[row.GroupName]
		if !ok {
			total = &GroupTotal{GroupName: row.GroupName, Value: decimal.Zero, UnrealizedPnL: decimal.Zero}
			byName[row.GroupName] = total
			totals = append(totals, total)
		}
		total.Value = total.Value.Add(row.CurrentValue)
		total.UnrealizedPnL = total.UnrealizedPnL.Add(reportedPnL(row))
	}

	slices.SortStableFunc(totals, func(a, b *GroupTotal) int {
		if c := strings.Compare(strings.ToLower(a.GroupName), strings.ToLower(b.GroupName)); c != 0 {
			return c
		}
		return strings.Compare(a.GroupName, b.GroupName)
	})
	result := make([]GroupTotal, len(totals))
	for i, total := range totals {
		result[i] = *total
	}
	return result
}

// basketRow derives a basket row from the canonical rows of its live members
func basketRow(b *domain.Basket, rowsByAsset map[uuid.UUID]position.Row) (position.Row, Composition) {
	row := position.Row{
		Kind:         position.RowKindBasket,
		ID:           b.ID,
		Symbol:       b.RowSymbol(),
		Name:         b.Name,
		CurrentValue: decimal.Zero,
	}

	live := make([]domain.BasketLink, 0, len(b.Links))
	held := make(map[uuid.UUID]decimal.Decimal, len(b.Links))
	pnl := decimal.Zero
	reported := false
	for _, link := range b.Links {
		member, ok := rowsByAsset[link.AssetID]
		if !ok {
			continue
		}
		live = append(live, link)
		held[link.AssetID] = member.Quantity.Decimal
		row.CurrentValue = row.CurrentValue.Add(member.CurrentValue)
		row.Invested = row.Invested.Add(member.Invested)
		row.QuoteStale = row.QuoteStale || member.QuoteStale
		if member.UnrealizedPnL.Valid {
			pnl = pnl.Add(member.UnrealizedPnL.Decimal)
			reported = true
		}
	}
	if reported {
		row.UnrealizedPnL = decimal.NewNullDecimal(pnl)
	}

	weights, source := basket.MemberWeights(live, held)
	composition := Composition{BasketID: b.ID, Source: source}
	for i, link := range live {
		member := rowsByAsset[link.AssetID]
		composition.Members = append(composition.Members, CompositionMember{
			AssetID: link.AssetID,
			Symbol:  member.Symbol,
			Weight:  weights[i],
			Value:   member.CurrentValue,
		})
	}

	return row, composition
}

func reportedPnL(row position.Row) decimal.Decimal {
	if row.UnrealizedPnL.Valid {
		return row.UnrealizedPnL.Decimal
	}
	return decimal.Zero
}

// AllocationByGroup computes each group's share of the canonical total
func AllocationByGroup(totals []GroupTotal) []allocator.Share {
	parts := make([]allocator.Slice, 0, len(totals))
	for _, total := range totals {
		parts = append(parts, allocator.Slice{Key: total.GroupName, Label: total.GroupName, Value: total.Value})
	}
	return allocator.CalculatePercentages(parts)
}

// AllocationByAsset computes per-symbol shares over the canonical rows. Basket members are left out
// and each basket is one slice. A member linked by several baskets is attributed to the first of them
// in basket order, so slice values always sum to the canonical total.
func AllocationByAsset(rows []position.Row, baskets []*domain.Basket) []allocator.Share {
	owner := make(map[uuid.UUID]int)
	for i, b := range baskets {
		for _, link := range b.Links {
			if _, ok := owner[link.AssetID]; !ok {
				owner[link.AssetID] = i
			}
		}
	}

	basketValues := make([]decimal.Decimal, len(baskets))
	for i := range basketValues {
		basketValues[i] = decimal.Zero
	}
	parts := make([]allocator.Slice, 0, len(rows)+len(baskets))
	for _, row := range rows {
		if i, ok := owner[row.ID]; ok {
			basketValues[i] = basketValues[i].Add(row.CurrentValue)
			continue
		}
		parts = append(parts, allocator.Slice{Key: row.ID.String(), Label: row.Symbol, Value: row.CurrentValue})
	}
	for i, b := range baskets {
		parts = append(parts, allocator.Slice{Key: b.RowSymbol(), Label: b.Name, Value: basketValues[i]})
	}
	return allocator.CalculatePercentages(parts)
}
