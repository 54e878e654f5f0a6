package position

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/portfolio-tracker/internal/domain"
	"github.com/simaogato/portfolio-tracker/internal/usecase/replay"
)

// RowKind tells canonical asset rows apart from derived basket rows
type RowKind string

const (
	RowKindAsset  RowKind = "asset"
	RowKindBasket RowKind = "basket"
)

// Pricer resolves a symbol to its current price; nil means no price is available
type Pricer interface {
	GetQuote(ctx context.Context, symbol string) *domain.Quote
}

// Row is one line of the position table
type Row struct {
	Kind      RowKind
	ID        uuid.UUID // asset ID, or basket ID for basket rows
	Symbol    string
	Name      string
	GroupName string
	AssetType domain.AssetType // empty for basket rows

	Quantity      decimal.NullDecimal // MARKET only
	AvgCost       decimal.NullDecimal // MARKET only
	Invested      decimal.Decimal
	CurrentPrice  decimal.NullDecimal
	CurrentValue  decimal.Decimal
	UnrealizedPnL decimal.NullDecimal
	AsOf          time.Time
	QuoteStale    bool
	Warning       string
}

// BuildRow replays an asset's history and prices it.
// A MARKET asset without any available quote is valued at 0, reports no P&L and is flagged stale.
func BuildRow(ctx context.Context, pricer Pricer, asset *domain.Asset, groupName string, txs []*domain.Transaction) (Row, error) {
	pos, err := replay.Replay(asset.AssetType, txs)
	if err != nil {
		return Row{}, fmt.Errorf("failed to replay asset %s: %w", asset.Symbol, err)
	}

	row := Row{
		Kind:      RowKindAsset,
		ID:        asset.ID,
		Symbol:    asset.Symbol,
		Name:      asset.Name,
		GroupName: groupName,
		AssetType: asset.AssetType,
		Invested:  pos.Invested,
	}

	if asset.AssetType == domain.AssetTypeManual {
		valuation := pos.Value(decimal.NullDecimal{})
		row.CurrentValue = valuation.CurrentValue
		row.UnrealizedPnL = valuation.UnrealizedPnL
		row.AsOf = pos.ManualValueAt
		return row, nil
	}

	row.Quantity = decimal.NewNullDecimal(pos.Quantity)
	row.AvgCost = decimal.NewNullDecimal(pos.AvgCost)

	quote := pricer.GetQuote(ctx, asset.Symbol)
	if quote == nil {
		row.QuoteStale = true
		row.CurrentValue = decimal.Zero
		return row, nil
	}

	row.CurrentPrice = decimal.NewNullDecimal(quote.Price)
	valuation := pos.Value(row.CurrentPrice)
	row.CurrentValue = valuation.CurrentValue
	row.UnrealizedPnL = valuation.UnrealizedPnL
	row.AsOf = quote.FetchedAt
	row.QuoteStale = quote.Stale
	row.Warning = quote.Warning
	return row, nil
}

// CompareRows orders rows by group name (case-insensitive), symbol, then identity
func CompareRows(a, b Row) int {
	if c := strings.Compare(strings.ToLower(a.GroupName), strings.ToLower(b.GroupName)); c != 0 {
		return c
	}
	if c := strings.Compare(a.Symbol, b.Symbol); c != 0 {
		return c
	}
	return bytes.Compare(a.ID[:], b.ID[:])
}
