// Package replay folds an asset's ordered transaction history into its position state.
// Everything here is pure: the same history always yields the same state or the same rejection.
package replay

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/simaogato/portfolio-tracker/internal/domain"
)

// Position is the shape shared by both asset classes after replay
type Position struct {
	AssetType domain.AssetType
	Quantity  decimal.Decimal // held quantity; synthetic for MANUAL assets
	AvgCost   decimal.Decimal
	// Invested is the cost basis: Quantity*AvgCost for MARKET, the running invested total for MANUAL
	Invested decimal.Decimal
	// ManualValue and ManualValueAt are only set for MANUAL assets with at least one value update
	ManualValue   decimal.NullDecimal
	ManualValueAt time.Time
}

// Valuation is a position priced at one point in time
type Valuation struct {
	CurrentValue  decimal.Decimal
	UnrealizedPnL decimal.NullDecimal // invalid means "no P&L reported"
}

// Replay dispatches on the asset class and returns the resulting position
func Replay(assetType domain.AssetType, txs []*domain.Transaction) (Position, error) {
	switch assetType {
	case domain.AssetTypeMarket:
		state, err := FoldMarket(txs)
		if err != nil {
			return Position{}, err
		}
		return MarketPosition(state), nil
	case domain.AssetTypeManual:
		state, err := FoldManual(txs)
		if err != nil {
			return Position{}, err
		}
		return ManualPosition(state), nil
	default:
		return Position{}, domain.InvalidInputf("unsupported asset type: %s", assetType)
	}
}

// Validate replays the complete history and reports the first rejection
func Validate(assetType domain.AssetType, txs []*domain.Transaction) error {
	_, err := Replay(assetType, txs)
	return err
}

// MarketPosition converts a MARKET replay state into a Position
func MarketPosition(state MarketState) Position {
	return Position{
		AssetType: domain.AssetTypeMarket,
		Quantity:  state.Quantity,
		AvgCost:   state.AvgCost,
		Invested:  state.Quantity.Mul(state.AvgCost),
	}
}

// ManualPosition converts a MANUAL replay state into a Position
func ManualPosition(state ManualState) Position {
	return Position{
		AssetType:     domain.AssetTypeManual,
		Quantity:      state.Held,
		AvgCost:       state.AvgCost,
		Invested:      state.Invested,
		ManualValue:   state.LatestValue,
		ManualValueAt: state.LatestValueAt,
	}
}

// Value prices the position.
// MARKET: value = quantity*price (0 without a price), P&L = (price - avg)*quantity, unreported without a price.
// MANUAL: value = latest manual value, P&L = value - invested, reported only when invested > 0. price is ignored.
func (p Position) Value(price decimal.NullDecimal) Valuation {
	if p.AssetType == domain.AssetTypeManual {
		state := ManualState{Invested: p.Invested, LatestValue: p.ManualValue}
		return Valuation{CurrentValue: state.CurrentValue(), UnrealizedPnL: state.UnrealizedPnL()}
	}

	if !price.Valid {
		return Valuation{CurrentValue: decimal.Zero}
	}
	return Valuation{
		CurrentValue:  p.Quantity.Mul(price.Decimal),
		UnrealizedPnL: decimal.NewNullDecimal(price.Decimal.Sub(p.AvgCost).Mul(p.Quantity)),
	}
}
