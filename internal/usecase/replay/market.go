package replay

import (
	"github.com/shopspring/decimal"
	"github.com/simaogato/portfolio-tracker/internal/domain"
)

// Epsilon is the tolerance used for oversell checks and zero-position resets
var Epsilon = decimal.New(1, -9)

// MarketState is the running state of a MARKET asset replay
type MarketState struct {
	Quantity decimal.Decimal
	AvgCost  decimal.Decimal
}

// StepMarket applies one transaction to a MARKET position and returns the next state.
// Logic:
//   - BUY: quantity > 0, any price (negative prices are basis corrections), fees >= 0.
//     New average = (qty*avg + quantity*price + fees) / new qty
//   - SELL: quantity > 0, price > 0, cannot exceed held quantity beyond Epsilon.
//     A position left at ~0 resets quantity and average to exactly 0
//   - MANUAL_VALUE_UPDATE: never valid on a MARKET asset
func StepMarket(state MarketState, tx *domain.Transaction) (MarketState, error) {
	if err := tx.Validate(); err != nil {
		return state, err
	}

	switch tx.Type {
	case domain.TransactionTypeBuy:
		quantity := tx.Quantity.Decimal
		if !quantity.IsPositive() {
			return state, domain.InvalidTransactionf("BUY quantity must be positive")
		}
		costTotal := state.Quantity.Mul(state.AvgCost).
			Add(quantity.Mul(tx.Price.Decimal)).
			Add(tx.Fees)
		newQuantity := state.Quantity.Add(quantity)
		return MarketState{Quantity: newQuantity, AvgCost: costTotal.Div(newQuantity)}, nil

	case domain.TransactionTypeSell:
		quantity := tx.Quantity.Decimal
		if !quantity.IsPositive() {
			return state, domain.InvalidTransactionf("SELL quantity must be positive")
		}
		if !tx.Price.Decimal.IsPositive() {
			return state, domain.InvalidTransactionf("SELL price must be positive")
		}
		if quantity.Sub(state.Quantity).GreaterThan(Epsilon) {
			return state, domain.InvalidTransactionf("Cannot sell more than currently held quantity")
		}
		remaining := state.Quantity.Sub(quantity)
		if remaining.LessThanOrEqual(Epsilon) {
			return MarketState{Quantity: decimal.Zero, AvgCost: decimal.Zero}, nil
		}
		return MarketState{Quantity: remaining, AvgCost: state.AvgCost}, nil

	case domain.TransactionTypeManualValueUpdate:
		return state, domain.InvalidTransactionf("Market assets do not support MANUAL_VALUE_UPDATE transactions")

	default:
		return state, domain.InvalidTransactionf("Unsupported transaction type: %s", tx.Type)
	}
}

// FoldMarket replays txs in canonical order starting from an empty position
func FoldMarket(txs []*domain.Transaction) (MarketState, error) {
	state := MarketState{}
	for _, tx := range domain.SortTransactions(txs) {
		next, err := StepMarket(state, tx)
		if err != nil {
			return state, err
		}
		state = next
	}
	return state, nil
}
