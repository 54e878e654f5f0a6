package replay

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/simaogato/portfolio-tracker/internal/domain"
)

// ManualState is the running state of a MANUAL asset replay.
// Held and AvgCost are synthetic: they exist only so that SELL can reduce the invested basis.
type ManualState struct {
	Invested      decimal.Decimal
	Held          decimal.Decimal
	AvgCost       decimal.Decimal
	LatestValue   decimal.NullDecimal
	LatestValueAt time.Time
}

// StepManual applies one transaction to a MANUAL position and returns the next state.
// Logic:
//   - BUY: quantity > 0, price >= 0, fees >= 0; invested grows by quantity*price + fees
//   - SELL: quantity > 0, price >= 0, fees >= 0, no oversell; invested shrinks by quantity*avg cost.
//     The sale price is never used, so a manual SELL realizes nothing
//   - MANUAL_VALUE_UPDATE: value >= 0. An invested override replaces the invested basis and
//     resets the synthetic holding to the same amount at average cost 1
func StepManual(state ManualState, tx *domain.Transaction) (ManualState, error) {
	if err := tx.Validate(); err != nil {
		return state, err
	}

	next := state
	switch tx.Type {
	case domain.TransactionTypeBuy:
		quantity, price := tx.Quantity.Decimal, tx.Price.Decimal
		if !quantity.IsPositive() {
			return state, domain.InvalidTransactionf("BUY quantity must be positive")
		}
		if price.IsNegative() {
			return state, domain.InvalidTransactionf("BUY price cannot be negative for manual assets")
		}
		cost := quantity.Mul(price).Add(tx.Fees)
		next.Invested = state.Invested.Add(cost)
		next.Held = state.Held.Add(quantity)
		next.AvgCost = state.Held.Mul(state.AvgCost).Add(cost).Div(next.Held)

	case domain.TransactionTypeSell:
		quantity := tx.Quantity.Decimal
		if !quantity.IsPositive() {
			return state, domain.InvalidTransactionf("SELL quantity must be positive")
		}
		if tx.Price.Decimal.IsNegative() {
			return state, domain.InvalidTransactionf("SELL price cannot be negative for manual assets")
		}
		if quantity.Sub(state.Held).GreaterThan(Epsilon) {
			return state, domain.InvalidTransactionf("Cannot sell more than currently held quantity")
		}
		next.Held = state.Held.Sub(quantity)
		next.Invested = state.Invested.Sub(quantity.Mul(state.AvgCost))
		if next.Held.LessThanOrEqual(Epsilon) {
			next.Held = decimal.Zero
			next.AvgCost = decimal.Zero
			next.Invested = decimal.Zero
		}

	case domain.TransactionTypeManualValueUpdate:
		if tx.ManualValue.Decimal.IsNegative() {
			return state, domain.InvalidTransactionf("Manual value cannot be negative")
		}
		next.LatestValue = tx.ManualValue
		next.LatestValueAt = tx.Timestamp
		if tx.InvestedOverride.Valid {
			override := tx.InvestedOverride.Decimal
			if override.IsNegative() {
				return state, domain.InvalidTransactionf("Invested override cannot be negative")
			}
			next.Invested = override
			next.Held = override
			next.AvgCost = decimal.NewFromInt(1)
		}

	default:
		return state, domain.InvalidTransactionf("Unsupported transaction type: %s", tx.Type)
	}

	return next, nil
}

// FoldManual replays txs in canonical order starting from an empty position
func FoldManual(txs []*domain.Transaction) (ManualState, error) {
	state := ManualState{}
	for _, tx := range domain.SortTransactions(txs) {
		next, err := StepManual(state, tx)
		if err != nil {
			return state, err
		}
		state = next
	}
	return state, nil
}

// CurrentValue is the latest reported value, zero when none was reported yet
func (s ManualState) CurrentValue() decimal.Decimal {
	if !s.LatestValue.Valid {
		return decimal.Zero
	}
	return s.LatestValue.Decimal
}

// UnrealizedPnL is reported only when something was invested
func (s ManualState) UnrealizedPnL() decimal.NullDecimal {
	if !s.Invested.IsPositive() {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(s.CurrentValue().Sub(s.Invested))
}
