package domain

import (
	"bytes"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType represents the kind of ledger fact a transaction records
type TransactionType string

const (
	TransactionTypeBuy               TransactionType = "BUY"
	TransactionTypeSell              TransactionType = "SELL"
	TransactionTypeManualValueUpdate TransactionType = "MANUAL_VALUE_UPDATE"
)

// ParseTransactionType normalises a raw type name
func ParseTransactionType(raw string) (TransactionType, error) {
	switch t := TransactionType(normalizeUpper(raw)); t {
	case TransactionTypeBuy, TransactionTypeSell, TransactionTypeManualValueUpdate:
		return t, nil
	default:
		return "", MalformedInputf("invalid transaction type %q", raw)
	}
}

// Transaction represents one ledger entry attached to exactly one asset.
// Optional numeric fields use decimal.NullDecimal: a BUY/SELL carries Quantity and Price,
// a MANUAL_VALUE_UPDATE carries ManualValue and optionally InvestedOverride.
type Transaction struct {
	ID               uuid.UUID
	PortfolioID      uuid.UUID
	AssetID          uuid.UUID
	Type             TransactionType
	Timestamp        time.Time
	Quantity         decimal.NullDecimal
	Price            decimal.NullDecimal
	Fees             decimal.Decimal
	ManualValue      decimal.NullDecimal
	InvestedOverride decimal.NullDecimal
	Note             string
}

// NewTransactionID returns a time-ordered identifier so that ties on timestamp replay in insertion order
func NewTransactionID() uuid.UUID {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return id
}

// Validate checks the presence rules of a transaction.
// Sign and sequence rules depend on the asset class and are enforced by the replay engine.
func (t *Transaction) Validate() error {
	if t.Timestamp.IsZero() {
		return InvalidTransactionf("transaction timestamp is required")
	}
	if t.Fees.IsNegative() {
		return InvalidTransactionf("fees cannot be negative")
	}

	switch t.Type {
	case TransactionTypeBuy, TransactionTypeSell:
		if !t.Quantity.Valid {
			return InvalidTransactionf("%s requires a quantity", t.Type)
		}
		if !t.Price.Valid {
			return InvalidTransactionf("%s requires a price", t.Type)
		}
	case TransactionTypeManualValueUpdate:
		if !t.ManualValue.Valid {
			return InvalidTransactionf("MANUAL_VALUE_UPDATE requires a manual value")
		}
	default:
		return InvalidTransactionf("unsupported transaction type: %s", t.Type)
	}

	return nil
}

// CompareTransactions orders by timestamp ascending, then identity ascending.
// Instants are compared, so the zone a timestamp was recorded in never changes the order.
func CompareTransactions(a, b *Transaction) int {
	if c := a.Timestamp.Compare(b.Timestamp); c != 0 {
		return c
	}
	return bytes.Compare(a.ID[:], b.ID[:])
}

// SortTransactions returns a copy of txs in canonical replay order
func SortTransactions(txs []*Transaction) []*Transaction {
	sorted := make([]*Transaction, len(txs))
	copy(sorted, txs)
	slices.SortStableFunc(sorted, CompareTransactions)
	return sorted
}
