package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/portfolio-tracker/internal/domain"
)

// TransactionInput is a parsed transaction write
type TransactionInput struct {
	Type             domain.TransactionType
	Timestamp        time.Time
	Quantity         decimal.NullDecimal
	Price            decimal.NullDecimal
	Fees             decimal.Decimal
	ManualValue      decimal.NullDecimal
	InvestedOverride decimal.NullDecimal
	Note             string
}

// RawTransactionInput is a transaction write as received from a transport, every field as text
type RawTransactionInput struct {
	Type             string
	Timestamp        string
	Quantity         string
	Price            string
	Fees             string
	ManualValue      string
	InvestedOverride string
	Note             string
}

// Parse converts raw text into a TransactionInput. Naive timestamps are read in loc.
// Only the fields the type uses are parsed; the others are dropped.
func (r RawTransactionInput) Parse(loc *time.Location) (TransactionInput, error) {
	txType, err := domain.ParseTransactionType(r.Type)
	if err != nil {
		return TransactionInput{}, err
	}

	timestamp, err := domain.ParseTimestamp(r.Timestamp, loc)
	if err != nil {
		return TransactionInput{}, err
	}

	fees := decimal.Zero
	if r.Fees != "" {
		if fees, err = domain.ParseDecimal(r.Fees, "Fees"); err != nil {
			return TransactionInput{}, err
		}
	}

	input := TransactionInput{Type: txType, Timestamp: timestamp, Fees: fees, Note: r.Note}

	switch txType {
	case domain.TransactionTypeBuy, domain.TransactionTypeSell:
		quantity, err := domain.ParseDecimal(r.Quantity, "Quantity")
		if err != nil {
			return TransactionInput{}, err
		}
		price, err := domain.ParseDecimal(r.Price, "Price")
		if err != nil {
			return TransactionInput{}, err
		}
		input.Quantity = decimal.NewNullDecimal(quantity)
		input.Price = decimal.NewNullDecimal(price)
	case domain.TransactionTypeManualValueUpdate:
		value, err := domain.ParseDecimal(r.ManualValue, "Manual value")
		if err != nil {
			return TransactionInput{}, err
		}
		input.ManualValue = decimal.NewNullDecimal(value)
		if input.InvestedOverride, err = domain.ParseOptionalDecimal(r.InvestedOverride, "Manual invested override"); err != nil {
			return TransactionInput{}, err
		}
	}

	return input, nil
}

// CreateAssetInput describes a new asset and its optional seed
type CreateAssetInput struct {
	PortfolioID uuid.UUID
	GroupID     uuid.UUID
	Symbol      string
	Name        string
	AssetType   domain.AssetType

	// MARKET seed: a BUY is recorded when InitialQuantity > 0
	InitialQuantity decimal.NullDecimal
	InitialPrice    decimal.NullDecimal
	InitialFees     decimal.Decimal

	// MANUAL seed: InitialValue is required, InitialInvested is recorded as a BUY at unit cost 1
	InitialValue    decimal.NullDecimal
	InitialInvested decimal.NullDecimal
}

// UpdateAssetInput replaces the editable fields of an asset
type UpdateAssetInput struct {
	Symbol    string
	Name      string
	AssetType domain.AssetType
	GroupID   uuid.UUID
}
