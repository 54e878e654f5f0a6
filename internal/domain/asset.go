package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// AssetType represents how an asset is valued
type AssetType string

const (
	// AssetTypeMarket assets are priced by the external quote source (value = price x quantity)
	AssetTypeMarket AssetType = "MARKET"
	// AssetTypeManual assets carry a self-reported value
	AssetTypeManual AssetType = "MANUAL"
)

// ParseAssetType normalises a raw asset type name
func ParseAssetType(raw string) (AssetType, error) {
	switch t := AssetType(normalizeUpper(raw)); t {
	case AssetTypeMarket, AssetTypeManual:
		return t, nil
	default:
		return "", MalformedInputf("invalid asset type %q", raw)
	}
}

// Asset represents an asset entity in the domain layer
type Asset struct {
	ID          uuid.UUID
	PortfolioID uuid.UUID
	GroupID     uuid.UUID
	Symbol      string // uppercase, unique among active assets of the portfolio
	Name        string
	AssetType   AssetType
	IsArchived  bool
	CreatedAt   time.Time
}

// NormalizeSymbol trims and uppercases a symbol
func NormalizeSymbol(symbol string) string {
	return normalizeUpper(symbol)
}

// Validate ensures the asset adheres to domain rules
func (a *Asset) Validate() error {
	if a.Symbol == "" {
		return InvalidInputf("asset symbol cannot be empty")
	}
	if a.Symbol != NormalizeSymbol(a.Symbol) {
		return InvalidInputf("asset symbol must be trimmed uppercase")
	}
	if strings.TrimSpace(a.Name) == "" {
		return InvalidInputf("asset name cannot be empty")
	}
	if a.AssetType != AssetTypeMarket && a.AssetType != AssetTypeManual {
		return InvalidInputf("asset type must be MARKET or MANUAL")
	}
	if a.GroupID == uuid.Nil {
		return InvalidInputf("asset must belong to a group")
	}
	return nil
}

// AllowsTransactionType reports whether t may be recorded against this asset class
func (a *Asset) AllowsTransactionType(t TransactionType) bool {
	switch t {
	case TransactionTypeBuy, TransactionTypeSell:
		return true
	case TransactionTypeManualValueUpdate:
		return a.AssetType == AssetTypeManual
	default:
		return false
	}
}

func normalizeUpper(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
