package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Basket represents a derived, read-only composite over MARKET assets of one portfolio.
// It owns no value: its rows and series are computed from member positions on demand.
type Basket struct {
	ID          uuid.UUID
	PortfolioID uuid.UUID
	Name        string
	CreatedAt   time.Time
	Links       []BasketLink // ordered by Position
}

// BasketLink represents one member of a basket
type BasketLink struct {
	ID       uuid.UUID
	BasketID uuid.UUID
	AssetID  uuid.UUID
	Weight   decimal.NullDecimal // NULL means "derive from live held quantity"
	Position int                 // display order inside the basket
}

// RowSymbol is the identifier basket rows carry in dashboards
func (b *Basket) RowSymbol() string {
	return fmt.Sprintf("BASKET:%s", b.ID)
}

// HasExplicitWeights reports whether at least one member carries a positive weight
func (b *Basket) HasExplicitWeights() bool {
	for _, link := range b.Links {
		if link.Weight.Valid && link.Weight.Decimal.IsPositive() {
			return true
		}
	}
	return false
}

// Validate ensures the basket adheres to domain rules
// Membership rules that need asset data (MARKET, active, same portfolio) live in the basket usecase.
func (b *Basket) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return InvalidInputf("basket name cannot be empty")
	}

	seen := make(map[uuid.UUID]bool, len(b.Links))
	for _, link := range b.Links {
		if seen[link.AssetID] {
			return InvalidInputf("basket cannot contain the same asset twice")
		}
		seen[link.AssetID] = true

		if link.Weight.Valid && link.Weight.Decimal.IsNegative() {
			return InvalidInputf("basket weights must be zero or positive")
		}
	}

	return nil
}
