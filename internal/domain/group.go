package domain

import (
	"strings"

	"github.com/google/uuid"
)

// DefaultGroupName is the group assets land in when none is chosen
const DefaultGroupName = "Ungrouped"

// Group represents a named display category for assets, unique by (portfolio, name)
type Group struct {
	ID          uuid.UUID
	PortfolioID uuid.UUID
	Name        string
}

// Validate ensures the group adheres to domain rules
func (g *Group) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return InvalidInputf("group name cannot be empty")
	}
	if g.PortfolioID == uuid.Nil {
		return InvalidInputf("group must belong to a portfolio")
	}
	return nil
}
