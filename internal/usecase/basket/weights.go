package basket

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/portfolio-tracker/internal/domain"
	"github.com/simaogato/portfolio-tracker/internal/usecase/allocator"
)

// WeightSource tells where a basket's member weights came from
type WeightSource string

const (
	WeightsExplicit WeightSource = "explicit"
	WeightsHeld     WeightSource = "held_quantity"
	WeightsEqual    WeightSource = "equal"
)

// MemberWeights returns one normalized weight per link, in link order.
// Logic:
//   - any positive explicit weight: explicit weights are used, a missing weight counts as 0
//   - otherwise each member is weighted by its live held quantity
//   - when nothing is held either, members are weighted equally
func MemberWeights(links []domain.BasketLink, held map[uuid.UUID]decimal.Decimal) ([]decimal.Decimal, WeightSource) {
	if len(links) == 0 {
		return nil, WeightsEqual
	}

	raw := make([]decimal.Decimal, len(links))
	explicit := false
	for i, link := range links {
		if link.Weight.Valid {
			raw[i] = link.Weight.Decimal
			if link.Weight.Decimal.IsPositive() {
				explicit = true
			}
		}
	}
	if explicit {
		return allocator.NormalizeWeights(raw), WeightsExplicit
	}

	for i, link := range links {
		raw[i] = decimal.Max(held[link.AssetID], decimal.Zero)
	}
	if normalized := allocator.NormalizeWeights(raw); normalized != nil {
		return normalized, WeightsHeld
	}

	for i := range raw {
		raw[i] = decimal.NewFromInt(1)
	}
	return allocator.NormalizeWeights(raw), WeightsEqual
}
