package basket

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/portfolio-tracker/internal/domain"
)

// MemberInput is one requested basket member
type MemberInput struct {
	AssetID uuid.UUID
	Weight  decimal.NullDecimal
}

// BasketService handles basket definitions. Baskets never own value; see the dashboard and
// timeseries services for their derived rows and series.
type BasketService struct {
	BasketRepo domain.BasketRepository
	AssetRepo  domain.AssetRepository
	Now        func() time.Time
}

// NewBasketService creates a new BasketService instance
func NewBasketService(basketRepo domain.BasketRepository, assetRepo domain.AssetRepository) *BasketService {
	return &BasketService{
		BasketRepo: basketRepo,
		AssetRepo:  assetRepo,
		Now:        time.Now,
	}
}

// CreateBasket creates a basket over active MARKET assets of the portfolio
func (s *BasketService) CreateBasket(ctx context.Context, portfolioID uuid.UUID, name string, members []MemberInput) (*domain.Basket, error) {
	basket := &domain.Basket{
		ID:          uuid.New(),
		PortfolioID: portfolioID,
		Name:        strings.TrimSpace(name),
		CreatedAt:   s.Now().UTC(),
	}
	if err := s.setLinks(ctx, basket, members); err != nil {
		return nil, err
	}

	if err := s.BasketRepo.Create(ctx, basket); err != nil {
		return nil, fmt.Errorf("failed to create basket: %w", err)
	}
	return basket, nil
}

// UpdateBasket renames a basket and replaces its whole member set
func (s *BasketService) UpdateBasket(ctx context.Context, basketID uuid.UUID, name string, members []MemberInput) (*domain.Basket, error) {
	existing, err := s.BasketRepo.GetByID(ctx, basketID)
	if err != nil {
		return nil, fmt.Errorf("failed to get basket: %w", err)
	}

	updated := *existing
	updated.Name = strings.TrimSpace(name)
	if err := s.setLinks(ctx, &updated, members); err != nil {
		return nil, err
	}

	if err := s.BasketRepo.Update(ctx, &updated); err != nil {
		return nil, fmt.Errorf("failed to update basket: %w", err)
	}
	return &updated, nil
}

// DeleteBasket removes a basket and its links; member assets are untouched
func (s *BasketService) DeleteBasket(ctx context.Context, basketID uuid.UUID) error {
	if _, err := s.BasketRepo.GetByID(ctx, basketID); err != nil {
		return fmt.Errorf("failed to get basket: %w", err)
	}
	if err := s.BasketRepo.Delete(ctx, basketID); err != nil {
		return fmt.Errorf("failed to delete basket: %w", err)
	}
	return nil
}

// GetBasket retrieves a basket with its links
func (s *BasketService) GetBasket(ctx context.Context, basketID uuid.UUID) (*domain.Basket, error) {
	basket, err := s.BasketRepo.GetByID(ctx, basketID)
	if err != nil {
		return nil, fmt.Errorf("failed to get basket: %w", err)
	}
	return basket, nil
}

// ListBaskets lists the baskets of a portfolio sorted by name
func (s *BasketService) ListBaskets(ctx context.Context, portfolioID uuid.UUID) ([]*domain.Basket, error) {
	baskets, err := s.BasketRepo.List(ctx, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to list baskets: %w", err)
	}
	return baskets, nil
}

func (s *BasketService) setLinks(ctx context.Context, basket *domain.Basket, members []MemberInput) error {
	links := make([]domain.BasketLink, 0, len(members))
	for i, member := range members {
		links = append(links, domain.BasketLink{
			ID:       uuid.New(),
			BasketID: basket.ID,
			AssetID:  member.AssetID,
			Weight:   member.Weight,
			Position: i,
		})
	}
	basket.Links = links

	if err := basket.Validate(); err != nil {
		return err
	}

	for _, link := range links {
		asset, err := s.AssetRepo.GetByID(ctx, link.AssetID)
		if err != nil {
			return fmt.Errorf("failed to get basket member: %w", err)
		}
		if asset.PortfolioID != basket.PortfolioID || asset.IsArchived {
			return domain.InvalidInputf("Basket members must be active assets of the portfolio")
		}
		if asset.AssetType != domain.AssetTypeMarket {
			return domain.InvalidInputf("Basket members must be market assets: %s", asset.Symbol)
		}
	}
	return nil
}
