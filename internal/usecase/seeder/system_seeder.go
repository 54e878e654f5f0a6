package seeder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/simaogato/portfolio-tracker/internal/domain"
)

// Fixed UUIDs for the default portfolio and its fallback group
var (
	DefaultPortfolioID = uuid.MustParse("00000000-0000-0000-0000-000000000001")
	DefaultGroupID     = uuid.MustParse("00000000-0000-0000-0000-000000000002")
)

// DefaultPortfolioName is the name of the portfolio single-user deployments work in
const DefaultPortfolioName = "Primary"

// SystemSeeder handles seeding of the default portfolio and group
type SystemSeeder struct {
	portfolioRepo domain.PortfolioRepository
	groupRepo     domain.GroupRepository
	now           func() time.Time
}

// NewSystemSeeder creates a new SystemSeeder instance
func NewSystemSeeder(portfolioRepo domain.PortfolioRepository, groupRepo domain.GroupRepository) *SystemSeeder {
	return &SystemSeeder{
		portfolioRepo: portfolioRepo,
		groupRepo:     groupRepo,
		now:           time.Now,
	}
}

// Seed ensures the default portfolio and its "Ungrouped" group exist.
// Running it again is a no-op.
func (s *SystemSeeder) Seed(ctx context.Context) (*domain.Portfolio, error) {
	portfolio, err := s.portfolioRepo.GetByID(ctx, DefaultPortfolioID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		portfolio = &domain.Portfolio{
			ID:        DefaultPortfolioID,
			Name:      DefaultPortfolioName,
			CreatedAt: s.now().UTC(),
		}
		if err := s.portfolioRepo.Create(ctx, portfolio); err != nil {
			return nil, fmt.Errorf("failed to create default portfolio: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to get default portfolio: %w", err)
	}

	// The fallback group is looked up by name; a user may have created it before the seeder ran
	_, err = s.groupRepo.GetByName(ctx, portfolio.ID, domain.DefaultGroupName)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		group := &domain.Group{
			ID:          DefaultGroupID,
			PortfolioID: portfolio.ID,
			Name:        domain.DefaultGroupName,
		}

		// Validate before creating
		if err := group.Validate(); err != nil {
			return nil, err
		}
		if err := s.groupRepo.Create(ctx, group); err != nil {
			return nil, fmt.Errorf("failed to create default group: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to get default group: %w", err)
	}

	return portfolio, nil
}
