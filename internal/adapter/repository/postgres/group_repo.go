package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/simaogato/portfolio-tracker/internal/domain"
)

// groupRepository implements domain.GroupRepository
type groupRepository struct {
	db *DB
}

// NewGroupRepository creates a new group repository
func NewGroupRepository(db *DB) domain.GroupRepository {
	return &groupRepository{db: db}
}

const selectGroup = `
	SELECT id, portfolio_id, name
	FROM asset_groups
`

func (r *groupRepository) getOne(ctx context.Context, where string, args ...any) (*domain.Group, error) {
	var group domain.Group
	err := r.db.QueryRowContext(ctx, selectGroup+where, args...).Scan(&group.ID, &group.PortfolioID, &group.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFoundf("Group not found")
		}
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return &group, nil
}

// GetByID retrieves a group by its ID
func (r *groupRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Group, error) {
	return r.getOne(ctx, "WHERE id = $1", id)
}

// GetByName retrieves a group by its name within a portfolio
func (r *groupRepository) GetByName(ctx context.Context, portfolioID uuid.UUID, name string) (*domain.Group, error) {
	return r.getOne(ctx, "WHERE portfolio_id = $1 AND name = $2", portfolioID, name)
}

// Create creates a new group
func (r *groupRepository) Create(ctx context.Context, group *domain.Group) error {
	query := `
		INSERT INTO asset_groups (id, portfolio_id, name)
		VALUES ($1, $2, $3)
	`

	_, err := r.db.ExecContext(ctx, query, group.ID, group.PortfolioID, group.Name)
	if err != nil {
		return conflictOr(err, "Group already exists", "failed to create group")
	}

	return nil
}

// List retrieves the groups of a portfolio sorted by name
func (r *groupRepository) List(ctx context.Context, portfolioID uuid.UUID) ([]*domain.Group, error) {
	rows, err := r.db.QueryContext(ctx, selectGroup+"WHERE portfolio_id = $1 ORDER BY name ASC", portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query groups: %w", err)
	}
	defer rows.Close()

	var groups []*domain.Group
	for rows.Next() {
		var group domain.Group
		if err := rows.Scan(&group.ID, &group.PortfolioID, &group.Name); err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, &group)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating groups: %w", err)
	}

	return groups, nil
}
