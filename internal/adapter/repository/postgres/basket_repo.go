package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/simaogato/portfolio-tracker/internal/domain"
)

// basketRepository implements domain.BasketRepository
type basketRepository struct {
	db *DB
}

// NewBasketRepository creates a new basket repository
func NewBasketRepository(db *DB) domain.BasketRepository {
	return &basketRepository{db: db}
}

// GetByID retrieves a basket with its links
func (r *basketRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Basket, error) {
	query := `
		SELECT id, portfolio_id, name, created_at
		FROM baskets
		WHERE id = $1
	`

	var b domain.Basket
	err := r.db.QueryRowContext(ctx, query, id).Scan(&b.ID, &b.PortfolioID, &b.Name, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFoundf("Basket not found")
		}
		return nil, fmt.Errorf("failed to get basket by ID: %w", err)
	}

	links, err := r.links(ctx, []uuid.UUID{b.ID})
	if err != nil {
		return nil, err
	}
	b.Links = links[b.ID]

	return &b, nil
}

// List retrieves the baskets of a portfolio sorted by name, links included
func (r *basketRepository) List(ctx context.Context, portfolioID uuid.UUID) ([]*domain.Basket, error) {
	query := `
		SELECT id, portfolio_id, name, created_at
		FROM baskets
		WHERE portfolio_id = $1
		ORDER BY name ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query baskets: %w", err)
	}
	defer rows.Close()

	var baskets []*domain.Basket
	var ids []uuid.UUID
	for rows.Next() {
		var b domain.Basket
		if err := rows.Scan(&b.ID, &b.PortfolioID, &b.Name, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan basket: %w", err)
		}
		baskets = append(baskets, &b)
		ids = append(ids, b.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating baskets: %w", err)
	}
	if len(baskets) == 0 {
		return baskets, nil
	}

	links, err := r.links(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, b := range baskets {
		b.Links = links[b.ID]
	}

	return baskets, nil
}

// links loads the links of several baskets at once, each in position order
func (r *basketRepository) links(ctx context.Context, basketIDs []uuid.UUID) (map[uuid.UUID][]domain.BasketLink, error) {
	ids := make([]string, len(basketIDs))
	for i, id := range basketIDs {
		ids[i] = id.String()
	}

	query := `
		SELECT id, basket_id, asset_id, weight, position
		FROM basket_assets
		WHERE basket_id = ANY($1::uuid[])
		ORDER BY basket_id, position ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query basket links: %w", err)
	}
	defer rows.Close()

	links := make(map[uuid.UUID][]domain.BasketLink, len(basketIDs))
	for rows.Next() {
		var link domain.BasketLink
		if err := rows.Scan(&link.ID, &link.BasketID, &link.AssetID, &link.Weight, &link.Position); err != nil {
			return nil, fmt.Errorf("failed to scan basket link: %w", err)
		}
		links[link.BasketID] = append(links[link.BasketID], link)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating basket links: %w", err)
	}

	return links, nil
}

func insertLinks(ctx context.Context, q querier, b *domain.Basket) error {
	query := `
		INSERT INTO basket_assets (id, basket_id, asset_id, weight, position)
		VALUES ($1, $2, $3, $4, $5)
	`

	for _, link := range b.Links {
		id := link.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		_, err := q.ExecContext(ctx, query, id, b.ID, link.AssetID, link.Weight, link.Position)
		if err != nil {
			return conflictOr(err, "Basket cannot contain the same asset twice", "failed to insert basket link")
		}
	}
	return nil
}

// Create creates a basket with its links
func (r *basketRepository) Create(ctx context.Context, b *domain.Basket) error {
	return r.db.withTx(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO baskets (id, portfolio_id, name, created_at)
			VALUES ($1, $2, $3, $4)
		`
		if _, err := tx.ExecContext(ctx, query, b.ID, b.PortfolioID, b.Name, b.CreatedAt); err != nil {
			return fmt.Errorf("failed to insert basket: %w", err)
		}
		return insertLinks(ctx, tx, b)
	})
}

// Update renames the basket and replaces its whole link set
func (r *basketRepository) Update(ctx context.Context, b *domain.Basket) error {
	return r.db.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `UPDATE baskets SET name = $2 WHERE id = $1`, b.ID, b.Name)
		if err != nil {
			return fmt.Errorf("failed to update basket: %w", err)
		}
		if err := expectAffected(result, "Basket not found"); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM basket_assets WHERE basket_id = $1`, b.ID); err != nil {
			return fmt.Errorf("failed to clear basket links: %w", err)
		}
		return insertLinks(ctx, tx, b)
	})
}

// Delete deletes a basket; its links go with it, member assets are untouched
func (r *basketRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM baskets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete basket: %w", err)
	}
	return expectAffected(result, "Basket not found")
}
