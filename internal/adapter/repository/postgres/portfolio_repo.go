package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/simaogato/portfolio-tracker/internal/domain"
)

// portfolioRepository implements domain.PortfolioRepository
type portfolioRepository struct {
	db *DB
}

// NewPortfolioRepository creates a new portfolio repository
func NewPortfolioRepository(db *DB) domain.PortfolioRepository {
	return &portfolioRepository{db: db}
}

// GetByID retrieves a portfolio by its ID
func (r *portfolioRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Portfolio, error) {
	query := `
		SELECT id, name, created_at
		FROM portfolios
		WHERE id = $1
	`

	var portfolio domain.Portfolio
	err := r.db.QueryRowContext(ctx, query, id).Scan(&portfolio.ID, &portfolio.Name, &portfolio.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFoundf("Portfolio not found")
		}
		return nil, fmt.Errorf("failed to get portfolio by ID: %w", err)
	}

	return &portfolio, nil
}

// Create creates a new portfolio
func (r *portfolioRepository) Create(ctx context.Context, portfolio *domain.Portfolio) error {
	query := `
		INSERT INTO portfolios (id, name, created_at)
		VALUES ($1, $2, $3)
	`

	_, err := r.db.ExecContext(ctx, query, portfolio.ID, portfolio.Name, portfolio.CreatedAt)
	if err != nil {
		return conflictOr(err, "Portfolio already exists", "failed to create portfolio")
	}

	return nil
}

// List retrieves all portfolios ordered by creation time
func (r *portfolioRepository) List(ctx context.Context) ([]*domain.Portfolio, error) {
	query := `
		SELECT id, name, created_at
		FROM portfolios
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolios: %w", err)
	}
	defer rows.Close()

	var portfolios []*domain.Portfolio
	for rows.Next() {
		var portfolio domain.Portfolio
		if err := rows.Scan(&portfolio.ID, &portfolio.Name, &portfolio.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan portfolio: %w", err)
		}
		portfolios = append(portfolios, &portfolio)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating portfolios: %w", err)
	}

	return portfolios, nil
}
