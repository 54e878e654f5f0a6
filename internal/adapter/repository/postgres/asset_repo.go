package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/simaogato/portfolio-tracker/internal/domain"
)

// assetRepository implements domain.AssetRepository
type assetRepository struct {
	db *DB
}

// NewAssetRepository creates a new asset repository
func NewAssetRepository(db *DB) domain.AssetRepository {
	return &assetRepository{db: db}
}

const selectAsset = `
	SELECT id, portfolio_id, group_id, symbol, name, asset_type, is_archived, created_at
	FROM assets
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAsset(row rowScanner) (*domain.Asset, error) {
	var asset domain.Asset
	var assetType string
	err := row.Scan(
		&asset.ID,
		&asset.PortfolioID,
		&asset.GroupID,
		&asset.Symbol,
		&asset.Name,
		&assetType,
		&asset.IsArchived,
		&asset.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	asset.AssetType = domain.AssetType(assetType)
	return &asset, nil
}

func (r *assetRepository) getOne(ctx context.Context, where string, args ...any) (*domain.Asset, error) {
	asset, err := scanAsset(r.db.QueryRowContext(ctx, selectAsset+where, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFoundf("Asset not found")
		}
		return nil, fmt.Errorf("failed to get asset: %w", err)
	}
	return asset, nil
}

// GetByID retrieves an asset by its ID
func (r *assetRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Asset, error) {
	return r.getOne(ctx, "WHERE id = $1", id)
}

// FindActiveBySymbol retrieves the non-archived asset of a portfolio using symbol
func (r *assetRepository) FindActiveBySymbol(ctx context.Context, portfolioID uuid.UUID, symbol string) (*domain.Asset, error) {
	return r.getOne(ctx, "WHERE portfolio_id = $1 AND symbol = $2 AND NOT is_archived", portfolioID, symbol)
}

// List retrieves the assets of a portfolio sorted by symbol
func (r *assetRepository) List(ctx context.Context, portfolioID uuid.UUID, includeArchived bool) ([]*domain.Asset, error) {
	query := selectAsset + "WHERE portfolio_id = $1"
	if !includeArchived {
		query += " AND NOT is_archived"
	}
	query += " ORDER BY symbol ASC, id ASC"

	rows, err := r.db.QueryContext(ctx, query, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query assets: %w", err)
	}
	defer rows.Close()

	var assets []*domain.Asset
	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}
		assets = append(assets, asset)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating assets: %w", err)
	}

	return assets, nil
}

// Create inserts the asset and its seed transactions in a database transaction
func (r *assetRepository) Create(ctx context.Context, asset *domain.Asset, seed []*domain.Transaction) error {
	return r.db.withTx(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO assets (id, portfolio_id, group_id, symbol, name, asset_type, is_archived, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`

		_, err := tx.ExecContext(ctx, query,
			asset.ID,
			asset.PortfolioID,
			asset.GroupID,
			asset.Symbol,
			asset.Name,
			string(asset.AssetType),
			asset.IsArchived,
			asset.CreatedAt,
		)
		if err != nil {
			return conflictOr(err, fmt.Sprintf("Active asset with symbol '%s' already exists", asset.Symbol), "failed to insert asset")
		}

		for _, t := range seed {
			if err := insertTransaction(ctx, tx, t); err != nil {
				return err
			}
		}
		return nil
	})
}

// Update updates an asset's mutable fields
func (r *assetRepository) Update(ctx context.Context, asset *domain.Asset) error {
	query := `
		UPDATE assets
		SET group_id = $2, symbol = $3, name = $4, asset_type = $5, is_archived = $6
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		asset.ID,
		asset.GroupID,
		asset.Symbol,
		asset.Name,
		string(asset.AssetType),
		asset.IsArchived,
	)
	if err != nil {
		return conflictOr(err, fmt.Sprintf("Active asset with symbol '%s' already exists", asset.Symbol), "failed to update asset")
	}

	return expectAffected(result, "Asset not found")
}

// Delete hard-deletes an asset
func (r *assetRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM assets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete asset: %w", err)
	}
	return expectAffected(result, "Asset not found")
}

// expectAffected reports a not-found error when a write touched no row
func expectAffected(result sql.Result, notFound string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return domain.NotFoundf("%s", notFound)
	}
	return nil
}
