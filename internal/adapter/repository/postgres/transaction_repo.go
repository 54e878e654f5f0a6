package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/simaogato/portfolio-tracker/internal/domain"
)

// transactionRepository implements domain.TransactionRepository
type transactionRepository struct {
	db *DB
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *DB) domain.TransactionRepository {
	return &transactionRepository{db: db}
}

const selectTransaction = `
	SELECT id, portfolio_id, asset_id, type, timestamp, quantity, price, fees, manual_value, invested_override, note
	FROM transactions
`

const canonicalOrder = " ORDER BY timestamp ASC, id ASC"

func scanTransaction(row rowScanner) (*domain.Transaction, error) {
	var t domain.Transaction
	var txType string
	err := row.Scan(
		&t.ID,
		&t.PortfolioID,
		&t.AssetID,
		&txType,
		&t.Timestamp,
		&t.Quantity,
		&t.Price,
		&t.Fees,
		&t.ManualValue,
		&t.InvestedOverride,
		&t.Note,
	)
	if err != nil {
		return nil, err
	}
	t.Type = domain.TransactionType(txType)
	return &t, nil
}

func listTransactions(ctx context.Context, q querier, where string, args ...any) ([]*domain.Transaction, error) {
	rows, err := q.QueryContext(ctx, selectTransaction+where+canonicalOrder, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txs []*domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txs = append(txs, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	// canonical (timestamp, id) order
	return domain.SortTransactions(txs), nil
}

func insertTransaction(ctx context.Context, q querier, t *domain.Transaction) error {
	query := `
		INSERT INTO transactions (id, portfolio_id, asset_id, type, timestamp, quantity, price, fees, manual_value, invested_override, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := q.ExecContext(ctx, query,
		t.ID,
		t.PortfolioID,
		t.AssetID,
		string(t.Type),
		t.Timestamp,
		t.Quantity,
		t.Price,
		t.Fees,
		t.ManualValue,
		t.InvestedOverride,
		t.Note,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

// GetByID retrieves a transaction by its ID
func (r *transactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	t, err := scanTransaction(r.db.QueryRowContext(ctx, selectTransaction+"WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFoundf("Transaction not found")
		}
		return nil, fmt.Errorf("failed to get transaction by ID: %w", err)
	}
	return t, nil
}

// ListByAsset retrieves an asset's history in canonical order
func (r *transactionRepository) ListByAsset(ctx context.Context, assetID uuid.UUID) ([]*domain.Transaction, error) {
	return listTransactions(ctx, r.db, "WHERE asset_id = $1", assetID)
}

// ListByPortfolio retrieves every transaction of a portfolio in canonical order
func (r *transactionRepository) ListByPortfolio(ctx context.Context, portfolioID uuid.UUID) ([]*domain.Transaction, error) {
	return listTransactions(ctx, r.db, "WHERE portfolio_id = $1", portfolioID)
}

// CountByAsset counts an asset's transactions
func (r *transactionRepository) CountByAsset(ctx context.Context, assetID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions WHERE asset_id = $1`, assetID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return count, nil
}

// ApplyChange locks the asset row, hands the current history to decide and writes the
// resulting change in the same database transaction.
// Logic:
//  1. SELECT ... FOR UPDATE on the asset serializes writers of one history
//  2. decide validates the complete candidate history; its error rolls everything back
//  3. the single INSERT / UPDATE / DELETE is applied and committed
func (r *transactionRepository) ApplyChange(ctx context.Context, assetID uuid.UUID, decide func(history []*domain.Transaction) (*domain.LedgerChange, error)) error {
	return r.db.withTx(ctx, func(tx *sql.Tx) error {
		// Step 1: Lock
		var locked uuid.UUID
		err := tx.QueryRowContext(ctx, `SELECT id FROM assets WHERE id = $1 FOR UPDATE`, assetID).Scan(&locked)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.NotFoundf("Asset not found")
			}
			return fmt.Errorf("failed to lock asset: %w", err)
		}

		history, err := listTransactions(ctx, tx, "WHERE asset_id = $1", assetID)
		if err != nil {
			return err
		}

		// Step 2: Decide
		change, err := decide(history)
		if err != nil {
			return err
		}

		// Step 3: Write
		t := change.Transaction
		switch change.Kind {
		case domain.LedgerInsert:
			return insertTransaction(ctx, tx, t)
		case domain.LedgerUpdate:
			query := `
				UPDATE transactions
				SET type = $2, timestamp = $3, quantity = $4, price = $5, fees = $6,
					manual_value = $7, invested_override = $8, note = $9
				WHERE id = $1 AND asset_id = $10
			`
			result, err := tx.ExecContext(ctx, query,
				t.ID,
				string(t.Type),
				t.Timestamp,
				t.Quantity,
				t.Price,
				t.Fees,
				t.ManualValue,
				t.InvestedOverride,
				t.Note,
				assetID,
			)
			if err != nil {
				return fmt.Errorf("failed to update transaction: %w", err)
			}
			return expectAffected(result, "Transaction not found")
		case domain.LedgerDelete:
			result, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1 AND asset_id = $2`, t.ID, assetID)
			if err != nil {
				return fmt.Errorf("failed to delete transaction: %w", err)
			}
			return expectAffected(result, "Transaction not found")
		default:
			return fmt.Errorf("unsupported ledger change: %s", change.Kind)
		}
	})
}
