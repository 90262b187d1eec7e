package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/fintrack/internal/domain"
	"github.com/iho/fintrack/internal/usecase"
)

// TransferRepository implements usecase.TransferRepository.
type TransferRepository struct {
	pool *pgxpool.Pool
}

// NewTransferRepository creates a new TransferRepository.
func NewTransferRepository(pool *pgxpool.Pool) *TransferRepository {
	return &TransferRepository{pool: pool}
}

const transferColumns = `id, from_account_id, to_account_id, amount, currency, out_transaction_id, in_transaction_id, created_at`

// Create inserts a transfer record inside the given store transaction.
func (r *TransferRepository) Create(ctx context.Context, tx usecase.Transaction, transfer *domain.Transfer) error {
	_, err := txQuerier(tx).Exec(ctx, `
		INSERT INTO transfers (id, from_account_id, to_account_id, amount, currency,
			out_transaction_id, in_transaction_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		transfer.ID, transfer.FromAccountID, transfer.ToAccountID,
		transfer.Amount.Amount, transfer.Amount.Currency,
		transfer.OutTransactionID, transfer.InTransactionID, transfer.CreatedAt,
	)

	return mapError(err)
}

// GetByID retrieves a transfer by ID.
func (r *TransferRepository) GetByID(ctx context.Context, id string) (*domain.Transfer, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+transferColumns+`
		FROM transfers
		WHERE id = $1`,
		id,
	)

	return scanTransfer(row)
}

// Delete removes a transfer record inside the given store transaction.
func (r *TransferRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	tag, err := txQuerier(tx).Exec(ctx, `DELETE FROM transfers WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// ListByAccount lists transfers where the account is either side.
func (r *TransferRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transfer, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+transferColumns+`
		FROM transfers
		WHERE from_account_id = $1 OR to_account_id = $1
		ORDER BY created_at, id
		LIMIT $2 OFFSET $3`,
		accountID, limit, offset,
	)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var transfers []*domain.Transfer

	for rows.Next() {
		transfer, err := scanTransfer(rows)
		if err != nil {
			return nil, err
		}

		transfers = append(transfers, transfer)
	}

	return transfers, mapError(rows.Err())
}

func scanTransfer(row pgx.Row) (*domain.Transfer, error) {
	var (
		transfer domain.Transfer
		amount   int64
		currency string
	)

	err := row.Scan(&transfer.ID, &transfer.FromAccountID, &transfer.ToAccountID,
		&amount, &currency, &transfer.OutTransactionID, &transfer.InTransactionID,
		&transfer.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}

		return nil, mapError(err)
	}

	transfer.Amount = domain.NewMoney(amount, currency)

	return &transfer, nil
}
