package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/fintrack/internal/domain"
	"github.com/iho/fintrack/internal/usecase"
)

// TransactionRepository implements usecase.TransactionRepository.
// Splits live in their own table; an uncategorized split is stored
// with a NULL category_id.
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

const transactionColumns = `id, account_id, total_amount, currency, description, occurred_at, created_at, updated_at, transfer_id`

// Create inserts a transaction and its splits inside the given
// store transaction.
func (r *TransactionRepository) Create(ctx context.Context, tx usecase.Transaction, txn *domain.Transaction) error {
	q := txQuerier(tx)

	_, err := q.Exec(ctx, `
		INSERT INTO transactions (id, account_id, total_amount, currency, description,
			occurred_at, created_at, updated_at, transfer_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		txn.ID, txn.AccountID, txn.Total.Amount, txn.Total.Currency, txn.Description,
		txn.OccurredAt, txn.CreatedAt, txn.UpdatedAt, txn.TransferID,
	)
	if err != nil {
		if isForeignKeyViolation(err, "transactions_account_id_fkey") {
			return fmt.Errorf("%w: %v", domain.ErrUnknownAccount, err)
		}

		return mapError(err)
	}

	return r.insertSplits(ctx, q, txn)
}

// GetByID retrieves a transaction with its splits.
func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE id = $1`,
		id,
	)

	txn, err := scanTransaction(row)
	if err != nil {
		return nil, err
	}

	byID, err := r.loadSplits(ctx, []string{txn.ID})
	if err != nil {
		return nil, err
	}

	txn.Splits = byID[txn.ID]

	return txn, nil
}

// Update replaces a transaction's fields and its whole split set.
func (r *TransactionRepository) Update(ctx context.Context, tx usecase.Transaction, txn *domain.Transaction) error {
	q := txQuerier(tx)

	tag, err := q.Exec(ctx, `
		UPDATE transactions
		SET total_amount = $2, currency = $3, description = $4,
			occurred_at = $5, updated_at = $6
		WHERE id = $1`,
		txn.ID, txn.Total.Amount, txn.Total.Currency, txn.Description,
		txn.OccurredAt, txn.UpdatedAt,
	)
	if err != nil {
		return mapError(err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	if _, err := q.Exec(ctx, `DELETE FROM transaction_splits WHERE transaction_id = $1`, txn.ID); err != nil {
		return mapError(err)
	}

	return r.insertSplits(ctx, q, txn)
}

// Delete removes a transaction; splits go with it via ON DELETE CASCADE.
func (r *TransactionRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	tag, err := txQuerier(tx).Exec(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// List returns transactions matching the filter, ordered by
// occurred-at then id.
func (r *TransactionRepository) List(ctx context.Context, filter usecase.TransactionFilter) ([]*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE 1=1`

	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.AccountID != "" {
		query += ` AND account_id = ` + arg(filter.AccountID)
	}

	if filter.CategoryID != "" {
		query += ` AND EXISTS (
			SELECT 1 FROM transaction_splits s
			WHERE s.transaction_id = transactions.id AND s.category_id = ` + arg(filter.CategoryID) + `)`
	}

	if filter.From != nil {
		query += ` AND occurred_at >= ` + arg(filter.From.UTC())
	}

	if filter.To != nil {
		query += ` AND occurred_at <= ` + arg(filter.To.UTC())
	}

	order := ` ORDER BY occurred_at, id`
	if filter.Descending {
		order = ` ORDER BY occurred_at DESC, id DESC`
	}

	query += order + ` LIMIT ` + arg(filter.Limit) + ` OFFSET ` + arg(filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var (
		txns []*domain.Transaction
		ids  []string
	)

	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}

		txns = append(txns, txn)
		ids = append(ids, txn.ID)
	}

	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}

	byID, err := r.loadSplits(ctx, ids)
	if err != nil {
		return nil, err
	}

	for _, txn := range txns {
		txn.Splits = byID[txn.ID]
	}

	return txns, nil
}

// CountByAccount counts transactions referencing an account.
func (r *TransactionRepository) CountByAccount(ctx context.Context, accountID string) (int64, error) {
	var count int64

	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM transactions WHERE account_id = $1`,
		accountID,
	).Scan(&count)

	return count, mapError(err)
}

// CountByCategory counts splits referencing a category.
func (r *TransactionRepository) CountByCategory(ctx context.Context, categoryID string) (int64, error) {
	var count int64

	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM transaction_splits WHERE category_id = $1`,
		categoryID,
	).Scan(&count)

	return count, mapError(err)
}

// SumByAccountAsOf folds split amounts for an account up to and
// including the given instant.
func (r *TransactionRepository) SumByAccountAsOf(ctx context.Context, accountID string, asOf time.Time) (int64, error) {
	var sum int64

	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(s.amount), 0)
		FROM transaction_splits s
		JOIN transactions t ON t.id = s.transaction_id
		WHERE t.account_id = $1 AND t.occurred_at <= $2`,
		accountID, asOf,
	).Scan(&sum)

	return sum, mapError(err)
}

// SumTransferLegsByCurrency sums transfer leg totals per currency. A
// consistent ledger yields zero for every currency.
func (r *TransactionRepository) SumTransferLegsByCurrency(ctx context.Context) (map[string]int64, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT currency, COALESCE(SUM(total_amount), 0)
		FROM transactions
		WHERE transfer_id IS NOT NULL
		GROUP BY currency`,
	)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	sums := make(map[string]int64)

	for rows.Next() {
		var (
			currency string
			sum      int64
		)

		if err := rows.Scan(&currency, &sum); err != nil {
			return nil, mapError(err)
		}

		sums[currency] = sum
	}

	return sums, mapError(rows.Err())
}

func (r *TransactionRepository) insertSplits(ctx context.Context, q querier, txn *domain.Transaction) error {
	for i, split := range txn.Splits {
		var categoryID *string
		if split.CategoryID != "" {
			id := split.CategoryID
			categoryID = &id
		}

		_, err := q.Exec(ctx, `
			INSERT INTO transaction_splits (transaction_id, position, category_id, amount, memo)
			VALUES ($1, $2, $3, $4, $5)`,
			txn.ID, i, categoryID, split.Amount.Amount, split.Memo,
		)
		if err != nil {
			if isForeignKeyViolation(err, "transaction_splits_category_id_fkey") {
				return fmt.Errorf("%w: %v", domain.ErrUnknownCategory, err)
			}

			return mapError(err)
		}
	}

	return nil
}

func (r *TransactionRepository) loadSplits(ctx context.Context, ids []string) (map[string][]domain.Split, error) {
	byID := make(map[string][]domain.Split, len(ids))
	if len(ids) == 0 {
		return byID, nil
	}

	rows, err := r.pool.Query(ctx, `
		SELECT s.transaction_id, s.category_id, s.amount, s.memo, t.currency
		FROM transaction_splits s
		JOIN transactions t ON t.id = s.transaction_id
		WHERE s.transaction_id = ANY($1)
		ORDER BY s.transaction_id, s.position`,
		ids,
	)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			txnID      string
			categoryID *string
			amount     int64
			memo       string
			currency   string
		)

		if err := rows.Scan(&txnID, &categoryID, &amount, &memo, &currency); err != nil {
			return nil, mapError(err)
		}

		split := domain.Split{
			Amount: domain.NewMoney(amount, currency),
			Memo:   memo,
		}
		if categoryID != nil {
			split.CategoryID = *categoryID
		}

		byID[txnID] = append(byID[txnID], split)
	}

	return byID, mapError(rows.Err())
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var (
		txn      domain.Transaction
		amount   int64
		currency string
	)

	err := row.Scan(&txn.ID, &txn.AccountID, &amount, &currency, &txn.Description,
		&txn.OccurredAt, &txn.CreatedAt, &txn.UpdatedAt, &txn.TransferID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}

		return nil, mapError(err)
	}

	txn.Total = domain.NewMoney(amount, currency)

	return &txn, nil
}
