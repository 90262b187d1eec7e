package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/fintrack/internal/domain"
	"github.com/iho/fintrack/internal/usecase"
)

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

const accountColumns = `id, name, kind, currency, created_at, updated_at, deleted_at`

// Create creates a new account.
func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO accounts (id, name, kind, currency, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		account.ID, account.Name, string(account.Kind), account.Currency,
		account.CreatedAt, account.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return domain.ErrDuplicateName
	}

	return mapError(err)
}

// GetByID retrieves a live account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE id = $1 AND deleted_at IS NULL`,
		id,
	)

	return scanAccount(row)
}

// GetByName retrieves a live account by name, case-insensitively.
func (r *AccountRepository) GetByName(ctx context.Context, name string) (*domain.Account, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE lower(name) = lower($1) AND deleted_at IS NULL`,
		name,
	)

	return scanAccount(row)
}

// List lists live accounts with pagination.
func (r *AccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE deleted_at IS NULL
		ORDER BY id
		LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var accounts []*domain.Account

	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}

		accounts = append(accounts, account)
	}

	return accounts, mapError(rows.Err())
}

// SoftDelete marks an account as deleted inside the given transaction.
func (r *AccountRepository) SoftDelete(ctx context.Context, tx usecase.Transaction, id string, deletedAt time.Time) error {
	tag, err := txQuerier(tx).Exec(ctx, `
		UPDATE accounts
		SET deleted_at = $2, updated_at = $2
		WHERE id = $1 AND deleted_at IS NULL`,
		id, deletedAt,
	)
	if err != nil {
		return mapError(err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrUnknownAccount
	}

	return nil
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		account domain.Account
		kind    string
	)

	err := row.Scan(&account.ID, &account.Name, &kind, &account.Currency,
		&account.CreatedAt, &account.UpdatedAt, &account.DeletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUnknownAccount
		}

		return nil, mapError(err)
	}

	account.Kind = domain.AccountKind(kind)

	return &account, nil
}
