package usecase

import (
	"context"
	"time"

	"github.com/iho/fintrack/internal/domain"
)

// TransactionFilter selects transactions for listing. Results are
// always ordered by occurred-at, then id, so repeated queries over
// unchanged history return identical, restartable sequences.
type TransactionFilter struct {
	AccountID  string
	CategoryID string
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
	// Descending flips the order to newest-first, for API listings.
	Descending bool
}

// AccountRepository defines data access for accounts.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByName(ctx context.Context, name string) (*domain.Account, error)
	List(ctx context.Context, limit, offset int) ([]*domain.Account, error)
	SoftDelete(ctx context.Context, tx Transaction, id string, deletedAt time.Time) error
}

// CategoryRepository defines data access for categories.
type CategoryRepository interface {
	Create(ctx context.Context, category *domain.Category) error
	GetByID(ctx context.Context, id string) (*domain.Category, error)
	GetByName(ctx context.Context, name string) (*domain.Category, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]*domain.Category, error)
	List(ctx context.Context, limit, offset int) ([]*domain.Category, error)
	Delete(ctx context.Context, tx Transaction, id string) error
}

// TransactionRepository defines data access for ledger transactions
// and their splits.
type TransactionRepository interface {
	Create(ctx context.Context, tx Transaction, txn *domain.Transaction) error
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)
	Update(ctx context.Context, tx Transaction, txn *domain.Transaction) error
	Delete(ctx context.Context, tx Transaction, id string) error
	List(ctx context.Context, filter TransactionFilter) ([]*domain.Transaction, error)
	CountByAccount(ctx context.Context, accountID string) (int64, error)
	CountByCategory(ctx context.Context, categoryID string) (int64, error)
	// SumByAccountAsOf folds the committed split history of an account
	// up to and including the given instant, in minor units.
	SumByAccountAsOf(ctx context.Context, accountID string, asOf time.Time) (int64, error)
	// SumTransferLegsByCurrency sums the totals of all transfer legs
	// grouped by currency. A consistent ledger sums to zero everywhere.
	SumTransferLegsByCurrency(ctx context.Context) (map[string]int64, error)
}

// TransferRepository defines data access for transfers.
type TransferRepository interface {
	Create(ctx context.Context, tx Transaction, transfer *domain.Transfer) error
	GetByID(ctx context.Context, id string) (*domain.Transfer, error)
	Delete(ctx context.Context, tx Transaction, id string) error
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transfer, error)
}

// Transaction represents a store transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles store transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// AccountLocker serializes mutations per account. Acquire blocks for
// a bounded time and fails with domain.ErrBusy; the returned release
// function is idempotent.
type AccountLocker interface {
	Acquire(ctx context.Context, ids ...string) (func(), error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
}
