package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/iho/fintrack/internal/domain"
	"github.com/iho/fintrack/internal/usecase"
)

func storeTx(tx usecase.Transaction) (*Tx, error) {
	t, ok := tx.(*Tx)
	if !ok {
		return nil, fmt.Errorf("memory: foreign transaction type %T", tx)
	}

	return t, nil
}

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	store *Store
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(store *Store) *AccountRepository {
	return &AccountRepository{store: store}
}

func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	r.store.accounts[account.ID] = cloneAccount(account)

	return nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	account, ok := r.store.accounts[id]
	if !ok || account.Deleted() {
		return nil, domain.ErrUnknownAccount
	}

	return cloneAccount(account), nil
}

func (r *AccountRepository) GetByName(ctx context.Context, name string) (*domain.Account, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	lower := strings.ToLower(name)
	for _, account := range r.store.accounts {
		if !account.Deleted() && strings.ToLower(account.Name) == lower {
			return cloneAccount(account), nil
		}
	}

	return nil, domain.ErrUnknownAccount
}

func (r *AccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	live := make([]*domain.Account, 0, len(r.store.accounts))
	for _, account := range r.store.accounts {
		if !account.Deleted() {
			live = append(live, account)
		}
	}

	sort.Slice(live, func(i, j int) bool { return live[i].ID < live[j].ID })

	live = paginate(live, limit, offset)

	out := make([]*domain.Account, len(live))
	for i, account := range live {
		out[i] = cloneAccount(account)
	}

	return out, nil
}

func (r *AccountRepository) SoftDelete(ctx context.Context, tx usecase.Transaction, id string, deletedAt time.Time) error {
	t, err := storeTx(tx)
	if err != nil {
		return err
	}

	account, ok := r.store.accounts[id]
	if !ok || account.Deleted() {
		return domain.ErrUnknownAccount
	}

	prev := cloneAccount(account)
	t.addUndo(func() { r.store.accounts[id] = prev })

	account.DeletedAt = &deletedAt
	account.UpdatedAt = deletedAt

	return nil
}

// CategoryRepository implements usecase.CategoryRepository.
type CategoryRepository struct {
	store *Store
}

// NewCategoryRepository creates a new CategoryRepository.
func NewCategoryRepository(store *Store) *CategoryRepository {
	return &CategoryRepository{store: store}
}

func (r *CategoryRepository) Create(ctx context.Context, category *domain.Category) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	r.store.categories[category.ID] = cloneCategory(category)

	return nil
}

func (r *CategoryRepository) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	category, ok := r.store.categories[id]
	if !ok {
		return nil, domain.ErrUnknownCategory
	}

	return cloneCategory(category), nil
}

func (r *CategoryRepository) GetByName(ctx context.Context, name string) (*domain.Category, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	lower := strings.ToLower(name)
	for _, category := range r.store.categories {
		if strings.ToLower(category.Name) == lower {
			return cloneCategory(category), nil
		}
	}

	return nil, domain.ErrUnknownCategory
}

func (r *CategoryRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*domain.Category, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make(map[string]*domain.Category, len(ids))
	for _, id := range ids {
		if category, ok := r.store.categories[id]; ok {
			out[id] = cloneCategory(category)
		}
	}

	return out, nil
}

func (r *CategoryRepository) List(ctx context.Context, limit, offset int) ([]*domain.Category, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	all := make([]*domain.Category, 0, len(r.store.categories))
	for _, category := range r.store.categories {
		all = append(all, category)
	}

	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })

	all = paginate(all, limit, offset)

	out := make([]*domain.Category, len(all))
	for i, category := range all {
		out[i] = cloneCategory(category)
	}

	return out, nil
}

func (r *CategoryRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	t, err := storeTx(tx)
	if err != nil {
		return err
	}

	category, ok := r.store.categories[id]
	if !ok {
		return domain.ErrUnknownCategory
	}

	t.addUndo(func() { r.store.categories[id] = category })
	delete(r.store.categories, id)

	return nil
}

// TransactionRepository implements usecase.TransactionRepository.
type TransactionRepository struct {
	store *Store
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(store *Store) *TransactionRepository {
	return &TransactionRepository{store: store}
}

func (r *TransactionRepository) Create(ctx context.Context, tx usecase.Transaction, txn *domain.Transaction) error {
	t, err := storeTx(tx)
	if err != nil {
		return err
	}

	id := txn.ID
	t.addUndo(func() { delete(r.store.transactions, id) })
	r.store.transactions[id] = cloneTransaction(txn)

	return nil
}

func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	txn, ok := r.store.transactions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}

	return cloneTransaction(txn), nil
}

func (r *TransactionRepository) Update(ctx context.Context, tx usecase.Transaction, txn *domain.Transaction) error {
	t, err := storeTx(tx)
	if err != nil {
		return err
	}

	prev, ok := r.store.transactions[txn.ID]
	if !ok {
		return domain.ErrNotFound
	}

	id := txn.ID
	t.addUndo(func() { r.store.transactions[id] = prev })
	r.store.transactions[id] = cloneTransaction(txn)

	return nil
}

func (r *TransactionRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	t, err := storeTx(tx)
	if err != nil {
		return err
	}

	prev, ok := r.store.transactions[id]
	if !ok {
		return domain.ErrNotFound
	}

	t.addUndo(func() { r.store.transactions[id] = prev })
	delete(r.store.transactions, id)

	return nil
}

func (r *TransactionRepository) List(ctx context.Context, filter usecase.TransactionFilter) ([]*domain.Transaction, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	matched := make([]*domain.Transaction, 0)

	for _, txn := range r.store.transactions {
		if !matchesFilter(txn, filter) {
			continue
		}

		matched = append(matched, txn)
	}

	// Stable order: occurred-at, then id. ULIDs are time-ordered, so
	// ties break by insertion order.
	sort.Slice(matched, func(i, j int) bool {
		less := matched[i].ID < matched[j].ID
		if !matched[i].OccurredAt.Equal(matched[j].OccurredAt) {
			less = matched[i].OccurredAt.Before(matched[j].OccurredAt)
		}
		if filter.Descending {
			return !less
		}

		return less
	})

	matched = paginate(matched, filter.Limit, filter.Offset)

	out := make([]*domain.Transaction, len(matched))
	for i, txn := range matched {
		out[i] = cloneTransaction(txn)
	}

	return out, nil
}

func (r *TransactionRepository) CountByAccount(ctx context.Context, accountID string) (int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var count int64

	for _, txn := range r.store.transactions {
		if txn.AccountID == accountID {
			count++
		}
	}

	return count, nil
}

func (r *TransactionRepository) CountByCategory(ctx context.Context, categoryID string) (int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var count int64

	for _, txn := range r.store.transactions {
		for _, s := range txn.Splits {
			if s.CategoryID == categoryID {
				count++
				break
			}
		}
	}

	return count, nil
}

func (r *TransactionRepository) SumByAccountAsOf(ctx context.Context, accountID string, asOf time.Time) (int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var sum int64

	for _, txn := range r.store.transactions {
		if txn.AccountID != accountID || txn.OccurredAt.After(asOf) {
			continue
		}

		for _, s := range txn.Splits {
			sum += s.Amount.Amount
		}
	}

	return sum, nil
}

func (r *TransactionRepository) SumTransferLegsByCurrency(ctx context.Context) (map[string]int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	sums := make(map[string]int64)

	for _, txn := range r.store.transactions {
		if txn.IsTransferLeg() {
			sums[txn.Total.Currency] += txn.Total.Amount
		}
	}

	return sums, nil
}

// TransferRepository implements usecase.TransferRepository.
type TransferRepository struct {
	store *Store
}

// NewTransferRepository creates a new TransferRepository.
func NewTransferRepository(store *Store) *TransferRepository {
	return &TransferRepository{store: store}
}

func (r *TransferRepository) Create(ctx context.Context, tx usecase.Transaction, transfer *domain.Transfer) error {
	t, err := storeTx(tx)
	if err != nil {
		return err
	}

	id := transfer.ID
	t.addUndo(func() { delete(r.store.transfers, id) })
	r.store.transfers[id] = cloneTransfer(transfer)

	return nil
}

func (r *TransferRepository) GetByID(ctx context.Context, id string) (*domain.Transfer, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	transfer, ok := r.store.transfers[id]
	if !ok {
		return nil, domain.ErrNotFound
	}

	return cloneTransfer(transfer), nil
}

func (r *TransferRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	t, err := storeTx(tx)
	if err != nil {
		return err
	}

	prev, ok := r.store.transfers[id]
	if !ok {
		return domain.ErrNotFound
	}

	t.addUndo(func() { r.store.transfers[id] = prev })
	delete(r.store.transfers, id)

	return nil
}

func (r *TransferRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transfer, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	matched := make([]*domain.Transfer, 0)

	for _, transfer := range r.store.transfers {
		if transfer.FromAccountID == accountID || transfer.ToAccountID == accountID {
			matched = append(matched, transfer)
		}
	}

	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	matched = paginate(matched, limit, offset)

	out := make([]*domain.Transfer, len(matched))
	for i, transfer := range matched {
		out[i] = cloneTransfer(transfer)
	}

	return out, nil
}

func matchesFilter(txn *domain.Transaction, filter usecase.TransactionFilter) bool {
	if filter.AccountID != "" && txn.AccountID != filter.AccountID {
		return false
	}

	if filter.From != nil && txn.OccurredAt.Before(*filter.From) {
		return false
	}

	if filter.To != nil && txn.OccurredAt.After(*filter.To) {
		return false
	}

	if filter.CategoryID != "" {
		found := false
		for _, s := range txn.Splits {
			if s.CategoryID == filter.CategoryID {
				found = true
				break
			}
		}

		if !found {
			return false
		}
	}

	return true
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}

	items = items[offset:]

	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}

	return items
}
