// Package memory provides an in-memory ledger store used for local
// development and tests. It implements the same repository interfaces
// as the postgres adapter, with a coarse store lock standing in for
// database transactions.
package memory

import (
	"context"
	"sync"

	"github.com/iho/fintrack/internal/domain"
	"github.com/iho/fintrack/internal/usecase"
)

// Store holds all ledger state. The RWMutex gives readers a consistent
// committed snapshot: a transaction holds the write lock from Begin to
// Commit/Rollback, so readers never observe a half-applied mutation.
type Store struct {
	mu           sync.RWMutex
	accounts     map[string]*domain.Account
	categories   map[string]*domain.Category
	transactions map[string]*domain.Transaction
	transfers    map[string]*domain.Transfer
}

// New constructs an empty in-memory store.
func New() *Store {
	return &Store{
		accounts:     make(map[string]*domain.Account),
		categories:   make(map[string]*domain.Category),
		transactions: make(map[string]*domain.Transaction),
		transfers:    make(map[string]*domain.Transfer),
	}
}

// TxManager implements usecase.TransactionManager over the store.
type TxManager struct {
	store *Store
}

// NewTxManager creates a new TxManager.
func NewTxManager(store *Store) *TxManager {
	return &TxManager{store: store}
}

// Begin takes the store's write lock and returns a transaction that
// releases it on Commit or Rollback. Writes inside the transaction
// register undo closures; Rollback replays them in reverse so a failed
// mutation leaves no trace.
func (m *TxManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	m.store.mu.Lock()

	return &Tx{store: m.store}, nil
}

// Tx is an in-memory store transaction.
type Tx struct {
	store *Store
	undo  []func()
	done  bool
}

// Commit makes the transaction's writes permanent.
func (t *Tx) Commit(ctx context.Context) error {
	if t.done {
		return nil
	}

	t.done = true
	t.undo = nil
	t.store.mu.Unlock()

	return nil
}

// Rollback reverts all writes made inside the transaction. It is a
// no-op after Commit, so the usual `defer tx.Rollback(ctx)` is safe.
func (t *Tx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}

	t.done = true
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}

	t.undo = nil
	t.store.mu.Unlock()

	return nil
}

func (t *Tx) addUndo(fn func()) {
	t.undo = append(t.undo, fn)
}

// cloneAccount copies an account, including pointer fields.
func cloneAccount(a *domain.Account) *domain.Account {
	c := *a
	if a.DeletedAt != nil {
		deletedAt := *a.DeletedAt
		c.DeletedAt = &deletedAt
	}

	return &c
}

func cloneCategory(cat *domain.Category) *domain.Category {
	c := *cat
	if cat.ParentID != nil {
		parentID := *cat.ParentID
		c.ParentID = &parentID
	}

	return &c
}

func cloneTransaction(txn *domain.Transaction) *domain.Transaction {
	c := *txn
	if txn.TransferID != nil {
		transferID := *txn.TransferID
		c.TransferID = &transferID
	}

	c.Splits = make([]domain.Split, len(txn.Splits))
	copy(c.Splits, txn.Splits)

	return &c
}

func cloneTransfer(tr *domain.Transfer) *domain.Transfer {
	c := *tr

	return &c
}
