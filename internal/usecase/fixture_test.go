package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iho/fintrack/internal/adapter/repository/memory"
	"github.com/iho/fintrack/internal/domain"
	"github.com/iho/fintrack/internal/lock"
	"github.com/iho/fintrack/internal/usecase"
	"github.com/iho/fintrack/internal/usecase/mocks"
)

// fixture wires the use cases against the real in-memory store and the
// real lock manager, so tests exercise the same transaction and locking
// behaviour the server does.
type fixture struct {
	store    *memory.Store
	cache    *mocks.MockCache
	accounts *usecase.AccountUseCase
	cats     *usecase.CategoryUseCase
	ledger   *usecase.LedgerUseCase
	transfer *usecase.TransferUseCase
	recon    *usecase.ReconciliationUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.New()
	txManager := memory.NewTxManager(store)
	accountRepo := memory.NewAccountRepository(store)
	categoryRepo := memory.NewCategoryRepository(store)
	txnRepo := memory.NewTransactionRepository(store)
	transferRepo := memory.NewTransferRepository(store)
	locker := lock.NewManager(2 * time.Second)
	idGen := mocks.NewMockIDGenerator()
	cache := mocks.NewMockCache()
	validator := domain.Validator{}

	return &fixture{
		store: store,
		cache: cache,
		accounts: usecase.NewAccountUseCase(
			accountRepo, txnRepo, txManager, locker, idGen, nil),
		cats: usecase.NewCategoryUseCase(
			categoryRepo, txnRepo, txManager, locker, idGen),
		ledger: usecase.NewLedgerUseCase(
			txManager, accountRepo, categoryRepo, txnRepo, transferRepo,
			locker, idGen, cache, validator, nil),
		transfer: usecase.NewTransferUseCase(
			txManager, accountRepo, txnRepo, transferRepo,
			locker, idGen, cache, validator, nil),
		recon: usecase.NewReconciliationUseCase(
			accountRepo, categoryRepo, txnRepo, transferRepo, cache, nil),
	}
}

func (f *fixture) mustAccount(t *testing.T, name, kind, currency string) *domain.Account {
	t.Helper()

	account, err := f.accounts.CreateAccount(context.Background(), usecase.CreateAccountInput{
		Name:     name,
		Kind:     kind,
		Currency: currency,
	})
	require.NoError(t, err)

	return account
}

func (f *fixture) mustCategory(t *testing.T, name string, parentID *string) *domain.Category {
	t.Helper()

	category, err := f.cats.CreateCategory(context.Background(), usecase.CreateCategoryInput{
		Name:     name,
		ParentID: parentID,
	})
	require.NoError(t, err)

	return category
}

func (f *fixture) mustAppend(t *testing.T, accountID string, amount int64, currency string, splits []usecase.SplitInput) *domain.Transaction {
	t.Helper()

	txn, err := f.ledger.AppendTransaction(context.Background(), usecase.AppendTransactionInput{
		AccountID: accountID,
		Total:     domain.NewMoney(amount, currency),
		Splits:    splits,
	})
	require.NoError(t, err)

	return txn
}
