package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/iho/fintrack/internal/domain"
	"github.com/iho/fintrack/internal/infrastructure/metrics"
)

// AccountUseCase handles account lifecycle.
type AccountUseCase struct {
	accountRepo AccountRepository
	txnRepo     TransactionRepository
	txManager   TransactionManager
	locker      AccountLocker
	idGen       IDGenerator
	metrics     *metrics.Metrics
}

// NewAccountUseCase creates a new AccountUseCase. metrics may be nil.
func NewAccountUseCase(
	accountRepo AccountRepository,
	txnRepo TransactionRepository,
	txManager TransactionManager,
	locker AccountLocker,
	idGen IDGenerator,
	m *metrics.Metrics,
) *AccountUseCase {
	return &AccountUseCase{
		accountRepo: accountRepo,
		txnRepo:     txnRepo,
		txManager:   txManager,
		locker:      locker,
		idGen:       idGen,
		metrics:     m,
	}
}

// CreateAccountInput represents input for creating an account.
type CreateAccountInput struct {
	Name     string
	Kind     string
	Currency string
}

// CreateAccount creates a new account. Names are unique
// case-insensitively across live accounts.
func (uc *AccountUseCase) CreateAccount(ctx context.Context, input CreateAccountInput) (*domain.Account, error) {
	name := strings.TrimSpace(input.Name)
	if err := domain.ValidateName(name); err != nil {
		return nil, err
	}

	kind, err := domain.ParseAccountKind(input.Kind)
	if err != nil {
		return nil, err
	}

	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if err := domain.ValidateCurrency(currency); err != nil {
		return nil, err
	}

	// Serialize creations of the same name so the duplicate check and
	// the insert cannot interleave.
	release, err := uc.locker.Acquire(ctx, "account-name:"+strings.ToLower(name))
	if err != nil {
		return nil, err
	}
	defer release()

	existing, err := uc.accountRepo.GetByName(ctx, name)
	if err != nil && !errors.Is(err, domain.ErrUnknownAccount) {
		return nil, err
	}

	if existing != nil {
		return nil, domain.ErrDuplicateName
	}

	now := time.Now().UTC()
	account := &domain.Account{
		ID:        uc.idGen.Generate(),
		Name:      name,
		Kind:      kind,
		Currency:  currency,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := uc.accountRepo.Create(ctx, account); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.AccountsCreated.Inc()
	}

	return account, nil
}

// GetAccount retrieves an account by ID.
func (uc *AccountUseCase) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	return uc.accountRepo.GetByID(ctx, id)
}

// ListAccountsInput represents input for listing accounts.
type ListAccountsInput struct {
	Limit  int
	Offset int
}

// ListAccounts lists live accounts.
func (uc *AccountUseCase) ListAccounts(ctx context.Context, input ListAccountsInput) ([]*domain.Account, error) {
	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)

	return uc.accountRepo.List(ctx, limit, offset)
}

// DeleteAccount soft-deletes an account. Deletion is refused with
// ErrAccountInUse while any transaction still references the account,
// so history can never dangle.
func (uc *AccountUseCase) DeleteAccount(ctx context.Context, id string) error {
	account, err := uc.accountRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	release, err := uc.locker.Acquire(ctx, account.ID)
	if err != nil {
		return err
	}
	defer release()

	count, err := uc.txnRepo.CountByAccount(ctx, account.ID)
	if err != nil {
		return err
	}

	if count > 0 {
		return domain.ErrAccountInUse
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := uc.accountRepo.SoftDelete(ctx, tx, account.ID, time.Now().UTC()); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	if uc.metrics != nil {
		uc.metrics.AccountsDeleted.Inc()
	}

	return nil
}
