package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/iho/fintrack/internal/domain"
	"github.com/iho/fintrack/internal/infrastructure/metrics"
)

// LedgerUseCase handles transaction mutations and queries. All writes
// pass the validation engine and hold the owning account's lock for
// the whole validate-write-commit sequence, so no caller ever observes
// a torn intermediate state.
type LedgerUseCase struct {
	txManager    TransactionManager
	accountRepo  AccountRepository
	categoryRepo CategoryRepository
	txnRepo      TransactionRepository
	transferRepo TransferRepository
	locker       AccountLocker
	idGen        IDGenerator
	cache        Cache
	validator    domain.Validator
	metrics      *metrics.Metrics
}

// NewLedgerUseCase creates a new LedgerUseCase. cache and metrics may
// be nil.
func NewLedgerUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	categoryRepo CategoryRepository,
	txnRepo TransactionRepository,
	transferRepo TransferRepository,
	locker AccountLocker,
	idGen IDGenerator,
	cache Cache,
	validator domain.Validator,
	m *metrics.Metrics,
) *LedgerUseCase {
	return &LedgerUseCase{
		txManager:    txManager,
		accountRepo:  accountRepo,
		categoryRepo: categoryRepo,
		txnRepo:      txnRepo,
		transferRepo: transferRepo,
		locker:       locker,
		idGen:        idGen,
		cache:        cache,
		validator:    validator,
		metrics:      m,
	}
}

// SplitInput represents one split of a prospective transaction.
// Amount is in minor units of the transaction's currency.
type SplitInput struct {
	CategoryID string
	Amount     int64
	Memo       string
}

// AppendTransactionInput represents input for appending a transaction.
type AppendTransactionInput struct {
	AccountID   string
	Total       domain.Money
	OccurredAt  *time.Time
	Description string
	Splits      []SplitInput
}

// AppendTransaction validates and appends a new transaction. On any
// validation failure nothing is written.
func (uc *LedgerUseCase) AppendTransaction(ctx context.Context, input AppendTransactionInput) (*domain.Transaction, error) {
	release, err := uc.locker.Acquire(ctx, mutationLockKeys(input.AccountID, input.Splits)...)
	if err != nil {
		uc.recordLockTimeout(err)
		return nil, err
	}
	defer release()

	now := time.Now().UTC()

	occurredAt := now
	if input.OccurredAt != nil {
		occurredAt = input.OccurredAt.UTC()
	}

	txn := &domain.Transaction{
		ID:          uc.idGen.Generate(),
		AccountID:   input.AccountID,
		Total:       input.Total,
		Description: input.Description,
		OccurredAt:  occurredAt,
		CreatedAt:   now,
		UpdatedAt:   now,
		Splits:      buildSplits(input.Splits, input.Total),
	}

	if err := uc.validateAgainstStore(ctx, txn); err != nil {
		uc.recordRejection(err)
		return nil, err
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := uc.txnRepo.Create(ctx, tx, txn); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	uc.invalidateBalance(ctx, txn.AccountID)

	if uc.metrics != nil {
		uc.metrics.TransactionsAppended.Inc()
	}

	return txn, nil
}

// EditTransactionInput carries replacement fields for an edit. Nil
// fields are left unchanged; a non-nil Splits slice replaces the whole
// split set.
type EditTransactionInput struct {
	Total       *domain.Money
	OccurredAt  *time.Time
	Description *string
	Splits      []SplitInput
}

// EditTransaction atomically replaces fields of an existing
// transaction and re-validates the split-sum invariant. Transfer legs
// cannot be edited directly; edit the transfer instead.
func (uc *LedgerUseCase) EditTransaction(ctx context.Context, id string, input EditTransactionInput) (*domain.Transaction, error) {
	existing, err := uc.txnRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if existing.IsTransferLeg() {
		return nil, domain.ErrTransferLeg
	}

	release, err := uc.locker.Acquire(ctx, mutationLockKeys(existing.AccountID, input.Splits)...)
	if err != nil {
		uc.recordLockTimeout(err)
		return nil, err
	}
	defer release()

	// Re-fetch under the lock: another edit may have committed while
	// we were waiting.
	txn, err := uc.txnRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Total != nil {
		txn.Total = *input.Total
	}

	if input.OccurredAt != nil {
		txn.OccurredAt = input.OccurredAt.UTC()
	}

	if input.Description != nil {
		txn.Description = *input.Description
	}

	if input.Splits != nil {
		txn.Splits = buildSplits(input.Splits, txn.Total)
	} else if input.Total != nil && len(txn.Splits) == 1 && txn.Splits[0].CategoryID == "" {
		// A simple transaction keeps its single covering split in sync
		// with the new total.
		txn.Splits[0].Amount = txn.Total
	}

	txn.UpdatedAt = time.Now().UTC()

	if err := uc.validateAgainstStore(ctx, txn); err != nil {
		uc.recordRejection(err)
		return nil, err
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := uc.txnRepo.Update(ctx, tx, txn); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	uc.invalidateBalance(ctx, txn.AccountID)

	if uc.metrics != nil {
		uc.metrics.TransactionsEdited.Inc()
	}

	return txn, nil
}

// DeleteTransaction deletes a transaction. Deleting one leg of a
// transfer deletes the paired leg and the transfer record atomically,
// preserving the zero-sum invariant.
func (uc *LedgerUseCase) DeleteTransaction(ctx context.Context, id string) error {
	txn, err := uc.txnRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if txn.IsTransferLeg() {
		return uc.deleteTransfer(ctx, *txn.TransferID)
	}

	release, err := uc.locker.Acquire(ctx, txn.AccountID)
	if err != nil {
		uc.recordLockTimeout(err)
		return err
	}
	defer release()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := uc.txnRepo.Delete(ctx, tx, txn.ID); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	uc.invalidateBalance(ctx, txn.AccountID)

	if uc.metrics != nil {
		uc.metrics.TransactionsDeleted.Inc()
	}

	return nil
}

func (uc *LedgerUseCase) deleteTransfer(ctx context.Context, transferID string) error {
	transfer, err := uc.transferRepo.GetByID(ctx, transferID)
	if err != nil {
		return err
	}

	release, err := uc.locker.Acquire(ctx, transfer.FromAccountID, transfer.ToAccountID)
	if err != nil {
		uc.recordLockTimeout(err)
		return err
	}
	defer release()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := uc.txnRepo.Delete(ctx, tx, transfer.OutTransactionID); err != nil {
		return err
	}

	if err := uc.txnRepo.Delete(ctx, tx, transfer.InTransactionID); err != nil {
		return err
	}

	if err := uc.transferRepo.Delete(ctx, tx, transfer.ID); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	uc.invalidateBalance(ctx, transfer.FromAccountID)
	uc.invalidateBalance(ctx, transfer.ToAccountID)

	if uc.metrics != nil {
		uc.metrics.TransfersDeleted.Inc()
	}

	return nil
}

// GetTransaction retrieves a transaction by ID.
func (uc *LedgerUseCase) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	return uc.txnRepo.GetByID(ctx, id)
}

// ListTransactions lists transactions matching the filter, ordered by
// occurred-at then id.
func (uc *LedgerUseCase) ListTransactions(ctx context.Context, filter TransactionFilter) ([]*domain.Transaction, error) {
	filter.Limit, filter.Offset = domain.ValidatePagination(filter.Limit, filter.Offset)

	return uc.txnRepo.List(ctx, filter)
}

// validateAgainstStore fetches the state a prospective transaction
// references and runs the validation engine over it.
func (uc *LedgerUseCase) validateAgainstStore(ctx context.Context, txn *domain.Transaction) error {
	account, err := uc.accountRepo.GetByID(ctx, txn.AccountID)
	if err != nil {
		return err
	}

	categoryIDs := make([]string, 0, len(txn.Splits))
	for _, s := range txn.Splits {
		if s.CategoryID != "" {
			categoryIDs = append(categoryIDs, s.CategoryID)
		}
	}

	categories, err := uc.categoryRepo.GetByIDs(ctx, categoryIDs)
	if err != nil {
		return err
	}

	return uc.validator.CheckTransaction(account, categories, txn)
}

// invalidateBalance drops the cached derived balance for an account.
// Cache failures are ignored: the cache is an optimization, the fold
// over history is the source of truth.
func (uc *LedgerUseCase) invalidateBalance(ctx context.Context, accountID string) {
	if uc.cache == nil {
		return
	}

	_ = uc.cache.Delete(ctx, balanceCacheKey(accountID))
}

func balanceCacheKey(accountID string) string {
	return "balance:" + accountID
}

func (uc *LedgerUseCase) recordRejection(err error) {
	if uc.metrics == nil {
		return
	}

	uc.metrics.ValidationRejections.WithLabelValues(rejectionReason(err)).Inc()
}

func (uc *LedgerUseCase) recordLockTimeout(err error) {
	if uc.metrics == nil || !errors.Is(err, domain.ErrBusy) {
		return
	}

	uc.metrics.LockAcquireTimeouts.Inc()
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrSplitMismatch):
		return "split_mismatch"
	case errors.Is(err, domain.ErrCurrencyMismatch):
		return "currency_mismatch"
	case errors.Is(err, domain.ErrUnknownAccount):
		return "unknown_account"
	case errors.Is(err, domain.ErrUnknownCategory):
		return "unknown_category"
	case errors.Is(err, domain.ErrZeroAmount):
		return "zero_amount"
	case errors.Is(err, domain.ErrInvalidAmount):
		return "invalid_amount"
	default:
		return "other"
	}
}

// mutationLockKeys returns the lock keys a write must hold: the owning
// account plus every category its splits reference. Holding the
// category keys serializes the validate-then-commit sequence against
// DeleteCategory's count-then-delete, so a split can never commit
// against a category that vanished after validation.
func mutationLockKeys(accountID string, splits []SplitInput) []string {
	keys := []string{accountID}

	seen := make(map[string]struct{}, len(splits))
	for _, s := range splits {
		if s.CategoryID == "" {
			continue
		}
		if _, ok := seen[s.CategoryID]; ok {
			continue
		}

		seen[s.CategoryID] = struct{}{}
		keys = append(keys, categoryLockKey(s.CategoryID))
	}

	return keys
}

func categoryLockKey(id string) string {
	return "category:" + id
}

// buildSplits converts split inputs into domain splits in the
// transaction's currency. An empty input defaults to a single
// uncategorized split covering the full total, the common simple case.
func buildSplits(inputs []SplitInput, total domain.Money) []domain.Split {
	if len(inputs) == 0 {
		return []domain.Split{{Amount: total}}
	}

	splits := make([]domain.Split, len(inputs))
	for i, in := range inputs {
		splits[i] = domain.Split{
			CategoryID: in.CategoryID,
			Amount:     domain.NewMoney(in.Amount, total.Currency),
			Memo:       in.Memo,
		}
	}

	return splits
}
