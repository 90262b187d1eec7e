package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/iho/fintrack/internal/domain"
	"github.com/iho/fintrack/internal/infrastructure/metrics"
)

// TransferUseCase moves money between accounts. A transfer is two leg
// transactions with exactly negated totals plus a transfer record;
// all three commit in one store transaction under both account locks.
type TransferUseCase struct {
	txManager    TransactionManager
	accountRepo  AccountRepository
	txnRepo      TransactionRepository
	transferRepo TransferRepository
	locker       AccountLocker
	idGen        IDGenerator
	cache        Cache
	validator    domain.Validator
	metrics      *metrics.Metrics
}

// NewTransferUseCase creates a new TransferUseCase. cache and metrics
// may be nil.
func NewTransferUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	txnRepo TransactionRepository,
	transferRepo TransferRepository,
	locker AccountLocker,
	idGen IDGenerator,
	cache Cache,
	validator domain.Validator,
	m *metrics.Metrics,
) *TransferUseCase {
	return &TransferUseCase{
		txManager:    txManager,
		accountRepo:  accountRepo,
		txnRepo:      txnRepo,
		transferRepo: transferRepo,
		locker:       locker,
		idGen:        idGen,
		cache:        cache,
		validator:    validator,
		metrics:      m,
	}
}

// ExecuteTransferInput represents input for executing a transfer.
type ExecuteTransferInput struct {
	FromAccountID string
	ToAccountID   string
	Amount        domain.Money
	OccurredAt    *time.Time
	Description   string
}

// ExecuteTransfer validates and executes a transfer. The source leg's
// total is the exact negation of the destination leg's; both legs
// become visible together or not at all.
func (uc *TransferUseCase) ExecuteTransfer(ctx context.Context, input ExecuteTransferInput) (*domain.Transfer, error) {
	// Cheap structural checks before taking any locks.
	if input.FromAccountID == input.ToAccountID {
		return nil, domain.ErrSameAccount
	}

	if !input.Amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}

	// The locker sorts ids internally: a fixed total order over
	// account identifiers, so concurrent transfers cannot deadlock.
	release, err := uc.locker.Acquire(ctx, input.FromAccountID, input.ToAccountID)
	if err != nil {
		if uc.metrics != nil && errors.Is(err, domain.ErrBusy) {
			uc.metrics.LockAcquireTimeouts.Inc()
		}
		return nil, err
	}
	defer release()

	from, err := uc.accountRepo.GetByID(ctx, input.FromAccountID)
	if err != nil {
		return nil, err
	}

	to, err := uc.accountRepo.GetByID(ctx, input.ToAccountID)
	if err != nil {
		return nil, err
	}

	if err := uc.validator.CheckTransfer(from, to, input.Amount); err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	occurredAt := now
	if input.OccurredAt != nil {
		occurredAt = input.OccurredAt.UTC()
	}

	transferID := uc.idGen.Generate()

	out := &domain.Transaction{
		ID:          uc.idGen.Generate(),
		AccountID:   from.ID,
		Total:       input.Amount.Neg(),
		Description: input.Description,
		OccurredAt:  occurredAt,
		CreatedAt:   now,
		UpdatedAt:   now,
		TransferID:  &transferID,
		Splits:      []domain.Split{{Amount: input.Amount.Neg()}},
	}

	in := &domain.Transaction{
		ID:          uc.idGen.Generate(),
		AccountID:   to.ID,
		Total:       input.Amount,
		Description: input.Description,
		OccurredAt:  occurredAt,
		CreatedAt:   now,
		UpdatedAt:   now,
		TransferID:  &transferID,
		Splits:      []domain.Split{{Amount: input.Amount}},
	}

	if err := uc.validator.CheckTransferLegs(out, in); err != nil {
		return nil, err
	}

	transfer := &domain.Transfer{
		ID:               transferID,
		FromAccountID:    from.ID,
		ToAccountID:      to.ID,
		Amount:           input.Amount,
		OutTransactionID: out.ID,
		InTransactionID:  in.ID,
		CreatedAt:        now,
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := uc.txnRepo.Create(ctx, tx, out); err != nil {
		return nil, err
	}

	if err := uc.txnRepo.Create(ctx, tx, in); err != nil {
		return nil, err
	}

	if err := uc.transferRepo.Create(ctx, tx, transfer); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	uc.invalidateBalance(ctx, from.ID)
	uc.invalidateBalance(ctx, to.ID)

	if uc.metrics != nil {
		uc.metrics.TransfersExecuted.Inc()
		uc.metrics.TransferAmount.Observe(float64(input.Amount.Amount))
	}

	return transfer, nil
}

// GetTransfer retrieves a transfer by ID.
func (uc *TransferUseCase) GetTransfer(ctx context.Context, id string) (*domain.Transfer, error) {
	return uc.transferRepo.GetByID(ctx, id)
}

// ListTransfersByAccount lists transfers touching an account.
func (uc *TransferUseCase) ListTransfersByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transfer, error) {
	limit, offset = domain.ValidatePagination(limit, offset)

	return uc.transferRepo.ListByAccount(ctx, accountID, limit, offset)
}

func (uc *TransferUseCase) invalidateBalance(ctx context.Context, accountID string) {
	if uc.cache == nil {
		return
	}

	_ = uc.cache.Delete(ctx, balanceCacheKey(accountID))
}
