package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/iho/fintrack/internal/domain"
	"github.com/iho/fintrack/internal/infrastructure/metrics"
)

// ReconciliationUseCase derives authoritative balances and audits the
// ledger for inconsistencies. It never mutates the store and never
// takes write locks: everything it reads is committed state.
type ReconciliationUseCase struct {
	accountRepo  AccountRepository
	categoryRepo CategoryRepository
	txnRepo      TransactionRepository
	transferRepo TransferRepository
	cache        Cache
	metrics      *metrics.Metrics
}

// NewReconciliationUseCase creates a new ReconciliationUseCase.
// cache and metrics may be nil.
func NewReconciliationUseCase(
	accountRepo AccountRepository,
	categoryRepo CategoryRepository,
	txnRepo TransactionRepository,
	transferRepo TransferRepository,
	cache Cache,
	m *metrics.Metrics,
) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		accountRepo:  accountRepo,
		categoryRepo: categoryRepo,
		txnRepo:      txnRepo,
		transferRepo: transferRepo,
		cache:        cache,
		metrics:      m,
	}
}

// BalanceAsOf folds the committed split history of an account up to
// and including the given instant. It is a pure function of history:
// re-running it on unchanged data yields identical results.
func (uc *ReconciliationUseCase) BalanceAsOf(ctx context.Context, accountID string, asOf time.Time) (domain.Money, error) {
	account, err := uc.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return domain.Money{}, err
	}

	sum, err := uc.txnRepo.SumByAccountAsOf(ctx, account.ID, asOf.UTC())
	if err != nil {
		return domain.Money{}, err
	}

	return domain.NewMoney(sum, account.Currency), nil
}

// CurrentBalance returns the account's balance as of now, served from
// cache when available. Mutations invalidate the cache entry, so a
// cached value always matches some committed state.
func (uc *ReconciliationUseCase) CurrentBalance(ctx context.Context, accountID string) (domain.Money, error) {
	if uc.metrics != nil {
		uc.metrics.BalanceQueries.Inc()
	}

	if uc.cache != nil {
		if raw, err := uc.cache.Get(ctx, balanceCacheKey(accountID)); err == nil {
			if cached, ok := decodeBalance(raw); ok {
				if uc.metrics != nil {
					uc.metrics.BalanceCacheHits.Inc()
				}
				return cached, nil
			}
		}
	}

	balance, err := uc.BalanceAsOf(ctx, accountID, time.Now().UTC())
	if err != nil {
		return domain.Money{}, err
	}

	if uc.cache != nil {
		_ = uc.cache.Set(ctx, balanceCacheKey(accountID), encodeBalance(balance), BalanceCacheTTL)
	}

	return balance, nil
}

// AuditAccount scans an account's history for inconsistencies:
// dangling category references, orphaned or imbalanced transfer legs,
// and split sums that disagree with their transaction totals. The
// validation engine makes these impossible on the write path; the
// audit defends against direct store manipulation and migration bugs.
func (uc *ReconciliationUseCase) AuditAccount(ctx context.Context, accountID string) ([]domain.Inconsistency, error) {
	account, err := uc.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	findings := make([]domain.Inconsistency, 0)

	const pageSize = 500
	for offset := 0; ; offset += pageSize {
		txns, err := uc.txnRepo.List(ctx, TransactionFilter{
			AccountID: account.ID,
			Limit:     pageSize,
			Offset:    offset,
		})
		if err != nil {
			return nil, err
		}

		if len(txns) == 0 {
			break
		}

		page, err := uc.auditPage(ctx, account.ID, txns)
		if err != nil {
			return nil, err
		}

		findings = append(findings, page...)

		if len(txns) < pageSize {
			break
		}
	}

	if uc.metrics != nil {
		uc.metrics.AuditsRun.Inc()
		for _, f := range findings {
			uc.metrics.AuditFindings.WithLabelValues(string(f.Kind)).Inc()
		}
	}

	return findings, nil
}

func (uc *ReconciliationUseCase) auditPage(ctx context.Context, accountID string, txns []*domain.Transaction) ([]domain.Inconsistency, error) {
	categoryIDs := make([]string, 0)

	seen := make(map[string]bool)
	for _, txn := range txns {
		for _, s := range txn.Splits {
			if s.CategoryID != "" && !seen[s.CategoryID] {
				seen[s.CategoryID] = true
				categoryIDs = append(categoryIDs, s.CategoryID)
			}
		}
	}

	categories, err := uc.categoryRepo.GetByIDs(ctx, categoryIDs)
	if err != nil {
		return nil, err
	}

	var findings []domain.Inconsistency

	for _, txn := range txns {
		if txn.SplitSum() != txn.Total.Amount {
			findings = append(findings, domain.Inconsistency{
				Kind:          domain.InconsistencySplitMismatch,
				AccountID:     accountID,
				TransactionID: txn.ID,
				Detail: fmt.Sprintf("splits sum to %d, total is %d",
					txn.SplitSum(), txn.Total.Amount),
			})
		}

		for _, s := range txn.Splits {
			if s.CategoryID != "" && categories[s.CategoryID] == nil {
				findings = append(findings, domain.Inconsistency{
					Kind:          domain.InconsistencyDanglingCategory,
					AccountID:     accountID,
					TransactionID: txn.ID,
					CategoryID:    s.CategoryID,
					Detail:        "split references a category that no longer exists",
				})
			}
		}

		if txn.IsTransferLeg() {
			finding, err := uc.auditTransferLeg(ctx, accountID, txn)
			if err != nil {
				return nil, err
			}

			if finding != nil {
				findings = append(findings, *finding)
			}
		}
	}

	return findings, nil
}

func (uc *ReconciliationUseCase) auditTransferLeg(ctx context.Context, accountID string, leg *domain.Transaction) (*domain.Inconsistency, error) {
	transfer, err := uc.transferRepo.GetByID(ctx, *leg.TransferID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &domain.Inconsistency{
				Kind:          domain.InconsistencyOrphanTransferLeg,
				AccountID:     accountID,
				TransactionID: leg.ID,
				TransferID:    *leg.TransferID,
				Detail:        "transfer record is missing",
			}, nil
		}

		return nil, err
	}

	pairedID := transfer.OutTransactionID
	if leg.ID == transfer.OutTransactionID {
		pairedID = transfer.InTransactionID
	}

	paired, err := uc.txnRepo.GetByID(ctx, pairedID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &domain.Inconsistency{
				Kind:          domain.InconsistencyOrphanTransferLeg,
				AccountID:     accountID,
				TransactionID: leg.ID,
				TransferID:    transfer.ID,
				Detail:        "paired transfer leg is missing",
			}, nil
		}

		return nil, err
	}

	if !leg.Total.Equal(paired.Total.Neg()) {
		return &domain.Inconsistency{
			Kind:          domain.InconsistencyTransferImbalance,
			AccountID:     accountID,
			TransactionID: leg.ID,
			TransferID:    transfer.ID,
			Detail: fmt.Sprintf("legs total %d and %d, expected exact negation",
				leg.Total.Amount, paired.Total.Amount),
		}, nil
	}

	return nil, nil
}

// CheckLedgerConsistency verifies the zero-sum property of transfers:
// for every currency, all transfer leg totals sum to zero. Transfers
// can move money around but never create or destroy it.
func (uc *ReconciliationUseCase) CheckLedgerConsistency(ctx context.Context) error {
	sums, err := uc.txnRepo.SumTransferLegsByCurrency(ctx)
	if err != nil {
		return err
	}

	for currency, sum := range sums {
		if sum != 0 {
			return fmt.Errorf("ledger inconsistency: transfer legs in %s sum to %d, expected 0", currency, sum)
		}
	}

	return nil
}

// Balance cache encoding: "<minor units> <currency>".
func encodeBalance(m domain.Money) []byte {
	return []byte(strconv.FormatInt(m.Amount, 10) + " " + m.Currency)
}

func decodeBalance(raw []byte) (domain.Money, bool) {
	var amount int64

	var currency string
	if _, err := fmt.Sscanf(string(raw), "%d %s", &amount, &currency); err != nil {
		return domain.Money{}, false
	}

	return domain.NewMoney(amount, currency), true
}
