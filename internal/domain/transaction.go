package domain

import (
	"fmt"
	"time"
)

// Split is a category-tagged portion of a transaction's total. An
// empty CategoryID means uncategorized; transfer legs always carry a
// single uncategorized split.
type Split struct {
	CategoryID string
	Amount     Money
	Memo       string
}

// Transaction is a single ledger movement on one account, broken into
// one or more splits. The split amounts must sum exactly to Total in
// minor units.
type Transaction struct {
	ID          string
	AccountID   string
	Total       Money
	Description string
	OccurredAt  time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	TransferID  *string
	Splits      []Split
}

// IsTransferLeg reports whether the transaction is one leg of a transfer.
func (t *Transaction) IsTransferLeg() bool {
	return t.TransferID != nil
}

// SplitSum returns the sum of all split amounts in minor units. The
// sum of a validated split set cannot overflow, since it equals the
// transaction total.
func (t *Transaction) SplitSum() int64 {
	sum, _ := t.splitSumChecked()
	return sum
}

func (t *Transaction) splitSumChecked() (int64, bool) {
	var sum int64
	for _, s := range t.Splits {
		next, ok := addInt64(sum, s.Amount.Amount)
		if !ok {
			return 0, false
		}

		sum = next
	}

	return sum, true
}

// ValidateSplits enforces the structural invariants of the split set:
// at least one split, all splits in the transaction's currency, and a
// sum that exactly equals the total. Integer equality, no tolerance.
func (t *Transaction) ValidateSplits() error {
	if len(t.Splits) == 0 {
		return ErrSplitMismatch
	}

	for _, s := range t.Splits {
		if s.Amount.Currency != t.Total.Currency {
			return ErrCurrencyMismatch
		}
	}

	sum, ok := t.splitSumChecked()
	if !ok {
		return fmt.Errorf("%w: split sum overflows", ErrInvalidAmount)
	}

	if sum != t.Total.Amount {
		return ErrSplitMismatch
	}

	return nil
}
