package domain

import (
	"time"
)

// Transfer moves money between two accounts as a pair of transactions:
// an outgoing leg on the source account and an incoming leg on the
// destination. The leg totals are exact negations of each other and
// both legs commit atomically or not at all.
type Transfer struct {
	ID               string
	FromAccountID    string
	ToAccountID      string
	Amount           Money
	OutTransactionID string
	InTransactionID  string
	CreatedAt        time.Time
}

// Validate validates a transfer request.
func (t *Transfer) Validate() error {
	if t.FromAccountID == t.ToAccountID {
		return ErrSameAccount
	}

	if !t.Amount.IsPositive() {
		return ErrInvalidAmount
	}

	return nil
}
