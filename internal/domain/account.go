package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidAccountKind is returned for account kinds outside the
// supported set.
var ErrInvalidAccountKind = errors.New("invalid account kind")

// AccountKind enumerates the supported account types.
type AccountKind string

const (
	AccountChecking AccountKind = "checking"
	AccountSavings  AccountKind = "savings"
	AccountCredit   AccountKind = "credit"
	AccountCash     AccountKind = "cash"
)

// ParseAccountKind parses and validates an account kind string.
func ParseAccountKind(s string) (AccountKind, error) {
	switch AccountKind(s) {
	case AccountChecking, AccountSavings, AccountCredit, AccountCash:
		return AccountKind(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidAccountKind, s)
	}
}

// Account is a ledger account. Its balance is never stored: it is
// always derived from the transaction history by the reconciliation
// engine, so it cannot drift from the committed state.
type Account struct {
	ID        string
	Name      string
	Kind      AccountKind
	Currency  string
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// Deleted reports whether the account has been soft-deleted.
func (a *Account) Deleted() bool {
	return a.DeletedAt != nil
}
