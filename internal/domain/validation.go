package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Validation errors
var (
	ErrInvalidName     = errors.New("invalid name")
	ErrInvalidCurrency = errors.New("invalid currency code")
)

// Validation constants
const (
	MaxNameLength = 255
	MinNameLength = 1
)

// Valid currency codes (ISO 4217)
var validCurrencies = map[string]bool{
	"USD": true, "EUR": true, "GBP": true, "JPY": true,
	"CNY": true, "AUD": true, "CAD": true, "CHF": true,
	"SEK": true, "NZD": true, "KRW": true, "SGD": true,
	"NOK": true, "MXN": true, "INR": true, "BRL": true,
	"PLN": true, "BHD": true, "KWD": true, "HKD": true,
}

// ValidateName validates an account or category name.
func ValidateName(name string) error {
	name = strings.TrimSpace(name)

	if len(name) < MinNameLength {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidName)
	}

	if len(name) > MaxNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidName, MaxNameLength)
	}

	return nil
}

// ValidateCurrency validates a currency code.
func ValidateCurrency(currency string) error {
	currency = strings.ToUpper(strings.TrimSpace(currency))

	if !validCurrencies[currency] {
		return fmt.Errorf("%w: %s is not a valid ISO 4217 currency code", ErrInvalidCurrency, currency)
	}

	return nil
}

// ValidatePagination validates and limits pagination parameters.
func ValidatePagination(limit, offset int) (int, int) {
	const MaxPageSize = 1000
	const DefaultPageSize = 50

	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset
}

// Validator is the gatekeeper for every write. It is purely functional:
// callers fetch the referenced state, the validator checks it against
// the prospective change and never mutates anything. Checks run in a
// fixed order and short-circuit on the first failure.
type Validator struct {
	// RejectZeroAmount rejects transactions whose total is zero.
	RejectZeroAmount bool
}

// CheckTransaction validates a prospective transaction against the
// fetched account and the categories referenced by its splits.
func (v Validator) CheckTransaction(account *Account, categories map[string]*Category, txn *Transaction) error {
	if account == nil || account.Deleted() {
		return ErrUnknownAccount
	}

	for _, s := range txn.Splits {
		if s.CategoryID == "" {
			continue
		}

		if categories[s.CategoryID] == nil {
			return fmt.Errorf("%w: %s", ErrUnknownCategory, s.CategoryID)
		}
	}

	if txn.Total.Currency != account.Currency {
		return ErrCurrencyMismatch
	}

	if err := txn.ValidateSplits(); err != nil {
		return err
	}

	if v.RejectZeroAmount && txn.Total.IsZero() {
		return ErrZeroAmount
	}

	return nil
}

// CheckTransfer validates a prospective transfer against the two
// fetched accounts.
func (v Validator) CheckTransfer(from, to *Account, amount Money) error {
	if from == nil || from.Deleted() || to == nil || to.Deleted() {
		return ErrUnknownAccount
	}

	if from.ID == to.ID {
		return ErrSameAccount
	}

	if from.Currency != to.Currency || amount.Currency != from.Currency {
		return ErrCurrencyMismatch
	}

	if !amount.IsPositive() {
		return ErrInvalidAmount
	}

	return nil
}

// CheckTransferLegs verifies that two transactions form a balanced
// transfer pair: distinct accounts and exactly negated totals.
func (v Validator) CheckTransferLegs(out, in *Transaction) error {
	if out.AccountID == in.AccountID {
		return ErrSameAccount
	}

	if !out.Total.Equal(in.Total.Neg()) {
		return ErrTransferImbalance
	}

	return nil
}
