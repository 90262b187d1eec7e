package domain

import "errors"

var (
	// Lookup errors
	ErrUnknownAccount  = errors.New("unknown account")
	ErrUnknownCategory = errors.New("unknown category")
	ErrInvalidParent   = errors.New("parent category does not exist")
	ErrNotFound        = errors.New("not found")

	// Invariant violations
	ErrSplitMismatch     = errors.New("split amounts do not sum to transaction total")
	ErrTransferImbalance = errors.New("transfer legs do not balance")
	ErrCurrencyMismatch  = errors.New("currency mismatch")

	// Request errors
	ErrDuplicateName = errors.New("name already in use")
	ErrSameAccount   = errors.New("cannot transfer to same account")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrZeroAmount    = errors.New("zero-amount transaction not allowed")
	ErrAccountInUse  = errors.New("account has transactions")
	ErrCategoryInUse = errors.New("category is referenced by splits")
	ErrTransferLeg   = errors.New("transaction is part of a transfer")

	// Operational errors
	ErrBusy             = errors.New("account is locked by another operation")
	ErrStoreUnavailable = errors.New("ledger store unavailable")
)
