package usecase

import "time"

const (
	// DefaultLockTimeout bounds how long a mutation waits for its
	// account locks before failing with domain.ErrBusy.
	DefaultLockTimeout = 3 * time.Second

	// BalanceCacheTTL is how long a derived balance may be served from
	// cache. Every mutation invalidates the touched accounts anyway;
	// the TTL is a backstop.
	BalanceCacheTTL = 5 * time.Minute

	// IdempotencyKeyTTL is how long idempotency keys are cached.
	IdempotencyKeyTTL = 24 * time.Hour
)
