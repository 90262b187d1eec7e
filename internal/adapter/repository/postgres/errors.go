package postgres

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/iho/fintrack/internal/domain"
)

// PostgreSQL error codes this adapter cares about.
const (
	pgErrUniqueViolation      = "23505"
	pgErrForeignKeyViolation  = "23503"
	pgErrDeadlock             = "40P01"
	pgErrSerializationFailure = "40001"
)

// mapError translates low-level pgx failures into the domain's error
// taxonomy. Connection-level failures become ErrStoreUnavailable so
// callers can distinguish "the store is down" from "your data is bad".
func mapError(err error) error {
	if err == nil {
		return nil
	}

	if isUnavailable(err) {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}

	if isTransientConflict(err) {
		return fmt.Errorf("%w: %v", domain.ErrBusy, err)
	}

	return err
}

// Deadlocks and serialization failures mean another writer won the
// race; the client can simply try again.
func isTransientConflict(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}

	return pgErr.Code == pgErrDeadlock || pgErr.Code == pgErrSerializationFailure
}

func isUnavailable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var connectErr *pgconn.ConnectError
	return errors.As(err, &connectErr)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation
}

// isForeignKeyViolation reports whether err is a 23503 on the named
// constraint. An empty constraint matches any foreign key. The domain
// meaning of a violation depends on the statement that tripped it, so
// callers map it at the call site.
func isForeignKeyViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgErrForeignKeyViolation {
		return false
	}

	return constraint == "" || pgErr.ConstraintName == constraint
}
