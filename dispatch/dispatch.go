// Package dispatch arbitrates which driver is assigned to a ride when
// several drivers try to accept it at the same time.
package dispatch

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrRideNotFound       = errors.New("ride not found")
	ErrRideNotAvailable   = errors.New("ride not available")
	ErrRideNotInProgress  = errors.New("ride not in progress")
	ErrDriverNotFound     = errors.New("driver not found")
	ErrDriverNotAvailable = errors.New("driver not available")

	// ErrLockConflict means another attempt held the ride or driver row
	// when this one tried to lock it. Unlike the other errors it is
	// transient: the caller may retry with backoff.
	ErrLockConflict = errors.New("ride contended")
)

// Retriable reports whether an accept attempt failed only because of
// concurrent contention rather than a definitive state check.
func Retriable(err error) bool {
	return errors.Is(err, ErrLockConflict)
}

const (
	pgLockNotAvailable     = "55P03"
	pgSerializationFailure = "40001"
)

// classify maps Postgres lock and serialization failures to
// ErrLockConflict. Anything else propagates unchanged.
func classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgLockNotAvailable, pgSerializationFailure:
			return ErrLockConflict
		}
	}
	return err
}
