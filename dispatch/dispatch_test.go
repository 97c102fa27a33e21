package dispatch

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

func TestClassifyLockNotAvailable(t *testing.T) {
	err := classify(&pgconn.PgError{Code: "55P03"})
	require.ErrorIs(t, err, ErrLockConflict)
}

func TestClassifySerializationFailure(t *testing.T) {
	err := classify(fmt.Errorf("exec: %w", &pgconn.PgError{Code: "40001"}))
	require.ErrorIs(t, err, ErrLockConflict)
}

func TestClassifyPassesThroughOtherErrors(t *testing.T) {
	boom := errors.New("boom")
	require.ErrorIs(t, classify(boom), boom)

	pgErr := &pgconn.PgError{Code: "23505"}
	require.ErrorIs(t, classify(pgErr), pgErr)
}

func TestRetriable(t *testing.T) {
	require.True(t, Retriable(ErrLockConflict))
	require.True(t, Retriable(fmt.Errorf("accept: %w", ErrLockConflict)))

	require.False(t, Retriable(ErrRideNotAvailable))
	require.False(t, Retriable(ErrDriverNotAvailable))
	require.False(t, Retriable(nil))
}

func TestAcceptOutcomeLabels(t *testing.T) {
	cases := map[string]error{
		"accepted":             nil,
		"ride_not_found":       ErrRideNotFound,
		"ride_not_available":   ErrRideNotAvailable,
		"driver_not_found":     ErrDriverNotFound,
		"driver_not_available": ErrDriverNotAvailable,
		"lock_conflict":        ErrLockConflict,
		"internal":             errors.New("boom"),
	}
	for want, err := range cases {
		require.Equal(t, want, acceptOutcome(err))
	}
}
