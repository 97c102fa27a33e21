package dispatch

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel"

	"github.com/semanticallynull/ridehail-backend/fare"
	"github.com/semanticallynull/ridehail-backend/ride"
)

// Arbiter serializes competing accept attempts against the rides and
// drivers tables. It holds no state between calls; every decision is
// re-read inside its own transaction.
type Arbiter struct {
	db    *sqlx.DB
	fares *fare.Calculator
}

func NewArbiter(db *sqlx.DB, fares *fare.Calculator) *Arbiter {
	return &Arbiter{db: db, fares: fares}
}

// AttemptAccept tries to assign driverID to rideID. At most one concurrent
// attempt per ride can succeed.
//
// Both the ride row and the driver row are locked with FOR UPDATE NOWAIT,
// under serializable isolation, for the whole check-then-act sequence. A
// contending attempt does not queue behind the holder: it fails immediately
// with ErrLockConflict. An attempt that acquires the locks after the winner
// committed observes status != REQUESTED and fails with ErrRideNotAvailable.
func (a *Arbiter) AttemptAccept(ctx context.Context, rideID, driverID uuid.UUID) (ride.Ride, error) {
	ctx, span := otel.Tracer("dispatch").Start(ctx, "AttemptAccept")
	defer span.End()

	start := time.Now()
	r, err := a.attemptAccept(ctx, rideID, driverID)
	observeAccept(err, time.Since(start))
	return r, err
}

func (a *Arbiter) attemptAccept(ctx context.Context, rideID, driverID uuid.UUID) (ride.Ride, error) {
	tx, err := a.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return ride.Ride{}, fmt.Errorf("begin accept tx: %w", err)
	}
	defer tx.Rollback()

	var r ride.Ride
	err = tx.GetContext(ctx, &r, lockRideQuery, rideID)
	if errors.Is(err, sql.ErrNoRows) {
		return ride.Ride{}, ErrRideNotFound
	}
	if err != nil {
		return ride.Ride{}, classify(err)
	}
	if r.Status != ride.StatusRequested {
		return ride.Ride{}, ErrRideNotAvailable
	}

	var available bool
	err = tx.GetContext(ctx, &available, lockDriverQuery, driverID)
	if errors.Is(err, sql.ErrNoRows) {
		return ride.Ride{}, ErrDriverNotFound
	}
	if err != nil {
		return ride.Ride{}, classify(err)
	}
	if !available {
		return ride.Ride{}, ErrDriverNotAvailable
	}

	err = tx.GetContext(ctx, &r, acceptRideQuery, driverID, rideID)
	if err != nil {
		return ride.Ride{}, classify(err)
	}
	if _, err = tx.ExecContext(ctx, markDriverBusyQuery, driverID); err != nil {
		return ride.Ride{}, classify(err)
	}

	if err = insertRideEvent(ctx, tx, rideID, "RIDE_ACCEPTED", map[string]string{
		"driver_id": driverID.String(),
	}); err != nil {
		return ride.Ride{}, err
	}

	if err = tx.Commit(); err != nil {
		return ride.Ride{}, classify(err)
	}
	return r, nil
}

const lockRideQuery = `SELECT * FROM rides WHERE id = $1 FOR UPDATE NOWAIT`

const lockDriverQuery = `SELECT is_available FROM drivers WHERE id = $1 FOR UPDATE NOWAIT`

const acceptRideQuery = `
UPDATE rides
SET status = 'ACCEPTED', driver_id = $1, accepted_at = now()
WHERE id = $2
RETURNING *
`

const markDriverBusyQuery = `UPDATE drivers SET is_available = false WHERE id = $1`

// Complete transitions an ACCEPTED ride to COMPLETED, records the final
// fare and frees the assigned driver, all in one transaction. Completion
// has no arbitration race, so the ride lock here is a plain blocking
// FOR UPDATE.
func (a *Arbiter) Complete(ctx context.Context, rideID uuid.UUID) (ride.Ride, error) {
	ctx, span := otel.Tracer("dispatch").Start(ctx, "Complete")
	defer span.End()

	tx, err := a.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return ride.Ride{}, fmt.Errorf("begin complete tx: %w", err)
	}
	defer tx.Rollback()

	var r ride.Ride
	err = tx.GetContext(ctx, &r, lockRideForCompleteQuery, rideID)
	if errors.Is(err, sql.ErrNoRows) {
		return ride.Ride{}, ErrRideNotFound
	}
	if err != nil {
		return ride.Ride{}, classify(err)
	}
	if r.Status != ride.StatusAccepted {
		return ride.Ride{}, ErrRideNotInProgress
	}

	now := time.Now().UTC()
	fareCents := a.fares.Final(r, now)

	err = tx.GetContext(ctx, &r, completeRideQuery, fareCents, rideID)
	if err != nil {
		return ride.Ride{}, classify(err)
	}
	if _, err = tx.ExecContext(ctx, markDriverFreeQuery, r.DriverID); err != nil {
		return ride.Ride{}, classify(err)
	}

	if err = insertRideEvent(ctx, tx, rideID, "RIDE_COMPLETED", map[string]string{
		"driver_id":  r.DriverID.String(),
		"fare_cents": fmt.Sprint(fareCents),
	}); err != nil {
		return ride.Ride{}, err
	}

	if err = tx.Commit(); err != nil {
		return ride.Ride{}, classify(err)
	}
	completesTotal.Inc()
	return r, nil
}

const lockRideForCompleteQuery = `SELECT * FROM rides WHERE id = $1 FOR UPDATE`

const completeRideQuery = `
UPDATE rides
SET status = 'COMPLETED', completed_at = now(), fare_cents = $1
WHERE id = $2
RETURNING *
`

const markDriverFreeQuery = `UPDATE drivers SET is_available = true WHERE id = $1`

// Reset is the administrative reset used by the race harness and test
// fixtures: every open ride is forced to COMPLETED with no driver, and
// every driver becomes available again.
func (a *Arbiter) Reset(ctx context.Context) error {
	tx, err := a.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err = tx.ExecContext(ctx, resetRidesQuery); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, resetDriversQuery); err != nil {
		return err
	}
	return tx.Commit()
}

const resetRidesQuery = `
UPDATE rides
SET status = 'COMPLETED', driver_id = NULL, completed_at = COALESCE(completed_at, now())
WHERE status IN ('REQUESTED', 'ACCEPTED')
`

const resetDriversQuery = `UPDATE drivers SET is_available = true`

func insertRideEvent(ctx context.Context, tx *sqlx.Tx, rideID uuid.UUID, eventType string, data map[string]string) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal ride event: %w", err)
	}
	if _, err = tx.ExecContext(ctx, insertRideEventQuery, rideID, eventType, payload); err != nil {
		return fmt.Errorf("insert ride event: %w", err)
	}
	return nil
}

const insertRideEventQuery = `
INSERT INTO ride_events (ride_id, event_type, event_data, created_at)
VALUES ($1, $2, $3, now())
`
