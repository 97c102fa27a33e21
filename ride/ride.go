// Package ride holds the durable ride ledger.
package ride

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type Status string

const (
	StatusRequested Status = "REQUESTED"
	StatusAccepted  Status = "ACCEPTED"
	StatusCompleted Status = "COMPLETED"
)

type Ride struct {
	ID      uuid.UUID
	RiderID uuid.UUID `db:"rider_id"`
	// DriverID is set exactly once, on the REQUESTED -> ACCEPTED transition.
	DriverID *uuid.UUID `db:"driver_id"`
	Status   Status

	Pickup  pgtype.Point
	Dropoff pgtype.Point

	EstimatedFareCents int32         `db:"estimated_fare_cents"`
	FareCents          sql.NullInt32 `db:"fare_cents"`

	RequestedAt time.Time    `db:"requested_at"`
	AcceptedAt  sql.NullTime `db:"accepted_at"`
	CompletedAt sql.NullTime `db:"completed_at"`
}
