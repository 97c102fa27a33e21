package ride

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jmoiron/sqlx"
)

var (
	ErrNotFound     = errors.New("ride not found")
	ErrNoActiveRide = errors.New("no active ride")
)

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// Request creates a ride in REQUESTED state. Everything after creation is
// owned by the dispatch package.
func (r *Repository) Request(ctx context.Context, riderID uuid.UUID, pickup, dropoff pgtype.Point, estimatedFareCents int32) (Ride, error) {
	var ride Ride
	err := r.db.GetContext(ctx, &ride, requestRideQuery,
		uuid.New(), riderID, StatusRequested, pickup, dropoff, estimatedFareCents)
	return ride, err
}

const requestRideQuery = `
INSERT INTO rides (id, rider_id, status, pickup, dropoff, estimated_fare_cents, requested_at)
VALUES ($1, $2, $3, $4, $5, $6, now())
RETURNING *
`

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Ride, error) {
	var ride Ride
	err := r.db.GetContext(ctx, &ride, getRideQuery, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Ride{}, ErrNotFound
	}
	return ride, err
}

const getRideQuery = `SELECT * FROM rides WHERE id = $1`

// CurrentByRiderID returns the rider's ride that has not yet completed.
func (r *Repository) CurrentByRiderID(ctx context.Context, riderID uuid.UUID) (Ride, error) {
	var ride Ride
	err := r.db.GetContext(ctx, &ride, currentRideQuery, riderID, StatusCompleted)
	if errors.Is(err, sql.ErrNoRows) {
		return Ride{}, ErrNoActiveRide
	}
	return ride, err
}

const currentRideQuery = `
SELECT * FROM rides
WHERE rider_id = $1 AND status != $2
ORDER BY requested_at DESC
LIMIT 1
`

// GetByStatus lists rides in a given status, oldest first.
func (r *Repository) GetByStatus(ctx context.Context, status Status, limit int) ([]Ride, error) {
	var rides []Ride
	err := r.db.SelectContext(ctx, &rides, getByStatusQuery, status, limit)
	return rides, err
}

const getByStatusQuery = `SELECT * FROM rides WHERE status = $1 ORDER BY requested_at ASC LIMIT $2`
