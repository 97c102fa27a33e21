package driver

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jmoiron/sqlx"
)

var ErrNotFound = errors.New("driver not found")

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) GetDriver(ctx context.Context, id uuid.UUID) (Driver, error) {
	var d Driver
	err := r.db.GetContext(ctx, &d, getDriverQuery, id)
	if errors.Is(err, sql.ErrNoRows) {
		return d, ErrNotFound
	}
	return d, err
}

const getDriverQuery = `SELECT * FROM drivers WHERE id = $1`

// GetAvailableDrivers lists drivers currently free to accept a ride.
func (r *Repository) GetAvailableDrivers(ctx context.Context) ([]Driver, error) {
	var drivers []Driver
	err := r.db.SelectContext(ctx, &drivers, getAvailableDriversQuery)
	return drivers, err
}

const getAvailableDriversQuery = `SELECT * FROM drivers WHERE is_available ORDER BY name`

func (r *Repository) CreateDriver(ctx context.Context, name string, class VehicleClass, location pgtype.Point) (Driver, error) {
	var d Driver
	err := r.db.GetContext(ctx, &d, createDriverQuery, uuid.New(), name, class.String(), location)
	return d, err
}

const createDriverQuery = `
INSERT INTO drivers (id, name, vehicle_class, location, is_available)
VALUES ($1, $2, $3, $4, true)
RETURNING *
`

// UpdateLocation stores the driver's last reported position.
func (r *Repository) UpdateLocation(ctx context.Context, id uuid.UUID, location pgtype.Point) error {
	_, err := r.db.ExecContext(ctx, updateLocationQuery, location, id)
	return err
}

const updateLocationQuery = `UPDATE drivers SET location = $1 WHERE id = $2`
