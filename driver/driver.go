// Package driver holds the driver availability registry.
package driver

import (
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type VehicleClass int

const (
	Standard VehicleClass = iota
	XL
	Premium
)

// Driver represents a driver who can be assigned to rides.
type Driver struct {
	ID uuid.UUID
	// Name is the display name shown to riders after a match.
	Name string

	Class VehicleClass `db:"vehicle_class"`

	// Location is the last position reported by the driver's app. It is
	// informational only; dispatch never matches on it.
	Location pgtype.Point

	// Available is the busy/free flag. It flips false exactly when the
	// driver wins an arbitration and true when that ride completes.
	Available bool `db:"is_available"`
}

func (v VehicleClass) String() string {
	return [...]string{"standard", "xl", "premium"}[v]
}

func (v VehicleClass) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.String())
}

func (v *VehicleClass) Scan(i any) error {
	switch s := i.(type) {
	case string:
		switch s {
		case "standard":
			*v = Standard
			return nil
		case "xl":
			*v = XL
			return nil
		case "premium":
			*v = Premium
			return nil
		}
	}
	panic("invalid scan type")
}
