// Package fare prices rides. It is deterministic bookkeeping on top of
// the ledger; dispatch invariants never depend on it.
package fare

import (
	"math"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/semanticallynull/ridehail-backend/ride"
)

const earthRadiusKm = 6371.0

// Calculator prices rides from fixed per-unit rates, all in cents.
type Calculator struct {
	BaseCents      int32
	PerKmCents     int32
	PerMinuteCents int32
}

func NewCalculator() *Calculator {
	return &Calculator{
		BaseCents:      250,
		PerKmCents:     120,
		PerMinuteCents: 15,
	}
}

// Estimate quotes a ride before it is requested, from distance alone.
func (c *Calculator) Estimate(pickup, dropoff pgtype.Point) int32 {
	km := distanceKm(pickup, dropoff)
	return c.BaseCents + int32(math.Round(km*float64(c.PerKmCents)))
}

// Final prices a completed ride: the original estimate plus time on trip,
// measured from acceptance to completion.
func (c *Calculator) Final(r ride.Ride, completedAt time.Time) int32 {
	cents := r.EstimatedFareCents
	if r.AcceptedAt.Valid {
		minutes := completedAt.Sub(r.AcceptedAt.Time).Minutes()
		if minutes > 0 {
			cents += int32(math.Round(minutes * float64(c.PerMinuteCents)))
		}
	}
	return cents
}

// distanceKm is the haversine great-circle distance between two points
// stored as (lng, lat).
func distanceKm(a, b pgtype.Point) float64 {
	lat1 := a.P.Y * math.Pi / 180
	lat2 := b.P.Y * math.Pi / 180
	dLat := (b.P.Y - a.P.Y) * math.Pi / 180
	dLng := (b.P.X - a.P.X) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}
