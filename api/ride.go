package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/invoice"

	"github.com/semanticallynull/ridehail-backend/dispatch"
	"github.com/semanticallynull/ridehail-backend/internal/middleware"
	"github.com/semanticallynull/ridehail-backend/ride"
	"github.com/semanticallynull/ridehail-backend/rider"
)

type geoPoint struct {
	Lat float64 `json:"lat" binding:"required"`
	Lng float64 `json:"lng" binding:"required"`
}

func (g geoPoint) point() pgtype.Point {
	return pgtype.Point{P: pgtype.Vec2{X: g.Lng, Y: g.Lat}, Valid: true}
}

type rideResponse struct {
	ID                 uuid.UUID   `json:"id"`
	RiderID            uuid.UUID   `json:"riderId"`
	DriverID           *uuid.UUID  `json:"driverId,omitempty"`
	Status             ride.Status `json:"status"`
	Pickup             geoPoint    `json:"pickup"`
	Dropoff            geoPoint    `json:"dropoff"`
	EstimatedFareCents int32       `json:"estimatedFareCents"`
	FareCents          *int32      `json:"fareCents,omitempty"`
	RequestedAt        time.Time   `json:"requestedAt"`
	AcceptedAt         *time.Time  `json:"acceptedAt,omitempty"`
	CompletedAt        *time.Time  `json:"completedAt,omitempty"`
}

func toRideResponse(r ride.Ride) rideResponse {
	resp := rideResponse{
		ID:                 r.ID,
		RiderID:            r.RiderID,
		DriverID:           r.DriverID,
		Status:             r.Status,
		Pickup:             geoPoint{Lat: r.Pickup.P.Y, Lng: r.Pickup.P.X},
		Dropoff:            geoPoint{Lat: r.Dropoff.P.Y, Lng: r.Dropoff.P.X},
		EstimatedFareCents: r.EstimatedFareCents,
		RequestedAt:        r.RequestedAt,
	}
	if r.FareCents.Valid {
		resp.FareCents = &r.FareCents.Int32
	}
	if r.AcceptedAt.Valid {
		t := r.AcceptedAt.Time
		resp.AcceptedAt = &t
	}
	if r.CompletedAt.Valid {
		t := r.CompletedAt.Time
		resp.CompletedAt = &t
	}
	return resp
}

type requestRideRequest struct {
	Pickup  geoPoint `json:"pickup" binding:"required"`
	Dropoff geoPoint `json:"dropoff" binding:"required"`
}

func (a *API) requestRideHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	var req requestRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": err.Error()})
		return
	}

	rd, ok := a.currentRider(c)
	if !ok {
		return
	}

	estimate := a.fares.Estimate(req.Pickup.point(), req.Dropoff.point())

	r, err := a.rr.Request(c, rd.ID, req.Pickup.point(), req.Dropoff.point(), estimate)
	if err != nil {
		logger.ErrorContext(c, "failed to create ride", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusCreated, toRideResponse(r))
}

func (a *API) getRideHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	rideID, err := uuid.Parse(c.Param("rideId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": "Invalid rideId"})
		return
	}

	r, err := a.rr.GetByID(c, rideID)
	if err != nil {
		if errors.Is(err, ride.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"code": "RIDE_NOT_FOUND", "message": "Ride not found"})
			return
		}
		logger.ErrorContext(c, "failed to get ride", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, toRideResponse(r))
}

// openRidesHandler lists rides still waiting for a driver, oldest first.
func (a *API) openRidesHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	rides, err := a.rr.GetByStatus(c, ride.StatusRequested, 50)
	if err != nil {
		logger.ErrorContext(c, "failed to list open rides", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	responses := make([]rideResponse, 0, len(rides))
	for _, r := range rides {
		responses = append(responses, toRideResponse(r))
	}
	c.JSON(http.StatusOK, responses)
}

func (a *API) currentRideHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	rd, ok := a.currentRider(c)
	if !ok {
		return
	}

	r, err := a.rr.CurrentByRiderID(c, rd.ID)
	if err != nil {
		if errors.Is(err, ride.ErrNoActiveRide) {
			c.JSON(http.StatusOK, gin.H{"inProgress": false})
			return
		}
		logger.ErrorContext(c, "failed to get current ride", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"inProgress": true, "ride": toRideResponse(r)})
}

type acceptRideRequest struct {
	DriverID string `json:"driverId" binding:"required"`
}

func (a *API) acceptRideHandler(c *gin.Context) {
	rideID, err := uuid.Parse(c.Param("rideId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": "Invalid rideId"})
		return
	}

	var req acceptRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": err.Error()})
		return
	}
	driverID, err := uuid.Parse(req.DriverID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": "Invalid driverId"})
		return
	}

	r, err := a.arb.AttemptAccept(c, rideID, driverID)
	if err != nil {
		a.acceptError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"accepted": true, "ride": toRideResponse(r)})
}

// acceptError maps arbitration outcomes to stable response codes. The
// transient lock conflict keeps its own code so callers know it is safe
// to retry; losing on state is not.
func (a *API) acceptError(c *gin.Context, err error) {
	logger := middleware.GetLogger(c)

	switch {
	case errors.Is(err, dispatch.ErrRideNotFound):
		c.JSON(http.StatusNotFound, gin.H{"code": "RIDE_NOT_FOUND", "message": "Ride not found"})
	case errors.Is(err, dispatch.ErrDriverNotFound):
		c.JSON(http.StatusNotFound, gin.H{"code": "DRIVER_NOT_FOUND", "message": "Driver not found"})
	case errors.Is(err, dispatch.ErrRideNotAvailable):
		c.JSON(http.StatusConflict, gin.H{"code": "RIDE_NOT_AVAILABLE", "message": "Ride already taken"})
	case errors.Is(err, dispatch.ErrDriverNotAvailable):
		c.JSON(http.StatusConflict, gin.H{"code": "DRIVER_NOT_AVAILABLE", "message": "Driver is busy"})
	case dispatch.Retriable(err):
		c.JSON(http.StatusConflict, gin.H{"code": "RIDE_CONFLICT_RETRY", "message": "Ride is contended, retry"})
	default:
		logger.ErrorContext(c, "failed to accept ride", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func (a *API) completeRideHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	rideID, err := uuid.Parse(c.Param("rideId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": "Invalid rideId"})
		return
	}

	r, err := a.arb.Complete(c, rideID)
	if err != nil {
		switch {
		case errors.Is(err, dispatch.ErrRideNotFound):
			c.JSON(http.StatusNotFound, gin.H{"code": "RIDE_NOT_FOUND", "message": "Ride not found"})
		case errors.Is(err, dispatch.ErrRideNotInProgress):
			c.JSON(http.StatusConflict, gin.H{"code": "RIDE_NOT_IN_PROGRESS", "message": "Ride is not in progress"})
		default:
			logger.ErrorContext(c, "failed to complete ride", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		}
		return
	}

	go a.settleRide(logger, r)

	c.JSON(http.StatusOK, gin.H{"completed": true, "ride": toRideResponse(r)})
}

// settleRide invoices the rider for the final fare. Settlement is a
// collaborator of the lifecycle, never part of the completion transaction.
func (a *API) settleRide(logger *slog.Logger, r ride.Ride) {
	ctx := context.Background()

	rd, err := a.rdr.GetRider(ctx, r.RiderID)
	if err != nil || !rd.StripeID.Valid {
		return
	}

	inParams := &stripe.InvoiceParams{
		Customer: stripe.String(rd.StripeID.String),
	}
	in, err := invoice.New(inParams)
	if err != nil {
		logger.Error("Failed to create invoice", "error", err)
		return
	}

	minutes := int32(0)
	if r.AcceptedAt.Valid && r.CompletedAt.Valid {
		minutes = int32(r.CompletedAt.Time.Sub(r.AcceptedAt.Time).Minutes())
	}

	ilParams := &stripe.InvoiceAddLinesParams{
		Lines: []*stripe.InvoiceAddLinesLineParams{
			{
				Amount:      stripe.Int64(int64(r.FareCents.Int32)),
				Description: stripe.String(fmt.Sprintf("Ride - %d minutes", minutes)),
			},
		},
	}
	if _, err = invoice.AddLines(in.ID, ilParams); err != nil {
		logger.Error("Failed to add lines to invoice", "error", err)
		return
	}

	if _, err = invoice.FinalizeInvoice(in.ID, &stripe.InvoiceFinalizeInvoiceParams{}); err != nil {
		logger.Error("Failed to finalize invoice", "error", err)
		return
	}
	if _, err = invoice.Pay(in.ID, nil); err != nil {
		logger.Error("Failed to pay invoice", "error", err)
	}
}

// currentRider resolves the authenticated subject to a rider row,
// creating one on first contact.
func (a *API) currentRider(c *gin.Context) (*rider.Rider, bool) {
	logger := middleware.GetLogger(c)

	userID, ok := middleware.GetAuth0ID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"code": "UNAUTHORIZED", "message": "Authentication required"})
		return nil, false
	}

	rd, err := a.rdr.GetRiderByAuth0ID(c, userID)
	if err != nil {
		if errors.Is(err, rider.ErrNotFound) {
			rd, err = a.rdr.CreateRider(c, userID)
			if err != nil {
				logger.ErrorContext(c, "failed to save rider", "error", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
				return nil, false
			}
			return rd, true
		}
		logger.ErrorContext(c, "failed to get rider", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return nil, false
	}
	return rd, true
}
