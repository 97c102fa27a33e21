package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/semanticallynull/ridehail-backend/driver"
	"github.com/semanticallynull/ridehail-backend/internal/middleware"
)

type driverResponse struct {
	ID        uuid.UUID           `json:"id"`
	Name      string              `json:"name"`
	Class     driver.VehicleClass `json:"vehicleClass"`
	Available bool                `json:"available"`
	Lat       float64             `json:"latitude"`
	Lng       float64             `json:"longitude"`
}

func toDriverResponse(d driver.Driver) driverResponse {
	return driverResponse{
		ID:        d.ID,
		Name:      d.Name,
		Class:     d.Class,
		Available: d.Available,
		Lat:       d.Location.P.Y,
		Lng:       d.Location.P.X,
	}
}

func (a *API) availableDriversHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	drivers, err := a.dr.GetAvailableDrivers(c)
	if err != nil {
		logger.ErrorContext(c, "failed to list available drivers", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	responses := make([]driverResponse, 0, len(drivers))
	for _, d := range drivers {
		responses = append(responses, toDriverResponse(d))
	}
	c.JSON(http.StatusOK, responses)
}

type createDriverRequest struct {
	Name         string   `json:"name" binding:"required"`
	VehicleClass string   `json:"vehicleClass"`
	Location     geoPoint `json:"location"`
}

func (a *API) createDriverHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	var req createDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": err.Error()})
		return
	}

	class := driver.Standard
	switch req.VehicleClass {
	case "", "standard":
	case "xl":
		class = driver.XL
	case "premium":
		class = driver.Premium
	default:
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": "Unknown vehicleClass"})
		return
	}

	d, err := a.dr.CreateDriver(c, req.Name, class, req.Location.point())
	if err != nil {
		logger.ErrorContext(c, "failed to create driver", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusCreated, toDriverResponse(d))
}

type updateLocationRequest struct {
	Location geoPoint `json:"location" binding:"required"`
}

func (a *API) updateDriverLocationHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	driverID, err := uuid.Parse(c.Param("driverId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": "Invalid driverId"})
		return
	}

	var req updateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": err.Error()})
		return
	}

	if err := a.dr.UpdateLocation(c, driverID, req.Location.point()); err != nil {
		logger.ErrorContext(c, "failed to update driver location", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (a *API) getDriverHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	driverID, err := uuid.Parse(c.Param("driverId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": "Invalid driverId"})
		return
	}

	d, err := a.dr.GetDriver(c, driverID)
	if err != nil {
		if errors.Is(err, driver.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"code": "DRIVER_NOT_FOUND", "message": "Driver not found"})
			return
		}
		logger.ErrorContext(c, "failed to get driver", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, toDriverResponse(d))
}
