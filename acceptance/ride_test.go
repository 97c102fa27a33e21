package acceptance

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/semanticallynull/ridehail-backend/ride"
)

func requestBody() map[string]any {
	return map[string]any{
		"pickup":  map[string]float64{"lat": 53.3498, "lng": -6.2603},
		"dropoff": map[string]float64{"lat": 53.3331, "lng": -6.2499},
	}
}

func TestRequestRide_CreatesRequestedRide(t *testing.T) {
	ts := NewTestServer(t)
	defer ts.Close()

	w := ts.POST("/rides", requestBody(), map[string]string{"X-User-ID": "rider-1"})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, w.Code, w.Body.String())
	}

	var resp struct {
		ID                 string  `json:"id"`
		Status             string  `json:"status"`
		EstimatedFareCents int32   `json:"estimatedFareCents"`
		DriverID           *string `json:"driverId"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)

	if resp.Status != string(ride.StatusRequested) {
		t.Errorf("status = %s, want REQUESTED", resp.Status)
	}
	if resp.EstimatedFareCents <= 0 {
		t.Errorf("estimate = %d, want > 0", resp.EstimatedFareCents)
	}
	if resp.DriverID != nil {
		t.Errorf("new ride has driver %v", *resp.DriverID)
	}
}

func TestRequestRide_RejectsMissingCoordinates(t *testing.T) {
	ts := NewTestServer(t)
	defer ts.Close()

	w := ts.POST("/rides", map[string]any{
		"pickup": map[string]float64{"lat": 53.3498, "lng": -6.2603},
	}, map[string]string{"X-User-ID": "rider-1"})

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d: %s", http.StatusBadRequest, w.Code, w.Body.String())
	}
}

func TestRequestRide_Returns401WithoutAuth(t *testing.T) {
	ts := NewTestServer(t)
	defer ts.Close()

	w := ts.POST("/rides", requestBody(), nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, w.Code)
	}
}

func TestGetRide_NotFound(t *testing.T) {
	ts := NewTestServer(t)
	defer ts.Close()

	w := ts.GET("/rides/00000000-0000-0000-0000-000000000000", map[string]string{"X-User-ID": "rider-1"})
	if w.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d: %s", http.StatusNotFound, w.Code, w.Body.String())
	}
}

func TestOpenRides_ListsOnlyRequested(t *testing.T) {
	ts := NewTestServer(t)
	defer ts.Close()

	riderID := ts.CreateTestRider(t, "rider-1")
	driverID := ts.CreateTestDriver(t, "Driver 1", false)
	open := ts.CreateTestRide(t, riderID, ride.StatusRequested, nil)
	ts.CreateTestRide(t, riderID, ride.StatusAccepted, &driverID)

	w := ts.GET("/rides/open", map[string]string{"X-User-ID": "driver-app"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	var rides []struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	json.Unmarshal(w.Body.Bytes(), &rides)

	if len(rides) != 1 {
		t.Fatalf("expected 1 open ride, got %d", len(rides))
	}
	if rides[0].ID != open.String() {
		t.Errorf("expected ride %s, got %s", open, rides[0].ID)
	}
}

func TestCurrentRide_TracksLifecycle(t *testing.T) {
	ts := NewTestServer(t)
	defer ts.Close()

	w := ts.GET("/rides/current", map[string]string{"X-User-ID": "rider-1"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}
	var resp struct {
		InProgress bool `json:"inProgress"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.InProgress {
		t.Error("fresh rider should have no ride in progress")
	}

	w = ts.POST("/rides", requestBody(), map[string]string{"X-User-ID": "rider-1"})
	if w.Code != http.StatusCreated {
		t.Fatalf("request: expected status %d, got %d: %s", http.StatusCreated, w.Code, w.Body.String())
	}

	w = ts.GET("/rides/current", map[string]string{"X-User-ID": "rider-1"})
	json.Unmarshal(w.Body.Bytes(), &resp)
	if !resp.InProgress {
		t.Error("requested ride should show as in progress")
	}
}
