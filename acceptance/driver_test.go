package acceptance

import (
	"encoding/json"
	"net/http"
	"testing"
)

func TestAvailableDrivers_ExcludesBusy(t *testing.T) {
	ts := NewTestServer(t)
	defer ts.Close()

	free := ts.CreateTestDriver(t, "Free Driver", true)
	ts.CreateTestDriver(t, "Busy Driver", false)

	w := ts.GET("/drivers/available", map[string]string{"X-User-ID": "rider-1"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	var drivers []struct {
		ID        string `json:"id"`
		Available bool   `json:"available"`
	}
	json.Unmarshal(w.Body.Bytes(), &drivers)

	if len(drivers) != 1 {
		t.Fatalf("expected 1 available driver, got %d", len(drivers))
	}
	if drivers[0].ID != free.String() {
		t.Errorf("expected driver %s, got %s", free, drivers[0].ID)
	}
}

func TestCreateDriver(t *testing.T) {
	ts := NewTestServer(t)
	defer ts.Close()

	w := ts.POST("/drivers", map[string]any{
		"name":         "New Driver",
		"vehicleClass": "xl",
		"location":     map[string]float64{"lat": 53.35, "lng": -6.26},
	}, map[string]string{"X-User-ID": "ops-1"})

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, w.Code, w.Body.String())
	}

	var resp struct {
		Name         string `json:"name"`
		VehicleClass string `json:"vehicleClass"`
		Available    bool   `json:"available"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)

	if resp.VehicleClass != "xl" {
		t.Errorf("vehicleClass = %s, want xl", resp.VehicleClass)
	}
	if !resp.Available {
		t.Error("new driver should start available")
	}
}

func TestGetDriver_NotFound(t *testing.T) {
	ts := NewTestServer(t)
	defer ts.Close()

	w := ts.GET("/drivers/00000000-0000-0000-0000-000000000000", map[string]string{"X-User-ID": "rider-1"})
	if w.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d: %s", http.StatusNotFound, w.Code, w.Body.String())
	}
}
