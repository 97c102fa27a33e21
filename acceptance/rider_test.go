package acceptance

import (
	"database/sql"
	"net/http"
	"testing"

	"github.com/semanticallynull/ridehail-backend/internal/auth0"
)

func TestSyncProfile_CopiesUserInfo(t *testing.T) {
	ts := NewTestServer(t)
	defer ts.Close()

	ts.CreateTestRider(t, "rider-1")
	ts.Auth0.AddUser("token-1", &auth0.UserInfo{
		Sub:   "rider-1",
		Email: "ada@example.com",
		Name:  "Ada",
	})

	w := ts.POST("/riders/profile-sync", nil, map[string]string{
		"X-User-ID":     "rider-1",
		"Authorization": "Bearer token-1",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	var row struct {
		Email sql.NullString `db:"email"`
		Name  sql.NullString `db:"name"`
	}
	if err := ts.DB.Get(&row, `SELECT email, name FROM riders WHERE auth0_id = $1`, "rider-1"); err != nil {
		t.Fatalf("failed to read rider: %v", err)
	}
	if row.Email.String != "ada@example.com" {
		t.Errorf("email = %q, want ada@example.com", row.Email.String)
	}
	if row.Name.String != "Ada" {
		t.Errorf("name = %q, want Ada", row.Name.String)
	}
}

func TestSyncProfile_BadToken(t *testing.T) {
	ts := NewTestServer(t)
	defer ts.Close()

	ts.CreateTestRider(t, "rider-1")

	w := ts.POST("/riders/profile-sync", nil, map[string]string{
		"X-User-ID":     "rider-1",
		"Authorization": "Bearer nope",
	})
	if w.Code != http.StatusBadGateway {
		t.Errorf("expected status %d, got %d: %s", http.StatusBadGateway, w.Code, w.Body.String())
	}
}
