package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v84"
	stripecustomer "github.com/stripe/stripe-go/v84/customer"
	"github.com/stripe/stripe-go/v84/customersession"

	"github.com/semanticallynull/ridehail-backend/internal/middleware"
)

// createRiderSessionHandler hands the app a stripe customer session so the
// rider can manage payment methods. The stripe customer is created lazily.
func (a *API) createRiderSessionHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	rd, ok := a.currentRider(c)
	if !ok {
		return
	}

	userID, _ := middleware.GetAuth0ID(c)

	if !rd.StripeID.Valid {
		stripeCustomer, err := stripecustomer.New(&stripe.CustomerParams{
			Metadata: map[string]string{
				"auth0_id": userID,
				"id":       rd.ID.String(),
			},
		})
		if err != nil {
			logger.ErrorContext(c, "failed to create stripe customer", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		rd.StripeID.String = stripeCustomer.ID
		rd.StripeID.Valid = true

		if err = a.rdr.AddStripeIDToRider(c, userID, stripeCustomer.ID); err != nil {
			logger.ErrorContext(c, "failed to save stripe customer ID", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
	}

	csParams := &stripe.CustomerSessionParams{
		Customer: stripe.String(rd.StripeID.String),
	}
	csParams.AddExtra("components[customer_sheet][enabled]", "true")
	csParams.AddExtra("components[customer_sheet][features][payment_method_remove]", "enabled")
	cs, err := customersession.New(csParams)
	if err != nil {
		logger.ErrorContext(c, "failed to create customer session", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, struct {
		CustomerID   string `json:"customerId"`
		ClientSecret string `json:"clientSecret"`
	}{
		CustomerID:   rd.StripeID.String,
		ClientSecret: cs.ClientSecret,
	})
}

// syncProfileHandler copies the rider's auth0 profile (email, name) onto
// the rider row using the caller's own access token.
func (a *API) syncProfileHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	rd, ok := a.currentRider(c)
	if !ok {
		return
	}

	token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	info, err := a.auth0.GetUserInfo(c, token)
	if err != nil {
		logger.ErrorContext(c, "failed to fetch user info", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"code": "USERINFO_FAILED", "message": "Could not fetch profile"})
		return
	}

	if err := a.rdr.UpdateProfile(c, rd.Auth0ID, info.Email, info.Name); err != nil {
		logger.ErrorContext(c, "failed to update profile", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}
