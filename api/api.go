package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/semanticallynull/ridehail-backend/dispatch"
	"github.com/semanticallynull/ridehail-backend/driver"
	"github.com/semanticallynull/ridehail-backend/fare"
	"github.com/semanticallynull/ridehail-backend/internal/auth0"
	"github.com/semanticallynull/ridehail-backend/internal/middleware"
	"github.com/semanticallynull/ridehail-backend/internal/o11y"
	"github.com/semanticallynull/ridehail-backend/ride"
	"github.com/semanticallynull/ridehail-backend/rider"
)

type Config struct {
	Auth0Domain     string
	Audience        string
	MetricsUsername string
	MetricsPassword string

	// AuthOverride replaces the auth0 JWT middleware when set. Tests use
	// this to authenticate without a token issuer.
	AuthOverride gin.HandlerFunc
}

type API struct {
	r     *gin.Engine
	rr    *ride.Repository
	dr    *driver.Repository
	rdr   *rider.Repository
	arb   *dispatch.Arbiter
	fares *fare.Calculator
	auth0 auth0.Client
}

func New(obs *o11y.Observability, rr *ride.Repository, dr *driver.Repository, rdr *rider.Repository,
	arb *dispatch.Arbiter, fares *fare.Calculator, auth0Client auth0.Client, cfg Config) (*API, error) {
	a := &API{
		r:     gin.New(),
		rr:    rr,
		dr:    dr,
		rdr:   rdr,
		arb:   arb,
		fares: fares,
		auth0: auth0Client,
	}

	a.r.Use(gin.Recovery())
	a.r.Use(middleware.Tracing())
	a.r.Use(middleware.Logging(obs.Logger))
	a.r.Use(middleware.Metrics(obs.Registry))

	a.r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	if cfg.MetricsUsername != "" {
		metrics := a.r.Group("/metrics", gin.BasicAuth(gin.Accounts{
			cfg.MetricsUsername: cfg.MetricsPassword,
		}))
		metrics.GET("", gin.WrapH(promhttp.HandlerFor(obs.Registry, promhttp.HandlerOpts{})))
	}

	auth := cfg.AuthOverride
	if auth == nil {
		jwt, err := middleware.JWT(cfg.Auth0Domain, cfg.Audience)
		if err != nil {
			return nil, err
		}
		auth = jwt
	}

	protected := a.r.Group("/", auth)
	{
		protected.POST("/rides", a.requestRideHandler)
		protected.GET("/rides/open", a.openRidesHandler)
		protected.GET("/rides/current", a.currentRideHandler)
		protected.GET("/rides/:rideId", a.getRideHandler)
		protected.POST("/rides/:rideId/accept", a.acceptRideHandler)
		protected.POST("/rides/:rideId/complete", a.completeRideHandler)

		protected.GET("/drivers/available", a.availableDriversHandler)
		protected.GET("/drivers/:driverId", a.getDriverHandler)
		protected.POST("/drivers", a.createDriverHandler)
		protected.POST("/drivers/:driverId/location", a.updateDriverLocationHandler)

		protected.POST("/riders/session", a.createRiderSessionHandler)
		protected.POST("/riders/profile-sync", a.syncProfileHandler)
	}

	return a, nil
}

func (a *API) Router() *gin.Engine {
	return a.r
}
