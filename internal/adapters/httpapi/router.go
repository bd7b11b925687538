// Package httpapi exposes the venue workflow over a JSON HTTP API.
package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"venueflow/internal/core"
	"venueflow/pkg/domain"
)

// Authenticator resolves a login to a principal.
type Authenticator interface {
	Authenticate(account, password string) (domain.Principal, error)
}

// Tokens issues and verifies bearer tokens.
type Tokens interface {
	TokenParser
	Issue(p domain.Principal) (string, time.Time, error)
}

// Options wires the router dependencies. Registry is optional; without it
// /metrics is not mounted.
type Options struct {
	Service     *core.Service
	Accounts    Authenticator
	Tokens      Tokens
	Logger      zerolog.Logger
	Registry    *prometheus.Registry
	CORSOrigins []string
	Now         func() time.Time
}

type handler struct {
	svc      *core.Service
	accounts Authenticator
	tokens   Tokens
	now      func() time.Time
}

// NewRouter builds the gin engine with every route mounted.
func NewRouter(opts Options) (*gin.Engine, error) {
	if opts.Service == nil || opts.Accounts == nil || opts.Tokens == nil {
		return nil, errors.New("httpapi: service, accounts and tokens are required")
	}
	h := &handler{svc: opts.Service, accounts: opts.Accounts, tokens: opts.Tokens, now: opts.Now}
	if h.now == nil {
		h.now = func() time.Time { return time.Now().UTC() }
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	var requests *requestMetrics
	if opts.Registry != nil {
		requests = newRequestMetrics(opts.Registry)
	}
	engine.Use(requestLogger(opts.Logger, requests))
	if len(opts.CORSOrigins) > 0 {
		cfg := cors.DefaultConfig()
		cfg.AllowOrigins = opts.CORSOrigins
		cfg.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions}
		cfg.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", requestIDHeader}
		cfg.ExposeHeaders = []string{requestIDHeader}
		engine.Use(cors.New(cfg))
	}
	engine.NoRoute(func(c *gin.Context) {
		respondWithError(c, NewAPIError(http.StatusNotFound, ErrCodeNotFound, "route not found", c.Request.URL.Path))
	})

	engine.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	if opts.Registry != nil {
		engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{})))
	}

	api := engine.Group("/api/v1")
	api.POST("/auth/login", h.login)

	authed := api.Group("")
	authed.Use(authRequired(opts.Tokens))
	{
		authed.GET("/me", h.me)
		authed.GET("/labels", h.labels)

		authed.GET("/stores", h.listStores)
		authed.GET("/stores/:id/rooms", h.listRooms)
		authed.GET("/stores/:id/occupancy", h.occupancy)
		authed.GET("/rooms/:id/bookings", h.roomBookings)

		authed.GET("/customers", h.listCustomers)
		authed.POST("/customers", h.addCustomer)
		authed.GET("/customers/:id", h.getCustomer)
		authed.PATCH("/customers/:id", h.updateCustomer)

		authed.GET("/team", h.listTeam)
		authed.POST("/team", h.addTeamMember)
		authed.DELETE("/team/:id", h.removeTeamMember)
		authed.GET("/team/:id/overview", h.staffOverview)

		authed.GET("/bookings", h.listBookings)
		authed.POST("/bookings", h.createBooking)
		authed.GET("/bookings/pending", h.pendingBookings)
		authed.GET("/bookings/:id", h.getBooking)
		authed.POST("/bookings/:id/transitions", h.transitionBooking)

		authed.GET("/recharges", h.listRecharges)
		authed.POST("/recharges", h.createRecharge)
		authed.GET("/recharges/pending", h.pendingRecharges)
		authed.POST("/recharges/:id/transitions", h.transitionRecharge)

		authed.GET("/consumptions", h.listConsumptions)
		authed.POST("/consumptions", h.createConsumption)
		authed.GET("/consumptions/pending", h.pendingConsumptions)
		authed.POST("/consumptions/:id/transitions", h.transitionConsumption)
	}
	return engine, nil
}
