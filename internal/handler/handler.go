// Package handler serves the REST API under /api/v1.
package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"health-reminder-api/internal/mail"
	"health-reminder-api/internal/metrics"
	"health-reminder-api/internal/middleware"
	"health-reminder-api/internal/model"
	"health-reminder-api/internal/reminder"
	"health-reminder-api/internal/store"
)

const (
	msgForbidden = "Not enough permissions"
	msgInternal  = "Internal server error"
)

type Deps struct {
	Store       store.Repository
	Dashboard   *reminder.DashboardService
	Mailer      mail.Transport
	Secret      string
	TokenTTL    time.Duration
	FrontendURL string
	Location    *time.Location
	Log         zerolog.Logger
	Clock       func() time.Time
}

type Handler struct {
	store       store.Repository
	dashboard   *reminder.DashboardService
	mailer      mail.Transport
	secret      string
	ttl         time.Duration
	frontendURL string
	loc         *time.Location
	log         zerolog.Logger
	now         func() time.Time
}

func New(d Deps) *Handler {
	h := &Handler{
		store:       d.Store,
		dashboard:   d.Dashboard,
		mailer:      d.Mailer,
		secret:      d.Secret,
		ttl:         d.TokenTTL,
		frontendURL: d.FrontendURL,
		loc:         d.Location,
		log:         d.Log.With().Str("component", "handler").Logger(),
		now:         d.Clock,
	}
	if h.now == nil {
		h.now = time.Now
	}
	if h.loc == nil {
		h.loc = time.UTC
	}
	if h.ttl <= 0 {
		h.ttl = 30 * time.Minute
	}
	return h
}

type RouterOptions struct {
	Limiter     *middleware.RateLimiter
	Metrics     *metrics.Metrics
	FrontendURL string
	Log         zerolog.Logger
}

// NewRouter wires the middleware chain and every route.
func NewRouter(h *Handler, o RouterOptions) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(o.Log), middleware.Metrics(o.Metrics), middleware.CORS(o.FrontendURL))

	limited := func(c *gin.Context) { c.Next() }
	if o.Limiter != nil {
		limited = middleware.RateLimit(o.Limiter)
	}

	r.GET("/", h.Root)
	r.GET("/healthz", h.Health)

	v1 := r.Group("/api/v1")

	a := v1.Group("/auth")
	a.POST("/login/access-token", limited, h.Login)
	a.POST("/forgot-password", limited, h.ForgotPassword)
	a.POST("/reset-password", h.ResetPassword)

	v1.POST("/users/", limited, h.Register)

	authed := v1.Group("", middleware.RequireAuth(h.secret), h.currentUser)
	authed.GET("/users/me", h.Me)
	authed.PUT("/users/me", h.UpdateMe)
	authed.GET("/dashboard/", h.Dashboard)

	meds := authed.Group("/medications")
	meds.GET("/", h.ListMedications)
	meds.POST("/", h.CreateMedication)
	meds.PUT("/:id", h.UpdateMedication)
	meds.DELETE("/:id", h.DeleteMedication)
	meds.POST("/:id/taken", h.MarkTaken)

	appts := authed.Group("/appointments")
	appts.GET("/", h.ListAppointments)
	appts.POST("/", h.CreateAppointment)
	appts.PUT("/:id", h.UpdateAppointment)
	appts.DELETE("/:id", h.DeleteAppointment)

	contacts := authed.Group("/contacts")
	contacts.GET("/", h.ListContacts)
	contacts.POST("/", h.CreateContact)
	contacts.PUT("/:id", h.UpdateContact)
	contacts.DELETE("/:id", h.DeleteContact)

	return r
}

func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Welcome to the Senior Citizen Support API!"})
}

func (h *Handler) Health(c *gin.Context) {
	if err := h.store.Ping(c.Request.Context()); err != nil {
		h.log.Error().Err(err).Msg("health check")
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func abort(c *gin.Context, code int, detail string) {
	c.AbortWithStatusJSON(code, gin.H{"detail": detail})
}

// fail maps store and domain errors to responses. entity names the 404.
func (h *Handler) fail(c *gin.Context, err error, entity string) {
	var ve *model.ValidationError
	switch {
	case errors.As(err, &ve):
		abort(c, http.StatusBadRequest, ve.Message)
	case errors.Is(err, model.ErrNotFound):
		abort(c, http.StatusNotFound, entity+" not found")
	case errors.Is(err, model.ErrForbidden):
		abort(c, http.StatusForbidden, msgForbidden)
	default:
		_ = c.Error(err)
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		abort(c, http.StatusInternalServerError, msgInternal)
	}
}

// bind decodes the JSON body; decoding errors are 422 like any other
// malformed request.
func bind(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		abort(c, http.StatusUnprocessableEntity, err.Error())
		return false
	}
	return true
}

const userKey = "user"

// currentUser loads the token subject; a deleted account is a 404.
func (h *Handler) currentUser(c *gin.Context) {
	u, err := h.store.UserByID(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		h.fail(c, err, "User")
		return
	}
	c.Set(userKey, u)
	c.Next()
}

func user(c *gin.Context) *model.User {
	return c.MustGet(userKey).(*model.User)
}

// loadOwned fetches the entity named by the :id param and checks it belongs
// to the caller: missing is 404, foreign is 403.
func loadOwned[T any](h *Handler, c *gin.Context, entity string, get func(context.Context, string) (*T, error), owner func(*T) string) (*T, bool) {
	v, err := get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err, entity)
		return nil, false
	}
	if owner(v) != user(c).ID {
		h.fail(c, model.ErrForbidden, entity)
		return nil, false
	}
	return v, true
}

// list returns [] rather than null for an empty result.
func list[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
