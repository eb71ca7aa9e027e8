package router

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ubuzima-connect/api/internal/config"
	"github.com/ubuzima-connect/api/internal/handler"
	appointmentHandler "github.com/ubuzima-connect/api/internal/handler/appointment"
	authHandler "github.com/ubuzima-connect/api/internal/handler/auth"
	patientHandler "github.com/ubuzima-connect/api/internal/handler/patient"
	userHandler "github.com/ubuzima-connect/api/internal/handler/user"
	"github.com/ubuzima-connect/api/internal/middleware"
	"github.com/ubuzima-connect/api/pkg/metrics"
)

type Router struct {
	engine       *gin.Engine
	auth         *middleware.AuthMiddleware
	authH        *authHandler.Handler
	userH        *userHandler.Handler
	patientH     *patientHandler.Handler
	appointmentH *appointmentHandler.Handler
	h            *handler.Handler
}

func NewRouter(
	auth *middleware.AuthMiddleware,
	authH *authHandler.Handler,
	userH *userHandler.Handler,
	patientH *patientHandler.Handler,
	appointmentH *appointmentHandler.Handler,
	h *handler.Handler,
	m *metrics.Metrics,
	cfg *config.Config,
) *Router {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()

	r := &Router{
		engine:       engine,
		auth:         auth,
		authH:        authH,
		userH:        userH,
		patientH:     patientH,
		appointmentH: appointmentH,
		h:            h,
	}

	timeout := middleware.DefaultTimeoutConfig()
	if cfg.Server.TimeoutSeconds > 0 {
		timeout.Duration = time.Duration(cfg.Server.TimeoutSeconds) * time.Second
	}

	engine.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.ErrorLogger(),
		middleware.Metrics(m),
		middleware.Timeout(timeout),
	)

	corsConfig := middleware.DefaultCORSConfig()
	if len(cfg.Security.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.Security.AllowedOrigins
	}
	engine.Use(middleware.CORS(corsConfig))

	if cfg.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
		engine.Use(limiter.Limit())
	}

	return r
}

func (r *Router) Setup() {
	api := r.engine.Group("/api/v1")

	api.Use(func(c *gin.Context) {
		c.Header("X-API-Version", "1.0")
		c.Next()
	})

	r.setupHealthCheck(api)
	r.setupPublicRoutes(api)

	protected := api.Group("")
	protected.Use(r.auth.Authenticate())
	r.setupProtectedRoutes(protected)
}

func (r *Router) setupHealthCheck(rg *gin.RouterGroup) {
	health := rg.Group("/health")
	{
		health.GET("/live", r.h.LivenessCheck)
		health.GET("/ready", r.h.ReadinessCheck)
		health.GET("/metrics", r.h.MetricsHandler)
	}
}

func (r *Router) setupPublicRoutes(rg *gin.RouterGroup) {
	r.authH.RegisterRoutes(rg)
	r.userH.RegisterPublicRoutes(rg)
}

func (r *Router) setupProtectedRoutes(rg *gin.RouterGroup) {
	r.userH.RegisterProtectedRoutes(rg, r.auth)
	r.patientH.RegisterRoutes(rg, r.auth)
	r.appointmentH.RegisterRoutes(rg, r.auth)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
