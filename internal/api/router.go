package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/terrasight/tracker-sync/internal/api/handler"
	"github.com/terrasight/tracker-sync/internal/api/middleware"
	"github.com/terrasight/tracker-sync/internal/core/domain"
	"github.com/terrasight/tracker-sync/internal/core/ports"

	_ "github.com/terrasight/tracker-sync/docs"
)

// Dependencies is everything the HTTP layer needs from the core and the
// adapters.
type Dependencies struct {
	JWTSecret string
	FrameRate int
	Log       zerolog.Logger
	Auth      ports.AuthService
	Sync      ports.SyncService
	Trackers  handler.TrackerStore
	Frames    handler.FrameSource
	Logs      ports.TrackerLogRepository
	Locations handler.LocationPublisher
	Readiness map[string]handler.CheckFunc

	// Registerer and Gatherer back the HTTP metrics. Nil means the default
	// Prometheus registry.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "tracker",
		Registerer: deps.Registerer,
	}))

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler(deps.Auth)
	trackingHandler := handler.NewTrackingHandler(deps.Sync)
	deviceHandler := handler.NewDeviceHandler(deps.Locations)
	trackersHandler := handler.NewTrackersHandler(deps.Trackers, deps.Frames, deps.Logs, deps.FrameRate)
	authMiddleware := middleware.Auth(deps.JWTSecret)
	monitorOnly := middleware.RBAC(domain.RoleMonitor)
	monitoring := middleware.RequireMonitoring()

	// --- Auth routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(deps.Readiness)

	e.GET("/health", healthHandler.Liveness)            // liveness: is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness: are dependencies up?

	// --- Observability and docs ---
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: deps.Gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Authenticated API ---
	v1 := e.Group("/v1", authMiddleware)

	v1.GET("/tracking", trackingHandler.Status)
	v1.PUT("/tracking/live", trackingHandler.SetLive)
	v1.PUT("/tracking/broadcast", trackingHandler.SetBroadcast)
	v1.PUT("/tracking/simulation", trackingHandler.SetSimulation)
	v1.PUT("/tracking/status", trackingHandler.SetStatus)

	v1.POST("/device/location", deviceHandler.Location)
	v1.POST("/device/location/error", deviceHandler.LocationError)

	// --- Monitor views (monitor role on a paid tier) ---
	monitor := v1.Group("", monitorOnly, monitoring)

	monitor.GET("/trackers", trackersHandler.List)
	monitor.DELETE("/trackers", trackersHandler.Clear)
	monitor.GET("/trackers/stream", trackersHandler.Stream)
	monitor.GET("/trackers/:user_id", trackersHandler.Get)
	monitor.DELETE("/trackers/:user_id", trackersHandler.Remove)
	monitor.GET("/presence", trackingHandler.Presence)
	monitor.GET("/logs/:identity", trackersHandler.Logs)

	return e
}
