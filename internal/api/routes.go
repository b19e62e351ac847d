// routes.go - Route registration and server setup
package api

import (
	"log/slog"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/gobeaver/uploadkit"
	"github.com/gobeaver/uploadkit/policy"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Ingest         uploadkit.IngestOptions
	Fetcher        RemoteFetcher
	Policies       policy.Source
	DefaultPolicy  string
	MaxBodySize    int64
	RemoteMaxBytes int64
	Version        string
	Logger         *slog.Logger
}

// Handlers holds all handler instances
type Handlers struct {
	Health HealthHandler
	Upload UploadHandler
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	return &Handlers{
		Health: NewHealthHandler(deps.Version, deps.Policies),
		Upload: NewUploadHandler(UploadDependencies{
			Ingest:         deps.Ingest,
			Fetcher:        deps.Fetcher,
			Policies:       deps.Policies,
			DefaultPolicy:  deps.DefaultPolicy,
			MaxBodySize:    deps.MaxBodySize,
			RemoteMaxBytes: deps.RemoteMaxBytes,
			Logger:         deps.Logger,
		}),
	}
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	e.GET("/health", handlers.Health.HandleHealth)

	uploadGroup := e.Group("/api/uploads")
	uploadGroup.POST("", handlers.Upload.HandleUpload)
	uploadGroup.POST("/remote", handlers.Upload.HandleRemoteUpload)
}

// SetupMiddleware configures common middleware
func SetupMiddleware(e *echo.Echo, logger *slog.Logger) {
	e.HTTPErrorHandler = NewErrorHandler(logger)

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Debug("request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"request_id", v.RequestID,
			)
			return nil
		},
	}))

	e.Use(middleware.Recover())
}

// NewServer returns an Echo instance with middleware and routes installed.
func NewServer(deps *Dependencies) *echo.Echo {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	SetupMiddleware(e, logger)
	RegisterRoutes(e, NewHandlers(deps))
	return e
}
